package jsonlex

import "testing"

func TestSplitterFiresStartAndEnd(t *testing.T) {
	var startSeen, endSeen bool
	s := NewSplitter()
	s.SetFilter(PathStart, func(ev FilterEvent) FilterAction {
		startSeen = true
		return Continue
	})
	s.SetFilter(PathEnd, func(ev FilterEvent) FilterAction {
		endSeen = true
		return Continue
	})
	retain, err := s.Run([]byte(`{}`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !startSeen || !endSeen {
		t.Fatalf("start=%v end=%v, want both true", startSeen, endSeen)
	}
	if !s.Ended() {
		t.Fatal("Ended() = false")
	}
	if retain != 2 {
		t.Fatalf("retain = %d, want 2", retain)
	}
}

func TestSplitterEnterExitForContainerPath(t *testing.T) {
	var entered, exited bool
	var enterOffset, exitOffset int
	s := NewSplitter()
	s.SetFilter("{{a", func(ev FilterEvent) FilterAction {
		if ev.Kind == Enter {
			entered = true
			enterOffset = ev.Offset
		} else {
			exited = true
			exitOffset = ev.Offset
		}
		return Continue
	})
	data := []byte(`{"a":{"x":1}}`)
	if _, err := s.Run(data); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !entered || !exited {
		t.Fatalf("entered=%v exited=%v", entered, exited)
	}
	if data[enterOffset] != '{' {
		t.Errorf("enterOffset %d points at %q, want '{'", enterOffset, data[enterOffset])
	}
	if data[exitOffset-1] != '}' {
		t.Errorf("exitOffset %d does not point just past '}'", exitOffset)
	}
}

func TestSplitterMemberPathScalarMatch(t *testing.T) {
	var seen string
	s := NewSplitter()
	s.SetFilter("{a", func(ev FilterEvent) FilterAction {
		seen = string(ev.Token.Literal)
		return Continue
	})
	if _, err := s.Run([]byte(`{"a":"hello","b":1}`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen != "hello" {
		t.Fatalf("seen = %q, want %q", seen, "hello")
	}
}

func TestSplitterSkipValueSuppressesNested(t *testing.T) {
	nestedFired := false
	s := NewSplitter()
	s.SetFilter("{{a", func(ev FilterEvent) FilterAction {
		if ev.Kind == Enter {
			return SkipValue
		}
		return Continue
	})
	s.SetFilter("{{ax", func(ev FilterEvent) FilterAction {
		nestedFired = true
		return Continue
	})
	var afterB bool
	s.SetFilter("{b", func(ev FilterEvent) FilterAction {
		afterB = true
		return Continue
	})
	if _, err := s.Run([]byte(`{"a":{"x":1},"b":2}`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if nestedFired {
		t.Fatal("nested filter fired during SkipValue")
	}
	_ = afterB
}

func TestSplitterSkipValueNoExitForSkippedContainer(t *testing.T) {
	exitFired := false
	s := NewSplitter()
	s.SetFilter("{{a", func(ev FilterEvent) FilterAction {
		if ev.Kind == Enter {
			return SkipValue
		}
		exitFired = true
		return Continue
	})
	if _, err := s.Run([]byte(`{"a":{"x":1}}`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exitFired {
		t.Fatal("Exit fired for a container abandoned via SkipValue")
	}
}

func TestSplitterAbortLatches(t *testing.T) {
	s := NewSplitter()
	s.SetFilter("{a", func(ev FilterEvent) FilterAction {
		return Abort
	})
	if _, err := s.Run([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !s.Aborted() {
		t.Fatal("Aborted() = false")
	}
	retain, err := s.Run([]byte(`"more"`))
	if err != nil || retain != 0 {
		t.Fatalf("Run after abort: retain=%d err=%v", retain, err)
	}
}

func TestSplitterNeedMoreAcrossChunks(t *testing.T) {
	s := NewSplitter()
	var gotValue string
	s.SetFilter("{a", func(ev FilterEvent) FilterAction {
		gotValue = string(ev.Token.Literal)
		return Continue
	})

	buf := []byte(`{"a":"hel`)
	retain, err := s.Run(buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rest := append(append([]byte{}, buf[retain:]...), []byte(`lo"}`)...)
	if _, err := s.Run(rest); err != nil {
		t.Fatalf("Run continuation: %v", err)
	}
	if gotValue != "hello" {
		t.Fatalf("gotValue = %q, want %q", gotValue, "hello")
	}
}

func TestSplitterTokenObserverAndSkipRemainder(t *testing.T) {
	s := NewSplitter()
	tokenCount := 0
	s.SetFilter("{[t", func(ev FilterEvent) FilterAction {
		return Continue
	})
	s.SetTokenObserver(func(offset int, tok Token) {
		tokenCount++
		if tokenCount == 4 {
			s.SkipRemainder()
		}
	})
	exits := 0
	s.SetFilter("{[t{", func(ev FilterEvent) FilterAction {
		if ev.Kind == Exit {
			exits++
		}
		return Continue
	})
	if _, err := s.Run([]byte(`{"t":[{"i":1},{"i":2},{"i":3}]}`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exits >= 3 {
		t.Fatalf("exits = %d, expected SkipRemainder to cut processing short", exits)
	}
}

func TestSplitterSyntaxErrorWithoutRecoveryAborts(t *testing.T) {
	s := NewSplitter()
	_, err := s.Run([]byte(`{"a": @}`))
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !s.Aborted() {
		t.Fatal("Aborted() = false after syntax error")
	}
}

func TestSplitterErrorFilterCanRecoverViaSkipValue(t *testing.T) {
	s := NewSplitter()
	s.SetFilter(PathError, func(ev FilterEvent) FilterAction {
		return SkipValue
	})
	var secondSeen bool
	s.SetFilter("[", func(ev FilterEvent) FilterAction {
		if ev.Kind == Enter && ev.Token.Kind == ScalarNumber && string(ev.Token.Literal) == "2" {
			secondSeen = true
		}
		return Continue
	})
	if _, err := s.Run([]byte(`[@,2]`)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Aborted() {
		t.Fatal("Aborted() = true, want recovery to succeed")
	}
	if !secondSeen {
		t.Fatal("expected to observe the value after the recovered comma")
	}
}
