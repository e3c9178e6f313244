package jsonlex

import "fmt"

// FilterAction is the instruction a FilterFunc returns to the Splitter.
type FilterAction int

const (
	// Continue lets the splitter keep emitting events normally.
	Continue FilterAction = iota
	// SkipValue makes the splitter silently consume balanced events until
	// the current value closes, then resume.
	SkipValue
	// Abort transitions the splitter into its absorbing error state.
	Abort
)

// EventKind distinguishes entering a matched path from leaving it.
type EventKind int

const (
	// Enter fires when a container opens at a matched path, or when a
	// scalar value is produced at a matched path: the object-member path
	// for a member value, or the enclosing array's own path for an array
	// element.
	Enter EventKind = iota
	// Exit fires when a container at a matched path closes. Scalar
	// matches never produce an Exit event.
	Exit
)

// Reserved filter path keys, never reachable by a real container or
// member path.
const (
	PathStart = "<"
	PathEnd   = ">"
	PathError = "E"
)

// FilterEvent describes one filter invocation.
type FilterEvent struct {
	Path   string
	Kind   EventKind
	Offset int
	Token  Token
}

// FilterFunc is a callback registered against an exact canonical path.
type FilterFunc func(FilterEvent) FilterAction

// SyntaxError is returned by Run when the underlying token stream is
// malformed and the registered "E" filter (if any) did not recover.
type SyntaxError struct {
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jsonlex: syntax error at offset %d", e.Offset)
}

type containerFrame struct {
	isObject    bool
	awaitingKey bool
}

// Splitter drives the Scanner and PathTracker over a byte view, invoking
// registered filters at matched paths. It holds no reference to the
// buffer across calls to Run; callers own buffering.
type Splitter struct {
	path       *PathTracker
	filters    map[string]FilterFunc
	containers []containerFrame

	tokenObserver func(offset int, tok Token)

	started bool
	ended   bool
	aborted bool

	skipping      bool
	skipBalance   int
	skipRequested bool
}

// NewSplitter returns a Splitter with no filters registered.
func NewSplitter() *Splitter {
	return &Splitter{
		path:    NewPathTracker(),
		filters: make(map[string]FilterFunc),
	}
}

// SetFilter registers (or replaces) the callback for an exact path.
func (s *Splitter) SetFilter(path string, fn FilterFunc) {
	s.filters[path] = fn
}

// SetTokenObserver installs a callback invoked for every token processed
// outside of skip-mode, before path-filter dispatch. It is the mechanism
// by which a host (the ActionPacket Dispatcher) can track byte accounting
// that does not map cleanly onto a single matched path, such as detecting
// an oversized packet mid-stream.
func (s *Splitter) SetTokenObserver(fn func(offset int, tok Token)) {
	s.tokenObserver = fn
}

// Depth reports the current container nesting depth.
func (s *Splitter) Depth() int { return s.path.Depth() }

// Path reports the current canonical path.
func (s *Splitter) Path() string { return s.path.String() }

// Ended reports whether the top-level value has closed.
func (s *Splitter) Ended() bool { return s.ended }

// Started reports whether any token has been processed yet.
func (s *Splitter) Started() bool { return s.started }

// Aborted reports whether the splitter is in its absorbing error state.
func (s *Splitter) Aborted() bool { return s.aborted }

// SkipRemainder requests that the splitter abandon the container it is
// currently inside, without emitting an Exit event for it, resuming
// normal processing once the matching close is reached. It is meant to be
// called from within a token observer when a host-level size limit is
// breached mid-container.
func (s *Splitter) SkipRemainder() {
	s.skipRequested = true
}

// Reset returns the splitter to its initial state, ready to process a new
// document. Registered filters and the token observer are preserved.
func (s *Splitter) Reset() {
	s.path.Reset()
	s.containers = s.containers[:0]
	s.started = false
	s.ended = false
	s.aborted = false
	s.skipping = false
	s.skipBalance = 0
	s.skipRequested = false
}

// Run processes as much of data (from offset 0) as it can without
// blocking. It returns the number of leading bytes that are fully
// processed and safe to discard; the caller must retain data[retain:] (or
// the physical buffer's offset-equivalent) and re-invoke Run with more
// bytes appended once available. An error is returned only for
// non-recoverable syntax/structure failures; the splitter then latches
// Aborted() and Run becomes a no-op returning 0.
func (s *Splitter) Run(data []byte) (retain int, err error) {
	if s.aborted {
		return 0, nil
	}
	if s.ended {
		return len(data), nil
	}

	pos := 0
	for {
		tok := Scan(data, pos)

		if !s.started && tok.Kind != NeedMore {
			s.started = true
			s.fireReserved(PathStart, tok.Start, tok)
		}

		switch tok.Kind {
		case NeedMore:
			return tok.Start, nil
		case Error:
			action := s.fireReserved(PathError, tok.Start, tok)
			if action == SkipValue {
				next, ok := skipToNextComma(data, tok.End, s.path.Depth())
				if ok {
					pos = next
					continue
				}
			}
			s.aborted = true
			return pos, &SyntaxError{Offset: tok.Start}
		}

		pos = tok.End

		if s.tokenObserver != nil && !s.skipping {
			s.tokenObserver(tok.Start, tok)
		}

		if s.skipRequested && !s.skipping {
			s.skipping = true
			s.skipBalance = 0
			s.skipRequested = false
		}

		if s.skipping {
			switch tok.Kind {
			case ObjectOpen, ArrayOpen:
				s.skipBalance++
			case ObjectClose, ArrayClose:
				if s.skipBalance == 0 {
					s.skipping = false
					s.popContainer()
					s.path.Pop()
					if s.path.Depth() == 0 {
						s.fireReserved(PathEnd, tok.End, tok)
						s.ended = true
						return len(data), nil
					}
				} else {
					s.skipBalance--
				}
			}
			continue
		}

		s.dispatch(tok)
		if s.aborted {
			return pos, nil
		}
		if s.ended {
			return len(data), nil
		}
	}
}

func (s *Splitter) dispatch(tok Token) {
	switch tok.Kind {
	case ObjectOpen:
		s.path.PushObject()
		s.pushContainer(true)
		s.fireEnter(tok)
	case ArrayOpen:
		s.path.PushArray()
		s.pushContainer(false)
		s.fireEnter(tok)
	case ObjectClose, ArrayClose:
		top := s.topContainer()
		mismatched := top == nil || (tok.Kind == ObjectClose) != top.isObject
		if mismatched {
			s.fireReserved(PathError, tok.Start, tok)
			s.aborted = true
			return
		}
		if len(s.path.PendingKey()) > 0 {
			// A member key followed directly by the close has no value:
			// reported as a syntax error rather than a structural one.
			errTok := Token{Kind: Error, ErrKind: ErrSyntax, Start: tok.Start, End: tok.End}
			s.fireReserved(PathError, tok.Start, errTok)
			s.aborted = true
			return
		}
		s.fireExit(tok)
		s.popContainer()
		s.path.Pop()
		s.markValueConsumed()
		if s.aborted {
			return
		}
		if s.path.Depth() == 0 {
			s.fireReserved(PathEnd, tok.End, tok)
			s.ended = true
		}
	case Key:
		// Never produced by Scan directly; kept for completeness of the
		// token Kind enum.
	case ScalarString, ScalarNumber, ScalarBool, ScalarNull:
		s.handleScalar(tok)
	case Colon:
		// Purely structural; no path effect.
	case Comma:
		if top := s.topContainer(); top != nil && top.isObject {
			top.awaitingKey = true
			s.path.ClearPendingKey()
		}
	}
}

func (s *Splitter) handleScalar(tok Token) {
	top := s.topContainer()
	if top != nil && top.isObject && top.awaitingKey {
		// This string is a key, not a value.
		s.path.SetKey(tok.Literal)
		top.awaitingKey = false
		return
	}
	path := s.path.MemberPath()
	if f, ok := s.filters[path]; ok {
		action := f(FilterEvent{Path: path, Kind: Enter, Offset: tok.Start, Token: tok})
		if action == Abort {
			s.aborted = true
		}
	}
	s.markValueConsumed()
}

// markValueConsumed clears the pending member key once a value (scalar or
// just-closed container) has been fully accounted for, and leaves the
// parent object not awaiting a key; the next comma sets that flag again.
func (s *Splitter) markValueConsumed() {
	s.path.ClearPendingKey()
	if top := s.topContainer(); top != nil && top.isObject {
		top.awaitingKey = false
	}
}

func (s *Splitter) fireEnter(tok Token) {
	path := s.path.String()
	f, ok := s.filters[path]
	if !ok {
		return
	}
	action := f(FilterEvent{Path: path, Kind: Enter, Offset: tok.Start, Token: tok})
	switch action {
	case SkipValue:
		s.skipping = true
		s.skipBalance = 0
	case Abort:
		s.aborted = true
	}
}

func (s *Splitter) fireExit(tok Token) {
	path := s.path.String()
	f, ok := s.filters[path]
	if !ok {
		return
	}
	action := f(FilterEvent{Path: path, Kind: Exit, Offset: tok.End, Token: tok})
	if action == Abort {
		s.aborted = true
	}
}

func (s *Splitter) fireReserved(path string, offset int, tok Token) FilterAction {
	f, ok := s.filters[path]
	if !ok {
		return Continue
	}
	return f(FilterEvent{Path: path, Kind: Enter, Offset: offset, Token: tok})
}

func (s *Splitter) pushContainer(isObject bool) {
	s.containers = append(s.containers, containerFrame{isObject: isObject, awaitingKey: isObject})
}

func (s *Splitter) popContainer() {
	if len(s.containers) == 0 {
		return
	}
	s.containers = s.containers[:len(s.containers)-1]
}

func (s *Splitter) topContainer() *containerFrame {
	if len(s.containers) == 0 {
		return nil
	}
	return &s.containers[len(s.containers)-1]
}

// skipToNextComma implements the "E" filter's Skip recovery: best-effort
// scanning forward for a comma at the same bracket-nesting balance as the
// point of failure, tolerating nested strings/containers along the way.
// It returns ok=false if the end of the buffer is reached first.
func skipToNextComma(data []byte, from int, _ int) (int, bool) {
	balance := 0
	i := from
	for i < len(data) {
		switch data[i] {
		case '"':
			// Skip the whole string literal, including escapes.
			j := i + 1
			for j < len(data) && data[j] != '"' {
				if data[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(data) {
				return 0, false
			}
			i = j + 1
			continue
		case '{', '[':
			balance++
		case '}', ']':
			if balance == 0 {
				return 0, false
			}
			balance--
		case ',':
			if balance == 0 {
				return i + 1, true
			}
		}
		i++
	}
	return 0, false
}
