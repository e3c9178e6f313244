package jsonlex

import "testing"

func TestScanStructural(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{"{", ObjectOpen},
		{"}", ObjectClose},
		{"[", ArrayOpen},
		{"]", ArrayClose},
		{":", Colon},
		{",", Comma},
	}
	for _, c := range cases {
		tok := Scan([]byte(c.in), 0)
		if tok.Kind != c.kind {
			t.Errorf("Scan(%q) kind = %v, want %v", c.in, tok.Kind, c.kind)
		}
		if tok.Start != 0 || tok.End != 1 {
			t.Errorf("Scan(%q) span = [%d,%d), want [0,1)", c.in, tok.Start, tok.End)
		}
	}
}

func TestScanSkipsWhitespace(t *testing.T) {
	tok := Scan([]byte("   \t\n {"), 0)
	if tok.Kind != ObjectOpen || tok.Start != 6 {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanStringComplete(t *testing.T) {
	tok := Scan([]byte(`"hello"`), 0)
	if tok.Kind != ScalarString {
		t.Fatalf("kind = %v", tok.Kind)
	}
	if string(tok.Literal) != "hello" {
		t.Fatalf("literal = %q", tok.Literal)
	}
	if tok.End != 7 {
		t.Fatalf("end = %d", tok.End)
	}
}

func TestScanStringWithEscapes(t *testing.T) {
	tok := Scan([]byte(`"a\"b\\c"`), 0)
	if tok.Kind != ScalarString {
		t.Fatalf("kind = %v", tok.Kind)
	}
	if string(tok.Literal) != `a\"b\\c` {
		t.Fatalf("literal = %q", tok.Literal)
	}
}

func TestScanStringTruncatedNeedsMore(t *testing.T) {
	cases := []string{`"hello`, `"a\`, `"a\u12`}
	for _, in := range cases {
		tok := Scan([]byte(in), 0)
		if tok.Kind != NeedMore {
			t.Errorf("Scan(%q) = %v, want NeedMore", in, tok.Kind)
		}
	}
}

func TestScanStringWithUnicodeEscape(t *testing.T) {
	tok := Scan([]byte("\"a\\u00e9b\""), 0)
	if tok.Kind != ScalarString {
		t.Fatalf("kind = %v", tok.Kind)
	}
	if string(tok.Literal) != "a\\u00e9b" {
		t.Fatalf("literal = %q", tok.Literal)
	}
}

func TestScanNumber(t *testing.T) {
	cases := []struct {
		in  string
		lit string
	}{
		{"123,", "123"},
		{"-45.6}", "-45.6"},
		{"1e10]", "1e10"},
		{"-1.5E-3 ", "-1.5E-3"},
	}
	for _, c := range cases {
		tok := Scan([]byte(c.in), 0)
		if tok.Kind != ScalarNumber {
			t.Fatalf("Scan(%q) kind = %v", c.in, tok.Kind)
		}
		if string(tok.Literal) != c.lit {
			t.Errorf("Scan(%q) literal = %q, want %q", c.in, tok.Literal, c.lit)
		}
	}
}

func TestScanNumberAtBufferEndNeedsMore(t *testing.T) {
	tok := Scan([]byte("123"), 0)
	if tok.Kind != NeedMore {
		t.Fatalf("kind = %v, want NeedMore", tok.Kind)
	}
}

func TestScanBooleanAndNull(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		b    bool
	}{
		{"true,", ScalarBool, true},
		{"false]", ScalarBool, false},
		{"null}", ScalarNull, false},
	}
	for _, c := range cases {
		tok := Scan([]byte(c.in), 0)
		if tok.Kind != c.kind {
			t.Fatalf("Scan(%q) kind = %v, want %v", c.in, tok.Kind, c.kind)
		}
		if tok.Kind == ScalarBool && tok.BoolValue != c.b {
			t.Errorf("Scan(%q) bool = %v, want %v", c.in, tok.BoolValue, c.b)
		}
	}
}

func TestScanPartialLiteralNeedsMore(t *testing.T) {
	for _, in := range []string{"tru", "fals", "nul"} {
		tok := Scan([]byte(in), 0)
		if tok.Kind != NeedMore {
			t.Errorf("Scan(%q) = %v, want NeedMore", in, tok.Kind)
		}
	}
}

func TestScanLiteralMismatchIsError(t *testing.T) {
	tok := Scan([]byte("trux"), 0)
	if tok.Kind != Error {
		t.Fatalf("kind = %v, want Error", tok.Kind)
	}
}

func TestScanInvalidByteIsError(t *testing.T) {
	tok := Scan([]byte("@"), 0)
	if tok.Kind != Error || tok.ErrKind != ErrSyntax {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanResumesFromSamePosition(t *testing.T) {
	partial := []byte(`"hel`)
	tok := Scan(partial, 0)
	if tok.Kind != NeedMore {
		t.Fatalf("kind = %v, want NeedMore", tok.Kind)
	}
	full := []byte(`"hello"`)
	tok = Scan(full, tok.Start)
	if tok.Kind != ScalarString || string(tok.Literal) != "hello" {
		t.Fatalf("got %+v", tok)
	}
}
