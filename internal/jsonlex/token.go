// Package jsonlex implements the chunk-boundary-tolerant JSON tokenizer and
// path tracker that the path-filtered splitter is built on. It recognizes
// the subset of JSON the actionpacket wire format actually produces; it is
// not a general-purpose validator.
package jsonlex

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// NeedMore indicates the buffer does not yet hold a complete token.
	// The caller must feed more bytes and retry from the same position.
	NeedMore Kind = iota
	ObjectOpen
	ObjectClose
	ArrayOpen
	ArrayClose
	Key
	ScalarString
	ScalarNumber
	ScalarBool
	ScalarNull
	Colon
	Comma
	// Error indicates malformed input; see ErrKind for detail.
	Error
)

func (k Kind) String() string {
	switch k {
	case NeedMore:
		return "NeedMore"
	case ObjectOpen:
		return "ObjectOpen"
	case ObjectClose:
		return "ObjectClose"
	case ArrayOpen:
		return "ArrayOpen"
	case ArrayClose:
		return "ArrayClose"
	case Key:
		return "Key"
	case ScalarString:
		return "ScalarString"
	case ScalarNumber:
		return "ScalarNumber"
	case ScalarBool:
		return "ScalarBool"
	case ScalarNull:
		return "ScalarNull"
	case Colon:
		return "Colon"
	case Comma:
		return "Comma"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrKind distinguishes the reason a scanner Error token was produced.
type ErrKind int

const (
	// ErrNone is the zero value; never set on an Error token.
	ErrNone ErrKind = iota
	// ErrSyntax indicates an unexpected byte for the current scan state.
	ErrSyntax
)

// Token is one lexical unit recognized by the Scanner.
//
// Literal is only meaningful for Key, ScalarString (both with JSON escapes
// undecoded — callers that need the decoded string value must unescape it
// themselves) and ScalarNumber (the raw numeric text, unparsed). ScalarBool
// carries no Literal; its value is in BoolValue. Literal is a view into the
// caller-owned buffer and is valid only until the next Scanner call.
type Token struct {
	Kind      Kind
	Literal   []byte
	BoolValue bool
	ErrKind   ErrKind
	// Start is the byte offset, relative to the buffer passed to Scan, of
	// the first byte of this token.
	Start int
	// End is the byte offset one past the last byte of this token.
	End int
}
