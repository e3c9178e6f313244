package actionstream

import "fmt"

// ErrorKind identifies the origin and severity class of a parser error.
// Names are indicative of the condition, not tied to any particular
// source component.
type ErrorKind int

const (
	// ErrNone is the zero value; never reported to an ErrorHandler.
	ErrNone ErrorKind = iota
	// ErrSyntax: the scanner encountered a malformed JSON token. Fatal.
	ErrSyntax
	// ErrStructure: the splitter saw an unexpected close or nesting that
	// does not match the document it is walking. Fatal.
	ErrStructure
	// ErrMissingActionCode: a packet object has no "a" field. Recoverable;
	// the offending packet is dropped and parsing continues.
	ErrMissingActionCode
	// ErrPacketTooLarge: a packet's staged size exceeds MaxPacketBytes.
	// Recoverable; the offending packet is dropped.
	ErrPacketTooLarge
	// ErrBufferOverrun: the retained byte buffer exceeds MaxBufferBytes.
	// Fatal.
	ErrBufferOverrun
	// ErrHandlerFailure: a packet handler returned a non-nil error.
	// Fatal unless Config.HandlerFailurePolicy is PolicyContinue.
	ErrHandlerFailure
	// ErrBatchFlushFailure: a node-batch handler returned a non-nil
	// error. Fatal unless Config.HandlerFailurePolicy is PolicyContinue.
	ErrBatchFlushFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "Syntax"
	case ErrStructure:
		return "Structure"
	case ErrMissingActionCode:
		return "MissingActionCode"
	case ErrPacketTooLarge:
		return "PacketTooLarge"
	case ErrBufferOverrun:
		return "BufferOverrun"
	case ErrHandlerFailure:
		return "HandlerFailure"
	case ErrBatchFlushFailure:
		return "BatchFlushFailure"
	default:
		return "None"
	}
}

// fatal reports whether errors of this kind, by themselves, latch the
// parser's absorbing error state. ErrHandlerFailure and
// ErrBatchFlushFailure are conditionally fatal and are evaluated against
// Config.HandlerFailurePolicy by the caller instead of here.
func (k ErrorKind) fatal() bool {
	switch k {
	case ErrSyntax, ErrStructure, ErrBufferOverrun:
		return true
	default:
		return false
	}
}

// ParseError wraps one reported condition with the offset it occurred at
// and, where available, the underlying cause.
type ParseError struct {
	Kind      ErrorKind
	Op        string
	Offset    int
	Recovered bool
	Err       error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("actionstream: %s during %s at offset %d: %v", e.Kind, e.Op, e.Offset, e.Err)
	}
	return fmt.Sprintf("actionstream: %s during %s at offset %d", e.Kind, e.Op, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.Err }
