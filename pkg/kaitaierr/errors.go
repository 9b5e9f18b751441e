// Package kaitaierr defines the tagged error taxonomy shared by every layer
// of the interpreter (stream, codecs, schema validation, expression
// evaluation, type interpretation).
package kaitaierr

import (
	"fmt"
	"strings"
)

// Kind tags an Error with the taxonomy of §4.2.
type Kind int

const (
	// EndOfStream is raised by the stream reader when a read would exceed
	// the logical length of the underlying region.
	EndOfStream Kind = iota
	// ParseError covers malformed encodings, bad codec input, expression
	// type mismatches, unknown methods, and unresolved types/enums.
	ParseError
	// ValidationError covers schema well-formedness problems and
	// contents/valid mismatches discovered while interpreting a stream.
	ValidationError
	// NotImplemented is reserved for algorithms and features named in the
	// spec but not reachable from the current build (e.g. streaming-mode
	// operations that require backtracking).
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case EndOfStream:
		return "EndOfStream"
	case ParseError:
		return "ParseError"
	case ValidationError:
		return "ValidationError"
	case NotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// Error is the single concrete error type produced anywhere in the core.
// It is always a value: nothing in the happy or recoverable paths panics.
type Error struct {
	Kind      Kind
	Message   string
	Pos       *int64 // byte position, when known
	FieldPath string // dotted field path, when raised from within J
	Cause     error
	context   []byte // underlying bytes available for a hex dump, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.FieldPath != "" {
		fmt.Fprintf(&b, " (field %s)", e.FieldPath)
	}
	if e.Pos != nil {
		fmt.Fprintf(&b, " at offset 0x%x", *e.Pos)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %s", e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, kaitaierr.Sentinel(kaitaierr.EndOfStream)) etc.
// work: a target carrying only a Kind matches any *Error of that Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Pos == nil && t.Cause == nil {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Sentinel returns a bare *Error usable with errors.Is to test for a Kind,
// e.g. errors.Is(err, kaitaierr.Sentinel(kaitaierr.EndOfStream)).
func Sentinel(k Kind) *Error { return &Error{Kind: k} }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// NewEndOfStream builds an EndOfStream error at the given position, the
// position at which the short read began (not where it would have ended).
func NewEndOfStream(pos int64, format string, args ...any) *Error {
	e := newErr(EndOfStream, format, args...)
	e.Pos = &pos
	return e
}

// NewParseError builds a ParseError, optionally positioned.
func NewParseError(format string, args ...any) *Error {
	return newErr(ParseError, format, args...)
}

// NewValidationError builds a ValidationError, optionally positioned.
func NewValidationError(format string, args ...any) *Error {
	return newErr(ValidationError, format, args...)
}

// NewNotImplemented builds a NotImplemented error.
func NewNotImplemented(format string, args ...any) *Error {
	return newErr(NotImplemented, format, args...)
}

// WithPos attaches a byte position to e and returns e for chaining.
func (e *Error) WithPos(pos int64) *Error {
	e.Pos = &pos
	return e
}

// WithField attaches a dotted field path to e and returns e for chaining.
func (e *Error) WithField(path string) *Error {
	e.FieldPath = path
	return e
}

// WithCause wraps an underlying error and returns e for chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext attaches the raw bytes surrounding the faulting position so
// HexContext can render a 32-byte window.
func (e *Error) WithContext(data []byte) *Error {
	e.context = data
	return e
}

// HexContext renders a 32-byte hex/ASCII window centered (as closely as
// bounds allow) on e.Pos, with a "<--" marker under the faulting byte. It
// returns "" if no position or context bytes are available.
func (e *Error) HexContext() string {
	if e.Pos == nil || e.context == nil {
		return ""
	}
	const window = 32
	pos := int(*e.Pos)
	if pos < 0 || pos > len(e.context) {
		return ""
	}
	start := pos - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(e.context) {
		end = len(e.context)
		start = end - window
		if start < 0 {
			start = 0
		}
	}
	slice := e.context[start:end]

	var hexLine, asciiLine, markerLine strings.Builder
	for i, b := range slice {
		fmt.Fprintf(&hexLine, "%02x ", b)
		if b >= 0x20 && b < 0x7f {
			asciiLine.WriteByte(b)
		} else {
			asciiLine.WriteByte('.')
		}
		if start+i == pos {
			markerLine.WriteString("^^ ")
		} else {
			markerLine.WriteString("   ")
		}
	}
	var out strings.Builder
	fmt.Fprintf(&out, "%s\n%s\n%s<-- offset 0x%x\n", hexLine.String(), asciiLine.String(), markerLine.String(), pos)
	return out.String()
}
