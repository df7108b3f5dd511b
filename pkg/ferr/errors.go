// Package ferr defines the typed error kinds shared across the execution
// engine (parser, resolver, interpreter, tool registry, LLM mediator).
package ferr

import "fmt"

// Kind is one of the error categories the engine can produce.
type Kind string

const (
	KindParse       Kind = "ParseError"
	KindBlockNotFnd Kind = "BlockNotFound"
	KindFileNotFnd  Kind = "FileNotFound"
	KindTool        Kind = "ToolError"
	KindLLM         Kind = "LLMError"
	KindShell       Kind = "ShellError"
	KindCancelled   Kind = "Cancelled"
	KindInternal    Kind = "Internal"
	KindChildFailed Kind = "ChildFailed"
)

// Error is the uniform error value produced by every engine component.
// Grounded on gert's schema.ValidationError (kind + message + optional
// path), extended with an Unwrap so a ChildFailed can carry the original
// cause up through nested @run frames.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no path or cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At attaches a location path to an error copy.
func (e *Error) At(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// Wrap builds an Error that carries an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ChildFailed wraps a child @run's failure for the caller's frame.
func ChildFailed(cause error) *Error {
	return &Error{Kind: KindChildFailed, Message: "child run failed", Cause: cause}
}

// ExitCode maps an error's Kind to the CLI exit codes: 0 for nil, 1 for a
// ParseError, 3 for Cancelled, and 2 for every other Kind or any error
// that is not an *Error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *Error
	if e, ok := err.(*Error); ok {
		fe = e
	} else {
		return 2
	}
	switch fe.Kind {
	case KindParse:
		return 1
	case KindCancelled:
		return 3
	default:
		return 2
	}
}
