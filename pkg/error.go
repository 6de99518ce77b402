package pkg

import (
	"errors"
	"log/slog"
	"strings"
)

// Error is an error carrying structured logging attributes.
//
// Every package of resgen declares its sentinel values with [NewError] and
// decorates them at the failure site:
//
//	return ErrMalformedInput.
//		With(slog.String("file", path), slog.Int64("offset", off)).
//		Wrap(err)
//
// Errors derived from a sentinel with [Error.Wrap] or [Error.With] still
// match it with [errors.Is].
type Error struct {
	msg    string
	err    error
	attrs  []slog.Attr
	origin *Error
}

// NewError returns a sentinel Error with the given message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError returns err as an *Error, wrapping it when it is not one already.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || e.root() == t.root()
}

func (e *Error) root() *Error {
	if e.origin != nil {
		return e.origin
	}

	return e
}

// Attrs returns a copy of the attributes attached to e.
func (e *Error) Attrs() []slog.Attr {
	return append([]slog.Attr(nil), e.attrs...)
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:    e.msg,
		err:    err,
		attrs:  e.attrs,
		origin: e.root(),
	}
}

// With returns a copy of e with additional attributes.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{
		msg:    e.msg,
		err:    e.err,
		attrs:  merged,
		origin: e.root(),
	}
}

// Errors accumulates independent failures so that one pass can report all of
// them at once.
type Errors []error

// Add appends err unless it is nil.
func (e *Errors) Add(err error) {
	if err != nil {
		*e = append(*e, err)
	}
}

// Len returns the number of collected errors.
func (e Errors) Len() int { return len(e) }

// Join returns nil when no errors were collected, or all of them joined
// with [errors.Join].
func (e Errors) Join() error {
	if len(e) == 0 {
		return nil
	}

	return errors.Join(e...)
}
