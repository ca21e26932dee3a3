// Package errors carries the error kinds surfaced at the service boundary.
package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindRender       Kind = "render"
	KindStorage      Kind = "storage"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
)

type Error struct {
	Kind Kind
	Op   string
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Code != "" {
		msg = e.Code
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func Validation(op, code string, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Code: code, Err: fmt.Errorf(format, args...)}
}

func Conflict(op, code string, err error) error {
	return &Error{Kind: KindConflict, Op: op, Code: code, Err: err}
}

func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStorage, Op: op, Code: "storage_unavailable", Err: err}
}

func NotFound(op, code string) error {
	return &Error{Kind: KindNotFound, Op: op, Code: code, Err: ErrNotFound}
}

func Unauthorized(op string, err error) error {
	if err == nil {
		err = ErrUnauthorized
	}
	return &Error{Kind: KindUnauthorized, Op: op, Code: "unauthorized", Err: err}
}

// kinded lets other packages (render) report a kind without importing Error.
type kinded interface {
	ErrorKind() Kind
}

// KindOf returns the outermost kind found in err's chain, or "" when none.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Kind
		case kinded:
			return e.ErrorKind()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
