// Package kerror models the failures of a graph execution: generic errors,
// timeouts, stalls and the collapse of several concurrent failures into one.
//
// All variants share the single Error type and are told apart by Kind:
//
//	switch kerror.KindOf(err) {
//	case kerror.KindTimeout:
//	    // retry with a longer bound
//	case kerror.KindStall:
//	    // scheduler bug, never retry
//	}
//
// errors.Is works against the kind sentinels ErrTimeout, ErrStall and
// ErrMulti, and for a Multi error against any aggregated error.
package kerror

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Kind discriminates the variants of Error.
type Kind int

const (
	KindGeneric Kind = iota
	KindTimeout
	KindStall
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "Generic"
	case KindTimeout:
		return "Timeout"
	case KindStall:
		return "Stall"
	case KindMulti:
		return "Multi"
	default:
		return "Unknown"
	}
}

// Kind sentinels, for errors.Is.
var (
	ErrTimeout = &Error{kind: KindTimeout, msg: "timeout", sentinel: true}
	ErrStall   = &Error{kind: KindStall, msg: "stall", sentinel: true}
	ErrMulti   = &Error{kind: KindMulti, msg: "multiple errors", sentinel: true}
)

// Error is a graph execution failure. Values are immutable once built.
type Error struct {
	kind  Kind
	msg   string
	cause error

	// KindTimeout
	ms int64

	// KindMulti
	all []error

	sentinel bool
}

// New creates a generic error.
func New(msg string) *Error {
	return &Error{kind: KindGeneric, msg: msg}
}

// Wrap creates a generic error caused by cause.
func Wrap(msg string, cause error) *Error {
	return &Error{kind: KindGeneric, msg: msg, cause: cause}
}

// Timeout reports a wait that exceeded ms milliseconds.
func Timeout(ms int64) *Error {
	return &Error{
		kind: KindTimeout,
		msg:  fmt.Sprintf("Timed out after %dms", ms),
		ms:   ms,
	}
}

// TimeoutAfter is Timeout with the bound given as a duration.
func TimeoutAfter(d time.Duration) *Error {
	return Timeout(d.Milliseconds())
}

// Stall reports a waiter that found no other work in flight to complete what
// it waits on. It always means a scheduler bug and is never retried.
func Stall(msg string) *Error {
	return &Error{kind: KindStall, msg: msg}
}

// Multi collapses the failures of one run into a single error. primary is
// exposed as the cause; all keeps every failure, in order, for diagnosis.
//
// all is copied. If primary is missing from all it is prepended. A nil
// primary takes all[0]. Multi panics if both are empty.
func Multi(primary error, all []error) *Error {
	if primary == nil {
		if len(all) == 0 {
			panic("kerror: Multi needs at least one error")
		}
		primary = all[0]
	}

	errs := make([]error, 0, len(all)+1)
	if !contains(all, primary) {
		errs = append(errs, primary)
	}
	errs = append(errs, all...)

	return &Error{
		kind:  KindMulti,
		msg:   "Multiple exceptions, first is: " + primary.Error(),
		cause: primary,
		all:   errs,
	}
}

func contains(errs []error, target error) bool {
	if !reflect.TypeOf(target).Comparable() {
		return false
	}
	for _, err := range errs {
		if err == target {
			return true
		}
	}
	return false
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap returns the cause; for Multi errors that is the primary error.
func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Kind() Kind {
	return e.kind
}

// Millis returns the bound of a Timeout error, 0 for other kinds.
func (e *Error) Millis() int64 {
	return e.ms
}

// Primary returns the cause of a Multi error, nil for other kinds.
func (e *Error) Primary() error {
	if e.kind != KindMulti {
		return nil
	}
	return e.cause
}

// Errors returns every aggregated error of a Multi, primary included.
// Any other kind returns just itself.
func (e *Error) Errors() []error {
	if e.kind != KindMulti {
		return []error{e}
	}
	out := make([]error, len(e.all))
	copy(out, e.all)
	return out
}

// Is reports whether target is the sentinel of e's kind, or, for a Multi,
// whether any aggregated error matches target. A Multi holding a Stall
// therefore matches ErrStall.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok && t.sentinel && t.kind == e.kind {
		return true
	}
	if e.kind == KindMulti {
		for _, err := range e.all {
			if errors.Is(err, target) {
				return true
			}
		}
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain.
// KindGeneric if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindGeneric
}

// IsFatal reports whether err is or contains a Stall.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStall)
}
