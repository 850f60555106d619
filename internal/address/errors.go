package address

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/dukerupert/buscacep/internal/domain"
)

// Kind classifies a failed lookup.
type Kind int

const (
	// KindValidation: the input is too short or empty; no request was made.
	KindValidation Kind = iota + 1
	// KindNotFound: the registry answered but has no entry for the key.
	KindNotFound
	// KindTransport: the registry could not be reached or its answer was unusable.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// User-visible notices, one per error kind.
const (
	NoticeInvalid   = "Por favor, digite um CEP válido"
	NoticeNotFound  = "CEP não encontrado"
	NoticeTransport = "Erro ao buscar CEP. Tente novamente."
)

// Error is a classified lookup failure.
// errors.Is matches any two Errors of the same Kind, so callers compare
// against ErrInvalidCode, ErrNotFound and ErrTransport.
type Error struct {
	Kind    Kind
	Code    string // domain error code, drives HTTP status mapping
	Message string // user-visible notice
	Op      string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ErrorCode returns the domain code for HTTP status mapping.
func (e *Error) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing notice.
func (e *Error) ErrorMessage() string {
	return e.Message
}

var (
	// ErrInvalidCode is the ValidationError: input empty or shorter than MinDigits digits.
	ErrInvalidCode = &Error{Kind: KindValidation, Code: domain.EINVALID, Message: NoticeInvalid}

	// ErrNotFound is the NotFoundError: the registry flagged the key with "erro".
	ErrNotFound = &Error{Kind: KindNotFound, Code: domain.ENOTFOUND, Message: NoticeNotFound}

	// ErrTransport is the TransportError: network, status or decoding failure.
	ErrTransport = &Error{Kind: KindTransport, Code: domain.EUNAVAILABLE, Message: NoticeTransport}
)

// notFoundError builds a not-found error for a specific key.
func notFoundError(op, key string) error {
	return &Error{
		Kind:    KindNotFound,
		Code:    domain.ENOTFOUND,
		Message: NoticeNotFound,
		Op:      op,
		Err:     fmt.Errorf("no registry entry for %s", key),
	}
}

// transportError wraps err as a TransportError, refining the domain code for
// deadlines and cancellation.
func transportError(op string, err error) error {
	code := domain.EUNAVAILABLE
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = domain.ETIMEOUT
	case errors.As(err, &netErr) && netErr.Timeout():
		code = domain.ETIMEOUT
	case errors.Is(err, context.Canceled):
		code = domain.ECANCELED
	}

	return &Error{
		Kind:    KindTransport,
		Code:    code,
		Message: NoticeTransport,
		Op:      op,
		Err:     err,
	}
}

// KindOf returns the Kind of err, or 0 if err is not a lookup error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Notice returns the user-visible message for err.
// Errors that are not lookup errors get the transport notice.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return NoticeTransport
}

// Classify returns err unchanged when it is already a lookup error and wraps
// anything else as a TransportError. A nil err stays nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return transportError(op, err)
}
