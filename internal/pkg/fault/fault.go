// Package fault classifies collaborator failures so retry and propagation
// decisions never depend on error message text.
package fault

import (
	"context"
	"errors"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/pkg/httpx"
)

type Kind int

const (
	// KindUnknown is the zero value for errors nobody classified.
	KindUnknown Kind = iota
	// KindTransient failures (429, 5xx, timeouts) are worth retrying.
	KindTransient
	// KindInputInvalid marks unusable input (empty document, bad params).
	KindInputInvalid
	// KindQuotaExceeded marks a caller that hit its generation ceiling.
	KindQuotaExceeded
	// KindContractViolation marks a collaborator response that cannot be
	// parsed. Retrying won't fix a broken contract.
	KindContractViolation
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindInputInvalid:
		return "input_invalid"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindContractViolation:
		return "contract_violation"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf walks the error chain for an explicit classification, then falls
// back on transport-level signals (HTTP status, net timeouts).
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindUnknown
	}
	if httpx.IsRetryableError(err) {
		return KindTransient
	}
	return KindUnknown
}

func IsTransient(err error) bool { return KindOf(err) == KindTransient }
