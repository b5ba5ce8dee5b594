package graph

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/purit/auth-api/internal/usecase"
)

// Error is a domain failure carried through GraphQL with a stable machine
// code and the HTTP status the transport answers with.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions satisfies gqlerrors.ExtendedError so the machine code reaches
// clients alongside the human-readable message.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

var errUnauthenticated = &Error{
	Code:    "UNAUTHENTICATED",
	Status:  http.StatusUnauthorized,
	Message: "Not authenticated",
}

// mapDomainError translates usecase sentinel errors into transport errors.
// Anything unrecognized is an infrastructure failure and surfaces without a
// domain code.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		return &Error{Code: "ALREADY_EXISTS", Status: http.StatusBadRequest, Message: "User already exists"}
	case errors.Is(err, usecase.ErrUserNotFound):
		return &Error{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: "User not found"}
	case errors.Is(err, usecase.ErrInvalidOrExpiredOTP):
		return &Error{Code: "INVALID_OR_EXPIRED_OTP", Status: http.StatusBadRequest, Message: "Invalid or expired OTP"}
	case errors.Is(err, usecase.ErrEmailNotVerified):
		return &Error{Code: "EMAIL_NOT_VERIFIED", Status: http.StatusForbidden, Message: "Please verify your email first"}
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return &Error{Code: "INVALID_CREDENTIALS", Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	default:
		return err
	}
}

// errorRecorder collects the domain errors raised while executing one
// request, so the HTTP handler can answer with the mapped status without
// depending on how the GraphQL library wraps resolver errors.
type errorRecorder struct {
	mu   sync.Mutex
	errs []*Error
}

func (rec *errorRecorder) record(err *Error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.errs = append(rec.errs, err)
}

func (rec *errorRecorder) first() *Error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) == 0 {
		return nil
	}
	return rec.errs[0]
}

func (rec *errorRecorder) find(message string) *Error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, err := range rec.errs {
		if err.Message == message {
			return err
		}
	}
	return nil
}

type recorderKey struct{}

func withRecorder(ctx context.Context) (context.Context, *errorRecorder) {
	rec := &errorRecorder{}
	return context.WithValue(ctx, recorderKey{}, rec), rec
}

func recorderFrom(ctx context.Context) *errorRecorder {
	rec, _ := ctx.Value(recorderKey{}).(*errorRecorder)
	return rec
}
