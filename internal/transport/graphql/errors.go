package graphql

import (
	"context"
	"errors"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/service"
)

const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is a resolver error whose code is reported under extensions.code.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": e.Code}
}

// guard applies the operation table to the caller stored in ctx.
func guard(ctx context.Context, op authz.Operation) error {
	err := authz.Authorize(authz.FromContext(ctx), op)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrForbidden):
		var fe *authz.ForbiddenError
		role := "admin"
		if errors.As(err, &fe) && len(fe.Missing) > 0 {
			role = fe.Missing[0]
		}
		return &Error{Message: string(op) + " requires the authenticated user to have role " + role, Code: CodeForbidden}
	default:
		return &Error{Message: string(op) + " requires authentication", Code: CodeUnauthenticated}
	}
}

// resolverError maps service errors to coded GraphQL errors. Unexpected
// errors are logged and hidden.
func resolverError(ctx context.Context, event string, err error) error {
	code := CodeInternal
	switch {
	case errors.Is(err, service.ErrValidation):
		code = CodeBadUserInput
	case errors.Is(err, service.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, service.ErrConflict):
		code = CodeConflict
	case service.IsAuthFailure(err):
		code = CodeUnauthenticated
	case errors.Is(err, service.ErrForbidden):
		code = CodeForbidden
	}

	l := logging.FromContext(ctx)
	if code == CodeInternal {
		l.Error(event, "code", code, "error", err)
		return &Error{Message: "internal error", Code: code}
	}
	l.Warn(event, "code", code, "error", err)
	return &Error{Message: err.Error(), Code: code}
}

type panicLogger struct{}

func (panicLogger) LogPanic(ctx context.Context, value any) {
	logging.FromContext(ctx).Error("graphql_panic", "panic", value)
}
