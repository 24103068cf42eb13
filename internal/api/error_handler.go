package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/api/handler"
	"github.com/99minutos/user-management/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the response envelope with success=false.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, fields := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = handler.Fail(c, code, msg, fields)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, map[string][]string) {
	// Echo's own errors (404 from router, 405, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, "The given data was invalid.", ve.Fields
	}

	var ae *domain.AuthorizationError
	if errors.As(err, &ae) {
		return http.StatusForbidden, fmt.Sprintf("You are unauthorized to %s user.", ae.Action), nil
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusUnprocessableEntity, "The given data was invalid.",
			map[string][]string{"email": {"The email has already been taken."}}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", nil
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated.", nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "This action is unauthorized.", nil
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found.", nil
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	var op *domain.OperationError
	if errors.As(err, &op) {
		return http.StatusInternalServerError, fmt.Sprintf("An error occurred while %s.", op.Op), nil
	}
	return http.StatusInternalServerError, "Internal server error.", nil
}
