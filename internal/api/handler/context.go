package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/domain"
)

// IdentityKey is the echo context key the auth middleware stores the
// caller's *domain.Identity under.
const IdentityKey = "identity"

// ctxIdentity returns the identity injected by the auth middleware. Its
// absence means the route was mounted without authentication.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, _ := c.Get(IdentityKey).(*domain.Identity)
	if identity == nil || identity.User == nil {
		return nil, domain.ErrUnauthenticated
	}
	return identity, nil
}
