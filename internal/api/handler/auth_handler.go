package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account with the user role and returns a token.
//
// @Summary      Register a new user
// @Description  Any role in the body is ignored; self-registered accounts always get the user role.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authEnvelope
// @Failure      422   {object}  errorEnvelope
// @Failure      500   {object}  errorEnvelope
// @Router       /api/v1/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), toRegisterInput(req))
	if err != nil {
		return &domain.OperationError{Op: "registering user", Err: err}
	}

	return respond(c, http.StatusCreated, "User registered successfully", toAuthResponse(res))
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      422   {object}  errorEnvelope
// @Router       /api/v1/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return &domain.OperationError{Op: "logging in", Err: err}
	}

	return respond(c, http.StatusOK, "Logged in successfully", toAuthResponse(res))
}

// Logout revokes the token used for this request.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope
// @Failure      401  {object}  errorEnvelope
// @Router       /api/v1/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), identity); err != nil {
		return &domain.OperationError{Op: "logging out", Err: err}
	}

	return respond(c, http.StatusOK, "Logged out successfully", nil)
}
