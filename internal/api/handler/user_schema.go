package handler

import "time"

// --- Requests ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required,notblank,max=255" example:"John Doe"`
	Email    string `json:"email"    validate:"required,email,max=255"    example:"john@example.com"`
	Password string `json:"password" validate:"required,min=8,max=72"     example:"password"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email" example:"john@example.com"`
	Password string `json:"password" validate:"required"       example:"password"`
}

type createUserRequest struct {
	Name     string `json:"name"     validate:"required,notblank,max=255" example:"Jane Doe"`
	Email    string `json:"email"    validate:"required,email,max=255"    example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=8,max=72"     example:"password"`
	Role     string `json:"role"     validate:"required,role"             example:"user"`
}

// updateUserRequest fields are optional; absent fields are left unchanged.
// A present field must not be empty or blank.
type updateUserRequest struct {
	Name     *string `json:"name,omitempty"     validate:"omitempty,notblank,max=255"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role,omitempty"     validate:"omitempty,role"`
}

// --- Responses ---

type userResponse struct {
	ID        string    `json:"id"         example:"4f6c2a0e-5d8f-4a57-9a0c-2a1c7f4b9e11"`
	Name      string    `json:"name"       example:"John Doe"`
	Email     string    `json:"email"      example:"john@example.com"`
	Role      string    `json:"role"       example:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type authResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Swagger-only shapes of the envelope with a concrete data type.

type userEnvelope struct {
	Success bool         `json:"success" example:"true"`
	Message string       `json:"message" example:"User retrieved successfully"`
	Data    userResponse `json:"data"`
}

type authEnvelope struct {
	Success bool         `json:"success" example:"true"`
	Message string       `json:"message" example:"Logged in successfully"`
	Data    authResponse `json:"data"`
}

type errorEnvelope struct {
	Success bool                `json:"success" example:"false"`
	Message string              `json:"message" example:"Invalid credentials"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
