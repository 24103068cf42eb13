package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fail renders an error envelope. It is also used by the HTTP error handler.
func Fail(c echo.Context, status int, message string, fields map[string][]string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, Envelope{Success: false, Message: message, Errors: fields})
}
