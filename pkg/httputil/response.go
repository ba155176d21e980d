package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanvicente/scheduling-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// RespondWithError maps the domain error taxonomy onto HTTP statuses.
// Validation failures carry the full field map; unknown errors collapse to a
// generic 500 so internals never leak past the boundary.
func RespondWithError(c *gin.Context, err error) {
	if fields, ok := errors.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Status:  "error",
			Message: "validation failed",
			Errors:  fields,
		})
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"

	switch errors.Code(err) {
	case errors.ErrNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case errors.ErrConflict,
		errors.ErrInvalidTransition,
		errors.ErrAlreadyActive,
		errors.ErrAlreadyInactive,
		errors.ErrHasScheduledAppointments:
		status = http.StatusConflict
		message = err.Error()
	}

	c.JSON(status, Response{
		Status:  "error",
		Message: message,
	})
}
