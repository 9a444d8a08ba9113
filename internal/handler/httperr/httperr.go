package httperr

import (
	"net/http"

	"booking-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int  `json:"-"`
	Success bool `json:"success"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

// keeps the cause on c.Errors so ErrorHandler can log it
func AbortWithError(c *gin.Context, status int, err error, msg string, fields map[string]string) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status, Errors: fields}
	resp.Error.Message = msg

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// StatusOf maps error kinds to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsConflict(err):
		return http.StatusConflict
	case errs.IsRateLimited(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Abort writes the standard failure envelope for err.
func Abort(c *gin.Context, err error) {
	AbortWithMessage(c, StatusOf(err), err, Message(err))
}

func AbortWithMessage(c *gin.Context, status int, err error, msg string) {
	AbortWithError(c, status, err, msg, errs.FieldErrors(err))
}

// Message is the generic client-facing text for an error kind.
func Message(err error) string {
	switch {
	case errs.IsValidation(err):
		return "Validation failed"
	case errs.IsNotFound(err):
		return "Not found"
	case errs.IsConflict(err):
		return "The requested change conflicts with existing data"
	case errs.IsRateLimited(err):
		return "Too many requests"
	default:
		return "Internal server error"
	}
}
