package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/devlink-notifier/pkg/errors"
)

const internalErrorMessage = "Internal server error"

// Response is the envelope for every JSON body the API writes.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse builds a failed envelope for status.
func ErrorResponse(status int, message string) Response {
	return Response{
		Success: false,
		Error:   &Error{Code: status, Message: message},
	}
}

// StatusFor maps err onto an HTTP status and a client-safe message.
// Errors that are not AppErrors never expose their text.
func StatusFor(err error) (int, string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode(), appErr.Message
	}
	return http.StatusInternalServerError, internalErrorMessage
}

func RespondWithSuccess(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, true, data)
}

// RespondWithData writes data under an explicit status and success flag.
// Job runs that complete with failures still carry their result.
func RespondWithData(c *gin.Context, status int, success bool, data interface{}) {
	c.JSON(status, Response{Success: success, Data: data})
}

// RespondWithError records err on the context for ErrorHandler and aborts.
func RespondWithError(c *gin.Context, err error) {
	status, message := StatusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse(status, message))
}

// Abort stops the chain with a bare error envelope.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse(status, message))
}

// AbortInternal stops the chain with a 500 that hides the cause.
func AbortInternal(c *gin.Context) {
	Abort(c, http.StatusInternalServerError, internalErrorMessage)
}
