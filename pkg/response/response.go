package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError is a structured application error. Message carries the stable
// machine-readable reason code (e.g. "forbidden", "invalid_range") that
// clients switch on.
type AppError struct {
	HTTPStatus int    // HTTP status code
	Code       int    // Application-level error code
	Message    string // Machine-readable reason
}

func (e *AppError) Error() string {
	return e.Message
}

// Error constructors, one per error kind.

func NewInvalidInput(reason string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: 400, Message: reason}
}

func NewUnauthenticated() *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: 401, Message: "unauthenticated"}
}

func NewForbidden() *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: 403, Message: "forbidden"}
}

func NewNotFound(reason string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: 404, Message: reason}
}

func NewConflict(reason string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: 409, Message: reason}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: 500, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// NoContent sends an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response. If err is an *AppError, its status and
// reason are used; any other error becomes a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    500,
		Message: err.Error(),
	})
}

// BadRequest sends a 400 with the given reason, for handler-level binding
// failures that never reach a service.
func BadRequest(c *gin.Context, reason string) {
	c.JSON(http.StatusBadRequest, Response{Code: 400, Message: reason})
}

// Unauthorized sends a 401 with the given reason.
func Unauthorized(c *gin.Context, reason string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 401, Message: reason})
}
