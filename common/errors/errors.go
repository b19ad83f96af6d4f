package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Kind classifies an application error independently of its message.
type Kind string

const (
	KindConfigMissing    Kind = "ConfigMissing"
	KindSecretMissing    Kind = "SecretMissing"
	KindEmptyCart        Kind = "EmptyCart"
	KindInvalidItem      Kind = "InvalidItem"
	KindInvalidSignature Kind = "InvalidSignature"
	KindProviderError    Kind = "ProviderError"
	KindRelayError       Kind = "RelayError"
	KindInternal         Kind = "Internal"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	// Plain renders the message as text/plain instead of a JSON body.
	Plain bool `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is comparisons. Never mutate or return them directly.
var (
	ErrConfigMissing    = &Error{Kind: KindConfigMissing}
	ErrSecretMissing    = &Error{Kind: KindSecretMissing}
	ErrEmptyCart        = &Error{Kind: KindEmptyCart}
	ErrInvalidItem      = &Error{Kind: KindInvalidItem}
	ErrInvalidSignature = &Error{Kind: KindInvalidSignature}
	ErrProviderError    = &Error{Kind: KindProviderError}
	ErrRelayError       = &Error{Kind: KindRelayError}
	ErrInternal         = &Error{Kind: KindInternal}
)

func ConfigMissing(err error) *Error {
	return New(http.StatusBadRequest, KindConfigMissing, "Payment config missing", err)
}

func SecretMissing(err error) *Error {
	e := New(http.StatusBadRequest, KindSecretMissing, "Webhook secret missing", err)
	e.Plain = true
	return e
}

func EmptyCart() *Error {
	return New(http.StatusBadRequest, KindEmptyCart, "Cart empty or invalid", nil)
}

func InvalidItem(format string, args ...any) *Error {
	return New(http.StatusBadRequest, KindInvalidItem, fmt.Sprintf(format, args...), nil)
}

// InvalidSignature keeps the verification failure out of the response body;
// the wrapped error is for server-side logs only.
func InvalidSignature(err error) *Error {
	e := New(http.StatusBadRequest, KindInvalidSignature, "Webhook error", err)
	e.Plain = true
	return e
}

func ProviderError(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindProviderError, message, err)
}

func RelayError(message string, err error) *Error {
	return New(http.StatusBadGateway, KindRelayError, message, err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, "Internal server error", err)
}

// From converts any error into an *Error, wrapping unknown errors as Internal.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// ErrorMiddleware renders the last error pushed with c.Error as the response.
func ErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := From(c.Errors.Last().Err)
		fields := []zap.Field{
			zap.String("kind", string(appErr.Kind)),
			zap.Int("status", appErr.Code),
			zap.String("path", c.Request.URL.Path),
		}
		if rid := c.GetString("request_id"); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if appErr.Err != nil {
			fields = append(fields, zap.Error(appErr.Err))
		}
		if appErr.Code >= http.StatusInternalServerError {
			logger.Error(appErr.Message, fields...)
		} else {
			logger.Warn(appErr.Message, fields...)
		}

		if appErr.Plain {
			c.String(appErr.Code, appErr.Message)
		} else {
			c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		}
		c.Abort()
	}
}
