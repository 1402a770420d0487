package guard

import (
	"fmt"
	"net/http"
)

// Error — отказ с заранее известным статусом и безопасным для клиента текстом.
// Message никогда не берётся из внутренних ошибок.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по коду, чтобы errors.Is(err, ErrForbidden) работал и для копий.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrRateLimited     = &Error{Status: http.StatusTooManyRequests, Code: "RATE_LIMITED", Message: "Too many requests. Please wait a moment and try again."}
	ErrUnauthenticated = &Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required."}
	ErrDeviceRequired  = &Error{Status: http.StatusUnauthorized, Code: "DEVICE_REQUIRED", Message: "Device identification required."}
	ErrForbidden       = &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "You do not have access to this resource."}
	ErrNotFound        = &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "The requested resource was not found."}
)

// BadRequest — ошибка валидации; msg должен быть написан для клиента.
func BadRequest(msg string, cause error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: msg, Err: cause}
}
