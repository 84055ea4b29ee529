package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeDuplicateAction ErrorCode = "DUPLICATE_ACTION"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// AppError — ошибка домена с кодом, понятным вызывающему слою.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы sentinel-значения
// находились через errors.Is даже после Wrap.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeDuplicateAction:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или ErrCodeInternal для чужих ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsInvalidInput(err error) bool {
	return CodeOf(err) == ErrCodeInvalidInput
}

func IsDuplicateAction(err error) bool {
	return CodeOf(err) == ErrCodeDuplicateAction
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

var (
	ErrTestimonyNotFound   = New(ErrCodeNotFound, "свидетельство не найдено")
	ErrWitnessNotFound     = New(ErrCodeNotFound, "свидетель не найден")
	ErrSelfCorroboration   = New(ErrCodeDuplicateAction, "автор не может подтверждать собственное свидетельство")
	ErrAlreadyCorroborated = New(ErrCodeDuplicateAction, "свидетель уже подтвердил это свидетельство")
	ErrInvalidCoordinates  = New(ErrCodeInvalidInput, "некорректные координаты")
	ErrInvalidTimestamp    = New(ErrCodeInvalidInput, "некорректная отметка времени")
)
