package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/videotube/internal/apperrors"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

// Request bodies larger than that are rejected while decoding
const maxJSONBodySize = 1 << 20

var validate = newValidator()

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Every successful API response is wrapped into it
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Render data wrapped into Envelope
func Success(w http.ResponseWriter, code int, data any, message string) {
	jsonWithStatus(w, Envelope{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    code < http.StatusBadRequest,
	}, code)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, error string, code int) {
	response := ErrorResponse{
		Error:   ServiceErrorType,
		Message: error,
	}

	jsonWithStatus(w, response, code)
}

// Render service layer error with the status its kind maps to
func AppError(w http.ResponseWriter, err error) {
	code, message := StatusOf(err)
	ServiceError(w, message, code)
}

// HTTP status and client safe message for service layer error
// Order matters: 'unauthorized' errors may wrap 'not found' ones
func StatusOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, notFoundMessage(err)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, invalidInputMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

var notFoundErrors = []error{
	apperrors.ErrUserNotFound,
	apperrors.ErrVideoNotFound,
	apperrors.ErrCommentNotFound,
	apperrors.ErrTweetNotFound,
}

// Sentinel text only, wrapping context stays in logs
func notFoundMessage(err error) string {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return capitalize(target.Error())
		}
	}
	return "Not found"
}

// Detail added right onto apperrors.ErrInvalidInput, e.g. "invalid input: title is required"
func invalidInputMessage(err error) string {
	prefix := apperrors.ErrInvalidInput.Error() + ": "
	for e := err; e != nil; e = errors.Unwrap(e) {
		if errors.Unwrap(e) == apperrors.ErrInvalidInput && strings.HasPrefix(e.Error(), prefix) { // nolint:errorlint
			return capitalize(e.Error())
		}
	}
	return "Invalid input"
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		Error:   DecodingErrorType,
		Message: "",
	}

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		response.Message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &sizeErr):
		response.Message = "Request body too large"
	default:
		response.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  make(map[string]string, len(errs)),
	}

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "Invalid email address"
		case "username":
			message = "Only latin letters, digits, '_' and '.' are allowed"
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodySize)).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	return value, Validate(w, value)
}

// Validate already bound value (multipart forms, query strings) and render errors if any
func Validate[T Struct](w http.ResponseWriter, value T) error {
	err := validate.Struct(value)
	if err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return err
		}
		ValidationErrors(w, errs)
		return err
	}

	return nil
}

// renderJSONWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
