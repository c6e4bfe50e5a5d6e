// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so that internal
// details (stack traces, SQL errors) never reach them.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps field-level messages keyed by request field name.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}

// Messages for validator tags, used when a struct tag fails.
var tagMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"min":      "Value is too small",
	"max":      "Value is too large",
	"gt":       "Must be greater than 0",
	"gte":      "Must be 0 or more",
	"gtefield": "Must not be lower than the related field",
	"oneof":    "Value is not allowed",
	"uuid":     "Must be a valid id",
	"url":      "Must be a valid URL",
	"dive":     "Invalid entry",
}

// TagMessage returns a readable message for a failed validator tag.
func TagMessage(tag string) string {
	if m, ok := tagMessages[tag]; ok {
		return m
	}
	return tag
}
