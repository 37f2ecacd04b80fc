// Package apierror holds the JSON error envelopes returned by the monitoring API.
// Messages are user-facing (Russian); internal causes stay in the logs, linked
// to the response by request_id.
package apierror

// APIError is the envelope for 4xx/5xx responses.
type APIError struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Internal is the opaque 500 body. requestID lets operators find the logged cause.
func Internal(requestID string) *APIError {
	return &APIError{Detail: "Внутренняя ошибка сервера", RequestID: requestID}
}

// ValidationError lists per-field messages for rejected input.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Ошибка валидации", Fields: fields}
}
