package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
)

// APIError is a non-2xx response from the auth service. Handlers build one
// to write a response; the client returns one when a call fails.
type APIError struct {
	StatusCode int `json:"-"`

	Message string `json:"message"`

	// RemainingAttempts is set on login failures only.
	RemainingAttempts *int `json:"remainingAttempts,omitempty"`
}

func (e *APIError) Error() string {
	if e.RemainingAttempts != nil {
		return fmt.Sprintf("auth: %d %s (%d attempts left)", e.StatusCode, e.Message, *e.RemainingAttempts)
	}
	return fmt.Sprintf("auth: %d %s", e.StatusCode, e.Message)
}

// Remaining returns the remaining attempts, or -1 when the server sent none.
func (e *APIError) Remaining() int {
	if e.RemainingAttempts == nil {
		return -1
	}
	return *e.RemainingAttempts
}

// WriteError writes this error in the standard envelope.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Success:           false,
		Message:           e.Message,
		RemainingAttempts: e.RemainingAttempts,
	})
}

// NewLoginError builds a login failure that reports the remaining budget.
func NewLoginError(status int, message string, remaining int) *APIError {
	return &APIError{StatusCode: status, Message: message, RemainingAttempts: &remaining}
}

// parseErrorResponse turns a failed response into an *APIError, falling back
// to the status text when the body is not our envelope.
func parseErrorResponse(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}

	var env ErrorResponse
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		apiErr.Message = env.Message
		apiErr.RemainingAttempts = env.RemainingAttempts
		return apiErr
	}

	apiErr.Message = http.StatusText(status)
	return apiErr
}
