package httputil

import (
	"encoding/json"
	"net/http"
)

// APIError is the error envelope every endpoint returns.
type APIError struct {
	Error APIErrorBody `json:"error"`
}

type APIErrorBody struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status and request id header.
func WriteJSON(w http.ResponseWriter, requestID string, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, requestID string, statusCode int, errType, code, message string) {
	writeError(w, requestID, statusCode, APIErrorBody{Message: message, Type: errType, Code: code})
}

func writeError(w http.ResponseWriter, requestID string, statusCode int, body APIErrorBody) {
	body.RequestID = requestID
	WriteJSON(w, requestID, statusCode, APIError{Error: body})
}

func WriteRateLimitError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusTooManyRequests, "rate_limit_error", "rate_limit_exceeded", message)
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusBadRequest, "invalid_request_error", "invalid_request", message)
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusInternalServerError, "server_error", "internal_error", message)
}

func WriteServiceUnavailableError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusServiceUnavailable, "server_error", "service_unavailable", message)
}

// WriteContentBlockedError reports a rejected message. category is the
// moderation category key and goes into the param field.
func WriteContentBlockedError(w http.ResponseWriter, requestID, category, message string) {
	writeError(w, requestID, http.StatusUnavailableForLegalReasons, APIErrorBody{
		Message: message,
		Type:    "content_filter_error",
		Code:    "content_blocked",
		Param:   category,
	})
}

// WritePolicyDeniedError reports a message refused by dispatch policy.
func WritePolicyDeniedError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusForbidden, "policy_error", "policy_denied", message)
}
