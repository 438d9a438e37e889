// Package dto defines request and response shapes for the terminal's local
// HTTP API.
package dto

// SuccessResponse is a generic success acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SessionResponse carries a session identifier.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}
