package api

import "github.com/buddylabs/buddy/pkg/types"

// SignupRequest registers a new account
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest exchanges credentials for an access token
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token after signup or login
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// ChatRequest submits one chat message
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse carries the resolved reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// MessagesResponse carries the conversation history in insertion order
type MessagesResponse struct {
	Messages []types.ChatTurn `json:"messages"`
}

// FeedbackRequest rates an assistant reply
type FeedbackRequest struct {
	Message string `json:"message" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
}

// AccountSummary is one row of the admin account listing
type AccountSummary struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
