// Package types defines shared types used across Buddy packages
package types

// MessageRole represents the role of a message in a conversation
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// IsValid checks if the MessageRole is a known role
func (r MessageRole) IsValid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation of MessageRole
func (r MessageRole) String() string {
	return string(r)
}

// ChatTurn represents a single stored conversation turn
type ChatTurn struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ErrorType classifies errors for transport-level handling
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)
