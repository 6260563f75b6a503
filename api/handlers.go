package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buddylabs/buddy/pkg/errors"
)

// healthCheck reports service and storage health
func (s *Server) healthCheck(c *gin.Context) {
	checks := map[string]string{"database": "ok"}
	status := "healthy"
	code := http.StatusOK

	if err := s.repo.HealthCheck(); err != nil {
		checks["database"] = "unreachable"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// signup registers an account and returns a fresh token
func (s *Server) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	account, err := s.accounts.Signup(req.Username, req.Password)
	if err != nil {
		s.handleError(c, "signup failed", err)
		return
	}

	token, err := s.auth.GenerateToken(account.AccountID, account.Username)
	if err != nil {
		s.handleError(c, "signup failed", err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, Username: account.Username})
}

// login verifies credentials and returns a token
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	token, account, err := s.accounts.Login(req.Username, req.Password)
	if err != nil {
		s.handleError(c, "login failed", err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, Username: account.Username})
}

// submitMessage handles one chat exchange
func (s *Server) submitMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	reply, err := s.chat.SubmitMessage(c.Request.Context(), c.GetString(contextAccountID), c.GetString(contextUsername), req.Message)
	if err != nil {
		s.handleError(c, "chat failed", err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// listMessages returns the conversation history
func (s *Server) listMessages(c *gin.Context) {
	turns, err := s.chat.History(c.GetString(contextAccountID))
	if err != nil {
		s.handleError(c, "failed to load messages", err)
		return
	}

	c.JSON(http.StatusOK, MessagesResponse{Messages: turns})
}

// resetConversation clears the conversation history
func (s *Server) resetConversation(c *gin.Context) {
	if err := s.chat.Reset(c.GetString(contextAccountID)); err != nil {
		s.handleError(c, "failed to reset conversation", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// exportTranscript downloads the conversation as plain text
func (s *Server) exportTranscript(c *gin.Context) {
	transcript, err := s.chat.ExportTranscript(c.GetString(contextAccountID))
	if err != nil {
		s.handleError(c, "failed to export transcript", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="chat_history.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(transcript))
}

// recordFeedback stores a rating for an assistant reply
func (s *Server) recordFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.chat.RecordFeedback(c.GetString(contextAccountID), req.Message, req.Rating); err != nil {
		s.handleError(c, "failed to record feedback", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// getProfile returns the caller's account summary
func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.accounts.GetProfile(c.GetString(contextAccountID))
	if err != nil {
		s.handleError(c, "failed to load profile", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// listAccounts returns all accounts (admin only)
func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.accounts.ListAccounts()
	if err != nil {
		s.handleError(c, "failed to list accounts", err)
		return
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, AccountSummary{
			AccountID: a.AccountID,
			Username:  a.Username,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"accounts": summaries})
}

// badRequest rejects a malformed request body
func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "invalid request format",
		Error:   err.Error(),
	})
}

// handleError maps service errors to HTTP status codes
func (s *Server) handleError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	userMessage := message

	if buddyErr := errors.GetBuddyError(err); buddyErr != nil {
		switch buddyErr.Code {
		case errors.ErrCodeValidation, errors.ErrCodeInvalidInput:
			status = http.StatusBadRequest
			userMessage = buddyErr.Message
		case errors.ErrCodeAlreadyExists:
			status = http.StatusConflict
			userMessage = buddyErr.Message
		case errors.ErrCodeUnauthorized, errors.ErrCodeInvalidToken:
			status = http.StatusUnauthorized
			userMessage = buddyErr.Message
		case errors.ErrCodeForbidden:
			status = http.StatusForbidden
			userMessage = buddyErr.Message
		case errors.ErrCodeNotFound:
			status = http.StatusNotFound
			userMessage = buddyErr.Message
		}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(message, err, map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
	}

	resp := ErrorResponse{
		Code:    status,
		Message: userMessage,
	}
	if status == http.StatusInternalServerError {
		resp.Error = fmt.Sprintf("request id: %s", c.GetString("request_id"))
	}

	c.JSON(status, resp)
}
