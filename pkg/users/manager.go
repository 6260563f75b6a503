// Package users manages account registration, credential checks and
// access tokens.
package users

import (
	"strings"

	"github.com/buddylabs/buddy/pkg/errors"
	"github.com/buddylabs/buddy/pkg/logger"
	"github.com/buddylabs/buddy/pkg/store"
)

const (
	minUsernameLength = 3
	minPasswordLength = 4
)

// Profile is the account summary returned to the owner
type Profile struct {
	Username     string `json:"username"`
	CreatedAt    string `json:"created_at"`
	MessageCount int64  `json:"message_count"`
	MemoryCount  int64  `json:"memory_count"`
}

// Manager coordinates account operations against the repository
type Manager struct {
	repo   *store.Repository
	auth   *AuthService
	logger logger.Logger
}

// NewManager creates an account manager
func NewManager(repo *store.Repository, auth *AuthService, log logger.Logger) *Manager {
	return &Manager{
		repo:   repo,
		auth:   auth,
		logger: log,
	}
}

// Signup registers a new account. The username is trimmed before
// validation; the duplicate check is delegated to the storage layer's
// uniqueness constraint so concurrent signups cannot race past it.
func (m *Manager) Signup(username, password string) (*store.Account, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLength {
		return nil, errors.NewValidationError("username must be at least 3 characters")
	}
	if len(password) < minPasswordLength {
		return nil, errors.NewValidationError("password must be at least 4 characters")
	}

	hash, err := m.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account, err := m.repo.CreateAccount(&store.Account{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("account created", map[string]interface{}{
		"account_id": account.AccountID,
		"username":   account.Username,
	})
	return account, nil
}

// Login verifies credentials and issues an access token. Unknown
// usernames and wrong passwords produce the same generic error.
func (m *Manager) Login(username, password string) (string, *store.Account, error) {
	username = strings.TrimSpace(username)

	account, err := m.repo.GetAccountByName(username)
	if err != nil {
		return "", nil, err
	}
	if account == nil || !m.auth.VerifyPassword(account.PasswordHash, password) {
		return "", nil, errors.NewUnauthorizedError("invalid username or password")
	}

	token, err := m.auth.GenerateToken(account.AccountID, account.Username)
	if err != nil {
		return "", nil, err
	}

	m.logger.Info("account logged in", map[string]interface{}{
		"account_id": account.AccountID,
	})
	return token, account, nil
}

// GetProfile returns the account summary for its owner
func (m *Manager) GetProfile(accountID string) (*Profile, error) {
	account, err := m.repo.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.NewNotFoundError("account")
	}

	messages, err := m.repo.CountMessages(accountID)
	if err != nil {
		return nil, err
	}
	memories, err := m.repo.CountMemoryFacts(accountID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Username:     account.Username,
		CreatedAt:    account.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		MessageCount: messages,
		MemoryCount:  memories,
	}, nil
}

// ListAccounts returns all accounts with password hashes stripped
func (m *Manager) ListAccounts() ([]store.Account, error) {
	accounts, err := m.repo.ListAccounts()
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i].PasswordHash = ""
	}
	return accounts, nil
}
