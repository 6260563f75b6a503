package users

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddylabs/buddy/pkg/errors"
	"github.com/buddylabs/buddy/pkg/logger"
	"github.com/buddylabs/buddy/pkg/store"
	"github.com/buddylabs/buddy/pkg/types"
)

func setupManager(t *testing.T) (*Manager, *store.Repository) {
	t.Helper()

	repo, err := store.NewRepository(filepath.Join(t.TempDir(), "buddy.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})

	auth := NewAuthService("test-secret", time.Hour)
	return NewManager(repo, auth, logger.NewTestLogger()), repo
}

func TestSignup(t *testing.T) {
	m, _ := setupManager(t)

	account, err := m.Signup("ravi", "pass123")
	require.NoError(t, err)
	assert.NotEmpty(t, account.AccountID)
	assert.Equal(t, "ravi", account.Username)
	assert.NotEqual(t, "pass123", account.PasswordHash)
}

func TestSignupTrimsUsername(t *testing.T) {
	m, _ := setupManager(t)

	account, err := m.Signup("  ravi  ", "pass123")
	require.NoError(t, err)
	assert.Equal(t, "ravi", account.Username)
}

func TestSignupShortUsername(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Signup("ab", "pass123")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestSignupShortPassword(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Signup("ravi", "abc")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestSignupDuplicateUsername(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Signup("ravi", "pass123")
	require.NoError(t, err)

	_, err = m.Signup("ravi", "otherpass")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyExists))
}

func TestLogin(t *testing.T) {
	m, _ := setupManager(t)

	created, err := m.Signup("ravi", "pass123")
	require.NoError(t, err)

	token, account, err := m.Login("ravi", "pass123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, created.AccountID, account.AccountID)
}

func TestLoginWrongPassword(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Signup("ravi", "pass123")
	require.NoError(t, err)

	_, _, err = m.Login("ravi", "wrong")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))
	assert.Contains(t, err.Error(), "invalid username or password")
}

func TestLoginUnknownUsername(t *testing.T) {
	m, _ := setupManager(t)

	_, _, err := m.Login("ghost", "whatever")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))
	assert.Contains(t, err.Error(), "invalid username or password")
}

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)

	token, err := auth.GenerateToken("acc-1", "ravi")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "ravi", claims.Username)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)
	other := NewAuthService("other-secret", time.Hour)

	token, err := auth.GenerateToken("acc-1", "ravi")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidToken))
}

func TestValidateTokenExpired(t *testing.T) {
	auth := NewAuthService("test-secret", -time.Minute)

	token, err := auth.GenerateToken("acc-1", "ravi")
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidToken))
}

func TestGetProfile(t *testing.T) {
	m, repo := setupManager(t)

	account, err := m.Signup("ravi", "pass123")
	require.NoError(t, err)

	require.NoError(t, repo.AppendMessage(account.AccountID, types.MessageRoleUser, "hi"))
	require.NoError(t, repo.AppendMessage(account.AccountID, types.MessageRoleAssistant, "Hey ravi! What's up? 🙂"))
	require.NoError(t, repo.AddMemoryFact(account.AccountID, "my", "my favorite color is blue"))

	profile, err := m.GetProfile(account.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "ravi", profile.Username)
	assert.Equal(t, int64(2), profile.MessageCount)
	assert.Equal(t, int64(1), profile.MemoryCount)
	assert.NotEmpty(t, profile.CreatedAt)
}

func TestGetProfileUnknownAccount(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.GetProfile("no-such-account")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestListAccountsStripsHashes(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Signup("ravi", "pass123")
	require.NoError(t, err)
	_, err = m.Signup("mina", "pass456")
	require.NoError(t, err)

	accounts, err := m.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, a := range accounts {
		assert.Empty(t, a.PasswordHash)
	}
}
