package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	buddyerr "github.com/buddylabs/buddy/pkg/errors"
	"github.com/buddylabs/buddy/pkg/types"
)

func setupTestRepository(t *testing.T) *Repository {
	dbPath := filepath.Join(t.TempDir(), "test_buddy.db")

	repo, err := NewRepository(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, repo.Close())
	})

	return repo
}

func createTestAccount(t *testing.T, repo *Repository, username string) *Account {
	account, err := repo.CreateAccount(&Account{
		Username:     username,
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash",
	})
	require.NoError(t, err)
	return account
}

func TestRepository_CreateAccount(t *testing.T) {
	repo := setupTestRepository(t)

	account := createTestAccount(t, repo, "alice")
	assert.NotEmpty(t, account.AccountID)
	assert.Equal(t, "alice", account.Username)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestRepository_CreateAccount_Duplicate(t *testing.T) {
	repo := setupTestRepository(t)

	createTestAccount(t, repo, "alice")

	_, err := repo.CreateAccount(&Account{
		Username:     "alice",
		PasswordHash: "otherhash",
	})
	require.Error(t, err)
	assert.True(t, buddyerr.HasCode(err, buddyerr.ErrCodeAlreadyExists))

	// The existing account must be untouched
	existing, err := repo.GetAccountByName("alice")
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "$2a$10$notarealhashnotarealhashnotarealhash", existing.PasswordHash)
}

func TestRepository_GetAccountByName_Absent(t *testing.T) {
	repo := setupTestRepository(t)

	account, err := repo.GetAccountByName("nobody")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestRepository_Messages_OrderAndScope(t *testing.T) {
	repo := setupTestRepository(t)

	alice := createTestAccount(t, repo, "alice")
	bob := createTestAccount(t, repo, "bob")

	require.NoError(t, repo.AppendMessage(alice.AccountID, types.MessageRoleUser, "hi"))
	require.NoError(t, repo.AppendMessage(alice.AccountID, types.MessageRoleAssistant, "Hey alice!"))
	require.NoError(t, repo.AppendMessage(bob.AccountID, types.MessageRoleUser, "yo"))

	messages, err := repo.ListMessages(alice.AccountID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, types.MessageRoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, types.MessageRoleAssistant, messages[1].Role)

	count, err := repo.CountMessages(bob.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_ClearMessages_ScopedToAccount(t *testing.T) {
	repo := setupTestRepository(t)

	alice := createTestAccount(t, repo, "alice")
	bob := createTestAccount(t, repo, "bob")

	require.NoError(t, repo.AppendMessage(alice.AccountID, types.MessageRoleUser, "one"))
	require.NoError(t, repo.AppendMessage(alice.AccountID, types.MessageRoleAssistant, "two"))
	require.NoError(t, repo.AppendMessage(bob.AccountID, types.MessageRoleUser, "three"))

	require.NoError(t, repo.ClearMessages(alice.AccountID))

	aliceCount, err := repo.CountMessages(alice.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), aliceCount)

	bobCount, err := repo.CountMessages(bob.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bobCount)
}

func TestRepository_MemoryFacts(t *testing.T) {
	repo := setupTestRepository(t)

	alice := createTestAccount(t, repo, "alice")

	require.NoError(t, repo.AddMemoryFact(alice.AccountID, "my", "my favorite color is blue"))
	require.NoError(t, repo.AddMemoryFact(alice.AccountID, "moms", "moms birthday is in June"))

	facts, err := repo.ListMemoryFacts(alice.AccountID)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "my", facts[0].Topic)
	assert.Equal(t, "my favorite color is blue", facts[0].Info)

	count, err := repo.CountMemoryFacts(alice.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepository_SearchMemoryFacts_SubstringMatch(t *testing.T) {
	repo := setupTestRepository(t)

	alice := createTestAccount(t, repo, "alice")

	require.NoError(t, repo.AddMemoryFact(alice.AccountID, "moms", "moms birthday is in June"))

	// "mom" is a substring of the stored topic "moms"
	infos, err := repo.SearchMemoryFacts(alice.AccountID, "mom")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "moms birthday is in June", infos[0])

	infos, err = repo.SearchMemoryFacts(alice.AccountID, "dad")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestRepository_SearchMemoryFacts_CaseInsensitive(t *testing.T) {
	repo := setupTestRepository(t)

	alice := createTestAccount(t, repo, "alice")

	// Topics keep original casing but queries arrive lowercased
	require.NoError(t, repo.AddMemoryFact(alice.AccountID, "My", "My dog is called Rex"))

	infos, err := repo.SearchMemoryFacts(alice.AccountID, "my")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "My dog is called Rex", infos[0])
}

func TestRepository_SearchMemoryFacts_ScopedToAccount(t *testing.T) {
	repo := setupTestRepository(t)

	alice := createTestAccount(t, repo, "alice")
	bob := createTestAccount(t, repo, "bob")

	require.NoError(t, repo.AddMemoryFact(alice.AccountID, "my", "my favorite color is blue"))

	infos, err := repo.SearchMemoryFacts(bob.AccountID, "my")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestRepository_RecordFeedback(t *testing.T) {
	repo := setupTestRepository(t)

	alice := createTestAccount(t, repo, "alice")

	require.NoError(t, repo.RecordFeedback(alice.AccountID, "great bot", 5))
	require.NoError(t, repo.RecordFeedback(alice.AccountID, "", 3))
}

func TestRepository_ListAccounts(t *testing.T) {
	repo := setupTestRepository(t)

	createTestAccount(t, repo, "alice")
	createTestAccount(t, repo, "bob")

	accounts, err := repo.ListAccounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestRepository_HealthCheck(t *testing.T) {
	repo := setupTestRepository(t)

	assert.NoError(t, repo.HealthCheck())
}
