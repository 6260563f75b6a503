package chat

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddylabs/buddy/pkg/errors"
	"github.com/buddylabs/buddy/pkg/logger"
	"github.com/buddylabs/buddy/pkg/providers"
	"github.com/buddylabs/buddy/pkg/store"
	"github.com/buddylabs/buddy/pkg/types"
)

// offlineFacts answers every provider question with absence
type offlineFacts struct{}

func (offlineFacts) Dictionary(context.Context, string) providers.Result { return providers.Absent() }
func (offlineFacts) Weather(context.Context, string) providers.Result    { return providers.Absent() }
func (offlineFacts) Summary(context.Context, string) providers.Result    { return providers.Absent() }
func (offlineFacts) Joke(context.Context) string                         { return "a joke" }
func (offlineFacts) Advice(context.Context) string                       { return "some advice" }

func setupService(t *testing.T) (*Service, *store.Repository, string) {
	t.Helper()

	repo, err := store.NewRepository(filepath.Join(t.TempDir(), "buddy.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})

	account, err := repo.CreateAccount(&store.Account{Username: "ravi", PasswordHash: "x"})
	require.NoError(t, err)

	return NewService(repo, offlineFacts{}, logger.NewTestLogger()), repo, account.AccountID
}

func TestSubmitMessageAppendsBothTurns(t *testing.T) {
	svc, repo, accountID := setupService(t)

	reply, err := svc.SubmitMessage(context.Background(), accountID, "ravi", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hey ravi! What's up? 🙂", reply)

	messages, err := repo.ListMessages(accountID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, types.MessageRoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, types.MessageRoleAssistant, messages[1].Role)
	assert.Equal(t, reply, messages[1].Content)
}

func TestSubmitMessageGrowsHistoryByTwo(t *testing.T) {
	svc, repo, accountID := setupService(t)

	for i, text := range []string{"hi", "tell me a joke", "whatever else"} {
		_, err := svc.SubmitMessage(context.Background(), accountID, "ravi", text)
		require.NoError(t, err)

		count, err := repo.CountMessages(accountID)
		require.NoError(t, err)
		assert.Equal(t, int64(2*(i+1)), count)
	}
}

func TestSubmitMessageRejectsEmpty(t *testing.T) {
	svc, repo, accountID := setupService(t)

	_, err := svc.SubmitMessage(context.Background(), accountID, "ravi", "   ")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	count, err := repo.CountMessages(accountID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSubmitMessagePersistsMemoryThroughResolver(t *testing.T) {
	svc, repo, accountID := setupService(t)

	_, err := svc.SubmitMessage(context.Background(), accountID, "ravi", "remember that my dog is called Rex")
	require.NoError(t, err)

	infos, err := repo.SearchMemoryFacts(accountID, "my")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "my dog is called Rex", infos[0])
}

func TestHistoryOrder(t *testing.T) {
	svc, _, accountID := setupService(t)

	_, err := svc.SubmitMessage(context.Background(), accountID, "ravi", "hi")
	require.NoError(t, err)
	_, err = svc.SubmitMessage(context.Background(), accountID, "ravi", "tell me a joke")
	require.NoError(t, err)

	turns, err := svc.History(accountID)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, types.MessageRoleAssistant, turns[1].Role)
	assert.Equal(t, "tell me a joke", turns[2].Content)
	assert.Equal(t, "a joke 🙂", turns[3].Content)
}

func TestResetClearsMessagesKeepsMemory(t *testing.T) {
	svc, repo, accountID := setupService(t)

	_, err := svc.SubmitMessage(context.Background(), accountID, "ravi", "remember that my dog is called Rex")
	require.NoError(t, err)

	require.NoError(t, svc.Reset(accountID))

	turns, err := svc.History(accountID)
	require.NoError(t, err)
	assert.Empty(t, turns)

	memories, err := repo.CountMemoryFacts(accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), memories)
}

func TestExportTranscript(t *testing.T) {
	svc, _, accountID := setupService(t)

	_, err := svc.SubmitMessage(context.Background(), accountID, "ravi", "hello")
	require.NoError(t, err)

	transcript, err := svc.ExportTranscript(accountID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(transcript, "USER: hello\n\nASSISTANT: Hey ravi! What's up? 🙂\n\n"))
}

func TestExportTranscriptEmpty(t *testing.T) {
	svc, _, accountID := setupService(t)

	transcript, err := svc.ExportTranscript(accountID)
	require.NoError(t, err)
	assert.Empty(t, transcript)
}

func TestRecordFeedback(t *testing.T) {
	svc, _, accountID := setupService(t)

	require.NoError(t, svc.RecordFeedback(accountID, "great reply", 5))
}

func TestRecordFeedbackRejectsBadRating(t *testing.T) {
	svc, _, accountID := setupService(t)

	for _, rating := range []int{0, 6, -1} {
		err := svc.RecordFeedback(accountID, "meh", rating)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	}
}
