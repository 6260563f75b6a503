// Package chat implements the conversation service: it persists both
// sides of every exchange and delegates reply generation to the resolver.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/buddylabs/buddy/pkg/errors"
	"github.com/buddylabs/buddy/pkg/logger"
	"github.com/buddylabs/buddy/pkg/providers"
	"github.com/buddylabs/buddy/pkg/resolver"
	"github.com/buddylabs/buddy/pkg/store"
	"github.com/buddylabs/buddy/pkg/types"
)

const (
	minRating = 1
	maxRating = 5
)

// Service handles one account's conversation lifecycle
type Service struct {
	repo     *store.Repository
	resolver *resolver.Resolver
	logger   logger.Logger
}

// NewService wires the chat service over the repository and fact providers
func NewService(repo *store.Repository, facts providers.FactSet, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver.New(&memoryGateway{repo: repo}, facts, log),
		logger:   log,
	}
}

// memoryGateway adapts the repository to the resolver's memory interface
type memoryGateway struct {
	repo *store.Repository
}

func (g *memoryGateway) AddMemoryFact(accountID, topic, info string) error {
	return g.repo.AddMemoryFact(accountID, topic, info)
}

func (g *memoryGateway) ListMemoryFacts(accountID string) ([]resolver.MemoryFact, error) {
	stored, err := g.repo.ListMemoryFacts(accountID)
	if err != nil {
		return nil, err
	}
	facts := make([]resolver.MemoryFact, 0, len(stored))
	for _, f := range stored {
		facts = append(facts, resolver.MemoryFact{Topic: f.Topic, Info: f.Info})
	}
	return facts, nil
}

func (g *memoryGateway) SearchMemoryFacts(accountID, token string) ([]string, error) {
	return g.repo.SearchMemoryFacts(accountID, token)
}

// SubmitMessage stores the user's message, resolves a reply and stores it.
// Every successful call appends exactly two rows to the account's history.
func (s *Service) SubmitMessage(ctx context.Context, accountID, username, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewValidationError("message must not be empty")
	}

	if err := s.repo.AppendMessage(accountID, types.MessageRoleUser, text); err != nil {
		return "", err
	}

	reply := s.resolver.Resolve(ctx, accountID, username, text)

	if err := s.repo.AppendMessage(accountID, types.MessageRoleAssistant, reply); err != nil {
		return "", err
	}

	return reply, nil
}

// History returns the account's conversation turns in insertion order
func (s *Service) History(accountID string) ([]types.ChatTurn, error) {
	messages, err := s.repo.ListMessages(accountID)
	if err != nil {
		return nil, err
	}

	turns := make([]types.ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, types.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

// Reset deletes the account's conversation history. Memory facts survive
// a reset.
func (s *Service) Reset(accountID string) error {
	if err := s.repo.ClearMessages(accountID); err != nil {
		return err
	}
	s.logger.Info("conversation reset", map[string]interface{}{"account_id": accountID})
	return nil
}

// ExportTranscript renders the conversation as plain text, one
// "ROLE: content" paragraph per turn
func (s *Service) ExportTranscript(accountID string) (string, error) {
	messages, err := s.repo.ListMessages(accountID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n\n", strings.ToUpper(m.Role.String()), m.Content)
	}
	return b.String(), nil
}

// RecordFeedback stores a rating for an assistant reply
func (s *Service) RecordFeedback(accountID, message string, rating int) error {
	if rating < minRating || rating > maxRating {
		return errors.NewValidationError("rating must be between 1 and 5")
	}
	if strings.TrimSpace(message) == "" {
		return errors.NewValidationError("feedback message must not be empty")
	}
	return s.repo.RecordFeedback(accountID, message, rating)
}
