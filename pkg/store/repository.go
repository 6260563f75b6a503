package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	buddyerr "github.com/buddylabs/buddy/pkg/errors"
	"github.com/buddylabs/buddy/pkg/types"
)

// Repository provides data access for the four Buddy collections
type Repository struct {
	db *gorm.DB
}

// NewRepository opens (or creates) the SQLite database at path and runs
// schema migrations.
func NewRepository(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Reduce log noise
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	return r.db.AutoMigrate(
		&Account{},
		&Message{},
		&MemoryFact{},
		&FeedbackEntry{},
	)
}

// Account operations

// CreateAccount creates a new account. Returns an AlreadyExists error when
// the username is taken.
func (r *Repository) CreateAccount(account *Account) (*Account, error) {
	if err := r.db.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, buddyerr.NewAlreadyExistsError("username")
		}
		return nil, buddyerr.NewDatabaseError("failed to create account", err)
	}
	return account, nil
}

// GetAccount retrieves an account by ID. Returns (nil, nil) when absent.
func (r *Repository) GetAccount(accountID string) (*Account, error) {
	var account Account
	if err := r.db.Where("account_id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, buddyerr.NewDatabaseError("failed to get account", err)
	}
	return &account, nil
}

// GetAccountByName retrieves an account by username. Returns (nil, nil)
// when absent.
func (r *Repository) GetAccountByName(username string) (*Account, error) {
	var account Account
	if err := r.db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, buddyerr.NewDatabaseError("failed to get account by name", err)
	}
	return &account, nil
}

// ListAccounts returns every account, oldest first
func (r *Repository) ListAccounts() ([]Account, error) {
	var accounts []Account
	if err := r.db.Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, buddyerr.NewDatabaseError("failed to list accounts", err)
	}
	return accounts, nil
}

// Message operations

// AppendMessage appends one conversation turn for the account
func (r *Repository) AppendMessage(accountID string, role types.MessageRole, content string) error {
	msg := Message{
		AccountID: accountID,
		Role:      role,
		Content:   content,
	}
	if err := r.db.Create(&msg).Error; err != nil {
		return buddyerr.NewDatabaseError("failed to append message", err)
	}
	return nil
}

// ListMessages returns the account's conversation, oldest first
func (r *Repository) ListMessages(accountID string) ([]Message, error) {
	var messages []Message
	if err := r.db.Where("account_id = ?", accountID).Order("id ASC").Find(&messages).Error; err != nil {
		return nil, buddyerr.NewDatabaseError("failed to list messages", err)
	}
	return messages, nil
}

// CountMessages returns the number of stored turns for the account
func (r *Repository) CountMessages(accountID string) (int64, error) {
	var count int64
	if err := r.db.Model(&Message{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return 0, buddyerr.NewDatabaseError("failed to count messages", err)
	}
	return count, nil
}

// ClearMessages deletes all messages for the account
func (r *Repository) ClearMessages(accountID string) error {
	if err := r.db.Where("account_id = ?", accountID).Delete(&Message{}).Error; err != nil {
		return buddyerr.NewDatabaseError("failed to clear messages", err)
	}
	return nil
}

// Memory operations

// AddMemoryFact stores a (topic, info) pair for the account
func (r *Repository) AddMemoryFact(accountID, topic, info string) error {
	fact := MemoryFact{
		AccountID: accountID,
		Topic:     topic,
		Info:      info,
	}
	if err := r.db.Create(&fact).Error; err != nil {
		return buddyerr.NewDatabaseError("failed to add memory fact", err)
	}
	return nil
}

// ListMemoryFacts returns every fact stored for the account, oldest first
func (r *Repository) ListMemoryFacts(accountID string) ([]MemoryFact, error) {
	var facts []MemoryFact
	if err := r.db.Where("account_id = ?", accountID).Order("id ASC").Find(&facts).Error; err != nil {
		return nil, buddyerr.NewDatabaseError("failed to list memory facts", err)
	}
	return facts, nil
}

// SearchMemoryFacts returns the info of every fact whose topic contains the
// token as a substring, oldest first. Matching is case-insensitive: stored
// topics keep the user's original casing while queries arrive lowercased,
// so a case-sensitive LIKE would miss facts taught with capitalized topics.
func (r *Repository) SearchMemoryFacts(accountID, token string) ([]string, error) {
	var facts []MemoryFact
	pattern := "%" + strings.ToLower(token) + "%"
	if err := r.db.Where("account_id = ? AND LOWER(topic) LIKE ?", accountID, pattern).
		Order("id ASC").Find(&facts).Error; err != nil {
		return nil, buddyerr.NewDatabaseError("failed to search memory facts", err)
	}

	infos := make([]string, 0, len(facts))
	for _, f := range facts {
		infos = append(infos, f.Info)
	}
	return infos, nil
}

// CountMemoryFacts returns the number of facts stored for the account
func (r *Repository) CountMemoryFacts(accountID string) (int64, error) {
	var count int64
	if err := r.db.Model(&MemoryFact{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return 0, buddyerr.NewDatabaseError("failed to count memory facts", err)
	}
	return count, nil
}

// Feedback operations

// RecordFeedback stores a feedback entry for the account
func (r *Repository) RecordFeedback(accountID, message string, rating int) error {
	entry := FeedbackEntry{
		AccountID: accountID,
		Message:   message,
		Rating:    rating,
	}
	if err := r.db.Create(&entry).Error; err != nil {
		return buddyerr.NewDatabaseError("failed to record feedback", err)
	}
	return nil
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}

// isUniqueViolation detects SQLite unique constraint failures, which the
// sqlite driver surfaces as plain errors rather than gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
