// Package store provides the persistence gateway for Buddy. It executes
// create/read/delete operations against the four record collections
// (accounts, messages, memory facts, feedback), all scoped by account
// identifier.
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buddylabs/buddy/pkg/types"
)

// Account represents a registered user identity
type Account struct {
	AccountID    string    `gorm:"primaryKey;type:varchar(36)" json:"account_id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // never returned in JSON
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`

	// Relationships
	Messages    []Message       `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	MemoryFacts []MemoryFact    `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Feedback    []FeedbackEntry `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook for Account model
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == "" {
		a.AccountID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return nil
}

// Message represents one conversation turn. Rows are appended in strict
// chronological pairs (user turn, then the assistant reply) and only ever
// deleted in bulk by an explicit reset.
type Message struct {
	ID        uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID string            `gorm:"index;not null;type:varchar(36)" json:"account_id"`
	Role      types.MessageRole `gorm:"not null" json:"role"`
	Content   string            `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for Message model
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return nil
}

// MemoryFact is a user-taught (topic, info) pair recalled later by keyword.
// Facts accumulate indefinitely per account; there is no update or delete path.
type MemoryFact struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID string `gorm:"index;not null;type:varchar(36)" json:"account_id"`
	Topic     string `gorm:"not null" json:"topic"`
	Info      string `gorm:"type:text;not null" json:"info"`
}

// FeedbackEntry represents a user rating of the assistant. Write-only from
// the core's perspective.
type FeedbackEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID string    `gorm:"index;not null;type:varchar(36)" json:"account_id"`
	Message   string    `gorm:"type:text" json:"message"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for FeedbackEntry model
func (f *FeedbackEntry) BeforeCreate(tx *gorm.DB) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	return nil
}
