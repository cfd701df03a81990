package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is a directory entry that can be mentioned in a draft.
type User struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"type:text;not null;index" json:"name"`
	// ExternalID is a Telegram chat ID or similar. Users without one store
	// NULL, which the unique index does not compare.
	ExternalID *string `gorm:"uniqueIndex" json:"external_id,omitempty"`
	Status     string  `json:"status,omitempty"`
	// Aliases are extra names matched by suggestion lookups.
	Aliases pq.StringArray `gorm:"type:text[]" json:"aliases,omitempty"`
}

// BeforeCreate generates a UUID for the user when the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
