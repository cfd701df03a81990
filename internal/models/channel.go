package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Channel is a conversation that drafts are published to and that can be
// referenced with `#`.
type Channel struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:text;not null;index" json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"` // "direct", "group", "public"
	// MemberIDs backs channel-local user suggestions.
	MemberIDs pq.StringArray `gorm:"type:text[]" json:"member_ids,omitempty"`
}

// BeforeCreate generates a UUID for the channel when the ID is not set yet.
func (c *Channel) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasMember reports whether userID is listed in the channel members.
func (c *Channel) HasMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
