package models

import "gorm.io/gorm"

// Message is a published draft saved in PostgreSQL.
// The embedded gorm.Model provides ID, CreatedAt, UpdatedAt and DeletedAt.
type Message struct {
	gorm.Model

	// Timetoken is the publish timestamp in 100ns units.
	Timetoken int64 `gorm:"not null;uniqueIndex:idx_channel_timetoken"`
	// ChannelID is the channel the message was published to.
	ChannelID string `gorm:"type:text;not null;uniqueIndex:idx_channel_timetoken"`
	// SenderID is the user who sent the message.
	SenderID string `gorm:"type:text;not null;index"`
	// Text is the plain text content of the message.
	Text string `gorm:"type:text;not null"`
	// Annotations is the JSON-encoded annotation list recovered when the
	// message is parsed back into elements.
	Annotations string `gorm:"type:text"`
	// Attachments is the JSON-encoded attachment list.
	Attachments string `gorm:"type:text"`
	// QuotedTimetoken references the quoted message, if any.
	QuotedTimetoken *int64 `gorm:"index"`
}
