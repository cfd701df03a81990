package models

// Membership links a user to a channel and remembers the last message the
// user has read there.
type Membership struct {
	ChannelID string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	// LastReadTimetoken is nil until the user marks a message as read.
	LastReadTimetoken *int64
}
