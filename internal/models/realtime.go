package models

import "time"

// Attachment is a file queued for upload with a draft.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// QuotedMessage references another message quoted by a draft.
type QuotedMessage struct {
	Timetoken int64  `json:"timetoken"`
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id,omitempty"`
	Text      string `json:"text,omitempty"`
}

// StorageMethod selects where a published message is kept.
type StorageMethod string

const (
	// StorageDatabase keeps the message in PostgreSQL history.
	StorageDatabase StorageMethod = "database"
	// StorageCache keeps the message in Redis until its TTL expires.
	StorageCache StorageMethod = "cache"
)

// PublishOptions tune how a draft is published.
type PublishOptions struct {
	StoreInHistory bool              `json:"store_in_history"`
	Storage        StorageMethod     `json:"storage,omitempty"`
	TTL            time.Duration     `json:"ttl,omitempty"`
	Meta           map[string]string `json:"meta,omitempty"`
}

// DefaultPublishOptions stores messages in the database history.
func DefaultPublishOptions() PublishOptions {
	return PublishOptions{StoreInHistory: true, Storage: StorageDatabase}
}

// PublishedMessage is the payload broadcast on a channel after a send.
type PublishedMessage struct {
	Timetoken   int64             `json:"timetoken"`
	ChannelID   string            `json:"channel_id"`
	SenderID    string            `json:"sender_id"`
	Text        string            `json:"text"`
	Elements    []MessageElement  `json:"elements"`
	Annotations []Annotation      `json:"annotations,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Quoted      *QuotedMessage    `json:"quoted,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// TypingSignal is broadcast when a user starts or stops typing.
type TypingSignal struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Typing    bool   `json:"typing"`
}
