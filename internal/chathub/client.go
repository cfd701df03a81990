package chathub

import "chatdraft/backend/internal/models"

// Frame types sent to clients watching a draft.
const (
	FrameElements    = "elements"
	FrameSuggestions = "suggestions"
	FrameClosed      = "closed"
)

// Frame is one update pushed to the clients of a draft session.
type Frame struct {
	Type        string                  `json:"type"`
	DraftID     string                  `json:"draft_id"`
	Elements    []models.MessageElement `json:"elements,omitempty"`
	Suggestions []models.Suggestion     `json:"suggestions,omitempty"`
	// Timetoken is set on the closed frame of a sent draft.
	Timetoken int64 `json:"timetoken,omitempty"`
}

// Client is one connection watching a draft session (e.g., a WebSocket).
type Client interface {
	// GetDraftID returns the session the client watches.
	GetDraftID() string

	// GetSendChannel returns the channel to which the ManagerService (hub) sends
	// frames intended for this specific client. It is a send-only channel.
	GetSendChannel() chan<- Frame

	// Run starts the client's read and write pumps.
	Run()
	// Close gracefully shuts down the client's connection and associated channels.
	Close()
}
