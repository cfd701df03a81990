package storage

import (
	"chatdraft/backend/internal/models"
	"context"
	"time"
)

// TypingService is the draft.TypingSignaler backed by Redis. The typing
// state expires after ttl unless it is refreshed.
type TypingService struct {
	store Storage
	ttl   time.Duration
}

func NewTypingService(store Storage, ttl time.Duration) *TypingService {
	return &TypingService{store: store, ttl: ttl}
}

func (t *TypingService) StartTyping(ctx context.Context, channelID, userID string) error {
	return t.store.SetTyping(ctx, models.TypingSignal{ChannelID: channelID, UserID: userID, Typing: true}, t.ttl)
}

func (t *TypingService) StopTyping(ctx context.Context, channelID, userID string) error {
	return t.store.SetTyping(ctx, models.TypingSignal{ChannelID: channelID, UserID: userID}, t.ttl)
}
