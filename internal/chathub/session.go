package chathub

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/metrics"
	"chatdraft/backend/internal/models"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("draft session closed")

// Session serializes access to one MessageDraft. The draft itself is single
// writer, so every operation goes through the session mutex.
type Session struct {
	ID        string
	ChannelID string
	UserID    string
	CreatedAt time.Time

	mu     sync.Mutex
	draft  *draft.MessageDraft
	closed bool
}

// Mutate runs fn on the draft and records the outcome under op.
func (s *Session) Mutate(op string, fn func(d *draft.MessageDraft) (draft.Change, error)) (draft.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return draft.Change{}, ErrSessionClosed
	}
	ch, err := fn(s.draft)
	if err != nil {
		metrics.DraftMutations.WithLabelValues(op, "error").Inc()
		return ch, err
	}
	metrics.DraftMutations.WithLabelValues(op, "ok").Inc()
	metrics.AnnotationsInvalidated.Add(float64(len(ch.Invalidated)))
	return ch, nil
}

// View runs fn with the draft locked. fn must not keep the draft.
func (s *Session) View(fn func(d *draft.MessageDraft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	fn(s.draft)
	return nil
}

// Snapshot returns the current elements of the draft.
func (s *Session) Snapshot() ([]models.MessageElement, error) {
	var elements []models.MessageElement
	err := s.View(func(d *draft.MessageDraft) { elements = d.Elements() })
	return elements, err
}

// Suggestions returns the latest suggestion future.
func (s *Session) Suggestions() (*draft.SuggestionFuture, error) {
	var fut *draft.SuggestionFuture
	err := s.View(func(d *draft.MessageDraft) { fut = d.CurrentSuggestions() })
	return fut, err
}

// Send publishes the draft.
func (s *Session) Send(ctx context.Context, opts models.PublishOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	return s.draft.Send(ctx, opts)
}

func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.draft.Close()
	return true
}
