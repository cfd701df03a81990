package chathub

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/metrics"
	"chatdraft/backend/internal/models"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const broadcastQueueSize = 256

// DraftFactory builds the draft for a new session.
type DraftFactory func(channelID, userID string) *draft.MessageDraft

// ManagerService keeps the open draft sessions and fans their change events
// out to the clients watching them.
type ManagerService struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	newDraft DraftFactory
	log      zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	clients  map[string]map[Client]struct{}

	broadcastCh chan Frame

	done     chan struct{}
	stopOnce sync.Once
}

func NewManagerService(factory DraftFactory, logger zerolog.Logger) *ManagerService {
	return &ManagerService{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		newDraft:     factory,
		log:          logger.With().Str("component", "hub").Logger(),
		sessions:     make(map[string]*Session),
		clients:      make(map[string]map[Client]struct{}),
		broadcastCh:  make(chan Frame, broadcastQueueSize),
		done:         make(chan struct{}),
	}
}

// CreateSession opens a draft for userID in channelID.
func (m *ManagerService) CreateSession(channelID, userID string) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		UserID:    userID,
		CreatedAt: time.Now(),
		draft:     m.newDraft(channelID, userID),
	}
	s.draft.AddChangeListener(func(e draft.ChangeEvent) {
		m.broadcast(Frame{Type: FrameElements, DraftID: s.ID, Elements: e.Elements})
		e.Suggestions.Then(func(suggestions []models.Suggestion, err error) {
			if err != nil {
				if !errors.Is(err, draft.ErrSuggestionCanceled) {
					m.log.Warn().Err(err).Str("draft_id", s.ID).Msg("suggestion lookup failed")
				}
				return
			}
			m.broadcast(Frame{Type: FrameSuggestions, DraftID: s.ID, Suggestions: suggestions})
		})
	})

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	metrics.ActiveDrafts.Inc()
	m.log.Info().Str("draft_id", s.ID).Str("channel_id", channelID).Str("user_id", userID).Msg("draft session created")
	return s
}

// GetSession returns the open session with id.
func (m *ManagerService) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// CloseSession closes and forgets the session. timetoken is reported to the
// watching clients when the draft was sent, zero when it was abandoned.
func (m *ManagerService) CloseSession(id string, timetoken int64) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok || !s.close() {
		return false
	}
	metrics.ActiveDrafts.Dec()
	m.broadcast(Frame{Type: FrameClosed, DraftID: id, Timetoken: timetoken})
	m.log.Info().Str("draft_id", id).Int64("timetoken", timetoken).Msg("draft session closed")
	return true
}

// SessionCount returns the number of open sessions.
func (m *ManagerService) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ClientCount returns the number of clients watching draftID.
func (m *ManagerService) ClientCount(draftID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[draftID])
}

// broadcast never blocks: it is called from draft listeners while the
// session is locked.
func (m *ManagerService) broadcast(f Frame) {
	select {
	case m.broadcastCh <- f:
	default:
		m.log.Warn().Str("draft_id", f.DraftID).Str("type", f.Type).Msg("broadcast queue full, dropping frame")
	}
}

// Register hands client to the Run loop. It reports false, closing the
// client, once the hub has stopped.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.done:
		client.Close()
		return false
	}
}

// Unregister hands client to the Run loop for removal. After the hub has
// stopped it returns immediately.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// Done is closed when Run returns.
func (m *ManagerService) Done() <-chan struct{} { return m.done }

// Run dispatches registrations and frames until ctx is done.
func (m *ManagerService) Run(ctx context.Context) {
	defer m.stopOnce.Do(func() { close(m.done) })
	for {
		select {
		case <-ctx.Done():
			m.closeAllClients()
			return

		case client := <-m.RegisterCh:
			m.register(client)

		case client := <-m.UnregisterCh:
			m.unregister(client)

		case frame := <-m.broadcastCh:
			m.deliver(frame)
		}
	}
}

func (m *ManagerService) register(client Client) {
	id := client.GetDraftID()
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		if m.clients[id] == nil {
			m.clients[id] = make(map[Client]struct{})
		}
		m.clients[id][client] = struct{}{}
	}
	m.mu.Unlock()
	if !ok {
		client.Close()
		return
	}

	// A session closed after the client was added is followed by a closed
	// frame, which removes the client.
	if elements, err := s.Snapshot(); err == nil {
		m.send(client, Frame{Type: FrameElements, DraftID: id, Elements: elements})
	}
}

func (m *ManagerService) unregister(client Client) {
	id := client.GetDraftID()
	m.mu.Lock()
	_, ok := m.clients[id][client]
	if ok {
		delete(m.clients[id], client)
		if len(m.clients[id]) == 0 {
			delete(m.clients, id)
		}
	}
	m.mu.Unlock()
	if ok {
		client.Close()
	}
}

func (m *ManagerService) deliver(f Frame) {
	m.mu.RLock()
	targets := make([]Client, 0, len(m.clients[f.DraftID]))
	for c := range m.clients[f.DraftID] {
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	for _, c := range targets {
		m.send(c, f)
	}
	if f.Type == FrameClosed {
		for _, c := range targets {
			m.unregister(c)
		}
	}
}

// send drops clients that are too slow to keep up.
func (m *ManagerService) send(c Client, f Frame) {
	select {
	case c.GetSendChannel() <- f:
	default:
		m.log.Warn().Str("draft_id", f.DraftID).Msg("client send buffer full, disconnecting")
		m.unregister(c)
	}
}

func (m *ManagerService) closeAllClients() {
	m.mu.Lock()
	all := m.clients
	m.clients = make(map[string]map[Client]struct{})
	m.mu.Unlock()
	for _, set := range all {
		for c := range set {
			c.Close()
		}
	}
}
