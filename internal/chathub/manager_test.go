package chathub_test

import (
	"chatdraft/backend/internal/chathub"
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticSource returns the same users for every query.
type staticSource struct {
	users []models.User
}

func (s staticSource) ResolveUserCandidates(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error) {
	return s.users, nil
}

func (s staticSource) ResolveChannelCandidates(ctx context.Context, query string, limit int) ([]models.Channel, error) {
	return nil, nil
}

func newHub(t *testing.T) *chathub.ManagerService {
	t.Helper()
	source := staticSource{users: []models.User{{ID: "u1", Name: "Marian"}}}
	hub := chathub.NewManagerService(func(channelID, userID string) *draft.MessageDraft {
		return draft.New(draft.Options{ChannelID: channelID, UserID: userID, Source: source})
	}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func nextFrame(t *testing.T, c *MockClient) chathub.Frame {
	t.Helper()
	select {
	case f := <-c.RecvChannel:
		return f
	case <-time.After(time.Second):
		t.Fatal("client did not receive a frame")
		return chathub.Frame{}
	}
}

func TestManager_Sessions(t *testing.T) {
	hub := newHub(t)

	s := hub.CreateSession("c1", "author")
	got, ok := hub.GetSession(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, hub.SessionCount())

	assert.True(t, hub.CloseSession(s.ID, 0))
	assert.False(t, hub.CloseSession(s.ID, 0))
	_, ok = hub.GetSession(s.ID)
	assert.False(t, ok)

	_, err := s.Mutate("insert", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.InsertText(0, "late")
	})
	assert.ErrorIs(t, err, chathub.ErrSessionClosed)
}

func TestManager_Run(t *testing.T) {
	hub := newHub(t)
	s := hub.CreateSession("c1", "author")
	client := newMockClient(s.ID)

	require.True(t, hub.Register(client))
	snapshot := nextFrame(t, client)
	assert.Equal(t, chathub.FrameElements, snapshot.Type)
	assert.Equal(t, 1, hub.ClientCount(s.ID))

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount(s.ID) == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, client.closed.Load())
}

func TestManager_RegisterUnknownSession(t *testing.T) {
	hub := newHub(t)
	client := newMockClient("missing")

	require.True(t, hub.Register(client))

	require.Eventually(t, client.closed.Load, time.Second, 5*time.Millisecond)
	assert.Zero(t, hub.ClientCount("missing"))
}

func TestManager_RegisterClosedSession(t *testing.T) {
	hub := newHub(t)
	s := hub.CreateSession("c1", "author")
	require.True(t, hub.CloseSession(s.ID, 0))
	client := newMockClient(s.ID)

	require.True(t, hub.Register(client))

	require.Eventually(t, client.closed.Load, time.Second, 5*time.Millisecond)
	assert.Zero(t, hub.ClientCount(s.ID))
	assert.Empty(t, client.RecvChannel, "clients of closed sessions get no frames")
}

func TestManager_StoppedHubDoesNotBlock(t *testing.T) {
	hub := chathub.NewManagerService(func(channelID, userID string) *draft.MessageDraft {
		return draft.New(draft.Options{ChannelID: channelID, UserID: userID})
	}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	s := hub.CreateSession("c1", "author")
	client := newMockClient(s.ID)
	require.True(t, hub.Register(client))
	nextFrame(t, client)

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.True(t, client.closed.Load(), "shutdown closes every client")

	unregistered := make(chan struct{})
	go func() {
		hub.Unregister(client)
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after shutdown")
	}

	late := newMockClient(s.ID)
	assert.False(t, hub.Register(late))
	assert.True(t, late.closed.Load())
}

func TestManager_StreamsElementsThenSuggestions(t *testing.T) {
	hub := newHub(t)
	s := hub.CreateSession("c1", "author")
	client := newMockClient(s.ID)
	require.True(t, hub.Register(client))
	nextFrame(t, client)

	_, err := s.Mutate("insert", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.InsertText(0, "hi @mar")
	})
	require.NoError(t, err)

	elements := nextFrame(t, client)
	assert.Equal(t, chathub.FrameElements, elements.Type)
	assert.Equal(t, []models.MessageElement{models.PlainText("hi @mar")}, elements.Elements)

	suggestions := nextFrame(t, client)
	assert.Equal(t, chathub.FrameSuggestions, suggestions.Type)
	require.Len(t, suggestions.Suggestions, 1)
	assert.Equal(t, "Marian", suggestions.Suggestions[0].ReplaceWith)
}

func TestManager_CloseNotifiesClients(t *testing.T) {
	hub := newHub(t)
	s := hub.CreateSession("c1", "author")
	client := newMockClient(s.ID)
	require.True(t, hub.Register(client))
	nextFrame(t, client)

	hub.CloseSession(s.ID, 1234)

	closed := nextFrame(t, client)
	assert.Equal(t, chathub.FrameClosed, closed.Type)
	assert.Equal(t, int64(1234), closed.Timetoken)
	require.Eventually(t, client.closed.Load, time.Second, 5*time.Millisecond)
}

func TestSession_MutateReportsErrors(t *testing.T) {
	hub := newHub(t)
	s := hub.CreateSession("c1", "author")

	_, err := s.Mutate("remove", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.RemoveText(5, 1)
	})
	assert.ErrorIs(t, err, draft.ErrRange)

	_, err = s.Send(context.Background(), models.DefaultPublishOptions())
	assert.True(t, errors.Is(err, draft.ErrPublishFailure), "drafts without a sink fail to publish")
}
