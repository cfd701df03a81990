package draft_test

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSource is a testify mock of draft.SuggestionSource.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ResolveUserCandidates(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error) {
	args := m.Called(query, scope, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockSource) ResolveChannelCandidates(ctx context.Context, query string, limit int) ([]models.Channel, error) {
	args := m.Called(query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Channel), args.Error(1)
}

// blockingSource holds every lookup until release is closed, ignoring
// cancellation, so tests can deliver results late.
type blockingSource struct {
	release chan struct{}
	users   []models.User
}

func newBlockingSource(users ...models.User) *blockingSource {
	return &blockingSource{release: make(chan struct{}), users: users}
}

func (s *blockingSource) ResolveUserCandidates(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error) {
	<-s.release
	return s.users, nil
}

func (s *blockingSource) ResolveChannelCandidates(ctx context.Context, query string, limit int) ([]models.Channel, error) {
	<-s.release
	return nil, nil
}

// MockSink is a testify mock of draft.PublishSink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ctx context.Context, req draft.PublishRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

// fakeTyping records typing signals on a channel.
type fakeTyping struct {
	signals chan bool
}

func newFakeTyping() *fakeTyping {
	return &fakeTyping{signals: make(chan bool, 16)}
}

func (f *fakeTyping) StartTyping(ctx context.Context, channelID, userID string) error {
	f.signals <- true
	return nil
}

func (f *fakeTyping) StopTyping(ctx context.Context, channelID, userID string) error {
	f.signals <- false
	return nil
}
