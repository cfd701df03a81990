package handler_test

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetMessage(channelID string, timetoken int64) (*models.Message, error) {
	args := m.Called(channelID, timetoken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStore) GetCachedMessage(ctx context.Context, channelID string, timetoken int64) (*models.PublishedMessage, error) {
	args := m.Called(channelID, timetoken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublishedMessage), args.Error(1)
}

func (m *MockStore) GetUnreadMessagesCount(channelID, userID string) (*int64, error) {
	args := m.Called(channelID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockStore) MarkRead(channelID, userID string, timetoken int64) error {
	return m.Called(channelID, userID, timetoken).Error(0)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ctx context.Context, req draft.PublishRequest) (int64, error) {
	args := m.Called(req)
	return args.Get(0).(int64), args.Error(1)
}

type staticSource struct{}

func (staticSource) ResolveUserCandidates(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error) {
	return []models.User{{ID: "u1", Name: "Marian"}}, nil
}

func (staticSource) ResolveChannelCandidates(ctx context.Context, query string, limit int) ([]models.Channel, error) {
	return []models.Channel{{ID: "c1", Name: "general"}}, nil
}
