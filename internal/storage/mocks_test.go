package storage_test

import (
	"chatdraft/backend/internal/models"
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveUser(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *MockStorage) SaveChannel(channel *models.Channel) error {
	return m.Called(channel).Error(0)
}

func (m *MockStorage) JoinChannel(channelID, userID string) error {
	return m.Called(channelID, userID).Error(0)
}

func (m *MockStorage) SearchUsers(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error) {
	args := m.Called(query, scope, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) SearchChannels(ctx context.Context, query string, limit int) ([]models.Channel, error) {
	args := m.Called(query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Channel), args.Error(1)
}

func (m *MockStorage) SaveMessage(msg *models.Message) error {
	return m.Called(msg).Error(0)
}

func (m *MockStorage) DeleteMessage(channelID string, timetoken int64) error {
	return m.Called(channelID, timetoken).Error(0)
}

func (m *MockStorage) GetMessage(channelID string, timetoken int64) (*models.Message, error) {
	args := m.Called(channelID, timetoken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) GetUnreadMessagesCount(channelID, userID string) (*int64, error) {
	args := m.Called(channelID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockStorage) MarkRead(channelID, userID string, timetoken int64) error {
	return m.Called(channelID, userID, timetoken).Error(0)
}

func (m *MockStorage) PublishMessage(ctx context.Context, msg models.PublishedMessage) error {
	return m.Called(msg).Error(0)
}

func (m *MockStorage) CacheMessage(ctx context.Context, msg models.PublishedMessage, ttl time.Duration) error {
	return m.Called(msg, ttl).Error(0)
}

func (m *MockStorage) UncacheMessage(ctx context.Context, channelID string, timetoken int64) error {
	return m.Called(channelID, timetoken).Error(0)
}

func (m *MockStorage) GetCachedMessage(ctx context.Context, channelID string, timetoken int64) (*models.PublishedMessage, error) {
	args := m.Called(channelID, timetoken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublishedMessage), args.Error(1)
}

func (m *MockStorage) SetTyping(ctx context.Context, signal models.TypingSignal, ttl time.Duration) error {
	return m.Called(signal, ttl).Error(0)
}
