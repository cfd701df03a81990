package chathub_test

import (
	"chatdraft/backend/internal/chathub"
	"sync/atomic"
)

type MockClient struct {
	draftID     string
	RecvChannel chan chathub.Frame
	closed      atomic.Bool
}

func newMockClient(draftID string) *MockClient {
	return &MockClient{
		draftID:     draftID,
		RecvChannel: make(chan chathub.Frame, 10),
	}
}

func (c *MockClient) GetDraftID() string {
	return c.draftID
}

func (c *MockClient) GetSendChannel() chan<- chathub.Frame {
	return c.RecvChannel
}

func (c *MockClient) Close() {
	c.closed.Store(true)
}

func (c *MockClient) Run() {
	// Not needed for testing
}
