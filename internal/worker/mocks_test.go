package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vidchat/internal/turnlog"
)

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

type MockTurnStore struct{ mock.Mock }

func (m *MockTurnStore) Save(ctx context.Context, r *turnlog.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
