package mocks

import (
	"context"

	"reviewpilot/internal/app/autoresponder/entity"

	"github.com/stretchr/testify/mock"
)

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) InsertIfAbsent(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Exists(ctx context.Context, businessID, platformCommentID string) (bool, error) {
	args := m.Called(ctx, businessID, platformCommentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByBusinessID(ctx context.Context, businessID string) ([]entity.Review, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) ListUnresponded(ctx context.Context, businessID string) ([]entity.Review, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) SetSentiment(ctx context.Context, id string, sentiment entity.Sentiment) error {
	args := m.Called(ctx, id, sentiment)
	return args.Error(0)
}

func (m *MockReviewRepository) SetResponse(ctx context.Context, id string, response string) error {
	args := m.Called(ctx, id, response)
	return args.Error(0)
}

func (m *MockReviewRepository) MarkResponded(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMessagePublisher мок для Kafka MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
