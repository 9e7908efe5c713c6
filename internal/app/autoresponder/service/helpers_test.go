package service

import (
	"context"
	"testing"

	"reviewpilot/internal/app/autoresponder/cache"
	"reviewpilot/internal/app/autoresponder/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatCompleter мок удаленного LLM API
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

// MockCommentSource мок клиента внешней платформы
type MockCommentSource struct {
	mock.Mock
}

func (m *MockCommentSource) FetchPosts(ctx context.Context, pageID, accessToken string) ([]entity.Post, error) {
	args := m.Called(ctx, pageID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Post), args.Error(1)
}

func (m *MockCommentSource) FetchComments(ctx context.Context, postID, accessToken string) ([]entity.Comment, error) {
	args := m.Called(ctx, postID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Comment), args.Error(1)
}

func (m *MockCommentSource) PublishComment(ctx context.Context, commentID, message, accessToken string) error {
	args := m.Called(ctx, commentID, message, accessToken)
	return args.Error(0)
}

// MockCredentialProvider мок поставщика привязок платформ
type MockCredentialProvider struct {
	mock.Mock
}

func (m *MockCredentialProvider) GetLinkedPlatform(ctx context.Context, businessID, provider string) (*entity.PlatformLink, error) {
	args := m.Called(ctx, businessID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PlatformLink), args.Error(1)
}

func (m *MockCredentialProvider) ListLinkedBusinesses(ctx context.Context, provider string) ([]entity.PlatformLink, error) {
	args := m.Called(ctx, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PlatformLink), args.Error(1)
}

// stubClassifier возвращает фиксированную тональность
type stubClassifier struct {
	sentiment entity.Sentiment
}

func (s *stubClassifier) Classify(ctx context.Context, text string) entity.Sentiment {
	return s.sentiment
}

// stubGenerator возвращает фиксированный ответ
type stubGenerator struct {
	response string
}

func (s *stubGenerator) Generate(ctx context.Context, message string, sentiment entity.Sentiment) string {
	return s.response
}

// newTestCache поднимает кеш поверх miniredis
func newTestCache(t *testing.T) (cache.ReviewCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	reviewCache, err := cache.NewRedisCache(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { reviewCache.Close() })

	return reviewCache, mr
}
