package service

import (
	"context"

	"reviewpilot/internal/app/autoresponder/entity"
)

// SentimentClassifier интерфейс классификатора тональности
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) entity.Sentiment
}

// ResponseGenerator интерфейс генератора ответов
type ResponseGenerator interface {
	Generate(ctx context.Context, message string, sentiment entity.Sentiment) string
}

// ReviewServiceInterface - контракт оркестратора пайплайна для handlers
// и планировщика
type ReviewServiceInterface interface {
	SyncComments(ctx context.Context, businessID string) (int, error)
	ProcessBusiness(ctx context.Context, businessID string) error
	GetBusinessReviews(ctx context.Context, businessID string) ([]entity.Review, error)
	AnalyzeSentiment(ctx context.Context, text string) entity.Sentiment
	Reanalyze(ctx context.Context, reviewID string) (entity.Sentiment, error)
	RespondToReview(ctx context.Context, reviewID string) (string, error)
	PublishResponse(ctx context.Context, reviewID string) error
}
