package cache

import (
	"context"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
)

// ReviewCache интерфейс кеша результатов классификации и генерации.
// Используется для dependency injection и упрощения тестирования.
// Кеш - оптимизация стоимости обращений к LLM, никогда не источник истины.
type ReviewCache interface {
	GetSentiment(ctx context.Context, text string) (entity.Sentiment, bool)
	SetSentiment(ctx context.Context, text string, sentiment entity.Sentiment)
	GetResponse(ctx context.Context, sentiment entity.Sentiment, message string) (string, bool)
	SetResponse(ctx context.Context, sentiment entity.Sentiment, message string, response string)
	Close() error
}

const (
	// Тональность фиксированного текста считаем стабильной - долгий TTL
	SentimentTTL = 24 * time.Hour
	ResponseTTL  = 12 * time.Hour
)
