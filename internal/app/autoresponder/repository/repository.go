package repository

import (
	"context"

	"reviewpilot/internal/app/autoresponder/entity"
)

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	// InsertIfAbsent атомарно создает отзыв, если пары
	// (business_id, platform_comment_id) еще нет; иначе ErrDuplicateReview
	InsertIfAbsent(ctx context.Context, review *entity.Review) error
	// Exists - дешевая проверка перед классификацией; гарантию дедупликации
	// дает уникальный индекс в InsertIfAbsent, а не эта проверка
	Exists(ctx context.Context, businessID, platformCommentID string) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	GetByBusinessID(ctx context.Context, businessID string) ([]entity.Review, error)
	// ListUnresponded возвращает отзывы бизнеса без опубликованного ответа
	ListUnresponded(ctx context.Context, businessID string) ([]entity.Review, error)
	SetSentiment(ctx context.Context, id string, sentiment entity.Sentiment) error
	SetResponse(ctx context.Context, id string, response string) error
	// MarkResponded выставляет responded_at только если он еще не выставлен;
	// при проигрыше гонки возвращает ErrAlreadyResponded
	MarkResponded(ctx context.Context, id string) error
}
