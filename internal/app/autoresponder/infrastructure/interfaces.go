package infrastructure

import (
	"context"
	"errors"

	"reviewpilot/internal/app/autoresponder/entity"
)

// ErrNoPlatformLink - у бизнеса нет привязанного аккаунта платформы
var ErrNoPlatformLink = errors.New("no platform linked to this business")

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// CommentSource интерфейс клиента внешней платформы:
// постраничная выборка постов и комментариев и публикация ответа
type CommentSource interface {
	FetchPosts(ctx context.Context, pageID, accessToken string) ([]entity.Post, error)
	FetchComments(ctx context.Context, postID, accessToken string) ([]entity.Comment, error)
	PublishComment(ctx context.Context, commentID, message, accessToken string) error
}

// CredentialProvider интерфейс поставщика привязок платформ:
// по business id возвращает pageId и pageAccessToken
type CredentialProvider interface {
	GetLinkedPlatform(ctx context.Context, businessID, provider string) (*entity.PlatformLink, error)
	ListLinkedBusinesses(ctx context.Context, provider string) ([]entity.PlatformLink, error)
}
