package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentiment - закрытое множество меток тональности отзыва
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid проверяет, что метка входит в допустимое множество
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// Language - язык комментария, определяется эвристикой один раз на вызов
type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// Review - комментарий клиента с внешней платформы и его жизненный цикл:
// создается при первом наблюдении комментария, мутируется классификацией
// (sentiment), генерацией (response) и публикацией (responded_at)
type Review struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BusinessID        string             `json:"business_id" bson:"business_id"`                 // UUID бизнеса-тенанта
	PlatformCommentID string             `json:"platform_comment_id" bson:"platform_comment_id"` // ID комментария на платформе
	Author            string             `json:"author" bson:"author"`
	Message           string             `json:"message" bson:"message"`
	Sentiment         Sentiment          `json:"sentiment" bson:"sentiment"`
	Response          string             `json:"response,omitempty" bson:"response,omitempty"` // черновик ответа до публикации
	RespondedAt       *time.Time         `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// Responded сообщает, опубликован ли ответ на платформе.
// Единственный признак публикации - responded_at; непустой response
// означает только подготовленный черновик.
func (r *Review) Responded() bool {
	return r.RespondedAt != nil
}

// ReviewEvent - событие жизненного цикла отзыва для Kafka
type ReviewEvent struct {
	EventType  string    `json:"event_type"` // REVIEW_INGESTED, REVIEW_RESPONDED
	ReviewID   string    `json:"review_id"`
	BusinessID string    `json:"business_id"`
	Sentiment  Sentiment `json:"sentiment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	EventReviewIngested  = "REVIEW_INGESTED"
	EventReviewResponded = "REVIEW_RESPONDED"
)

// PlatformLink - привязка бизнеса к странице внешней платформы.
// Выдается платформенным сервисом по business id.
type PlatformLink struct {
	BusinessID      string `json:"business_id"`
	Provider        string `json:"provider"` // FACEBOOK
	PageID          string `json:"page_id"`
	PageAccessToken string `json:"page_access_token"`
}

const ProviderFacebook = "FACEBOOK"

// Post - пост страницы, полученный из Graph API
type Post struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	CreatedTime time.Time `json:"created_time"`
}

// Comment - комментарий к посту, полученный из Graph API
type Comment struct {
	ID          string      `json:"id"`
	From        CommentFrom `json:"from"`
	Message     string      `json:"message"`
	CreatedTime time.Time   `json:"created_time"`
}

type CommentFrom struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// AuthorName возвращает отображаемое имя автора комментария
func (c *Comment) AuthorName() string {
	if c.From.Name != "" {
		return c.From.Name
	}
	if c.From.Username != "" {
		return c.From.Username
	}
	return "Facebook User"
}
