package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound   = errors.New("review not found")
	ErrDuplicateReview  = errors.New("review already exists for this comment")
	ErrAlreadyResponded = errors.New("review already responded")
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов.
// Уникальный составной индекс (business_id, platform_comment_id) - ключ дедупликации:
// именно он, а не проверка перед вставкой, защищает от гонок параллельных обходов.
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dedupIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "platform_comment_id", Value: 1},
		},
		Options: options.Index().
			SetName("business_platform_comment_idx").
			SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, dedupIndex)
	if err != nil {
		// Логируем ошибку, но не прерываем работу - индекс может уже существовать
		logger.Warn().Err(err).Msg("Failed to create dedup index on reviews")
	}

	businessIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("business_created_idx"),
	}

	_, err = collection.Indexes().CreateOne(ctx, businessIndex)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create business_id index on reviews")
	}

	return &reviewRepository{
		collection: collection,
	}
}

// InsertIfAbsent создает новый отзыв; дубликат по ключу дедупликации
// превращается в ErrDuplicateReview
func (r *reviewRepository) InsertIfAbsent(ctx context.Context, review *entity.Review) error {
	now := time.Now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// Exists проверяет наличие отзыва по ключу дедупликации
func (r *reviewRepository) Exists(ctx context.Context, businessID, platformCommentID string) (bool, error) {
	filter := bson.M{
		"business_id":         businessID,
		"platform_comment_id": platformCommentID,
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}

	return count > 0, nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid review ID: %w", err)
	}

	var review entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// GetByBusinessID получает все отзывы бизнеса, новые первыми
func (r *reviewRepository) GetByBusinessID(ctx context.Context, businessID string) ([]entity.Review, error) {
	filter := bson.M{"business_id": businessID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// ListUnresponded получает отзывы бизнеса, по которым ответ еще не опубликован
func (r *reviewRepository) ListUnresponded(ctx context.Context, businessID string) ([]entity.Review, error) {
	filter := bson.M{
		"business_id":  businessID,
		"responded_at": bson.M{"$exists": false},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find unresponded reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// SetSentiment обновляет тональность отзыва
func (r *reviewRepository) SetSentiment(ctx context.Context, id string, sentiment entity.Sentiment) error {
	return r.updateFields(ctx, id, bson.M{"sentiment": sentiment})
}

// SetResponse сохраняет черновик ответа
func (r *reviewRepository) SetResponse(ctx context.Context, id string, response string) error {
	return r.updateFields(ctx, id, bson.M{"response": response})
}

// MarkResponded выставляет responded_at ровно один раз.
// Фильтр по отсутствию responded_at делает операцию атомарной:
// второй конкурент получает MatchedCount == 0 и ErrAlreadyResponded.
func (r *reviewRepository) MarkResponded(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	now := time.Now()
	filter := bson.M{
		"_id":          objectID,
		"responded_at": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"responded_at": now,
			"updated_at":   now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark review responded: %w", err)
	}

	if result.MatchedCount == 0 {
		// Либо отзыва нет, либо responded_at уже выставлен
		var review entity.Review
		err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrReviewNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check review state: %w", err)
		}
		return ErrAlreadyResponded
	}

	return nil
}

func (r *reviewRepository) updateFields(ctx context.Context, id string, fields bson.M) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	fields["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}
