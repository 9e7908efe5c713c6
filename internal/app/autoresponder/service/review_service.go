package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/internal/app/autoresponder/infrastructure"
	"reviewpilot/internal/app/autoresponder/repository"
	"reviewpilot/pkg/logger"
	"reviewpilot/pkg/metrics"
)

// ReviewService - оркестратор пайплайна авто-ответчика:
// выборка комментариев -> дедупликация и ингестия -> классификация ->
// генерация ответа -> публикация на платформе
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	source      infrastructure.CommentSource
	credentials infrastructure.CredentialProvider
	classifier  SentimentClassifier
	generator   ResponseGenerator
	producer    infrastructure.MessagePublisher
	debounce    time.Duration
}

// NewReviewService создает новый оркестратор с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	source infrastructure.CommentSource,
	credentials infrastructure.CredentialProvider,
	classifier SentimentClassifier,
	generator ResponseGenerator,
	producer infrastructure.MessagePublisher,
	debounce time.Duration,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		source:      source,
		credentials: credentials,
		classifier:  classifier,
		generator:   generator,
		producer:    producer,
		debounce:    debounce,
	}
}

// SyncComments забирает новые комментарии со всех постов страницы бизнеса
// и создает по ним отзывы. Возвращает число созданных отзывов.
func (s *ReviewService) SyncComments(ctx context.Context, businessID string) (int, error) {
	link, err := s.resolveLink(ctx, businessID)
	if err != nil {
		return 0, err
	}

	return s.syncWithLink(ctx, link)
}

func (s *ReviewService) syncWithLink(ctx context.Context, link *entity.PlatformLink) (int, error) {
	posts, err := s.source.FetchPosts(ctx, link.PageID, link.PageAccessToken)
	if err != nil {
		// Терминальная ошибка цикла этого бизнеса; уникальный индекс делает
		// повторную выборку в следующем цикле безопасной
		return 0, fmt.Errorf("failed to fetch posts for business %s: %w", link.BusinessID, err)
	}

	created := 0
	for _, post := range posts {
		comments, err := s.source.FetchComments(ctx, post.ID, link.PageAccessToken)
		if err != nil {
			// Изоляция сбоев: падение одного поста не срывает остальные
			logger.Error().
				Err(err).
				Str("business_id", link.BusinessID).
				Str("post_id", post.ID).
				Msg("Failed to fetch comments, skipping post")
			continue
		}

		for _, comment := range comments {
			if strings.TrimSpace(comment.Message) == "" {
				continue
			}

			if ok, err := s.ingestComment(ctx, link.BusinessID, &comment); err != nil {
				logger.Error().
					Err(err).
					Str("business_id", link.BusinessID).
					Str("comment_id", comment.ID).
					Msg("Failed to ingest comment")
			} else if ok {
				created++
			}
		}
	}

	return created, nil
}

// ingestComment создает отзыв по комментарию, если он еще не наблюдался.
// Классификация выполняется до вставки: отзыв не существует без тональности.
func (s *ReviewService) ingestComment(ctx context.Context, businessID string, comment *entity.Comment) (bool, error) {
	// Дешевая проверка до обращения к классификатору; гарантию дает
	// уникальный индекс внутри InsertIfAbsent
	exists, err := s.reviewRepo.Exists(ctx, businessID, comment.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	review := &entity.Review{
		BusinessID:        businessID,
		PlatformCommentID: comment.ID,
		Author:            comment.AuthorName(),
		Message:           comment.Message,
		Sentiment:         s.classifier.Classify(ctx, comment.Message),
		CreatedAt:         comment.CreatedTime,
	}

	err = s.reviewRepo.InsertIfAbsent(ctx, review)
	if errors.Is(err, repository.ErrDuplicateReview) {
		// Параллельный обход успел первым - не ошибка
		return false, nil
	}
	if err != nil {
		return false, err
	}

	metrics.ReviewsIngested.WithLabelValues("facebook").Inc()

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType:  entity.EventReviewIngested,
		ReviewID:   review.ID.Hex(),
		BusinessID: businessID,
		Sentiment:  review.Sentiment,
		Timestamp:  time.Now(),
	})

	return true, nil
}

// ProcessBusiness выполняет один полный проход пайплайна для бизнеса:
// синхронизация комментариев, пауза, затем генерация и публикация ответов
// по всем отзывам без опубликованного ответа. Сбой обработки одного отзыва
// не прерывает обработку остальных.
func (s *ReviewService) ProcessBusiness(ctx context.Context, businessID string) error {
	link, err := s.resolveLink(ctx, businessID)
	if err != nil {
		return err
	}

	created, err := s.syncWithLink(ctx, link)
	if err != nil {
		return err
	}

	if created > 0 {
		// Даем платформе время на распространение комментариев,
		// прежде чем отвечать
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.debounce):
		}
	}

	pending, err := s.reviewRepo.ListUnresponded(ctx, businessID)
	if err != nil {
		return fmt.Errorf("failed to list unresponded reviews: %w", err)
	}

	for i := range pending {
		review := &pending[i]
		if err := s.processReview(ctx, review, link); err != nil {
			logger.Error().
				Err(err).
				Str("business_id", businessID).
				Str("review_id", review.ID.Hex()).
				Msg("Failed to process review, skipping")
		}
	}

	return nil
}

// processReview доводит один отзыв до опубликованного ответа
func (s *ReviewService) processReview(ctx context.Context, review *entity.Review, link *entity.PlatformLink) error {
	// Отзывы создаются уже классифицированными; guard остается для записей
	// прошлых версий без тональности
	if !review.Sentiment.Valid() {
		review.Sentiment = s.classifier.Classify(ctx, review.Message)
		if err := s.reviewRepo.SetSentiment(ctx, review.ID.Hex(), review.Sentiment); err != nil {
			return err
		}
	}

	if review.Response == "" {
		review.Response = s.generator.Generate(ctx, review.Message, review.Sentiment)
		if err := s.reviewRepo.SetResponse(ctx, review.ID.Hex(), review.Response); err != nil {
			return err
		}
	}

	err := s.publishWithLink(ctx, review, link)
	if errors.Is(err, ErrAlreadyResponded) {
		// Конкурирующий проход уже опубликовал - не ошибка
		return nil
	}
	return err
}

// RespondToReview генерирует (при отсутствии) и сохраняет черновик ответа
func (s *ReviewService) RespondToReview(ctx context.Context, reviewID string) (string, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return "", err
	}

	if review.Response != "" {
		return review.Response, nil
	}

	response := s.generator.Generate(ctx, review.Message, review.Sentiment)
	if err := s.reviewRepo.SetResponse(ctx, reviewID, response); err != nil {
		return "", fmt.Errorf("failed to store response draft: %w", err)
	}

	return response, nil
}

// PublishResponse публикует подготовленный ответ на платформе.
// Предусловия проверяются по порядку: отзыв существует, черновик ответа есть,
// ответ еще не публиковался. Повторная публикация не делает сетевой вызов.
func (s *ReviewService) PublishResponse(ctx context.Context, reviewID string) error {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}

	if review.Response == "" {
		return ErrNoResponse
	}

	if review.Responded() {
		return ErrAlreadyResponded
	}

	link, err := s.resolveLink(ctx, review.BusinessID)
	if err != nil {
		return err
	}

	return s.publishWithLink(ctx, review, link)
}

// publishWithLink постит ответ и помечает отзыв отвеченным строго один раз.
// Сетевой сбой публикации возвращается вызывающему и не фиксируется в сторе:
// неподтвержденная публикация не должна выглядеть отвеченной.
func (s *ReviewService) publishWithLink(ctx context.Context, review *entity.Review, link *entity.PlatformLink) error {
	if review.Responded() {
		return ErrAlreadyResponded
	}

	if err := s.source.PublishComment(ctx, review.PlatformCommentID, review.Response, link.PageAccessToken); err != nil {
		metrics.ResponsesPublished.WithLabelValues("facebook", "failed").Inc()
		return fmt.Errorf("failed to publish response for review %s: %w", review.ID.Hex(), err)
	}

	err := s.reviewRepo.MarkResponded(ctx, review.ID.Hex())
	if errors.Is(err, repository.ErrAlreadyResponded) {
		metrics.ResponsesPublished.WithLabelValues("facebook", "already_posted").Inc()
		return ErrAlreadyResponded
	}
	if err != nil {
		return fmt.Errorf("failed to mark review responded: %w", err)
	}

	metrics.ResponsesPublished.WithLabelValues("facebook", "success").Inc()

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType:  entity.EventReviewResponded,
		ReviewID:   review.ID.Hex(),
		BusinessID: review.BusinessID,
		Sentiment:  review.Sentiment,
		Timestamp:  time.Now(),
	})

	return nil
}

// GetBusinessReviews возвращает все отзывы бизнеса, новые первыми
func (s *ReviewService) GetBusinessReviews(ctx context.Context, businessID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// AnalyzeSentiment - разовая классификация произвольного текста
func (s *ReviewService) AnalyzeSentiment(ctx context.Context, text string) entity.Sentiment {
	return s.classifier.Classify(ctx, text)
}

// Reanalyze принудительно переклассифицирует сохраненный отзыв.
// Единственный путь смены тональности после ингестии.
func (s *ReviewService) Reanalyze(ctx context.Context, reviewID string) (entity.Sentiment, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return "", err
	}

	sentiment := s.classifier.Classify(ctx, review.Message)
	if err := s.reviewRepo.SetSentiment(ctx, reviewID, sentiment); err != nil {
		return "", fmt.Errorf("failed to update sentiment: %w", err)
	}

	return sentiment, nil
}

func (s *ReviewService) getReview(ctx context.Context, reviewID string) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) resolveLink(ctx context.Context, businessID string) (*entity.PlatformLink, error) {
	link, err := s.credentials.GetLinkedPlatform(ctx, businessID, entity.ProviderFacebook)
	if err != nil {
		if errors.Is(err, infrastructure.ErrNoPlatformLink) {
			return nil, ErrNoPlatformLink
		}
		return nil, fmt.Errorf("failed to resolve platform link: %w", err)
	}
	return link, nil
}

// publishEvent отправляет событие жизненного цикла отзыва в Kafka.
// Сбой Kafka логируется и не прерывает пайплайн.
func (s *ReviewService) publishEvent(ctx context.Context, event entity.ReviewEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal review event")
		return
	}

	if err := s.producer.PublishMessage(ctx, event.ReviewID, data); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", event.EventType).
			Str("review_id", event.ReviewID).
			Msg("Failed to publish review event")
	}
}
