package handler

import (
	"errors"
	"net/http"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/internal/app/autoresponder/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// JobManagerInterface - контракт планировщика для handlers
type JobManagerInterface interface {
	Start(businessID, spec string) error
	Stop(businessID string)
	Status(businessID string) (bool, time.Time)
}

type AutoResponderHandler struct {
	reviewService service.ReviewServiceInterface
	jobManager    JobManagerInterface
	validator     *validator.Validate
}

func NewAutoResponderHandler(reviewService service.ReviewServiceInterface, jobManager JobManagerInterface) *AutoResponderHandler {
	return &AutoResponderHandler{
		reviewService: reviewService,
		jobManager:    jobManager,
		validator:     validator.New(),
	}
}

// StartJob запускает recurring-задачу авто-ответчика для бизнеса.
// Тело запроса опционально: {"cron": "<6-полевое выражение>"}.
func (h *AutoResponderHandler) StartJob(c *gin.Context) {
	businessID := c.Param("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Business ID is required"})
		return
	}

	var req entity.StartJobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	if err := h.jobManager.Start(businessID, req.Cron); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Success: true,
		Message: "Auto-responder started",
	})
}

// StopJob снимает задачу авто-ответчика; отсутствие задачи - тоже успех
func (h *AutoResponderHandler) StopJob(c *gin.Context) {
	businessID := c.Param("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Business ID is required"})
		return
	}

	h.jobManager.Stop(businessID)

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Success: true,
		Message: "Auto-responder stopped",
	})
}

// JobStatus возвращает состояние задачи бизнеса и время следующего запуска
func (h *AutoResponderHandler) JobStatus(c *gin.Context) {
	businessID := c.Param("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Business ID is required"})
		return
	}

	active, next := h.jobManager.Status(businessID)

	resp := entity.JobStatusResponse{Active: active}
	if active && !next.IsZero() {
		resp.NextRun = &next
	}

	c.JSON(http.StatusOK, resp)
}

// SyncReviews вручную запускает синхронизацию комментариев для бизнеса
func (h *AutoResponderHandler) SyncReviews(c *gin.Context) {
	businessID := c.Param("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Business ID is required"})
		return
	}

	count, err := h.reviewService.SyncComments(c.Request.Context(), businessID)
	if err != nil {
		if errors.Is(err, service.ErrNoPlatformLink) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No platform linked to this business"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync reviews"})
		return
	}

	c.JSON(http.StatusOK, entity.SyncResponse{
		Success: true,
		Count:   count,
	})
}

// GetReviews возвращает все отзывы бизнеса
func (h *AutoResponderHandler) GetReviews(c *gin.Context) {
	businessID := c.Param("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Business ID is required"})
		return
	}

	reviews, err := h.reviewService.GetBusinessReviews(c.Request.Context(), businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get reviews"})
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{
		Success: true,
		Data:    reviews,
		Count:   len(reviews),
	})
}

// AnalyzeSentiment - разовая классификация произвольного текста
func (h *AutoResponderHandler) AnalyzeSentiment(c *gin.Context) {
	var req entity.AnalyzeSentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	sentiment := h.reviewService.AnalyzeSentiment(c.Request.Context(), req.Text)

	c.JSON(http.StatusOK, entity.AnalyzeSentimentResponse{
		Success:   true,
		Sentiment: sentiment,
	})
}

// Respond генерирует ответ на отзыв (при отсутствии) и публикует его.
// Повторный вызов для уже отвеченного отзыва возвращает 200 с success=false.
func (h *AutoResponderHandler) Respond(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	response, err := h.reviewService.RespondToReview(c.Request.Context(), reviewID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if err := h.reviewService.PublishResponse(c.Request.Context(), reviewID); err != nil {
		if errors.Is(err, service.ErrAlreadyResponded) {
			c.JSON(http.StatusOK, entity.RespondResponse{
				Success: false,
				Message: "Response already posted for this review",
			})
			return
		}
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.RespondResponse{
		Success:  true,
		Response: response,
	})
}

// Publish публикует ранее подготовленный черновик ответа
func (h *AutoResponderHandler) Publish(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	if err := h.reviewService.PublishResponse(c.Request.Context(), reviewID); err != nil {
		if errors.Is(err, service.ErrAlreadyResponded) {
			c.JSON(http.StatusOK, entity.RespondResponse{
				Success: false,
				Message: "Response already posted for this review",
			})
			return
		}
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Success: true,
		Message: "Response published",
	})
}

// Reanalyze принудительно переклассифицирует сохраненный отзыв
func (h *AutoResponderHandler) Reanalyze(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	sentiment, err := h.reviewService.Reanalyze(c.Request.Context(), reviewID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.AnalyzeSentimentResponse{
		Success:   true,
		Sentiment: sentiment,
	})
}

// writeServiceError транслирует ошибки бизнес-логики в HTTP статусы
func (h *AutoResponderHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, service.ErrNoResponse):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No response generated for this review"})
	case errors.Is(err, service.ErrNoPlatformLink):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No platform linked to this business"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
