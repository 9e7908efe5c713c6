package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/internal/app/autoresponder/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

// fakeReviewService управляемая заглушка пайплайна для handler-тестов
type fakeReviewService struct {
	syncCount    int
	syncErr      error
	reviews      []entity.Review
	reviewsErr   error
	sentiment    entity.Sentiment
	respondText  string
	respondErr   error
	publishErr   error
	reanalyzeErr error
}

func (f *fakeReviewService) SyncComments(ctx context.Context, businessID string) (int, error) {
	return f.syncCount, f.syncErr
}

func (f *fakeReviewService) ProcessBusiness(ctx context.Context, businessID string) error {
	return nil
}

func (f *fakeReviewService) GetBusinessReviews(ctx context.Context, businessID string) ([]entity.Review, error) {
	return f.reviews, f.reviewsErr
}

func (f *fakeReviewService) AnalyzeSentiment(ctx context.Context, text string) entity.Sentiment {
	return f.sentiment
}

func (f *fakeReviewService) Reanalyze(ctx context.Context, reviewID string) (entity.Sentiment, error) {
	return f.sentiment, f.reanalyzeErr
}

func (f *fakeReviewService) RespondToReview(ctx context.Context, reviewID string) (string, error) {
	return f.respondText, f.respondErr
}

func (f *fakeReviewService) PublishResponse(ctx context.Context, reviewID string) error {
	return f.publishErr
}

// fakeJobManager управляемая заглушка планировщика
type fakeJobManager struct {
	startErr    error
	active      bool
	next        time.Time
	startedSpec string
	stopped     []string
}

func (f *fakeJobManager) Start(businessID, spec string) error {
	f.startedSpec = spec
	return f.startErr
}

func (f *fakeJobManager) Stop(businessID string) {
	f.stopped = append(f.stopped, businessID)
}

func (f *fakeJobManager) Status(businessID string) (bool, time.Time) {
	return f.active, f.next
}

func setupRouter(reviewService service.ReviewServiceInterface, jobManager JobManagerInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAutoResponderHandler(reviewService, jobManager)
	return NewRouter(h, NewAuthMiddleware(testJWTSecret))
}

func validToken(t *testing.T) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID: "user-1",
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_RequiresAuth(t *testing.T) {
	router := setupRouter(&fakeReviewService{}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodGet, "/reviews/business/biz-1", nil, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RejectsMalformedAuthHeader(t *testing.T) {
	router := setupRouter(&fakeReviewService{}, &fakeJobManager{})

	req := httptest.NewRequest(http.MethodGet, "/reviews/business/biz-1", nil)
	req.Header.Set("Authorization", "token-without-bearer")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint_Unauthenticated(t *testing.T) {
	router := setupRouter(&fakeReviewService{}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartJob_Success(t *testing.T) {
	jobManager := &fakeJobManager{}
	router := setupRouter(&fakeReviewService{}, jobManager)

	w := doRequest(t, router, http.MethodPost, "/autoresponder/biz-1/start",
		entity.StartJobRequest{Cron: "*/10 * * * * *"}, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*/10 * * * * *", jobManager.startedSpec)
}

func TestStartJob_EmptyBodyUsesDefault(t *testing.T) {
	jobManager := &fakeJobManager{}
	router := setupRouter(&fakeReviewService{}, jobManager)

	w := doRequest(t, router, http.MethodPost, "/autoresponder/biz-1/start", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", jobManager.startedSpec)
}

func TestStartJob_InvalidCron(t *testing.T) {
	jobManager := &fakeJobManager{startErr: assert.AnError}
	router := setupRouter(&fakeReviewService{}, jobManager)

	w := doRequest(t, router, http.MethodPost, "/autoresponder/biz-1/start",
		entity.StartJobRequest{Cron: "bad"}, validToken(t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStopJob_Success(t *testing.T) {
	jobManager := &fakeJobManager{}
	router := setupRouter(&fakeReviewService{}, jobManager)

	w := doRequest(t, router, http.MethodPost, "/autoresponder/biz-1/stop", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"biz-1"}, jobManager.stopped)
}

func TestJobStatus_Active(t *testing.T) {
	next := time.Now().Add(30 * time.Second)
	router := setupRouter(&fakeReviewService{}, &fakeJobManager{active: true, next: next})

	w := doRequest(t, router, http.MethodGet, "/autoresponder/biz-1/status", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.JobStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Active)
	require.NotNil(t, resp.NextRun)
	assert.WithinDuration(t, next, *resp.NextRun, time.Second)
}

func TestJobStatus_Inactive(t *testing.T) {
	router := setupRouter(&fakeReviewService{}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodGet, "/autoresponder/biz-1/status", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.JobStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Active)
	assert.Nil(t, resp.NextRun)
}

func TestSyncReviews_Success(t *testing.T) {
	router := setupRouter(&fakeReviewService{syncCount: 3}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/business/biz-1/sync", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.SyncResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Count)
}

func TestSyncReviews_NoPlatformLink(t *testing.T) {
	router := setupRouter(&fakeReviewService{syncErr: service.ErrNoPlatformLink}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/business/biz-1/sync", nil, validToken(t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReviews_Success(t *testing.T) {
	router := setupRouter(&fakeReviewService{reviews: []entity.Review{
		{BusinessID: "biz-1", Message: "Great!"},
		{BusinessID: "biz-1", Message: "Awful!"},
	}}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodGet, "/reviews/business/biz-1", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.ReviewListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
}

func TestAnalyzeSentiment_Success(t *testing.T) {
	router := setupRouter(&fakeReviewService{sentiment: entity.SentimentPositive}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/analyze-sentiment",
		entity.AnalyzeSentimentRequest{Text: "J'adore ce service !"}, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.AnalyzeSentimentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entity.SentimentPositive, resp.Sentiment)
}

func TestAnalyzeSentiment_MissingText(t *testing.T) {
	router := setupRouter(&fakeReviewService{}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/analyze-sentiment",
		entity.AnalyzeSentimentRequest{}, validToken(t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespond_Success(t *testing.T) {
	router := setupRouter(&fakeReviewService{respondText: "Merci !"}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/abc123/respond", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.RespondResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Merci !", resp.Response)
}

func TestRespond_AlreadyResponded(t *testing.T) {
	router := setupRouter(&fakeReviewService{
		respondText: "Merci !",
		publishErr:  service.ErrAlreadyResponded,
	}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/abc123/respond", nil, validToken(t))

	// Повторная публикация - не ошибка, но success=false
	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.RespondResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestRespond_NotFound(t *testing.T) {
	router := setupRouter(&fakeReviewService{respondErr: service.ErrReviewNotFound}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/missing/respond", nil, validToken(t))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublish_NoDraft(t *testing.T) {
	router := setupRouter(&fakeReviewService{publishErr: service.ErrNoResponse}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/abc123/publish", nil, validToken(t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublish_Success(t *testing.T) {
	router := setupRouter(&fakeReviewService{}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/abc123/publish", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReanalyze_Success(t *testing.T) {
	router := setupRouter(&fakeReviewService{sentiment: entity.SentimentNegative}, &fakeJobManager{})

	w := doRequest(t, router, http.MethodPost, "/reviews/abc123/reanalyze", nil, validToken(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.AnalyzeSentimentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entity.SentimentNegative, resp.Sentiment)
}
