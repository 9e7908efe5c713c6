package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Redis Метрики (кеш сентимента и ответов)
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Business Метрики (специфичные для ReviewPilot)
// =============================================================================

// ReviewsIngested - новые отзывы, созданные при синхронизации комментариев
var ReviewsIngested = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_ingested_total",
		Help: "Total number of reviews ingested from external platforms",
	},
	[]string{"platform"},
)

// SentimentResults - результаты классификации
// Labels: label (positive/negative/neutral), source (cache/remote/fallback)
var SentimentResults = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sentiment_results_total",
		Help: "Total number of sentiment classifications by label and source",
	},
	[]string{"label", "source"},
)

// ResponsesGenerated - сгенерированные ответы
// Labels: source (cache/remote/fallback)
var ResponsesGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "responses_generated_total",
		Help: "Total number of generated review responses",
	},
	[]string{"source"},
)

// ResponsesPublished - опубликованные на платформе ответы
var ResponsesPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "responses_published_total",
		Help: "Total number of responses published back to the platform",
	},
	[]string{"platform", "status"}, // status: success, failed, already_posted
)

// FetchRateLimitHits - срабатывания rate limit при выборке комментариев
var FetchRateLimitHits = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fetch_rate_limit_hits_total",
		Help: "Total number of HTTP 429 responses during comment fetching",
	},
)

// SweepDuration - время одного прохода пайплайна по бизнесу
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of one auto-responder sweep for a business",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	},
)

// ActiveJobs - количество активных per-business задач планировщика
var ActiveJobs = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "autoresponder_active_jobs",
		Help: "Number of active per-business auto-responder jobs",
	},
)
