package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	LLM       LLMConfig
	Facebook  FacebookConfig
	Platform  PlatformConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8084)
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных
}

type RedisConfig struct {
	Addr     string // Адрес Redis (host:port)
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для событий жизненного цикла отзывов
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки JWT токенов (выдает Auth Service)
}

type LLMConfig struct {
	APIKey          string        // Ключ API (обязательный, без него сервис не стартует)
	BaseURL         string        // Базовый URL chat-completions API
	Model           string        // Имя модели
	ClassifyTimeout time.Duration // Таймаут запроса классификации
	GenerateTimeout time.Duration // Таймаут запроса генерации
}

type FacebookConfig struct {
	GraphBaseURL string // Базовый URL Graph API
}

type PlatformConfig struct {
	BaseURL string // Базовый URL сервиса привязок платформ
}

type SchedulerConfig struct {
	DefaultCron string        // Cron-выражение per-business задачи по умолчанию
	SweepCron   string        // Cron-выражение глобального обхода
	Debounce    time.Duration // Пауза между ингестией и публикацией ответа
}

func Load() (*Config, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		// Отсутствие ключа - фатальная ошибка конфигурации, не дефолтим
		return nil, fmt.Errorf("LLM_API_KEY is not configured")
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8084"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "reviewpilot"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "review_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		LLM: LLMConfig{
			APIKey:          apiKey,
			BaseURL:         getEnv("LLM_BASE_URL", "https://api.deepseek.com/v1"),
			Model:           getEnv("LLM_MODEL", "deepseek-chat"),
			ClassifyTimeout: getEnvDuration("LLM_CLASSIFY_TIMEOUT", 5*time.Second),
			GenerateTimeout: getEnvDuration("LLM_GENERATE_TIMEOUT", 10*time.Second),
		},
		Facebook: FacebookConfig{
			GraphBaseURL: getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com/v19.0"),
		},
		Platform: PlatformConfig{
			BaseURL: getEnv("PLATFORM_SERVICE_URL", "http://localhost:8082"),
		},
		Scheduler: SchedulerConfig{
			DefaultCron: getEnv("SCHEDULER_DEFAULT_CRON", "*/30 * * * * *"),
			SweepCron:   getEnv("SCHEDULER_SWEEP_CRON", "*/30 * * * * *"),
			Debounce:    getEnvDuration("SCHEDULER_DEBOUNCE", 5*time.Second),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
