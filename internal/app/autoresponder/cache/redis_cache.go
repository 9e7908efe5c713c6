package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/pkg/logger"
	"reviewpilot/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "reviewpilot"

	sentimentKeyPrefix = "sentiment"
	responseKeyPrefix  = "response"

	// Граница префикса сообщения в ключе ответа: одинаковое начало
	// комментария при одной тональности дает один закешированный ответ
	responseKeyMessagePrefix = 100
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// GetSentiment возвращает закешированную тональность текста
func (r *RedisCache) GetSentiment(ctx context.Context, text string) (entity.Sentiment, bool) {
	key := sentimentKey(text)

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
			logger.Warn().Err(err).Msg("Failed to read sentiment cache")
		}
		metrics.RecordCacheMiss(serviceName, sentimentKeyPrefix)
		return "", false
	}

	sentiment := entity.Sentiment(value)
	if !sentiment.Valid() {
		metrics.RecordCacheMiss(serviceName, sentimentKeyPrefix)
		return "", false
	}

	metrics.RecordCacheHit(serviceName, sentimentKeyPrefix)
	return sentiment, true
}

// SetSentiment кеширует тональность текста с долгим TTL
func (r *RedisCache) SetSentiment(ctx context.Context, text string, sentiment entity.Sentiment) {
	key := sentimentKey(text)

	if err := r.client.Set(ctx, key, string(sentiment), SentimentTTL).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		logger.Warn().Err(err).Msg("Failed to write sentiment cache")
	}
}

// GetResponse возвращает закешированный ответ для (тональность, сообщение)
func (r *RedisCache) GetResponse(ctx context.Context, sentiment entity.Sentiment, message string) (string, bool) {
	key := responseKey(sentiment, message)

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
			logger.Warn().Err(err).Msg("Failed to read response cache")
		}
		metrics.RecordCacheMiss(serviceName, responseKeyPrefix)
		return "", false
	}

	metrics.RecordCacheHit(serviceName, responseKeyPrefix)
	return value, true
}

// SetResponse кеширует сгенерированный ответ
func (r *RedisCache) SetResponse(ctx context.Context, sentiment entity.Sentiment, message string, response string) {
	key := responseKey(sentiment, message)

	if err := r.client.Set(ctx, key, response, ResponseTTL).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		logger.Warn().Err(err).Msg("Failed to write response cache")
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// sentimentKey строит ключ sentiment:<hash(text)>.
// Хеш держит длину ключа ограниченной при произвольной длине комментария.
func sentimentKey(text string) string {
	return sentimentKeyPrefix + ":" + hashText(text)
}

func responseKey(sentiment entity.Sentiment, message string) string {
	runes := []rune(message)
	if len(runes) > responseKeyMessagePrefix {
		runes = runes[:responseKeyMessagePrefix]
	}
	return responseKeyPrefix + ":" + string(sentiment) + ":" + hashText(string(runes))
}

func hashText(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
