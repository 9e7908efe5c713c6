package cache

import (
	"context"
	"testing"

	"reviewpilot/internal/app/autoresponder/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache, err := NewRedisCache(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache, mr
}

func TestSentimentCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	text := "J'adore ce service !"

	_, ok := cache.GetSentiment(ctx, text)
	assert.False(t, ok)

	cache.SetSentiment(ctx, text, entity.SentimentPositive)

	sentiment, ok := cache.GetSentiment(ctx, text)
	assert.True(t, ok)
	assert.Equal(t, entity.SentimentPositive, sentiment)
}

func TestSentimentCache_TTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	text := "expiring entry"

	cache.SetSentiment(ctx, text, entity.SentimentNeutral)
	assert.Equal(t, SentimentTTL, mr.TTL(sentimentKey(text)))

	mr.FastForward(SentimentTTL)

	_, ok := cache.GetSentiment(ctx, text)
	assert.False(t, ok)
}

func TestSentimentCache_InvalidStoredValueIsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	text := "corrupted entry"

	require.NoError(t, mr.Set(sentimentKey(text), "not-a-sentiment"))

	_, ok := cache.GetSentiment(ctx, text)
	assert.False(t, ok)
}

func TestResponseCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	message := "Great service, will come back"

	_, ok := cache.GetResponse(ctx, entity.SentimentPositive, message)
	assert.False(t, ok)

	cache.SetResponse(ctx, entity.SentimentPositive, message, "Thank you!")

	response, ok := cache.GetResponse(ctx, entity.SentimentPositive, message)
	assert.True(t, ok)
	assert.Equal(t, "Thank you!", response)
	assert.Equal(t, ResponseTTL, mr.TTL(responseKey(entity.SentimentPositive, message)))
}

func TestResponseCache_KeyedBySentiment(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	message := "mixed feelings about this"

	cache.SetResponse(ctx, entity.SentimentPositive, message, "Glad you liked it!")

	_, ok := cache.GetResponse(ctx, entity.SentimentNegative, message)
	assert.False(t, ok)
}

func TestResponseCache_KeyUsesMessagePrefix(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'a')
	}
	base := string(long)

	cache.SetResponse(ctx, entity.SentimentNeutral, base+" tail one", "Shared response")

	// Сообщения с одинаковыми первыми 100 символами делят запись
	response, ok := cache.GetResponse(ctx, entity.SentimentNeutral, base+" tail two")
	assert.True(t, ok)
	assert.Equal(t, "Shared response", response)
}
