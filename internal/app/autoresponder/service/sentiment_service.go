package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reviewpilot/internal/app/autoresponder/cache"
	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/pkg/logger"
	"reviewpilot/pkg/metrics"
)

// SentimentService классифицирует тональность текста.
// Classify никогда не возвращает ошибку: при недоступности удаленного
// классификатора срабатывает детерминированный фолбэк по ключевым словам.
type SentimentService struct {
	llm     ChatCompleter
	cache   cache.ReviewCache
	timeout time.Duration
}

// NewSentimentService создает новый классификатор тональности
func NewSentimentService(llm ChatCompleter, reviewCache cache.ReviewCache, timeout time.Duration) *SentimentService {
	return &SentimentService{
		llm:     llm,
		cache:   reviewCache,
		timeout: timeout,
	}
}

// Classify возвращает тональность текста: positive, negative или neutral.
// 1. Кеш по литеральному тексту
// 2. Определение языка и языкоспецифичный промпт
// 3. Запрос к удаленному классификатору с коротким таймаутом
// 4. Языкозависимая нормализация ответа; нераспознанный ответ -> neutral
// 5. Любой сбой или пустой вход -> фолбэк по ключевым словам (не кешируется)
func (s *SentimentService) Classify(ctx context.Context, text string) entity.Sentiment {
	if strings.TrimSpace(text) == "" {
		return entity.SentimentNeutral
	}

	if cached, ok := s.cache.GetSentiment(ctx, text); ok {
		metrics.SentimentResults.WithLabelValues(string(cached), "cache").Inc()
		return cached
	}

	lang := DetectLanguage(text)

	out, err := s.llm.Complete(ctx,
		[]ChatMessage{{Role: "system", Content: sentimentPrompt(lang, text)}},
		CompletionOptions{
			Temperature: 0.1,
			MaxTokens:   4,
			Timeout:     s.timeout,
		})
	if err != nil {
		logger.Warn().
			Err(err).
			Str("text_prefix", textPrefix(text, 100)).
			Msg("Remote sentiment classification failed, using keyword fallback")

		sentiment := KeywordSentiment(text)
		metrics.SentimentResults.WithLabelValues(string(sentiment), "fallback").Inc()
		return sentiment
	}

	sentiment := normalizeSentiment(out, lang)

	s.cache.SetSentiment(ctx, text, sentiment)
	metrics.SentimentResults.WithLabelValues(string(sentiment), "remote").Inc()

	return sentiment
}

// sentimentPrompt строит инструкцию на языке комментария:
// классификатор должен ответить ровно одной из трех меток
func sentimentPrompt(lang entity.Language, text string) string {
	switch lang {
	case entity.LanguageFrench:
		return fmt.Sprintf(`Analyse le sentiment de ce texte et réponds UNIQUEMENT par un des mots suivants:
- "positive" si le texte est positif
- "negative" si le texte est négatif
- "neutral" si le texte est neutre
Texte: %q`, text)
	case entity.LanguageArabic:
		return fmt.Sprintf(`حلل المشاعر النصية لهذا النص (أجب فقط بـ "positive"، "negative" أو "neutral"):
- "positive" إذا كان النص إيجابياً
- "negative" إذا كان النص سلبياً
- "neutral" إذا كان النص محايداً
النص: %q`, text)
	default:
		return fmt.Sprintf(`Analyze the sentiment of this text and respond ONLY with one word:
- "positive" if the text is positive
- "negative" if the text is negative
- "neutral" if the text is neutral
Text: %q`, text)
	}
}

// normalizeSentiment приводит свободный ответ модели к закрытому множеству
// меток с учетом языка ответа; нераспознанное -> neutral
func normalizeSentiment(out string, lang entity.Language) entity.Sentiment {
	lower := strings.ToLower(strings.TrimSpace(out))

	switch lang {
	case entity.LanguageFrench:
		if strings.Contains(lower, "positif") || strings.Contains(lower, "positive") {
			return entity.SentimentPositive
		}
		if strings.Contains(lower, "négatif") || strings.Contains(lower, "negative") {
			return entity.SentimentNegative
		}
	case entity.LanguageArabic:
		if strings.Contains(lower, "ايجابي") || strings.Contains(lower, "إيجابي") || strings.Contains(lower, "positive") {
			return entity.SentimentPositive
		}
		if strings.Contains(lower, "سلبي") || strings.Contains(lower, "negative") {
			return entity.SentimentNegative
		}
	default:
		if strings.Contains(lower, "positive") {
			return entity.SentimentPositive
		}
		if strings.Contains(lower, "negative") {
			return entity.SentimentNegative
		}
	}

	return entity.SentimentNeutral
}

func textPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
