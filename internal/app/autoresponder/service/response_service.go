package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"reviewpilot/internal/app/autoresponder/cache"
	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/pkg/logger"
	"reviewpilot/pkg/metrics"
)

// ResponseService генерирует ответ на отзыв.
// Generate никогда не возвращает ошибку: при сбое генерации возвращается
// шаблонный фолбэк по (тональность, язык).
type ResponseService struct {
	llm     ChatCompleter
	cache   cache.ReviewCache
	timeout time.Duration
}

// NewResponseService создает новый генератор ответов
func NewResponseService(llm ChatCompleter, reviewCache cache.ReviewCache, timeout time.Duration) *ResponseService {
	return &ResponseService{
		llm:     llm,
		cache:   reviewCache,
		timeout: timeout,
	}
}

// Generate строит короткий естественный ответ на сообщение с данной
// тональностью. Язык переопределяется по исходному сообщению.
func (s *ResponseService) Generate(ctx context.Context, message string, sentiment entity.Sentiment) string {
	if cached, ok := s.cache.GetResponse(ctx, sentiment, message); ok {
		metrics.ResponsesGenerated.WithLabelValues("cache").Inc()
		return cached
	}

	lang := DetectLanguage(message)

	out, err := s.llm.Complete(ctx,
		[]ChatMessage{{Role: "user", Content: responsePrompt(lang, sentiment, message)}},
		CompletionOptions{
			Temperature:      0.7,
			MaxTokens:        200,
			FrequencyPenalty: 0.3,
			Timeout:          s.timeout,
		})
	if err != nil || strings.TrimSpace(out) == "" {
		logger.Warn().
			Err(err).
			Str("sentiment", string(sentiment)).
			Str("message_prefix", textPrefix(message, 100)).
			Msg("Remote response generation failed, using template fallback")

		metrics.ResponsesGenerated.WithLabelValues("fallback").Inc()
		return fallbackResponse(message, sentiment, lang)
	}

	response := cleanResponse(out)

	s.cache.SetResponse(ctx, sentiment, message, response)
	metrics.ResponsesGenerated.WithLabelValues("remote").Inc()

	return response
}

// responsePrompt строит промпт генерации, различающийся по тональности и языку
func responsePrompt(lang entity.Language, sentiment entity.Sentiment, message string) string {
	type promptSet struct {
		positive string
		negative string
		neutral  string
	}

	prompts := map[entity.Language]promptSet{
		entity.LanguageFrench: {
			positive: `L'utilisateur a écrit ce commentaire positif: %q. Réponds en français avec un remerciement chaleureux et personnalisé et une invitation à revenir (environ 2 phrases).`,
			negative: `L'utilisateur a écrit cette critique: %q. Réponds en français avec des excuses professionnelles, une reconnaissance du problème et une proposition de solution (environ 3 phrases).`,
			neutral:  `L'utilisateur a écrit ce commentaire: %q. Réponds en français de manière neutre, professionnelle et engageante (environ 2 phrases).`,
		},
		entity.LanguageEnglish: {
			positive: `The user wrote this positive comment: %q. Respond in English with a warm, personalized thank you and an invitation to return (about 2 sentences).`,
			negative: `The user wrote this negative review: %q. Respond in English with professional apologies, acknowledgment of the issue and a proposed solution (about 3 sentences).`,
			neutral:  `The user wrote this comment: %q. Respond in English in a neutral, professional and engaging way (about 2 sentences).`,
		},
		entity.LanguageArabic: {
			positive: `كتب المستخدم هذا التعليق الإيجابي: %q. رد باللغة العربية بشكر دافئ ومخصص ودعوة للعودة (جملتان تقريباً).`,
			negative: `كتب المستخدم هذا التعليق السلبي: %q. رد باللغة العربية باعتذار محترف واعتراف بالمشكلة وحل مقترح (ثلاث جمل تقريباً).`,
			neutral:  `كتب المستخدم هذا التعليق: %q. رد باللغة العربية بطريقة محايدة ومهنية (جملتان تقريباً).`,
		},
	}

	set := prompts[lang]
	switch sentiment {
	case entity.SentimentPositive:
		return fmt.Sprintf(set.positive, message)
	case entity.SentimentNegative:
		return fmt.Sprintf(set.negative, message)
	default:
		return fmt.Sprintf(set.neutral, message)
	}
}

var (
	wrappingQuotesRe = regexp.MustCompile(`(?s)^["«]\s*(.*?)\s*["»]$`)
	newlinesRe       = regexp.MustCompile(`\n+`)
)

// cleanResponse приводит сырой вывод модели к публикуемому виду:
// снимает обрамляющие кавычки, схлопывает переводы строк, капитализирует
// первую букву и гарантирует конечный знак препинания
func cleanResponse(out string) string {
	response := strings.TrimSpace(out)

	if m := wrappingQuotesRe.FindStringSubmatch(response); m != nil {
		response = m[1]
	}

	response = strings.TrimSpace(newlinesRe.ReplaceAllString(response, " "))
	if response == "" {
		return response
	}

	runes := []rune(response)
	runes[0] = unicode.ToUpper(runes[0])
	response = string(runes)

	last := runes[len(runes)-1]
	if last != '.' && last != '!' && last != '?' {
		response += "."
	}

	return response
}

// fallbackResponse - шаблонный ответ по (тональность, язык); если в сообщении
// найдено доменное слово, оно вставляется в шаблон
func fallbackResponse(message string, sentiment entity.Sentiment, lang entity.Language) string {
	keyword := DomainKeyword(message, lang)

	type templates struct {
		positive, negative, neutral       string
		positiveKw, negativeKw, neutralKw string
	}

	byLang := map[entity.Language]templates{
		entity.LanguageFrench: {
			positive:   "Merci beaucoup pour votre commentaire positif ! Nous sommes ravis de votre satisfaction.",
			negative:   "Nous sommes désolés pour votre expérience. Nous prenons votre commentaire très au sérieux et allons examiner ce point.",
			neutral:    "Merci pour votre commentaire. Nous avons bien pris note de votre retour.",
			positiveKw: "Merci beaucoup pour votre retour positif concernant « %s » ! Nous sommes ravis de votre satisfaction.",
			negativeKw: "Nous sommes désolés pour votre expérience concernant « %s ». Nous prenons votre retour très au sérieux.",
			neutralKw:  "Merci pour votre commentaire concernant « %s ». Nous avons bien pris note de votre retour.",
		},
		entity.LanguageEnglish: {
			positive:   "Thank you for your positive feedback! We're delighted you're satisfied.",
			negative:   "We're sorry about your experience. We take your feedback very seriously and will look into this.",
			neutral:    "Thank you for your comment. We've noted your feedback.",
			positiveKw: "Thank you for your positive feedback about our %s! We're delighted you're satisfied.",
			negativeKw: "We're sorry about your experience with our %s. We take your feedback very seriously.",
			neutralKw:  "Thank you for your comment about our %s. We've noted your feedback.",
		},
		entity.LanguageArabic: {
			positive:   "شكراً لك على تعليقك الإيجابي! نحن سعداء برضاك.",
			negative:   "نحن نأسف لتجربتك. نأخذ ملاحظتك على محمل الجد وسنبحث في هذا الأمر.",
			neutral:    "شكراً لك على تعليقك. لقد أخذنا ملاحظتك بعين الاعتبار.",
			positiveKw: "شكراً لك على تعليقك الإيجابي حول %s! نحن سعداء برضاك.",
			negativeKw: "نحن نأسف لتجربتك مع %s. نأخذ ملاحظتك على محمل الجد.",
			neutralKw:  "شكراً لك على تعليقك حول %s. لقد أخذنا ملاحظتك بعين الاعتبار.",
		},
	}

	t := byLang[lang]
	switch sentiment {
	case entity.SentimentPositive:
		if keyword != "" {
			return fmt.Sprintf(t.positiveKw, keyword)
		}
		return t.positive
	case entity.SentimentNegative:
		if keyword != "" {
			return fmt.Sprintf(t.negativeKw, keyword)
		}
		return t.negative
	default:
		if keyword != "" {
			return fmt.Sprintf(t.neutralKw, keyword)
		}
		return t.neutral
	}
}
