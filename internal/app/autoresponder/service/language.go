package service

import (
	"regexp"
	"strings"

	"reviewpilot/internal/app/autoresponder/entity"
)

var (
	arabicScriptRe = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)
	// Частотные французские служебные слова
	frenchWordsRe = regexp.MustCompile(`(?i)\b(le|la|les|un|une|des|est|et|je|vous|nous)\b`)
	// Французские диакритики - артикль может отсутствовать в коротком комментарии
	frenchDiacriticsRe = regexp.MustCompile(`[éèêëàâçùûîïô]`)
)

// DetectLanguage определяет язык текста легкой эвристикой:
// арабская письменность -> ar, французские служебные слова или диакритики -> fr,
// иначе en. Разрешается один раз на вызов и передается дальше явно.
func DetectLanguage(text string) entity.Language {
	if arabicScriptRe.MatchString(text) {
		return entity.LanguageArabic
	}
	if frenchWordsRe.MatchString(text) || frenchDiacriticsRe.MatchString(strings.ToLower(text)) {
		return entity.LanguageFrench
	}
	return entity.LanguageEnglish
}

// Ключевые слова для локального фолбэка классификации,
// когда удаленный классификатор недоступен
var (
	positiveKeywords = map[entity.Language][]string{
		entity.LanguageFrench:  {"excellent", "super", "génial", "recommande", "parfait", "ador", "bon", "formidable", "merci"},
		entity.LanguageEnglish: {"excellent", "great", "awesome", "good", "wonderful", "happy", "love", "amazing"},
		entity.LanguageArabic:  {"ممتاز", "رائع", "جميل", "سعيد", "جيد", "حسن"},
	}

	negativeKeywords = map[entity.Language][]string{
		entity.LanguageFrench:  {"mauvais", "déçu", "horrible", "nul", "pas content", "déteste", "terrible", "insatisfait"},
		entity.LanguageEnglish: {"bad", "poor", "terrible", "awful", "hate", "disappointed", "worst"},
		entity.LanguageArabic:  {"سيء", "رديء", "خيبة", "مخيب", "غير راض", "سئ"},
	}
)

// KeywordSentiment - детерминированный локальный фолбэк:
// совпадение по спискам ключевых слов языка, иначе neutral
func KeywordSentiment(text string) entity.Sentiment {
	lang := DetectLanguage(text)
	lower := strings.ToLower(text)

	for _, w := range positiveKeywords[lang] {
		if strings.Contains(lower, w) {
			return entity.SentimentPositive
		}
	}
	for _, w := range negativeKeywords[lang] {
		if strings.Contains(lower, w) {
			return entity.SentimentNegative
		}
	}

	return entity.SentimentNeutral
}

// Доменные слова, которые вставляются в шаблонный фолбэк-ответ
var domainKeywords = map[entity.Language][]string{
	entity.LanguageFrench:  {"service", "produit", "livraison", "accueil", "équipe", "qualité", "prix", "commande"},
	entity.LanguageEnglish: {"service", "product", "delivery", "staff", "quality", "price", "order"},
	entity.LanguageArabic:  {"الخدمة", "المنتج", "التوصيل", "الجودة", "السعر"},
}

// DomainKeyword возвращает первое доменное слово, встреченное в сообщении,
// или пустую строку
func DomainKeyword(text string, lang entity.Language) string {
	lower := strings.ToLower(text)
	for _, w := range domainKeywords[lang] {
		if strings.Contains(lower, w) {
			return w
		}
	}
	return ""
}
