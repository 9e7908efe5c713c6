package entity

import "time"

// StartJobRequest - тело запроса на запуск авто-ответчика для бизнеса
type StartJobRequest struct {
	Cron string `json:"cron,omitempty"`
}

// AnalyzeSentimentRequest - тело запроса на разовую классификацию текста
type AnalyzeSentimentRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// AnalyzeSentimentResponse - результат разовой классификации
type AnalyzeSentimentResponse struct {
	Success   bool      `json:"success"`
	Sentiment Sentiment `json:"sentiment"`
}

// JobStatusResponse - состояние per-business задачи планировщика
type JobStatusResponse struct {
	Active  bool       `json:"active"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// SyncResponse - результат синхронизации комментариев
type SyncResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// ReviewListResponse - список отзывов бизнеса
type ReviewListResponse struct {
	Success bool     `json:"success"`
	Data    []Review `json:"data"`
	Count   int      `json:"count"`
}

// RespondResponse - результат генерации и/или публикации ответа
type RespondResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
}

// SuccessResponse - универсальный ответ {success, message}
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse - структурированная ошибка API
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
