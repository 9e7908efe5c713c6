package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers и планировщике
	ErrReviewNotFound   = errors.New("review not found")
	ErrNoResponse       = errors.New("no response generated for this review")
	ErrAlreadyResponded = errors.New("response already posted for this review")
	ErrNoPlatformLink   = errors.New("no platform linked to this business")
)
