package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/pkg/logger"
	"reviewpilot/pkg/metrics"
)

const (
	// Максимальное число повторов одной страницы после HTTP 429
	maxRateLimitRetries = 3
	// Пауза по умолчанию, если сервер не прислал Retry-After
	defaultRetryAfter = 60 * time.Second
)

// Client - клиент Graph API: постраничная выборка постов и комментариев
// страницы и публикация ответов на комментарии
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает новый клиент Graph API
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchPosts получает все посты страницы, следуя paging.next до конца
func (c *Client) FetchPosts(ctx context.Context, pageID, accessToken string) ([]entity.Post, error) {
	pageURL := fmt.Sprintf("%s/%s/posts?fields=id,message,created_time&access_token=%s",
		c.baseURL, pageID, url.QueryEscape(accessToken))

	var posts []entity.Post
	for pageURL != "" {
		body, err := c.getPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch posts for page %s: %w", pageID, err)
		}

		var page postsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal posts page: %w", err)
		}

		for _, p := range page.Data {
			posts = append(posts, entity.Post{
				ID:          p.ID,
				Message:     p.Message,
				CreatedTime: parseGraphTime(p.CreatedTime),
			})
		}

		pageURL = page.Paging.Next
	}

	return posts, nil
}

// FetchComments получает все комментарии поста, следуя paging.next до конца
func (c *Client) FetchComments(ctx context.Context, postID, accessToken string) ([]entity.Comment, error) {
	pageURL := fmt.Sprintf("%s/%s/comments?fields=id,from,message,created_time&access_token=%s",
		c.baseURL, postID, url.QueryEscape(accessToken))

	var comments []entity.Comment
	for pageURL != "" {
		body, err := c.getPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch comments for post %s: %w", postID, err)
		}

		var page commentsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comments page: %w", err)
		}

		for _, cm := range page.Data {
			comments = append(comments, entity.Comment{
				ID: cm.ID,
				From: entity.CommentFrom{
					Name:     cm.From.Name,
					Username: cm.From.Username,
				},
				Message:     cm.Message,
				CreatedTime: parseGraphTime(cm.CreatedTime),
			})
		}

		pageURL = page.Paging.Next
	}

	return comments, nil
}

// PublishComment публикует ответ на комментарий.
// Успешный статус означает, что ответ виден на платформе.
func (c *Client) PublishComment(ctx context.Context, commentID, message, accessToken string) error {
	publishURL := fmt.Sprintf("%s/%s/comments", c.baseURL, commentID)

	payload, err := json.Marshal(map[string]string{
		"message":      message,
		"access_token": accessToken,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal publish payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish comment reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("graph API returned status %d on publish: %s", resp.StatusCode, string(body))
	}

	return nil
}

// getPage выполняет GET одной страницы с обработкой rate limit:
// на HTTP 429 ждет подсказанное сервером время и повторяет ту же страницу,
// не более maxRateLimitRetries раз. Явный цикл вместо рекурсии.
func (c *Client) getPage(ctx context.Context, pageURL string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			metrics.FetchRateLimitHits.Inc()

			if attempt >= maxRateLimitRetries {
				return nil, fmt.Errorf("rate limit retries exhausted after %d attempts", attempt)
			}

			wait := retryAfter(resp.Header)
			logger.Warn().
				Dur("wait", wait).
				Int("attempt", attempt+1).
				Msg("Graph API rate limit hit, backing off")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("graph API returned status %d: %s", resp.StatusCode, string(body))
		}

		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		return body, nil
	}
}

// retryAfter извлекает подсказанную сервером паузу из заголовка Retry-After
func retryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

// parseGraphTime разбирает created_time Graph API.
// API отдает ISO8601 без двоеточия в зоне ("2024-01-15T10:00:00+0000"),
// но принимаем и строгий RFC3339.
func parseGraphTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05-0700", s); err == nil {
		return t
	}
	return time.Time{}
}

// Типы ответов Graph API

type paging struct {
	Next string `json:"next"`
}

type postsPage struct {
	Data []struct {
		ID          string `json:"id"`
		Message     string `json:"message"`
		CreatedTime string `json:"created_time"`
	} `json:"data"`
	Paging paging `json:"paging"`
}

type commentsPage struct {
	Data []struct {
		ID   string `json:"id"`
		From struct {
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"from"`
		Message     string `json:"message"`
		CreatedTime string `json:"created_time"`
	} `json:"data"`
	Paging paging `json:"paging"`
}
