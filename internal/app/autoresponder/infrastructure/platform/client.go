package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/internal/app/autoresponder/infrastructure"
)

// Client клиент сервиса привязок платформ.
// Разрешает business id в учетные данные страницы (pageId, pageAccessToken);
// сами OAuth-потоки привязки живут в платформенном сервисе.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает новый клиент сервиса привязок
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetLinkedPlatform возвращает привязку платформы для бизнеса
func (c *Client) GetLinkedPlatform(ctx context.Context, businessID, provider string) (*entity.PlatformLink, error) {
	reqURL := fmt.Sprintf("%s/platforms/%s?provider=%s", c.baseURL, businessID, url.QueryEscape(provider))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, infrastructure.ErrNoPlatformLink
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("platform service returned status %d", resp.StatusCode)
	}

	var link entity.PlatformLink
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("failed to decode platform link: %w", err)
	}

	if link.PageID == "" || link.PageAccessToken == "" {
		// Привязка есть, но не сконфигурирована до конца - для пайплайна это
		// равносильно ее отсутствию
		return nil, infrastructure.ErrNoPlatformLink
	}

	return &link, nil
}

// ListLinkedBusinesses возвращает все бизнесы с привязкой данной платформы.
// Используется глобальным обходом планировщика.
func (c *Client) ListLinkedBusinesses(ctx context.Context, provider string) ([]entity.PlatformLink, error) {
	reqURL := fmt.Sprintf("%s/platforms?provider=%s", c.baseURL, url.QueryEscape(provider))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("platform service returned status %d", resp.StatusCode)
	}

	var links []entity.PlatformLink
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		return nil, fmt.Errorf("failed to decode platform links: %w", err)
	}

	return links, nil
}
