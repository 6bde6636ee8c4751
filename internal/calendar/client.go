package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

var (
	// ErrUnauthorized возвращается при 401 от провайдера: токен протух
	ErrUnauthorized = errors.New("calendar: unauthorized")
	// ErrNotConfigured возвращается, если реквизиты календаря не заданы
	ErrNotConfigured = errors.New("calendar: not configured")
)

// BusyInterval представляет занятый интервал из календаря провайдера
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventDetails представляет данные события для внешнего календаря
type EventDetails struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Client абстрагирует внешний календарь. Все вызовы могут падать,
// вызывающая сторона обязана деградировать без влияния на бронирования.
type Client interface {
	ListBusyIntervals(ctx context.Context, from, to time.Time) ([]BusyInterval, error)
	CreateEvent(ctx context.Context, details EventDetails) (string, error)
	UpdateEvent(ctx context.Context, eventID string, details EventDetails) error
	DeleteEvent(ctx context.Context, eventID string) error
	RefreshCredential(ctx context.Context) error
}

// HTTPClient ходит в REST API провайдера календаря.
// Таймаут жёсткий: локальное состояние первично, календарь подождёт.
type HTTPClient struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ListBusyIntervals загружает занятые интервалы за период
func (c *HTTPClient) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]BusyInterval, error) {
	endpoint := fmt.Sprintf("/busy?from=%s&to=%s",
		url.QueryEscape(from.Format(time.RFC3339)),
		url.QueryEscape(to.Format(time.RFC3339)))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var intervals []BusyInterval
	if err := json.Unmarshal(body, &intervals); err != nil {
		return nil, fmt.Errorf("decode busy intervals: %w", err)
	}

	return intervals, nil
}

// CreateEvent создаёт событие и возвращает его внешний ID
func (c *HTTPClient) CreateEvent(ctx context.Context, details EventDetails) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/events", details)
	if err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode create event response: %w", err)
	}

	if resp.ID == "" {
		return "", fmt.Errorf("create event: empty event id in response")
	}

	return resp.ID, nil
}

// UpdateEvent обновляет существующее событие
func (c *HTTPClient) UpdateEvent(ctx context.Context, eventID string, details EventDetails) error {
	_, err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(eventID), details)
	return err
}

// DeleteEvent удаляет событие
func (c *HTTPClient) DeleteEvent(ctx context.Context, eventID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(eventID), nil)
	return err
}

// RefreshCredential обновляет токен доступа
func (c *HTTPClient) RefreshCredential(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodPost, "/token/refresh", nil)
	if err != nil {
		return fmt.Errorf("refresh credential: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}

	if resp.Token == "" {
		return fmt.Errorf("refresh credential: empty token in response")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.mu.RLock()
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.mu.RUnlock()

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("calendar responded %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
