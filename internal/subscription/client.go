// Package subscription реализует клиент внешнего сервиса подписок.
//
// Сервис отвечает на GET {base}/users/{id} телом {"id": "...", "subscription": "..."}.
// Любой неуспешный ответ превращается в ошибку ErrUnavailable с исходным телом ответа.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrUnavailable — сервис подписок недоступен или ответил ошибкой.
var ErrUnavailable = errors.New("subscription service unavailable")

// maxBodySize ограничивает размер читаемого ответа.
const maxBodySize = 1 << 20

// Subscription — ответ сервиса подписок.
type Subscription struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}

// UpstreamError описывает неуспешный ответ сервиса подписок.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("subscription service responded %d: %s", e.StatusCode, e.Body)
}

// Unwrap позволяет сравнивать ошибку с ErrUnavailable.
func (e *UpstreamError) Unwrap() error {
	return ErrUnavailable
}

// Client — HTTP-клиент сервиса подписок.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	deadline   time.Duration
}

// NewClient создаёт клиент с базовым адресом, таймаутом одного запроса
// и количеством повторов при сетевых ошибках и ответах 5xx.
//
// deadline ограничивает весь вызов FetchSubscription вместе с повторами и паузами
// между ними. Нулевое значение снимает общее ограничение.
func NewClient(baseURL string, timeout time.Duration, maxRetries uint64, deadline time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		deadline:   deadline,
	}
}

// FetchSubscription запрашивает статус подписки пользователя.
func (c *Client) FetchSubscription(ctx context.Context, userID string) (*Subscription, error) {
	const op = "subscription.FetchSubscription"

	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	var result *Subscription
	operation := func() error {
		sub, err := c.get(ctx, userID)
		if err != nil {
			var upstream *UpstreamError
			if errors.As(err, &upstream) && upstream.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}
		result = sub
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = c.deadline
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, userID string) (*Subscription, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var sub Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, backoff.Permanent(&UpstreamError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	return &sub, nil
}

// Static возвращает фиксированный статус подписки без обращения к сети.
// Используется, когда адрес сервиса подписок не задан.
type Static struct {
	Status string
}

// FetchSubscription возвращает статус s.Status для любого пользователя.
func (s Static) FetchSubscription(_ context.Context, userID string) (*Subscription, error) {
	return &Subscription{ID: userID, Subscription: s.Status}, nil
}
