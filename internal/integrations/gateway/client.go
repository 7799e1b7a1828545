package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	maxBodySize = 1 << 20

	// tokenExpiryMargin токен выкидывается из кэша чуть раньше, чем истечёт у шлюза
	tokenExpiryMargin = 60 * time.Second

	opToken   = "token"
	opPayment = "payment"
)

// TokenCache хранилище токена доступа
type TokenCache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, value string, ttl time.Duration) error
	Delete(ctx context.Context) error
}

// Metrics метрики обращений к шлюзу
type Metrics interface {
	ObserveGatewayRequest(operation, result string, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveGatewayRequest(string, string, time.Duration) {}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент платёжного шлюза: обмен client credentials на токен и запрос оплаты
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      TokenCache
	metrics    Metrics
	log        Logger
	group      singleflight.Group
}

// NewClient создает новый экземпляр клиента шлюза
func NewClient(cfg Config, cache TokenCache, metrics Metrics, log Logger) *Client {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:   cache,
		metrics: metrics,
		log:     log,
	}
}

// RequestPayment отправляет запрос на оплату.
// При 401 токен сбрасывается и запрос повторяется один раз со свежим токеном.
func (c *Client) RequestPayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.postPayment(ctx, token, req)

	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.StatusCode == http.StatusUnauthorized {
		c.log.Warn("Gateway rejected token for account_reference=%s, refreshing token", req.AccountReference)
		if delErr := c.cache.Delete(ctx); delErr != nil {
			c.log.Warn("Failed to drop cached gateway token: %v", delErr)
		}

		token, err = c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = c.postPayment(ctx, token, req)
	}

	return resp, err
}

// accessToken отдаёт токен из кэша, иначе запрашивает новый.
// Одновременные промахи внутри инстанса склеиваются в один запрос к token endpoint.
// Общий запрос не зависит от отмены контекста отдельного вызывающего и ограничен таймаутом http клиента.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if token, err := c.cache.Get(ctx); err == nil {
		return token, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(opToken, func() (interface{}, error) {
		return c.fetchToken(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrTokenAcquisition, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.TokenURL, nil)
	if err != nil {
		c.metrics.ObserveGatewayRequest(opToken, "error", time.Since(start))
		return "", fmt.Errorf("%w: failed to create request: %v", ErrTokenAcquisition, err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveGatewayRequest(opToken, "unavailable", time.Since(start))
		c.log.Error("Token request failed: %v", err)
		return "", fmt.Errorf("%w: failed to execute request: %v", ErrTokenAcquisition, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.metrics.ObserveGatewayRequest(opToken, "error", time.Since(start))
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTokenAcquisition, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveGatewayRequest(opToken, "rejected", time.Since(start))
		c.log.Error("Token endpoint returned status %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("%w: unexpected status code %d", ErrTokenAcquisition, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		c.metrics.ObserveGatewayRequest(opToken, "error", time.Since(start))
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrTokenAcquisition, err)
	}
	if tr.AccessToken == "" {
		c.metrics.ObserveGatewayRequest(opToken, "error", time.Since(start))
		return "", fmt.Errorf("%w: empty access_token", ErrTokenAcquisition)
	}

	c.metrics.ObserveGatewayRequest(opToken, "ok", time.Since(start))

	if ttl := c.tokenTTL(tr.ExpiresIn); ttl > 0 {
		if err := c.cache.Set(ctx, tr.AccessToken, ttl); err != nil {
			c.log.Warn("Failed to cache gateway token: %v", err)
		}
	}

	return tr.AccessToken, nil
}

func (c *Client) tokenTTL(expiresIn json.Number) time.Duration {
	ttl := c.cfg.TokenTTL
	if seconds, err := expiresIn.Int64(); err == nil && seconds > 0 {
		ttl = time.Duration(seconds) * time.Second
	}
	if ttl > 2*tokenExpiryMargin {
		ttl -= tokenExpiryMargin
	}
	return ttl
}

func (c *Client) postPayment(ctx context.Context, token string, req *PaymentRequest) (*PaymentResponse, error) {
	start := time.Now()

	payload, err := json.Marshal(newPaymentPayload(req))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode payload: %v", ErrInternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PaymentURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveGatewayRequest(opPayment, "unavailable", time.Since(start))
		c.log.Error("Payment request failed for account_reference=%s: %v", req.AccountReference, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.metrics.ObserveGatewayRequest(opPayment, "unavailable", time.Since(start))
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || statusFalse(body) {
		c.metrics.ObserveGatewayRequest(opPayment, "rejected", time.Since(start))
		c.log.Warn("Gateway rejected payment for account_reference=%s: status=%d, body=%s",
			req.AccountReference, resp.StatusCode, string(body))
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: body}
	}

	c.metrics.ObserveGatewayRequest(opPayment, "ok", time.Since(start))
	c.log.Info("Gateway accepted payment for account_reference=%s", req.AccountReference)

	return &PaymentResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func statusFalse(body []byte) bool {
	var ps paymentStatus
	if err := json.Unmarshal(body, &ps); err != nil {
		return false
	}
	return ps.Status != nil && !*ps.Status
}
