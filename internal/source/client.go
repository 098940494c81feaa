package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"vela/internal/pkg/text"
)

const (
	defaultAttempts       = 3
	defaultAttemptTimeout = 30 * time.Second
	defaultBackoffUnit    = time.Second
)

// StatusError 表示上游返回了非 2xx 状态码。Code/Msg 从 Binance 风格的
// {"code":…,"msg":…} 错误体中提取（存在时）。状态码错误不参与重试。
type StatusError struct {
	Status int
	Code   int64
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("上游返回状态码 %d (code=%d msg=%s)", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("上游返回状态码 %d", e.Status)
}

func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{Status: status}
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		se.Code = doc.Get("code").Int()
		se.Msg = text.Truncate(doc.Get("msg").String(), 200)
	}
	return se
}

// linearBackoff 按 unit × 已失败次数 线性递增等待时长。
type linearBackoff struct {
	unit time.Duration
	n    int
}

func (l *linearBackoff) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.unit
}

func (l *linearBackoff) Reset() { l.n = 0 }

// HTTPClient 是带重试的 GET 客户端：每次尝试有独立超时，瞬时错误
// （连接失败、超时、读体失败）线性退避后重试，非 2xx 直接判定失败。
type HTTPClient struct {
	hc          *http.Client
	attempts    int
	timeout     time.Duration
	backoffUnit time.Duration
	obs         Observer
}

// ClientConfig 配置 HTTPClient，零值字段取默认。
type ClientConfig struct {
	Attempts       int
	AttemptTimeout time.Duration
	BackoffUnit    time.Duration
	Observer       Observer
}

func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	unit := cfg.BackoffUnit
	if unit <= 0 {
		unit = defaultBackoffUnit
	}
	obs := cfg.Observer
	if obs == nil {
		obs = LogObserver()
	}
	return &HTTPClient{
		hc:          &http.Client{},
		attempts:    attempts,
		timeout:     timeout,
		backoffUnit: unit,
		obs:         obs,
	}
}

// Get 以至多 attempts 次尝试抓取 rawURL 并返回响应体。
// 每次失败产生一条 StageFetch 事件；全部失败时返回最后一次的错误。
func (c *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	host := endpointLabel(rawURL)
	var payload []byte
	attempt := 0
	operation := func() error {
		attempt++
		body, err := c.attemptOnce(ctx, rawURL)
		if err != nil {
			c.obs.OnEvent(Event{
				Stage:    StageFetch,
				Endpoint: host,
				Attempt:  attempt,
				Outcome:  c.attemptOutcome(err, attempt),
				Err:      unwrapPermanent(err),
			})
			return err
		}
		payload = body
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackoff{unit: c.backoffUnit}, uint64(c.attempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *HTTPClient) attemptOutcome(err error, attempt int) Outcome {
	if attempt >= c.attempts || isPermanent(err) {
		return OutcomeFailed
	}
	return OutcomeRetry
}

func (c *HTTPClient) attemptOnce(ctx context.Context, rawURL string) ([]byte, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(actx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("构造请求失败: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vela/1.0")
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, backoff.Permanent(newStatusError(resp.StatusCode, body))
	}
	return body, nil
}

func isPermanent(err error) bool {
	var pe *backoff.PermanentError
	return errors.As(err, &pe)
}

func unwrapPermanent(err error) error {
	var pe *backoff.PermanentError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func endpointLabel(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}
