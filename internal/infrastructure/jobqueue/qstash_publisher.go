// Package jobqueue publishes delayed HTTP callbacks through Upstash QStash.
package jobqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
	"github.com/riskibarqy/sunday-league/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	errQStashTransient   = crerr.New("qstash transient failure")
	errQStashUnavailable = crerr.New("qstash is temporarily unavailable")
)

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// QStashPublisher asks QStash to POST a JSON payload back to this service
// after a delay. The X-Internal-Job-Token header is forwarded to the callback.
type QStashPublisher struct {
	client           *http.Client
	publishPrefix    string
	targetBaseURL    string
	configErr        error
	token            string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breaker := resilience.NewCircuitBreakerFromConfig("qstash", cfg.CircuitBreaker)
	breaker.OnStateChange(resilience.LogStateChanges(logger))

	p := &QStashPublisher{
		client:           &http.Client{Timeout: timeout},
		token:            strings.TrimSpace(cfg.Token),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger,
		breaker:          breaker,
	}
	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		p.configErr = crerr.Wrap(err, "invalid QSTASH_BASE_URL")
		return p
	}
	p.publishPrefix = baseURL + "/v2/publish/"
	if p.targetBaseURL, err = validateHTTPBaseURL(cfg.TargetBaseURL); err != nil {
		p.configErr = crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}
	return p
}

// Enqueue schedules a POST of payload to path. A non-empty deduplicationID
// lets QStash drop repeats of the same job.
func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	if p.configErr != nil {
		return p.configErr
	}
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}
	if payload == nil {
		payload = struct{}{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal job payload")
	}

	targetURL := p.targetBaseURL + path
	deduplicationID = strings.TrimSpace(deduplicationID)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("qstash.target_url", targetURL),
		attribute.String("qstash.deduplication_id", deduplicationID),
		attribute.Int64("qstash.delay_seconds", int64(delaySeconds(delay))),
	)

	err = p.breaker.Execute(func() error {
		return p.publish(ctx, targetURL, body, delay, deduplicationID)
	}, isTransient)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "path", path, "state", p.breaker.State())
		return crerr.Mark(crerr.Wrap(err, errQStashUnavailable.Error()), errQStashUnavailable)
	}
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "qstash job published",
		"path", path,
		"delay_seconds", delaySeconds(delay),
		"deduplication_id", deduplicationID,
	)
	return nil
}

func (p *QStashPublisher) publish(ctx context.Context, targetURL string, body []byte, delay time.Duration, deduplicationID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.publishPrefix+targetURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if seconds := delaySeconds(delay); seconds > 0 {
		req.Header.Set("Upstash-Delay", strconv.Itoa(seconds)+"s")
	}
	if deduplicationID != "" {
		req.Header.Set("Upstash-Deduplication-Id", deduplicationID)
	}
	if p.internalJobToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.internalJobToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return crerr.Mark(crerr.Wrapf(err, "publish qstash job target_url=%s", targetURL), errQStashTransient)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	callErr := crerr.Newf("publish qstash job status=%d target_url=%s body=%s", resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
	if isRetryableStatus(resp.StatusCode) {
		callErr = crerr.Mark(callErr, errQStashTransient)
	}
	return callErr
}

func delaySeconds(delay time.Duration) int {
	if delay <= 0 {
		return 0
	}
	return int(delay.Round(time.Second) / time.Second)
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimRight(strings.TrimSpace(raw), "/")
	if candidate == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%q uses unsupported scheme %q; expected http or https", candidate, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%q has empty host", candidate)
	}
	return candidate, nil
}

// isTransient decides what counts against the breaker; 4xx rejections do not.
func isTransient(err error) bool {
	return crerr.Is(err, errQStashTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
