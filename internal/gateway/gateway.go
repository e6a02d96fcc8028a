// Package gateway implements the outbound completion client used by the bot.
// It consults the response cache, retries transport failures with exponential
// backoff, and turns every failure into a user-displayable Result.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/edgard/deepchat/internal/cache"
	"github.com/edgard/deepchat/internal/metrics"
)

// Config holds the endpoint, tuning and resilience settings. Tuning values
// apply to every request; callers only supply the prompt.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64

	ConnectTimeout time.Duration
	Timeout        time.Duration

	Retry    RetryPolicy
	Messages Messages
}

// RetryPolicy configures retries of transport failures.
// The wait before retry n is Multiplier*2^n, clamped to [MinWait, MaxWait].
type RetryPolicy struct {
	Attempts   uint
	Multiplier time.Duration
	MinWait    time.Duration
	MaxWait    time.Duration
}

// Messages are the user-facing texts for each failure class.
// SystemError receives a short description of the failure via %s.
type Messages struct {
	RateLimit   string
	Timeout     string
	SystemError string
	Unexpected  string
}

// DefaultMessages returns the built-in failure texts.
func DefaultMessages() Messages {
	return Messages{
		RateLimit:   "⚠️ Too many requests. Please wait a minute and try again.",
		Timeout:     "⏳ The request timed out. Please try again.",
		SystemError: "⚠️ System error: %s",
		Unexpected:  "⚠️ An unexpected error occurred while processing your request.",
	}
}

// Gateway issues chat completion requests.
type Gateway struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	cache      *cache.ResponseCache
	log        *slog.Logger
	metrics    *metrics.Metrics
	timer      retry.Timer
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the HTTP client built from the configured timeouts.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithMetrics records outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithTimer replaces the timer used for backoff waits.
func WithTimer(t retry.Timer) Option {
	return func(g *Gateway) { g.timer = t }
}

// New creates a Gateway that reads from and writes to c.
func New(cfg Config, c *cache.ResponseCache, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gateway API key is required")
	}
	if cfg.Retry.Attempts == 0 {
		return nil, errors.New("gateway retry attempts must be at least 1")
	}
	if c == nil {
		return nil, errors.New("gateway requires a response cache")
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		cache:    c,
		log:      logger.With("component", "ai_gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.httpClient == nil {
		g.httpClient = newHTTPClient(cfg.ConnectTimeout, cfg.Timeout)
	}

	g.log.Info("AI gateway initialized",
		"endpoint", g.endpoint,
		"model", cfg.Model,
		"max_attempts", cfg.Retry.Attempts,
		"timeout", cfg.Timeout)
	return g, nil
}

func newHTTPClient(connectTimeout, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: connectTimeout,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// GenerateResponse returns the completion for prompt. A cached completion is
// returned without any network call. Failures never surface as errors; they
// are reported in Result.Failure with a message suitable for the user.
func (g *Gateway) GenerateResponse(ctx context.Context, prompt string) Result {
	if text, ok := g.cache.Get(prompt); ok {
		g.log.InfoContext(ctx, "Using cached response", "key_length", len([]rune(cache.Key(prompt))))
		g.metrics.ObserveGateway(metrics.OutcomeCacheHit, 0)
		return Result{Text: text}
	}

	start := time.Now()
	text, err := g.complete(ctx, prompt)
	if err != nil {
		failure := g.classify(ctx, err)
		g.metrics.ObserveGateway(outcomeFor(failure.Kind), time.Since(start))
		return Result{Failure: failure}
	}

	g.cache.Set(prompt, text)
	g.metrics.ObserveGateway(metrics.OutcomeSuccess, time.Since(start))
	g.log.DebugContext(ctx, "Completion received", "response_length", len(text), "duration", time.Since(start))
	return Result{Text: text}
}

// complete performs the request with retries on transport failures only.
func (g *Gateway) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := g.buildPayload(prompt)
	if err != nil {
		return "", err
	}

	var (
		text    string
		attempt uint
	)

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(g.cfg.Retry.Attempts),
		retry.RetryIf(isTransport),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return g.cfg.Retry.Backoff(n)
		}),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(_ uint, err error) {
			g.log.WarnContext(ctx, "Completion attempt failed",
				"attempt", attempt,
				"max_attempts", g.cfg.Retry.Attempts,
				"error", err)
		}),
	}
	if g.timer != nil {
		opts = append(opts, retry.WithTimer(g.timer))
	}

	err = retry.Do(
		func() error {
			attempt++
			if attempt > 1 {
				g.metrics.IncRetry()
			}
			t, err := g.post(ctx, payload)
			if err != nil {
				return err
			}
			text = t
			return nil
		},
		opts...,
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Backoff returns the wait before retry n, where n is the number of attempts
// already made.
func (p RetryPolicy) Backoff(n uint) time.Duration {
	wait := time.Duration(float64(p.Multiplier) * math.Pow(2, float64(n)))
	if wait < p.MinWait {
		wait = p.MinWait
	}
	if p.MaxWait > 0 && wait > p.MaxWait {
		wait = p.MaxWait
	}
	return wait
}

// classify converts an error from complete into a Failure and logs it.
func (g *Gateway) classify(ctx context.Context, err error) *Failure {
	msgs := g.cfg.Messages

	var (
		transportErr *TransportError
		statusErr    *StatusError
	)
	switch {
	case errors.Is(err, ErrRateLimited):
		g.log.WarnContext(ctx, "Completion endpoint rate limit exceeded")
		return &Failure{Kind: KindRateLimit, Message: msgs.RateLimit, Err: err}

	case errors.As(err, &statusErr):
		g.log.ErrorContext(ctx, "Completion endpoint returned error status",
			"status", statusErr.StatusCode,
			"body", statusErr.Body)
		return &Failure{Kind: KindServer, Message: fmt.Sprintf(msgs.SystemError, statusErr.Error()), Err: err}

	case errors.Is(err, ErrParse):
		g.log.ErrorContext(ctx, "Failed to decode completion response", "error", err)
		return &Failure{Kind: KindParse, Message: fmt.Sprintf(msgs.SystemError, ErrParse.Error()), Err: err}

	case errors.Is(err, ErrUnexpectedShape):
		g.log.WarnContext(ctx, "Completion response has unexpected shape", "error", err)
		return &Failure{Kind: KindUnexpectedShape, Message: fmt.Sprintf(msgs.SystemError, ErrUnexpectedShape.Error()), Err: err}

	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			g.log.ErrorContext(ctx, "Completion request timed out after all attempts", "error", err)
			return &Failure{Kind: KindTransport, Message: msgs.Timeout, Err: err}
		}
		g.log.ErrorContext(ctx, "Completion request failed after all attempts", "error", err)
		return &Failure{Kind: KindTransport, Message: msgs.Unexpected, Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		g.log.ErrorContext(ctx, "Completion request deadline exceeded", "error", err)
		return &Failure{Kind: KindTransport, Message: msgs.Timeout, Err: err}

	default:
		g.log.ErrorContext(ctx, "Unexpected error in AI gateway", "error", err)
		return &Failure{Kind: KindUnexpected, Message: msgs.Unexpected, Err: err}
	}
}

func outcomeFor(k Kind) string {
	switch k {
	case KindRateLimit:
		return metrics.OutcomeRateLimited
	case KindServer:
		return metrics.OutcomeServerError
	case KindParse:
		return metrics.OutcomeParseError
	case KindUnexpectedShape:
		return metrics.OutcomeUnexpectedShape
	case KindTransport:
		return metrics.OutcomeTransportError
	default:
		return metrics.OutcomeUnexpected
	}
}

// readBody reads the whole response body. A failure here means the exchange
// did not complete and is treated as a transport error.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return body, nil
}
