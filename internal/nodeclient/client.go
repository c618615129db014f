// Package nodeclient talks to a node's core and indexer REST APIs.
package nodeclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/metrics"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/go-resty/resty/v2"
	"github.com/jellydator/ttlcache/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	corePath    = "/api/core/v2"
	indexerPath = "/api/indexer/v1"
	infoKey     = "info"
)

// ErrTimeNotSynced is returned when the local clock and the latest
// milestone disagree by more than the configured tolerance.
var ErrTimeNotSynced = errors.New("local time is not in sync with the node")

// HTTPError is a non-2xx node response.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node returned status %d", e.Status)
	}
	return fmt.Sprintf("node returned status %d: %s (%s)", e.Status, e.Message, e.Code)
}

// Config configures a Client.
type Config struct {
	URL      string
	Timeout  time.Duration
	InfoTTL  time.Duration
	MaxDrift time.Duration
	// BreakerFailures is how many consecutive failures open the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns a config for url with the default tuning.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		Timeout:         30 * time.Second,
		InfoTTL:         15 * time.Second,
		MaxDrift:        5 * time.Minute,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Client is a node REST client. It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	cb       *gobreaker.CircuitBreaker
	info     *ttlcache.Cache[string, *api.NodeInfo]
	maxDrift time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a client for cfg.URL.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	rc := resty.New().
		SetHostURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	rc.JSONMarshal = json.Marshal
	rc.JSONUnmarshal = json.Unmarshal

	c := &Client{
		http: rc,
		info: ttlcache.New[string, *api.NodeInfo](
			ttlcache.WithTTL[string, *api.NodeInfo](cfg.InfoTTL),
			ttlcache.WithDisableTouchOnHit[string, *api.NodeInfo](),
		),
		maxDrift: cfg.MaxDrift,
		logger:   logger,
		now:      time.Now,
	}
	c.cb = newCircuitBreaker(cfg, logger)
	return c
}

func newCircuitBreaker(cfg Config, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "node",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Warn().Str("url", cfg.URL).Msg("Node seems down, stop allowing requests")
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				logger.Info().Str("url", cfg.URL).Msg("Checking node status")
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				logger.Info().Str("url", cfg.URL).Msg("Node seems ok, allowing requests again")
			}
		},
	})
}

// do runs one request through the circuit breaker. Client errors (4xx)
// are returned without counting as breaker failures; 404 maps to
// api.ErrNotFound.
func (c *Client) do(ctx context.Context, endpoint string, send func(*resty.Request) (*resty.Response, error), result interface{}) error {
	start := time.Now()
	defer func() {
		metrics.NodeRequests.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var clientErr error
	_, err := c.cb.Execute(func() (interface{}, error) {
		req := c.http.R().SetContext(ctx).SetError(&api.ErrorResponse{})
		if result != nil {
			req.SetResult(result)
		}
		resp, err := send(req)
		if err != nil {
			return nil, err
		}
		if !resp.IsError() {
			return nil, nil
		}
		httpErr := &HTTPError{Status: resp.StatusCode()}
		if body, ok := resp.Error().(*api.ErrorResponse); ok && body != nil {
			httpErr.Code = body.Error.Code
			httpErr.Message = body.Error.Message
		}
		if resp.StatusCode() == http.StatusNotFound {
			clientErr = fmt.Errorf("%s: %w", endpoint, api.ErrNotFound)
			return nil, nil
		}
		if resp.StatusCode() < http.StatusInternalServerError {
			clientErr = httpErr
			return nil, nil
		}
		return nil, httpErr
	})
	if err != nil {
		metrics.NodeRequestErrors.WithLabelValues(endpoint).Inc()
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Node request failed")
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if clientErr != nil && !errors.Is(clientErr, api.ErrNotFound) {
		metrics.NodeRequestErrors.WithLabelValues(endpoint).Inc()
	}
	return clientErr
}

func (c *Client) get(ctx context.Context, endpoint, path string, result interface{}) error {
	return c.do(ctx, endpoint, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(path)
	}, result)
}

// Info returns the node info, served from cache while fresh.
func (c *Client) Info(ctx context.Context) (*api.NodeInfo, error) {
	if item := c.info.Get(infoKey); item != nil {
		return item.Value(), nil
	}
	var info api.NodeInfo
	if err := c.get(ctx, "info", corePath+"/info", &info); err != nil {
		return nil, err
	}
	c.info.Set(infoKey, &info, ttlcache.DefaultTTL)
	return &info, nil
}

// Health reports whether the node considers itself healthy.
func (c *Client) Health(ctx context.Context) (bool, error) {
	healthy := false
	err := c.do(ctx, "health", func(r *resty.Request) (*resty.Response, error) {
		resp, err := r.Get("/health")
		if err == nil {
			healthy = resp.StatusCode() == http.StatusOK
		}
		return resp, err
	}, nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) || errors.Is(err, api.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return healthy, nil
}
