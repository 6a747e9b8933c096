package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// Source supplies an external market valuation for a vehicle. The core
// engine never calls this itself; callers resolve the snapshot before
// invoking the pipeline and pass it in. A nil snapshot with a nil error
// means "no valuation available" and the engine degrades to formula.
type Source interface {
	Fetch(ctx context.Context, registration string, mileage float64) (*domain.MarketValuationSnapshot, error)
}

// HTTPSource fetches valuations from a provider HTTP API behind a
// circuit breaker and a client-side rate limit. Provider outages
// degrade to nil snapshots instead of failing the recommendation.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// HTTPSourceConfig tunes the provider client.
type HTTPSourceConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// NewHTTPSource creates a provider client. Zero config fields get
// conservative defaults.
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	settings := gobreaker.Settings{
		Name:    "valuation-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &HTTPSource{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
	}
}

// Fetch retrieves the provider's valuation for a registration plate.
func (s *HTTPSource) Fetch(ctx context.Context, registration string, mileage float64) (*domain.MarketValuationSnapshot, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetchOnce(ctx, registration, mileage)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			// Provider is down; the pipeline runs formula-only.
			return nil, nil
		}
		return nil, err
	}
	return result.(*domain.MarketValuationSnapshot), nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, registration string, mileage float64) (*domain.MarketValuationSnapshot, error) {
	endpoint := fmt.Sprintf("%s/v1/valuations?registration=%s&mileage=%.0f",
		s.baseURL, url.QueryEscape(registration), mileage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build valuation request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("valuation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // unknown vehicle: not an error, just no anchor
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("valuation provider returned %d", resp.StatusCode)
	}

	var snapshot domain.MarketValuationSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode valuation response: %w", err)
	}
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	return &snapshot, nil
}
