package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/sellpoint/internal/domain"
)

func sourceFor(server *httptest.Server) *HTTPSource {
	return NewHTTPSource(HTTPSourceConfig{
		BaseURL:        server.URL,
		RequestsPerSec: 1000,
		Burst:          1000,
	})
}

func TestHTTPSource_FetchDecodesValuation(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trade_in_value": 21000, "private_value": 23500, "confidence": "high"}`))
	}))
	defer server.Close()

	snap, err := sourceFor(server).Fetch(context.Background(), "AB12 CDE", 42000)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "/v1/valuations", gotPath)
	assert.Contains(t, gotQuery, "registration=AB12+CDE")
	assert.Contains(t, gotQuery, "mileage=42000")
	assert.Equal(t, 21000.0, snap.TradeInValue)
	assert.Equal(t, domain.ConfidenceHigh, snap.Confidence)
	assert.False(t, snap.CapturedAt.IsZero(), "missing capture time defaults to now")
}

func TestHTTPSource_UnknownVehicleIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	snap, err := sourceFor(server).Fetch(context.Background(), "ZZ99 ZZZ", 0)
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestHTTPSource_ServerErrorsSurfaceUntilBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := sourceFor(server)

	// First failures propagate so callers can log them.
	for i := 0; i < 5; i++ {
		snap, err := source.Fetch(context.Background(), "AB12 CDE", 0)
		assert.Error(t, err, "attempt %d", i)
		assert.Nil(t, snap)
	}

	// Breaker is open now: degraded, not broken.
	snap, err := source.Fetch(context.Background(), "AB12 CDE", 0)
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestHTTPSource_CanceledContextStopsAtLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sourceFor(server).Fetch(ctx, "AB12 CDE", 0)
	assert.Error(t, err)
}
