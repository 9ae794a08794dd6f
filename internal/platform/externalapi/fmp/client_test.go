package fmp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRateLimiter counts WaitIfNeeded calls without waiting.
type mockRateLimiter struct {
	calls atomic.Int32
}

func (m *mockRateLimiter) WaitIfNeeded() { m.calls.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *mockRateLimiter) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	rl := &mockRateLimiter{}
	cfg := Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		ExchangeSuffix: ".KL",
		InitialBackoff: time.Millisecond,
	}
	return NewClient(cfg, server.Client(), rl), rl
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, &http.Client{}, nil)

	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, 50, c.cfg.QuoteBatchSize)
	assert.Equal(t, 3, c.cfg.MaxAttempts)
	assert.Equal(t, time.Second, c.cfg.InitialBackoff)
}

func TestClient_BackoffSchedule(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, &http.Client{}, nil)
	b := c.backoffPolicy(context.Background())
	b.Reset()

	assert.Equal(t, 1*time.Second, b.NextBackOff())
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, time.Duration(-1), b.NextBackOff(), "3 attempts means only 2 waits")
}

func TestClient_Fetch_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c, rl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"symbol":"1155.KL","companyName":"Maybank"}]`))
	})

	p := c.Profile(context.Background(), "1155.KL")

	require.NotNil(t, p)
	assert.Equal(t, "Maybank", p.CompanyName)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, int32(3), rl.calls.Load(), "every attempt passes the limiter")
}

func TestClient_Fetch_ExhaustedRetriesDegradeToEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{invalid json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				tt.handler(w, r)
			})

			assert.Nil(t, c.Profile(context.Background(), "1155.KL"))
			assert.Nil(t, c.ListStocks(context.Background()))
			assert.Equal(t, int32(6), hits.Load(), "3 attempts per call")
		})
	}
}

func TestClient_Fetch_UnexpectedShapeIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"Error Message":"Invalid API KEY."}`))
	})

	assert.Nil(t, c.Profile(context.Background(), "1155.KL"))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Fetch_QueryParameters(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/income-statement/1155.KL", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "annual", r.URL.Query().Get("period"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"date":"2023-12-31","period":"FY","revenue":1000.5}]`))
	})

	rows := c.IncomeStatements(context.Background(), "1155.KL", "annual", 5)

	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Revenue)
	assert.Equal(t, 1000.5, *rows[0].Revenue)
	assert.Nil(t, rows[0].NetIncome, "missing fields stay nil")
}

func TestClient_Fetch_ContextCancellation(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Nil(t, c.Profile(ctx, "1155.KL"))
}

func TestClient_ListStocks_FiltersExchangeSuffix(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/stock/list", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"symbol":"1155.KL","name":"Maybank"},
			{"symbol":"AAPL","name":"Apple"},
			{"symbol":"","name":"blank"},
			{"symbol":"5347.KL","name":"Tenaga"}
		]`))
	})

	rows := c.ListStocks(context.Background())

	require.Len(t, rows, 2)
	assert.Equal(t, "1155.KL", rows[0].Symbol)
	assert.Equal(t, "5347.KL", rows[1].Symbol)
}

func TestClient_Quotes_Batching(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		syms := strings.Split(strings.TrimPrefix(r.URL.Path, "/v3/quote/"), ",")
		if len(syms) > 50 {
			t.Errorf("batch too large: %d", len(syms))
		}
		// The second batch always fails.
		if syms[0] == "S50.KL" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		parts := make([]string, 0, len(syms))
		for _, s := range syms {
			parts = append(parts, fmt.Sprintf(`{"symbol":%q,"price":1.5}`, s))
		}
		_, _ = w.Write([]byte("[" + strings.Join(parts, ",") + "]"))
	})

	symbols := make([]string, 120)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("S%d.KL", i)
	}

	quotes := c.Quotes(context.Background(), symbols)

	assert.Len(t, quotes, 70, "batches 1 and 3 succeed (50 + 20)")
	assert.Equal(t, int32(5), requests.Load(), "1 + 3 attempts + 1")
	assert.Equal(t, "S0.KL", quotes[0].Symbol)
	assert.Equal(t, "S100.KL", quotes[50].Symbol)
}

func TestClient_Quotes_Empty(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	assert.Empty(t, c.Quotes(context.Background(), nil))
}

func TestClient_Peers(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/stock_peers", r.URL.Path)
		assert.Equal(t, "1155.KL", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`[{"symbol":"1155.KL","peersList":["1295.KL","1023.KL"]}]`))
	})

	assert.Equal(t, []string{"1295.KL", "1023.KL"}, c.Peers(context.Background(), "1155.KL"))
}

func TestClient_FundInfo_EmptyArrayIsNil(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	assert.Nil(t, c.FundInfo(context.Background(), "0800EA.KL"))
}

func TestClient_FundSectorWeights(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/etf-sector-weightings/0800EA.KL", r.URL.Path)
		_, _ = w.Write([]byte(`[{"sector":"Financial Services","weightPercentage":"31.2%"}]`))
	})

	rows := c.FundSectorWeights(context.Background(), "0800EA.KL")

	require.Len(t, rows, 1)
	assert.Equal(t, "31.2%", rows[0].WeightPercentage)
}
