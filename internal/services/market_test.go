package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundpulse/internal/cache"
	"fundpulse/internal/upstream"
)

func newMarketService(t *testing.T, handler http.Handler) *Market {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	cfg := testConfig(ts.URL)
	return NewMarket(cfg, cache.NewMemory(), upstream.New(cfg, zerolog.Nop()), zerolog.Nop())
}

func TestIndicesFromPrimarySource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/qt/ulist.np/get", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"diff":[
			{"f14":"上证指数","f2":3120.01,"f4":12.01,"f3":0.39},
			{"f14":"深证成指","f2":10500.5,"f4":-30.2,"f3":-0.29}
		]}}`)
	})
	svc := newMarketService(t, mux)

	quotes, err := svc.Indices(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "上证指数", quotes[0].Name)
	assert.Equal(t, "3120.01", quotes[0].Value)
	assert.Equal(t, "+12.01", quotes[0].Change)
	assert.Equal(t, "+0.39%", quotes[0].ChangePercent)
	assert.Equal(t, "-30.2", quotes[1].Change)
	assert.Equal(t, "-0.29%", quotes[1].ChangePercent)
}

func TestIndicesFallsBackToQuoteVendor(t *testing.T) {
	altLine := func(value, change, pct string) string {
		parts := make([]string, 36)
		parts[3] = value
		parts[31] = change
		parts[32] = pct
		return `v_x="` + strings.Join(parts, "~") + `";`
	}
	svc := newMarketService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/qt/ulist.np/get":
			w.WriteHeader(http.StatusServiceUnavailable)
		case strings.HasPrefix(r.URL.Path, "/q="):
			fmt.Fprint(w, altLine("3120.01", "12.01", "0.39")+"\n"+altLine("10500.50", "-30.20", "-0.29"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	quotes, err := svc.Indices(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	// Names come from the fixed display list, not the vendor payload.
	assert.Equal(t, "上证指数", quotes[0].Name)
	assert.Equal(t, "深证成指", quotes[1].Name)
	assert.Equal(t, "3120.01", quotes[0].Value)
	assert.Equal(t, "12.01", quotes[0].Change)
	assert.Equal(t, "0.39%", quotes[0].ChangePercent)
}

func TestIndicesBothSourcesDown(t *testing.T) {
	svc := newMarketService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := svc.Indices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index quotes unavailable")
}

func TestDistributionBucketsChanges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/FundMApi/FundRankNewList.ashx", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"Datas":[
			{"SYL_D":"-6.2"},
			{"SYL_D":-4},
			{"SYL_D":"-0.5"},
			{"SYL_D":0},
			{"SYL_D":"0.5"},
			{"SYL_D":2},
			{"SYL_D":"10.1"}
		]}`)
	})
	svc := newMarketService(t, mux)

	dist, err := svc.Distribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dist.Buckets.LtNeg5)
	assert.Equal(t, 1, dist.Buckets.Neg5Neg3)
	assert.Equal(t, 1, dist.Buckets.Neg1Zero)
	assert.Equal(t, 1, dist.Buckets.Zero)
	assert.Equal(t, 1, dist.Buckets.ZeroOne)
	assert.Equal(t, 1, dist.Buckets.OneThree)
	assert.Equal(t, 1, dist.Buckets.Gt5)
	assert.Equal(t, 3, dist.UpCount)
	assert.Equal(t, 3, dist.DownCount)
	assert.NotEmpty(t, dist.UpdateTime)
}
