package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundpulse/internal/cache"
	"fundpulse/internal/upstream"
)

func newNewsService(t *testing.T, handler http.Handler) *News {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	cfg := testConfig(ts.URL)
	return NewNews(cfg, cache.NewMemory(), upstream.New(cfg, zerolog.Nop()), zerolog.Nop())
}

func TestNewsListMapsFeed(t *testing.T) {
	ts := time.Date(2026, 8, 28, 9, 30, 0, 0, time.Local).Unix()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/roll/get", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"result":{"data":[
			{"title":"A股三大指数收涨","summary":"沪指涨0.5%%","media_name":"证券时报","ctime":%d,"url":"https://example.com/a"},
			{"title":"","summary":"untitled, skipped"},
			{"title":"基金发行回暖","intro":"recover","ctime":"%d","wapurl":"https://example.com/b"}
		]}}`, ts, ts)
	})
	svc := newNewsService(t, mux)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2, "items without a title are dropped")

	assert.Equal(t, "A股三大指数收涨", items[0].Title)
	assert.Equal(t, "证券时报", items[0].Source)
	assert.Equal(t, "2026-08-28 09:30", items[0].Time)
	assert.Equal(t, "https://example.com/a", items[0].URL)

	// Fallbacks: intro for summary, wapurl for url, default source.
	assert.Equal(t, "recover", items[1].Summary)
	assert.Equal(t, "新浪财经", items[1].Source)
	assert.Equal(t, "https://example.com/b", items[1].URL)
}

func TestNewsListEmptyFeedIsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/roll/get", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result":{"data":[]}}`)
	})
	svc := newNewsService(t, mux)

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no items")
}
