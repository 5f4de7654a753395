package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundpulse/internal/config"
)

func TestGetSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang, gotReferer string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := New(config.Config{}, zerolog.Nop())
	body, err := c.Get(context.Background(), ts.URL, url.Values{"a": {"1"}},
		map[string]string{"Referer": "https://example.com/"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Contains(t, gotLang, "zh-CN")
	assert.Equal(t, "https://example.com/", gotReferer)
}

func TestGetErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(config.Config{}, zerolog.Nop())
	_, err := c.Get(context.Background(), ts.URL, nil, nil, time.Second)
	require.Error(t, err)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.Status)
}

func TestGetTimesOut(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer ts.Close()

	c := New(config.Config{}, zerolog.Nop())
	_, err := c.Get(context.Background(), ts.URL, nil, nil, 20*time.Millisecond)
	require.Error(t, err)

	var upErr *Error
	assert.False(t, errors.As(err, &upErr), "timeouts are transport errors, not status errors")
}

func TestGetJSONDecodeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	c := New(config.Config{}, zerolog.Nop())
	var out map[string]any
	err := c.GetJSON(context.Background(), ts.URL, nil, nil, time.Second, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
