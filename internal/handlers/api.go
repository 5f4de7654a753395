// Package handlers maps (module, action) pairs to typed operations and
// validates inputs before any upstream call is made.
package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"fundpulse/internal/cache"
	"fundpulse/internal/config"
	"fundpulse/internal/models"
	"fundpulse/internal/services"
	"fundpulse/internal/upstream"
)

var (
	fundCodeRe   = regexp.MustCompile(`^\d{6}$`)
	sectorCodeRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

type opKey struct {
	module string
	action string
}

type opFunc func(ctx context.Context, q url.Values) (any, error)

type API struct {
	cfg      config.Config
	funds    *services.Funds
	market   *services.Market
	sectors  *services.Sectors
	news     *services.News
	registry map[opKey]opFunc
}

func New(cfg config.Config, c cache.Cache, up *upstream.Client, log zerolog.Logger) *API {
	a := &API{
		cfg:     cfg,
		funds:   services.NewFunds(cfg, c, up, log),
		market:  services.NewMarket(cfg, c, up, log),
		sectors: services.NewSectors(cfg, c, up, log),
		news:    services.NewNews(cfg, c, up, log),
	}
	a.registry = map[opKey]opFunc{
		{"fund", "search"}:         a.fundSearch,
		{"fund", "info"}:           a.fundInfo,
		{"fund", "detail"}:         a.fundDetail,
		{"fund", "batch"}:          a.fundBatch,
		{"fund", "hot"}:            a.fundHot,
		{"market", "indices"}:      a.marketIndices,
		{"market", "distribution"}: a.marketDistribution,
		{"sector", "list"}:         a.sectorList,
		{"sector", "streak"}:       a.sectorStreak,
		{"sector", "funds"}:        a.sectorFunds,
		{"sector", "detail"}:       a.sectorDetail,
		{"news", "list"}:           a.newsList,
	}
	return a
}

// Dispatch routes one decoded request to its operation and wraps the
// outcome in the uniform envelope. The handling latency field is stamped
// by the HTTP layer.
func (a *API) Dispatch(ctx context.Context, q url.Values) models.Envelope {
	module := q.Get("module")
	if module == "" {
		module = "fund"
	}
	action := q.Get("action")

	op, ok := a.registry[opKey{module, action}]
	if !ok {
		return models.Envelope{
			Success: false,
			Message: fmt.Sprintf("unknown operation: module=%s, action=%s", module, action),
		}
	}
	data, err := op(ctx, q)
	if err != nil {
		return models.Envelope{Success: false, Message: err.Error()}
	}
	return models.Envelope{Success: true, Data: data}
}

func firstParam(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func optionalInt(q url.Values, key string) int {
	v := q.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
