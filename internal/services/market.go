package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"fundpulse/internal/cache"
	"fundpulse/internal/config"
	"fundpulse/internal/models"
	"fundpulse/internal/parse"
	"fundpulse/internal/upstream"
)

// Market serves index quotes and the fund rise/fall distribution.
type Market struct {
	cfg   config.Config
	cache cache.Cache
	up    *upstream.Client
	log   zerolog.Logger
}

func NewMarket(cfg config.Config, c cache.Cache, up *upstream.Client, log zerolog.Logger) *Market {
	return &Market{cfg: cfg, cache: c, up: up, log: log.With().Str("component", "market").Logger()}
}

// The four headline indices, in display order.
var (
	indexSecIDs   = "1.000001,0.399001,0.399006,1.000300"
	indexAltQuery = "sh000001,sz399001,sz399006,sh000300"
	indexAltNames = []string{"上证指数", "深证成指", "创业板指", "沪深300"}
)

// Indices fetches the headline index quotes: the push JSON endpoint in
// full, then the secondary quote vendor in full if the primary yields
// nothing usable.
func (s *Market) Indices(ctx context.Context) ([]models.IndexQuote, error) {
	return fetchCached(ctx, s.cache, "market:indices", s.cfg.TTLIndices, func(ctx context.Context) ([]models.IndexQuote, error) {
		quotes, err := s.indicesFromPush(ctx)
		if err == nil && len(quotes) > 0 {
			return quotes, nil
		}
		if err != nil {
			s.log.Debug().Err(err).Msg("primary index source miss, trying quote vendor")
		}
		quotes, altErr := s.indicesFromAltVendor(ctx)
		if altErr == nil && len(quotes) > 0 {
			return quotes, nil
		}
		if altErr == nil {
			altErr = fmt.Errorf("index data empty")
		}
		return nil, fmt.Errorf("index quotes unavailable: %w", altErr)
	})
}

func (s *Market) indicesFromPush(ctx context.Context) ([]models.IndexQuote, error) {
	var resp struct {
		Data struct {
			Diff []struct {
				Name      string `json:"f14"`
				Value     any    `json:"f2"`
				Change    any    `json:"f4"`
				ChangePct any    `json:"f3"`
			} `json:"diff"`
		} `json:"data"`
	}
	err := s.up.GetJSON(ctx, s.cfg.PushBase+"/api/qt/ulist.np/get", url.Values{
		"fltt":   {"2"},
		"secids": {indexSecIDs},
		"fields": {"f2,f3,f4,f12,f14"},
	}, nil, s.cfg.TimeoutDefault, &resp)
	if err != nil {
		return nil, err
	}
	quotes := []models.IndexQuote{}
	for _, item := range resp.Data.Diff {
		quotes = append(quotes, models.IndexQuote{
			Name:          item.Name,
			Value:         toString(item.Value),
			Change:        signedNum(toFloat(item.Change)),
			ChangePercent: signedPct(toFloat(item.ChangePct)),
		})
	}
	return quotes, nil
}

func (s *Market) indicesFromAltVendor(ctx context.Context) ([]models.IndexQuote, error) {
	text, err := s.up.GetText(ctx, s.cfg.QuoteAltBase+"/q="+indexAltQuery, nil, nil, s.cfg.TimeoutDefault)
	if err != nil {
		return nil, err
	}
	quotes := []models.IndexQuote{}
	for i, parts := range parse.DelimitedQuotes(text) {
		if len(parts) < 35 {
			continue
		}
		name := parts[1]
		if i < len(indexAltNames) {
			name = indexAltNames[i]
		}
		quotes = append(quotes, models.IndexQuote{
			Name:          name,
			Value:         parts[3],
			Change:        parts[31],
			ChangePercent: parts[32] + "%",
		})
	}
	return quotes, nil
}

// Distribution buckets the day change of the whole open-fund universe
// into a rise/fall histogram.
func (s *Market) Distribution(ctx context.Context) (models.Distribution, error) {
	return fetchCached(ctx, s.cache, "market:distribution", s.cfg.TTLDistribution, func(ctx context.Context) (models.Distribution, error) {
		var resp struct {
			Datas []struct {
				SylD any `json:"SYL_D"`
			} `json:"Datas"`
		}
		err := s.up.GetJSON(ctx, s.cfg.FundMobBase+"/FundMApi/FundRankNewList.ashx", url.Values{
			"fundtype":  {"0"},
			"sorttype":  {"SYL_D"},
			"sort":      {"desc"},
			"pageindex": {"0"},
			"pagesize":  {"10000"},
			"plat":      {"Iphone"},
		}, nil, s.cfg.TimeoutSlow, &resp)
		if err != nil {
			return models.Distribution{}, fmt.Errorf("distribution unavailable: %w", err)
		}

		var dist models.Distribution
		for _, fund := range resp.Datas {
			change := toFloat(fund.SylD)
			switch {
			case change < -5:
				dist.Buckets.LtNeg5++
				dist.DownCount++
			case change < -3:
				dist.Buckets.Neg5Neg3++
				dist.DownCount++
			case change < -1:
				dist.Buckets.Neg3Neg1++
				dist.DownCount++
			case change < 0:
				dist.Buckets.Neg1Zero++
				dist.DownCount++
			case change == 0:
				dist.Buckets.Zero++
			case change < 1:
				dist.Buckets.ZeroOne++
				dist.UpCount++
			case change < 3:
				dist.Buckets.OneThree++
				dist.UpCount++
			case change < 5:
				dist.Buckets.ThreeFiv++
				dist.UpCount++
			default:
				dist.Buckets.Gt5++
				dist.UpCount++
			}
		}
		dist.UpdateTime = time.Now().Format("2006-01-02 15:04")
		return dist, nil
	})
}
