package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"fundpulse/internal/cache"
	"fundpulse/internal/config"
	"fundpulse/internal/models"
	"fundpulse/internal/parse"
	"fundpulse/internal/upstream"
)

// Sectors serves the sector list, per-sector streaks, constituent stocks
// and the sector-to-fund mapping.
type Sectors struct {
	cfg   config.Config
	cache cache.Cache
	up    *upstream.Client
	log   zerolog.Logger
}

func NewSectors(cfg config.Config, c cache.Cache, up *upstream.Client, log zerolog.Logger) *Sectors {
	return &Sectors{cfg: cfg, cache: c, up: up, log: log.With().Str("component", "sectors").Logger()}
}

// themeTable maps display sector names to the fund vendor's theme codes.
// Used only as a fallback when a sector's own code yields no funds.
var themeTable = []struct {
	Name string
	Code string
}{
	{"人工智能", "BK000217"}, {"半导体", "BK000054"}, {"云计算", "BK000266"},
	{"5G概念", "BK000291"}, {"光模块", "BK000651"}, {"算力", "BK000601"},
	{"生成式AI", "BK000369"}, {"消费电子", "BK000089"},
	{"新能源汽车", "BK000225"}, {"光伏", "BK000146"}, {"锂电池", "BK000295"},
	{"储能", "BK000230"}, {"氢能源", "BK000227"}, {"风电", "BK000147"},
	{"绿色电力", "BK1036"}, {"电网设备", "BK0920"},
	{"医药", "BK000090"}, {"医疗器械", "BK000095"}, {"创新药", "BK000315"},
	{"中药", "BK000091"},
	{"银行", "BK000121"}, {"证券", "BK000128"}, {"保险", "BK000127"},
	{"食品饮料", "BK000074"}, {"白酒", "BK000076"}, {"家用电器", "BK000066"},
	{"汽车整车", "BK000069"},
	{"机器人", "BK000234"}, {"人形机器人", "BK000581"}, {"自动驾驶", "BK000279"},
	{"智能驾驶", "BK000461"}, {"国防军工", "BK000156"}, {"低空经济", "BK000521"},
	{"商业航天", "BK1132"},
	{"煤炭", "BK000177"}, {"钢铁", "BK000043"}, {"有色金属", "BK000047"},
	{"贵金属", "BK000050"}, {"房地产", "BK000105"},
	{"可控核聚变", "BK1133"}, {"交通运输", "BK000112"},
}

var themeAliases = map[string]string{
	"酿酒":   "BK000076",
	"光伏设备": "BK000146",
	"电网设备": "BK0920",
}

func themeCodeFor(sectorName string) string {
	if sectorName == "" {
		return ""
	}
	for _, item := range themeTable {
		if strings.Contains(sectorName, item.Name) {
			return item.Code
		}
	}
	for key, code := range themeAliases {
		if strings.Contains(sectorName, key) {
			return code
		}
	}
	return ""
}

// List fetches the industry sector board.
func (s *Sectors) List(ctx context.Context) ([]models.Sector, error) {
	return fetchCached(ctx, s.cache, "sector:list", s.cfg.TTLSectorList, func(ctx context.Context) ([]models.Sector, error) {
		var resp struct {
			Data struct {
				Diff []struct {
					Code      string `json:"f12"`
					Name      string `json:"f14"`
					ChangePct any    `json:"f3"`
					UpCount   any    `json:"f104"`
					DownCount any    `json:"f105"`
				} `json:"diff"`
			} `json:"data"`
		}
		err := s.up.GetJSON(ctx, s.cfg.PushBase+"/api/qt/clist/get", url.Values{
			"fid":    {"f62"},
			"po":     {"1"},
			"pz":     {"100"},
			"pn":     {"1"},
			"np":     {"1"},
			"fltt":   {"2"},
			"invt":   {"2"},
			"ut":     {eastmoneyUT},
			"fs":     {"m:90+t:2"},
			"fields": {"f12,f14,f2,f3,f62,f184,f104,f105"},
		}, nil, s.cfg.TimeoutSlow, &resp)
		if err != nil {
			return nil, fmt.Errorf("sector list unavailable: %w", err)
		}

		sectors := []models.Sector{}
		for _, item := range resp.Data.Diff {
			sectors = append(sectors, models.Sector{
				Name:          item.Name,
				Code:          item.Code,
				ChangePercent: signedPct(toFloat(item.ChangePct)),
				UpCount:       int(toFloat(item.UpCount)),
				DownCount:     int(toFloat(item.DownCount)),
			})
		}
		if len(sectors) == 0 {
			return nil, errors.New("sector data empty")
		}
		return sectors, nil
	})
}

// Streak fetches the sector list, then computes each sector's trailing
// up/down streak from its recent daily kline, fanning out with a capped
// worker bound. A failed per-sector computation degrades that sector's
// streak to 0; output order follows the list order.
func (s *Sectors) Streak(ctx context.Context, limit int) ([]models.SectorStreak, error) {
	limitKey := "all"
	if limit > 0 {
		limitKey = strconv.Itoa(limit)
	}
	return fetchCached(ctx, s.cache, "sector:streak:"+limitKey, s.cfg.TTLStreak, func(ctx context.Context) ([]models.SectorStreak, error) {
		sectors, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(sectors) > limit {
			sectors = sectors[:limit]
		}

		workers := s.cfg.StreakWorkers
		if len(sectors) < workers {
			workers = len(sectors)
		}
		return mapOrdered(ctx, sectors, workers, func(ctx context.Context, _ int, sec models.Sector) models.SectorStreak {
			days, err := s.streakDays(ctx, sec.Code)
			if err != nil {
				s.log.Debug().Str("sector", sec.Code).Err(err).Msg("streak degraded")
				days = 0
			}
			return models.SectorStreak{Sector: sec, StreakDays: days}
		}), nil
	})
}

func (s *Sectors) streakDays(ctx context.Context, sectorCode string) (int, error) {
	return fetchCached(ctx, s.cache, "sector:streak:item:"+sectorCode, s.cfg.TTLStreakItem, func(ctx context.Context) (int, error) {
		var resp struct {
			Data struct {
				Klines []string `json:"klines"`
			} `json:"data"`
		}
		err := s.up.GetJSON(ctx, s.cfg.PushHisBase+"/api/qt/stock/kline/get", url.Values{
			"secid":   {"90." + sectorCode},
			"klt":     {"101"},
			"fqt":     {"1"},
			"lmt":     {"10"},
			"end":     {"20500101"},
			"fields1": {"f1,f2,f3,f4,f5,f6"},
			"fields2": {"f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"},
			"ut":      {eastmoneyUT},
		}, nil, s.cfg.TimeoutSlow, &resp)
		if err != nil {
			return 0, err
		}

		closes := make([]float64, 0, len(resp.Data.Klines))
		for _, line := range resp.Data.Klines {
			parts := strings.Split(line, ",")
			if len(parts) < 3 {
				continue
			}
			c, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				continue
			}
			closes = append(closes, c)
		}
		return TrailingStreak(closes), nil
	})
}

// Funds maps a sector to its fund list. When the sector's own code
// yields nothing the display name is mapped through the theme table and
// retried once.
func (s *Sectors) Funds(ctx context.Context, sectorCode, sectorName string) (models.SectorFundsResult, error) {
	return fetchCached(ctx, s.cache, "sector:funds:"+sectorCode, s.cfg.TTLSectorFunds, func(ctx context.Context) (models.SectorFundsResult, error) {
		funds, err := s.fetchSectorFunds(ctx, sectorCode)
		if len(funds) == 0 && sectorName != "" {
			if theme := themeCodeFor(sectorName); theme != "" && theme != sectorCode {
				s.log.Debug().Str("sector", sectorCode).Str("theme", theme).Msg("retrying via theme code")
				funds, err = s.fetchSectorFunds(ctx, theme)
			}
		}
		if len(funds) == 0 {
			if err != nil {
				return models.SectorFundsResult{}, fmt.Errorf("sector funds unavailable: %w", err)
			}
			return models.SectorFundsResult{}, errors.New("sector fund data empty")
		}
		return models.SectorFundsResult{SectorName: sectorName, Funds: funds}, nil
	})
}

func (s *Sectors) fetchSectorFunds(ctx context.Context, code string) ([]models.SectorFund, error) {
	text, err := s.up.GetText(ctx, s.cfg.FundDataBase+"/data/FundGuideapi.aspx", url.Values{
		"dt": {"4"}, "sd": {""}, "ed": {""}, "tp": {code},
		"sc": {"1n"}, "st": {"desc"}, "pi": {"1"}, "pn": {"200"},
		"zf": {"diy"}, "sh": {"list"},
		"rnd": {strconv.FormatFloat(rand.Float64(), 'f', -1, 64)},
	}, map[string]string{
		"Referer": s.cfg.FundDataBase + "/",
	}, s.cfg.TimeoutSectorFunds)
	if err != nil {
		return nil, err
	}
	payload, err := parse.ExtractAssignedJSON(text, "var rankData =")
	if err != nil {
		return nil, err
	}
	var blob struct {
		Datas []string `json:"datas"`
	}
	if err := json.Unmarshal(payload, &blob); err != nil {
		return nil, fmt.Errorf("sector funds decode: %w", err)
	}

	funds := []models.SectorFund{}
	for _, item := range blob.Datas {
		parts := strings.Split(item, ",")
		if len(parts) < 20 {
			continue
		}
		change := parts[16]
		if change == "" {
			change = "0"
		}
		year := parts[9]
		if year == "" {
			year = "0"
		}
		funds = append(funds, models.SectorFund{
			Code:       parts[0],
			Name:       parts[1],
			Type:       parts[3],
			Change:     change,
			YearChange: year,
		})
	}
	return funds, nil
}

// Detail fetches a sector's constituent stocks.
func (s *Sectors) Detail(ctx context.Context, sectorCode, sectorName string) (models.SectorDetail, error) {
	return fetchCached(ctx, s.cache, "sector:detail:"+sectorCode, s.cfg.TTLSectorList, func(ctx context.Context) (models.SectorDetail, error) {
		var resp struct {
			Data struct {
				Diff []struct {
					Code      string `json:"f12"`
					Name      string `json:"f14"`
					Price     any    `json:"f2"`
					ChangePct any    `json:"f3"`
				} `json:"diff"`
			} `json:"data"`
		}
		err := s.up.GetJSON(ctx, s.cfg.PushBase+"/api/qt/clist/get", url.Values{
			"fid":    {"f3"},
			"po":     {"1"},
			"pz":     {"50"},
			"pn":     {"1"},
			"np":     {"1"},
			"fltt":   {"2"},
			"invt":   {"2"},
			"ut":     {eastmoneyUT},
			"fs":     {"b:" + sectorCode},
			"fields": {"f2,f3,f4,f12,f14"},
		}, nil, s.cfg.TimeoutSlow, &resp)
		if err != nil {
			return models.SectorDetail{}, fmt.Errorf("sector detail unavailable: %w", err)
		}

		stocks := []models.SectorStock{}
		for _, item := range resp.Data.Diff {
			stocks = append(stocks, models.SectorStock{
				Code:          item.Code,
				Name:          item.Name,
				Price:         toFloat(item.Price),
				ChangePercent: signedPct(toFloat(item.ChangePct)),
			})
		}
		return models.SectorDetail{Code: sectorCode, Name: sectorName, Stocks: stocks}, nil
	})
}
