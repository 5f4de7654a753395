package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fundpulse/internal/cache"
	"fundpulse/internal/config"
	"fundpulse/internal/models"
	"fundpulse/internal/parse"
	"fundpulse/internal/upstream"
)

// Funds aggregates the fund-family operations: search, single-fund info
// with fallback chain, composite detail, ordered batch and hot ranking.
type Funds struct {
	cfg   config.Config
	cache cache.Cache
	up    *upstream.Client
	log   zerolog.Logger
}

func NewFunds(cfg config.Config, c cache.Cache, up *upstream.Client, log zerolog.Logger) *Funds {
	return &Funds{cfg: cfg, cache: c, up: up, log: log.With().Str("component", "funds").Logger()}
}

// action calls the action-style fund API and decodes the body into out
// after screening the vendor's logical-error convention.
func (s *Funds) action(ctx context.Context, name string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action_name", name)
	body, err := s.up.Get(ctx, s.cfg.FundAPIBase, params, nil, s.cfg.TimeoutSearch)
	if err != nil {
		return err
	}
	if err := checkLogicalError(body, name); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode: %w", name, err)
	}
	return nil
}

// Off-exchange products only: these vendor categories cannot be resolved
// by the detail endpoints and are dropped from search results.
var excludedCategories = map[string]bool{
	"高端理财": true,
	"私募":   true,
	"银行理财": true,
	"信托":   true,
	"保险":   true,
	"券商理财": true,
}

func isMoneyFund(category, ftype, name string) bool {
	for _, token := range []string{"货币", "现金"} {
		if strings.Contains(category, token) || strings.Contains(ftype, token) || strings.Contains(name, token) {
			return true
		}
	}
	return false
}

type searchResponse struct {
	Datas []struct {
		Code         string `json:"CODE"`
		Name         string `json:"NAME"`
		CategoryDesc string `json:"CATEGORYDESC"`
		FundBaseInfo *struct {
			FType string `json:"FTYPE"`
		} `json:"FundBaseInfo"`
		ZTJJInfo []struct {
			TTypeName string `json:"TTYPENAME"`
			TType     string `json:"TTYPE"`
		} `json:"ZTJJInfo"`
	} `json:"Datas"`
}

func (s *Funds) Search(ctx context.Context, keyword string) ([]models.SearchResult, error) {
	return fetchCached(ctx, s.cache, "fund:search:"+keyword, s.cfg.TTLSearch, func(ctx context.Context) ([]models.SearchResult, error) {
		var resp searchResponse
		err := s.action(ctx, "fundSearch", url.Values{
			"m":         {"1"},
			"key":       {keyword},
			"pageindex": {"0"},
			"pagesize":  {"50"},
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		results := []models.SearchResult{}
		for _, item := range resp.Datas {
			if item.FundBaseInfo == nil {
				continue
			}
			if excludedCategories[item.CategoryDesc] {
				continue
			}
			if len(item.Code) != 6 {
				continue
			}
			if isMoneyFund(item.CategoryDesc, item.FundBaseInfo.FType, item.Name) {
				continue
			}
			results = append(results, models.SearchResult{
				Code:     item.Code,
				Name:     item.Name,
				Type:     item.FundBaseInfo.FType,
				Category: item.CategoryDesc,
			})
			if len(results) >= 20 {
				break
			}
		}
		return results, nil
	})
}

// Info resolves one fund through the fallback chain: the intraday
// valuation JSONP feed first, then the detail API for funds without a
// published estimate. Each attempt caches its own result so a fallback
// hit is not re-attempted on every call.
func (s *Funds) Info(ctx context.Context, code string) (models.Fund, error) {
	fund, err := fetchCached(ctx, s.cache, "fund:gz:"+code, s.cfg.TTLInfo, func(ctx context.Context) (models.Fund, error) {
		return s.fetchValuation(ctx, code)
	})
	if err == nil {
		return fund, nil
	}
	s.log.Debug().Str("code", code).Err(err).Msg("valuation feed miss, trying detail fallback")

	fund, err = fetchCached(ctx, s.cache, "fund:basic:"+code, s.cfg.TTLInfo, func(ctx context.Context) (models.Fund, error) {
		rec, err := s.fetchBasicRecord(ctx, code)
		if err != nil {
			return models.Fund{}, err
		}
		return models.Fund{
			Code:    rec.Code,
			Name:    rec.Name,
			Nav:     rec.Nav,
			NavDate: rec.NavDate,
		}, nil
	})
	if err != nil {
		return models.Fund{}, fmt.Errorf("fund info unavailable: %w", err)
	}
	return fund, nil
}

func (s *Funds) fetchValuation(ctx context.Context, code string) (models.Fund, error) {
	text, err := s.up.GetText(ctx, s.cfg.ValuationBase+"/js/"+code+".js", nil, nil, s.cfg.TimeoutQuote)
	if err != nil {
		return models.Fund{}, err
	}
	payload, err := parse.UnwrapJSONP(text, "jsonpgz")
	if err != nil {
		return models.Fund{}, errors.New("fund not found")
	}
	var raw struct {
		FundCode string `json:"fundcode"`
		Name     string `json:"name"`
		Dwjz     string `json:"dwjz"`
		Jzrq     string `json:"jzrq"`
		Gsz      string `json:"gsz"`
		Gszzl    string `json:"gszzl"`
		Gztime   string `json:"gztime"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return models.Fund{}, fmt.Errorf("valuation decode: %w", err)
	}
	fund := models.Fund{
		Code:           raw.FundCode,
		Name:           raw.Name,
		Nav:            raw.Dwjz,
		NavDate:        raw.Jzrq,
		EstimateNav:    raw.Gsz,
		EstimateChange: raw.Gszzl,
		EstimateTime:   raw.Gztime,
	}
	if fund.Code == "" {
		fund.Code = code
	}
	if fund.EstimateChange == "" {
		fund.EstimateChange = "0"
	}
	return fund, nil
}

type basicRecord struct {
	Code    string
	Name    string
	Nav     string
	NavDate string
	PerfCmp string
	InvTgt  string
}

func (s *Funds) fetchBasicRecord(ctx context.Context, code string) (basicRecord, error) {
	var resp struct {
		Datas struct {
			FCode     string `json:"FCODE"`
			ShortName string `json:"SHORTNAME"`
			FullName  string `json:"FULLNAME"`
			Dwjz      string `json:"DWJZ"`
			Fsrq      string `json:"FSRQ"`
			PerfCmp   string `json:"PERFCMP"`
			InvTgt    string `json:"INVTGT"`
		} `json:"Datas"`
	}
	if err := s.action(ctx, "fundMNDetailInformation", url.Values{"FCODE": {code}}, &resp); err != nil {
		return basicRecord{}, err
	}
	d := resp.Datas
	if d.FCode == "" && d.ShortName == "" && d.FullName == "" {
		return basicRecord{}, errors.New("no record for fund code")
	}
	name := d.ShortName
	if name == "" {
		name = d.FullName
	}
	rec := basicRecord{
		Code:    d.FCode,
		Name:    name,
		Nav:     d.Dwjz,
		NavDate: d.Fsrq,
		PerfCmp: d.PerfCmp,
		InvTgt:  d.InvTgt,
	}
	if rec.Code == "" {
		rec.Code = code
	}
	return rec, nil
}

// Detail is the composite fetch: base record first (its failure fails the
// operation), then the supplementary holdings / trailing-return / theme
// sub-fetches run concurrently and degrade to empty defaults on their own
// failures.
func (s *Funds) Detail(ctx context.Context, code string) (models.FundDetail, error) {
	return fetchCached(ctx, s.cache, "fund:detail:"+code, s.cfg.TTLDetail, func(ctx context.Context) (models.FundDetail, error) {
		base, err := s.Info(ctx, code)
		if err != nil {
			return models.FundDetail{}, err
		}
		d := models.FundDetail{Fund: base}

		if rec, err := s.fetchBasicRecord(ctx, code); err == nil {
			if d.Name == "" {
				d.Name = rec.Name
			}
			if d.Nav == "" {
				d.Nav = rec.Nav
			}
			if d.NavDate == "" {
				d.NavDate = rec.NavDate
			}
			d.PerfCmp = rec.PerfCmp
			d.InvTgt = rec.InvTgt
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.DetailWorkers)
		g.Go(func() error {
			stocks, err := s.holdings(gctx, code)
			if err != nil {
				s.log.Debug().Str("code", code).Err(err).Msg("holdings degraded")
				return nil
			}
			d.Stocks = stocks
			return nil
		})
		g.Go(func() error {
			yc, err := s.yearChange(gctx, code)
			if err != nil {
				s.log.Debug().Str("code", code).Err(err).Msg("year change degraded")
				return nil
			}
			d.YearChange = yc
			return nil
		})
		g.Go(func() error {
			tags, err := s.themeTags(gctx, code)
			if err != nil {
				s.log.Debug().Str("code", code).Err(err).Msg("theme tags degraded")
				return nil
			}
			d.Sectors = tags
			return nil
		})
		_ = g.Wait()

		if d.Stocks == nil {
			d.Stocks = []models.Holding{}
		}
		if d.Sectors == nil {
			d.Sectors = []models.ThemeTag{}
		}
		return d, nil
	})
}

func (s *Funds) holdings(ctx context.Context, code string) ([]models.Holding, error) {
	return fetchCached(ctx, s.cache, "fund:stocks:"+code, s.cfg.TTLDetailPart, func(ctx context.Context) ([]models.Holding, error) {
		html, err := s.up.GetText(ctx,
			s.cfg.HoldingsBase+"/FundArchivesDatas.aspx",
			url.Values{"type": {"jjcc"}, "code": {code}, "topline": {"10"}},
			map[string]string{"Referer": s.cfg.HoldingsBase + "/"},
			s.cfg.TimeoutDefault)
		if err != nil {
			return nil, err
		}
		stocks := parse.Holdings(html)
		if len(stocks) > 10 {
			stocks = stocks[:10]
		}

		codes := make([]string, 0, len(stocks))
		for _, st := range stocks {
			codes = append(codes, st.Code)
		}
		changes := s.stockChanges(ctx, codes)
		for i := range stocks {
			if ch, ok := changes[stocks[i].Code]; ok {
				stocks[i].Change = ch
			}
		}
		return stocks, nil
	})
}

// stockChanges resolves day changes for the holding stocks in one quote
// call. Best effort: an empty map on any failure.
func (s *Funds) stockChanges(ctx context.Context, codes []string) map[string]string {
	secids := make([]string, 0, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		market := "0"
		if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
			market = "1"
		}
		secids = append(secids, market+"."+code)
	}
	if len(secids) == 0 {
		return map[string]string{}
	}

	var resp struct {
		Data struct {
			Diff []struct {
				Code   string `json:"f12"`
				Change any    `json:"f3"`
			} `json:"diff"`
		} `json:"data"`
	}
	err := s.up.GetJSON(ctx, s.cfg.PushBase+"/api/qt/ulist.np/get", url.Values{
		"secids": {strings.Join(secids, ",")},
		"fields": {"f12,f14,f3"},
		"fltt":   {"2"},
		"invt":   {"2"},
	}, nil, s.cfg.TimeoutSearch, &resp)
	if err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(resp.Data.Diff))
	for _, item := range resp.Data.Diff {
		if item.Code != "" && item.Change != nil {
			out[item.Code] = toString(item.Change)
		}
	}
	return out
}

func (s *Funds) yearChange(ctx context.Context, code string) (string, error) {
	return fetchCached(ctx, s.cache, "fund:year:"+code, s.cfg.TTLDetailPart, func(ctx context.Context) (string, error) {
		var resp struct {
			Datas []struct {
				Title string `json:"title"`
				Syl   any    `json:"syl"`
			} `json:"Datas"`
		}
		if err := s.action(ctx, "fundMNPeriodIncrease", url.Values{"FCODE": {code}}, &resp); err != nil {
			return "", err
		}
		for _, item := range resp.Datas {
			switch item.Title {
			case "1N", "近1年", "Y":
				return toString(item.Syl), nil
			}
		}
		return "", nil
	})
}

func (s *Funds) themeTags(ctx context.Context, code string) ([]models.ThemeTag, error) {
	return fetchCached(ctx, s.cache, "fund:themes:"+code, s.cfg.TTLDetailPart, func(ctx context.Context) ([]models.ThemeTag, error) {
		var resp searchResponse
		if err := s.action(ctx, "fundSearch", url.Values{"m": {"1"}, "key": {code}}, &resp); err != nil {
			return nil, err
		}
		tags := []models.ThemeTag{}
		if len(resp.Datas) > 0 {
			for _, zt := range resp.Datas[0].ZTJJInfo {
				tags = append(tags, models.ThemeTag{Name: zt.TTypeName, Code: zt.TType})
				if len(tags) >= 3 {
					break
				}
			}
		}
		return tags, nil
	})
}

// Batch fans out Info over the caller's code list, at most
// cfg.BatchWorkers in flight. The response preserves the caller's order;
// a failed code degrades to an error entry without affecting siblings.
func (s *Funds) Batch(ctx context.Context, codes []string) []models.BatchEntry {
	return mapOrdered(ctx, codes, s.cfg.BatchWorkers, func(ctx context.Context, _ int, code string) models.BatchEntry {
		fund, err := s.Info(ctx, code)
		if err != nil {
			return models.BatchEntry{Fund: models.Fund{Code: code}, Error: err.Error()}
		}
		return models.BatchEntry{Fund: fund}
	})
}

// Hot returns the sales-rank list. The JSON rank API is the primary
// source; when it yields nothing the HTML-embedded ranking blob is used
// wholesale.
func (s *Funds) Hot(ctx context.Context) ([]models.HotFund, error) {
	return fetchCached(ctx, s.cache, "fund:hot", s.cfg.TTLHot, func(ctx context.Context) ([]models.HotFund, error) {
		funds, err := s.hotFromRankAPI(ctx)
		if err == nil && len(funds) > 0 {
			return funds, nil
		}
		if err != nil {
			s.log.Debug().Err(err).Msg("rank api miss, trying rank blob")
		}
		return s.hotFromRankBlob(ctx)
	})
}

func (s *Funds) hotFromRankAPI(ctx context.Context) ([]models.HotFund, error) {
	var resp struct {
		Datas []struct {
			FCode     string `json:"FCODE"`
			ShortName string `json:"SHORTNAME"`
			FullName  string `json:"FULLNAME"`
			Rzdf      any    `json:"RZDF"`
		} `json:"Datas"`
	}
	err := s.action(ctx, "fundMNRank", url.Values{
		"FundType":   {"0"},
		"SortColumn": {"SALESRANK_D"},
		"Sort":       {"desc"},
		"pageIndex":  {"1"},
		"pageSize":   {"20"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	funds := []models.HotFund{}
	for _, item := range resp.Datas {
		name := item.ShortName
		if name == "" {
			name = item.FullName
		}
		if len(item.FCode) != 6 || strings.Contains(name, "货币") {
			continue
		}
		change := toString(item.Rzdf)
		if change == "" {
			change = "0"
		}
		funds = append(funds, models.HotFund{Code: item.FCode, Name: name, Change: change})
		if len(funds) >= 20 {
			break
		}
	}
	return funds, nil
}

func (s *Funds) hotFromRankBlob(ctx context.Context) ([]models.HotFund, error) {
	text, err := s.up.GetText(ctx, s.cfg.FundDataBase+"/data/rankhandler.aspx", url.Values{
		"op": {"ph"}, "dt": {"kf"}, "ft": {"all"}, "rs": {""}, "gs": {"0"},
		"sc": {"rzdf"}, "st": {"desc"}, "pi": {"1"}, "pn": {"20"}, "dx": {"1"},
	}, map[string]string{
		"Referer": s.cfg.FundDataBase + "/",
	}, s.cfg.TimeoutSlow)
	if err != nil {
		return nil, fmt.Errorf("hot funds unavailable: %w", err)
	}
	rows, err := parse.RankRows(text)
	if err != nil {
		return nil, errors.New("rank data parse failed")
	}
	funds := []models.HotFund{}
	for _, parts := range rows {
		if len(parts) < 7 {
			continue
		}
		if strings.Contains(parts[1], "货币") {
			continue
		}
		change := parts[6]
		if change == "" {
			change = "0"
		}
		funds = append(funds, models.HotFund{Code: parts[0], Name: parts[1], Change: change, Type: "混合型"})
		if len(funds) >= 20 {
			break
		}
	}
	return funds, nil
}
