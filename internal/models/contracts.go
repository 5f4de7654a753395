package models

// Envelope is the only value that crosses the HTTP boundary. The gateway
// always answers 200; Success=false plus Message is the failure signal.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Ms      int64  `json:"_ms"`
}

type Fund struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Nav            string `json:"nav"`
	NavDate        string `json:"nav_date"`
	EstimateNav    string `json:"estimate_nav"`
	EstimateChange string `json:"estimate_change"`
	EstimateTime   string `json:"estimate_time"`
}

type Holding struct {
	Rank   string `json:"rank,omitempty"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Ratio  string `json:"ratio"`
	Change string `json:"change"`
}

type ThemeTag struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type FundDetail struct {
	Fund
	PerfCmp    string     `json:"perf_cmp"`
	InvTgt     string     `json:"inv_tgt"`
	YearChange string     `json:"year_change"`
	Stocks     []Holding  `json:"stocks"`
	Sectors    []ThemeTag `json:"sectors"`
}

type SearchResult struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

type HotFund struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Change string `json:"change"`
	Type   string `json:"type"`
}

// BatchEntry is one per-identifier outcome of a batch fetch. Either the
// embedded fund fields or Error is populated, never both.
type BatchEntry struct {
	Fund
	Error string `json:"error,omitempty"`
}

type IndexQuote struct {
	Name          string `json:"name"`
	Value         string `json:"value"`
	Change        string `json:"change"`
	ChangePercent string `json:"change_percent"`
}

type DistributionBuckets struct {
	LtNeg5   int `json:"lt_neg5"`
	Neg5Neg3 int `json:"neg5_neg3"`
	Neg3Neg1 int `json:"neg3_neg1"`
	Neg1Zero int `json:"neg1_0"`
	Zero     int `json:"zero"`
	ZeroOne  int `json:"0_1"`
	OneThree int `json:"1_3"`
	ThreeFiv int `json:"3_5"`
	Gt5      int `json:"gt_5"`
}

type Distribution struct {
	Buckets    DistributionBuckets `json:"distribution"`
	UpCount    int                 `json:"up_count"`
	DownCount  int                 `json:"down_count"`
	UpdateTime string              `json:"update_time"`
}

type Sector struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	ChangePercent string `json:"change_percent"`
	UpCount       int    `json:"up_count"`
	DownCount     int    `json:"down_count"`
}

// SectorStreak carries the signed trailing streak: +n for n consecutive
// up days ending at the latest bar, -n for down days, 0 when flat or
// unavailable.
type SectorStreak struct {
	Sector
	StreakDays int `json:"streak_days"`
}

type SectorFund struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Change     string `json:"change"`
	YearChange string `json:"year_change"`
}

type SectorFundsResult struct {
	SectorName string       `json:"sector_name,omitempty"`
	Funds      []SectorFund `json:"funds"`
}

type SectorStock struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent string  `json:"change_percent"`
}

type SectorDetail struct {
	Code   string        `json:"code"`
	Name   string        `json:"name,omitempty"`
	Stocks []SectorStock `json:"stocks"`
}

type NewsItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
	Time    string `json:"time"`
	URL     string `json:"url"`
}
