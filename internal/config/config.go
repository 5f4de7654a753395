package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	RedisURL string

	// Upstream base URLs. Every base is overridable so tests can point
	// at local doubles.
	FundAPIBase   string
	ValuationBase string
	HoldingsBase  string
	FundDataBase  string
	FundMobBase   string
	PushBase      string
	PushHisBase   string
	QuoteAltBase  string
	NewsFeedBase  string

	// TTL tiers, by upstream volatility.
	TTLSearch       time.Duration
	TTLInfo         time.Duration
	TTLDetail       time.Duration
	TTLDetailPart   time.Duration
	TTLHot          time.Duration
	TTLIndices      time.Duration
	TTLDistribution time.Duration
	TTLSectorList   time.Duration
	TTLStreak       time.Duration
	TTLStreakItem   time.Duration
	TTLSectorFunds  time.Duration
	TTLNews         time.Duration

	// Per-endpoint upstream timeouts.
	TimeoutQuote       time.Duration
	TimeoutSearch      time.Duration
	TimeoutDefault     time.Duration
	TimeoutSlow        time.Duration
	TimeoutSectorFunds time.Duration

	// Fan-out bounds.
	DetailWorkers int
	BatchWorkers  int
	StreakWorkers int

	TLSVerify    bool
	CacheControl string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		RedisURL: getEnv("REDIS_URL", ""),

		FundAPIBase:   getEnv("FUND_API_BASE", "https://tiantian-fund-api.vercel.app/api/action"),
		ValuationBase: getEnv("FUND_VALUATION_BASE", "https://fundgz.1234567.com.cn"),
		HoldingsBase:  getEnv("FUND_HOLDINGS_BASE", "https://fundf10.eastmoney.com"),
		FundDataBase:  getEnv("FUND_DATA_BASE", "https://fund.eastmoney.com"),
		FundMobBase:   getEnv("FUND_MOB_BASE", "https://fundmobapi.eastmoney.com"),
		PushBase:      getEnv("PUSH_QUOTE_BASE", "https://push2.eastmoney.com"),
		PushHisBase:   getEnv("PUSH_HIS_BASE", "https://push2his.eastmoney.com"),
		QuoteAltBase:  getEnv("QUOTE_ALT_BASE", "https://qt.gtimg.cn"),
		NewsFeedBase:  getEnv("NEWS_FEED_BASE", "https://feed.mix.sina.com.cn"),

		TTLSearch:       getEnvDuration("CACHE_TTL_SEARCH", 60*time.Second),
		TTLInfo:         getEnvDuration("CACHE_TTL_INFO", 30*time.Second),
		TTLDetail:       getEnvDuration("CACHE_TTL_DETAIL", 60*time.Second),
		TTLDetailPart:   getEnvDuration("CACHE_TTL_DETAIL_PART", 6*3600*time.Second),
		TTLHot:          getEnvDuration("CACHE_TTL_HOT", 600*time.Second),
		TTLIndices:      getEnvDuration("CACHE_TTL_INDICES", 30*time.Second),
		TTLDistribution: getEnvDuration("CACHE_TTL_DISTRIBUTION", 60*time.Second),
		TTLSectorList:   getEnvDuration("CACHE_TTL_SECTOR_LIST", 300*time.Second),
		TTLStreak:       getEnvDuration("CACHE_TTL_STREAK", 600*time.Second),
		TTLStreakItem:   getEnvDuration("CACHE_TTL_STREAK_ITEM", 1800*time.Second),
		TTLSectorFunds:  getEnvDuration("CACHE_TTL_SECTOR_FUNDS", 900*time.Second),
		TTLNews:         getEnvDuration("CACHE_TTL_NEWS", 300*time.Second),

		TimeoutQuote:       getEnvDuration("TIMEOUT_QUOTE", 5*time.Second),
		TimeoutSearch:      getEnvDuration("TIMEOUT_SEARCH", 6*time.Second),
		TimeoutDefault:     getEnvDuration("TIMEOUT_DEFAULT", 8*time.Second),
		TimeoutSlow:        getEnvDuration("TIMEOUT_SLOW", 10*time.Second),
		TimeoutSectorFunds: getEnvDuration("TIMEOUT_SECTOR_FUNDS", 15*time.Second),

		DetailWorkers: getEnvInt("DETAIL_WORKERS", 3),
		BatchWorkers:  getEnvInt("BATCH_WORKERS", 10),
		StreakWorkers: getEnvInt("STREAK_WORKERS", 12),

		TLSVerify:    getEnv("UPSTREAM_TLS_VERIFY", "") == "1",
		CacheControl: getEnv("CACHE_CONTROL", "public, max-age=30, s-maxage=60"),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(i) * time.Second
}
