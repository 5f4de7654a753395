package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"fundpulse/internal/cache"
	"fundpulse/internal/config"
	"fundpulse/internal/models"
	"fundpulse/internal/upstream"
)

// News serves the rolling finance news feed.
type News struct {
	cfg   config.Config
	cache cache.Cache
	up    *upstream.Client
	log   zerolog.Logger
}

func NewNews(cfg config.Config, c cache.Cache, up *upstream.Client, log zerolog.Logger) *News {
	return &News{cfg: cfg, cache: c, up: up, log: log.With().Str("component", "news").Logger()}
}

func (s *News) List(ctx context.Context) ([]models.NewsItem, error) {
	return fetchCached(ctx, s.cache, "news:list", s.cfg.TTLNews, func(ctx context.Context) ([]models.NewsItem, error) {
		var resp struct {
			Result struct {
				Data []struct {
					Title      string `json:"title"`
					Summary    string `json:"summary"`
					Intro      string `json:"intro"`
					WapSummary string `json:"wapsummary"`
					MediaName  string `json:"media_name"`
					Ctime      any    `json:"ctime"`
					Intime     any    `json:"intime"`
					URL        string `json:"url"`
					WapURL     string `json:"wapurl"`
				} `json:"data"`
			} `json:"result"`
		}
		err := s.up.GetJSON(ctx, s.cfg.NewsFeedBase+"/api/roll/get", url.Values{
			"pageid": {"153"},
			"lid":    {"2517"},
			"num":    {"20"},
			"page":   {"1"},
		}, nil, s.cfg.TimeoutSlow, &resp)
		if err != nil {
			return nil, fmt.Errorf("news feed unavailable: %w", err)
		}

		news := []models.NewsItem{}
		for _, item := range resp.Result.Data {
			if item.Title == "" {
				continue
			}
			summary := item.Summary
			if summary == "" {
				summary = item.Intro
			}
			if summary == "" {
				summary = item.WapSummary
			}
			source := item.MediaName
			if source == "" {
				source = "新浪财经"
			}
			ts := toInt64(item.Ctime)
			if ts == 0 {
				ts = toInt64(item.Intime)
			}
			timeStr := ""
			if ts > 0 {
				timeStr = time.Unix(ts, 0).Format("2006-01-02 15:04")
			}
			link := item.URL
			if link == "" {
				link = item.WapURL
			}
			news = append(news, models.NewsItem{
				Title:   item.Title,
				Summary: summary,
				Source:  source,
				Time:    timeStr,
				URL:     link,
			})
			if len(news) >= 20 {
				break
			}
		}
		if len(news) == 0 {
			return nil, errors.New("news feed returned no items")
		}
		return news, nil
	})
}
