package handlers

import (
	"context"
	"net/url"
)

func (a *API) newsList(ctx context.Context, _ url.Values) (any, error) {
	return a.news.List(ctx)
}
