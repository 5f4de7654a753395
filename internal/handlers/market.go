package handlers

import (
	"context"
	"net/url"
)

func (a *API) marketIndices(ctx context.Context, _ url.Values) (any, error) {
	return a.market.Indices(ctx)
}

func (a *API) marketDistribution(ctx context.Context, _ url.Values) (any, error) {
	return a.market.Distribution(ctx)
}
