package handlers

import (
	"context"
	"errors"
	"net/url"
)

var errSectorCodeRequired = errors.New("sector code required")

func (a *API) sectorList(ctx context.Context, _ url.Values) (any, error) {
	return a.sectors.List(ctx)
}

func (a *API) sectorStreak(ctx context.Context, q url.Values) (any, error) {
	return a.sectors.Streak(ctx, optionalInt(q, "limit"))
}

func (a *API) sectorFunds(ctx context.Context, q url.Values) (any, error) {
	code := q.Get("code")
	if !sectorCodeRe.MatchString(code) {
		return nil, errSectorCodeRequired
	}
	return a.sectors.Funds(ctx, code, firstParam(q, "name"))
}

func (a *API) sectorDetail(ctx context.Context, q url.Values) (any, error) {
	code := q.Get("code")
	if !sectorCodeRe.MatchString(code) {
		return nil, errSectorCodeRequired
	}
	return a.sectors.Detail(ctx, code, firstParam(q, "name"))
}
