package handlers

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	errKeywordRequired  = errors.New("search keyword required")
	errFundCodeInvalid  = errors.New("fund code must be 6 digits")
	errFundCodesMissing = errors.New("fund code list required")
)

func (a *API) fundSearch(ctx context.Context, q url.Values) (any, error) {
	keyword := firstParam(q, "keyword", "code")
	if keyword == "" {
		return nil, errKeywordRequired
	}
	return a.funds.Search(ctx, keyword)
}

func (a *API) fundInfo(ctx context.Context, q url.Values) (any, error) {
	code := q.Get("code")
	if !fundCodeRe.MatchString(code) {
		return nil, errFundCodeInvalid
	}
	return a.funds.Info(ctx, code)
}

func (a *API) fundDetail(ctx context.Context, q url.Values) (any, error) {
	code := q.Get("code")
	if !fundCodeRe.MatchString(code) {
		return nil, errFundCodeInvalid
	}
	return a.funds.Detail(ctx, code)
}

func (a *API) fundBatch(ctx context.Context, q url.Values) (any, error) {
	codes := parseCodeList(q.Get("codes"))
	if len(codes) == 0 {
		return nil, errFundCodesMissing
	}
	return a.funds.Batch(ctx, codes), nil
}

func (a *API) fundHot(ctx context.Context, _ url.Values) (any, error) {
	return a.funds.Hot(ctx)
}

// parseCodeList keeps only well-formed 6-digit codes, preserving the
// caller's order (duplicates included).
func parseCodeList(raw string) []string {
	if raw == "" {
		return nil
	}
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if fundCodeRe.MatchString(part) {
			codes = append(codes, part)
		}
	}
	return codes
}
