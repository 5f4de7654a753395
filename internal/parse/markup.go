package parse

import (
	"fmt"
	"regexp"
	"strings"

	"fundpulse/internal/models"
)

var (
	holdingsRowRe = regexp.MustCompile(`(?s)<tr[^>]*>.*?<td[^>]*>(\d+)</td>.*?<td[^>]*>(\d{6})</td>.*?<td[^>]*><a[^>]*>([^<]+)</a></td>.*?<td[^>]*>([^<]*)</td>`)
	holdingsAltRe = regexp.MustCompile(`(?s)<a[^>]*>(\d{6})</a>.*?<a[^>]*>([^<]+)</a>.*?(\d+\.\d+)%`)
	rankBlobRe    = regexp.MustCompile(`datas:\[(.*?)\]`)
)

// Holdings extracts top-holding rows from the vendor's HTML table. The
// strict row pattern is tried first; when it matches nothing the looser
// anchor pattern is used, which captures no rank column.
func Holdings(html string) []models.Holding {
	var out []models.Holding
	for _, m := range holdingsRowRe.FindAllStringSubmatch(html, -1) {
		out = append(out, models.Holding{
			Rank:  m[1],
			Code:  m[2],
			Name:  strings.TrimSpace(m[3]),
			Ratio: strings.TrimSpace(m[4]) + "%",
		})
	}
	if len(out) > 0 {
		return out
	}
	for _, m := range holdingsAltRe.FindAllStringSubmatch(html, -1) {
		out = append(out, models.Holding{
			Code:  m[1],
			Name:  strings.TrimSpace(m[2]),
			Ratio: m[3] + "%",
		})
	}
	return out
}

// RankRows pulls the comma-delimited fund rows out of a "datas:[...]"
// ranking blob. Each row is the original's positional field list.
func RankRows(text string) ([][]string, error) {
	m := rankBlobRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("rank blob: datas:[...] not found")
	}
	var rows [][]string
	for _, item := range strings.Split(m[1], `","`) {
		item = strings.Trim(item, `"`)
		if item == "" {
			continue
		}
		rows = append(rows, strings.Split(item, ","))
	}
	return rows, nil
}

// DelimitedQuotes splits the secondary quote vendor's response into
// per-line tilde-delimited fields. Lines without the delimiter are
// skipped.
func DelimitedQuotes(text string) [][]string {
	var out [][]string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if !strings.Contains(line, "~") {
			continue
		}
		out = append(out, strings.Split(line, "~"))
	}
	return out
}
