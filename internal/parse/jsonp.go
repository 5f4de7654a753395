// Package parse holds the pure per-vendor payload parsers. Parsers never
// panic on malformed input: they skip bad records or return an empty
// result plus a descriptive error.
package parse

import (
	"fmt"
	"regexp"
	"strings"
)

// UnwrapJSONP strips a fn(...) wrapper and returns the embedded payload.
// A missing wrapper is an explicit failure: it means the identifier does
// not exist upstream.
func UnwrapJSONP(body, fn string) ([]byte, error) {
	re := regexp.MustCompile(regexp.QuoteMeta(fn) + `\((.*)\)`)
	m := re.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("jsonp wrapper %s(...) not found", fn)
	}
	return []byte(m[1]), nil
}

// ExtractAssignedJSON recovers the JSON payload from a "var x = {...};"
// pseudo-JS blob.
func ExtractAssignedJSON(text, prefix string) ([]byte, error) {
	if !strings.Contains(text, prefix) {
		return nil, fmt.Errorf("assignment prefix %q not found", prefix)
	}
	trimmed := strings.TrimSpace(strings.Replace(text, prefix, "", 1))
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return nil, fmt.Errorf("empty payload after %q", prefix)
	}
	return []byte(trimmed), nil
}
