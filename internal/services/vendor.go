package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// eastmoneyUT is the vendor's static API token, shared by every caller of
// the push endpoints.
const eastmoneyUT = "fa5fd1943c7b386f172d6893dbfba10b"

// apiProbe is the logical-error convention of the action-style fund API:
// a 200 response may still carry ErrCode/ErrMsg.
type apiProbe struct {
	ErrCode json.RawMessage `json:"ErrCode"`
	ErrMsg  string          `json:"ErrMsg"`
}

// checkLogicalError inspects a JSON object body for the vendor's error
// convention. Non-object bodies are left alone.
func checkLogicalError(body []byte, action string) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var probe apiProbe
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return fmt.Errorf("%s: upstream returned non-JSON body", action)
	}
	code := strings.Trim(string(probe.ErrCode), `"`)
	if code == "" || code == "0" || code == "null" {
		return nil
	}
	msg := probe.ErrMsg
	if msg == "" {
		msg = "upstream reported error " + code
	}
	return fmt.Errorf("%s: %s", action, msg)
}

// toFloat coerces the loosely typed numeric fields the vendors emit
// (number, numeric string, "-", null) into a float64, defaulting to 0.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toString renders a loosely typed vendor field as its string form.
func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// toInt64 coerces a vendor timestamp field into an int64.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return i
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// signedPct formats a change value with an explicit sign and percent
// suffix, matching the vendor dashboards' display convention.
func signedPct(v float64) string {
	return signedNum(v) + "%"
}

func signedNum(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v >= 0 {
		return "+" + s
	}
	return s
}
