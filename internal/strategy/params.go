package strategy

import (
	"fmt"
	"strconv"
	"strings"
)

// Params holds user supplied strategy parameters keyed by parameter name
type Params map[string]any

// Float returns the named parameter as a float.
// Missing, zero or unparseable values fall back to def.
func (p Params) Float(name string, def float64) float64 {
	v, ok := p[name]
	if !ok || v == nil {
		return def
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}

	if f == 0 {
		return def
	}
	return f
}

// Int returns the named parameter truncated to an int, see Float
func (p Params) Int(name string, def int) int {
	return int(p.Float(name, float64(def)))
}

// Window returns a positive lookback window, def when the value is not positive
func (p Params) Window(name string, def int) int {
	w := p.Int(name, def)
	if w <= 0 {
		return def
	}
	return w
}

// ParseParams parses "name=value" pairs as given on the command line
func ParseParams(pairs []string) (Params, error) {
	params := make(Params, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		value = strings.TrimSpace(value)
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[name] = f
		} else {
			params[name] = value
		}
	}
	return params, nil
}
