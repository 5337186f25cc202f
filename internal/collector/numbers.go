package collector

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// parseNumber reads the numeric forms providers use: JSON numbers and numeric strings.
func parseNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		if n == "" {
			return 0, fmt.Errorf("%w: empty number", ErrBadPayload)
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("%w: null number", ErrBadPayload)
	default:
		return 0, fmt.Errorf("%w: unexpected %T", ErrBadPayload, v)
	}
}

// parseOptional is parseNumber with 0 for missing or malformed values.
func parseOptional(v any) float64 {
	f, err := parseNumber(v)
	if err != nil {
		return 0
	}
	return f
}
