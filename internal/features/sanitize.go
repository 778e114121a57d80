package features

import (
	"fmt"
	"math"
)

// Sanitize normalizes an extraction result to plain JSON values so cached
// records hash and round-trip identically whether they came from a fresh
// computation or from disk. Numbers become float64, sequences []any, nested
// maps map[string]any. Values that cannot be represented in JSON (including
// NaN and infinities) are rejected.
func Sanitize(record map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(record))
	for key, value := range record {
		plain, err := sanitizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out[key] = plain
	}
	return out, nil
}

func sanitizeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return v, nil
	case float64:
		return sanitizeFloat(v)
	case float32:
		return sanitizeFloat(float64(v))
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			plain, err := sanitizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = plain
		}
		return out, nil
	case []float64:
		out := make([]any, len(v))
		for i, item := range v {
			plain, err := sanitizeFloat(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = plain
		}
		return out, nil
	case map[string]any:
		return Sanitize(v)
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func sanitizeFloat(v float64) (any, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("non-finite value %v", v)
	}
	return v, nil
}
