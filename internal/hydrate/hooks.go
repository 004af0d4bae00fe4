package hydrate

import (
	"encoding/json"
	"fmt"
)

// DropNulls removes null entries at every depth. Absent and null fields are
// the same thing in a stored record.
func DropNulls(_ Context, payload map[string]any) (map[string]any, error) {
	return dropNulls(payload), nil
}

func dropNulls(m map[string]any) map[string]any {
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			delete(m, key)
		case map[string]any:
			m[key] = dropNulls(v)
		}
	}
	return m
}

// NormalizeNumbers converts json.Number and Go integer types to float64 at
// every depth, so all numeric field values share one representation.
func NormalizeNumbers(_ Context, payload map[string]any) (map[string]any, error) {
	for key, value := range payload {
		normalized, err := normalizeNumber(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		payload[key] = normalized
	}
	return payload, nil
}

func normalizeNumber(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case map[string]any:
		return NormalizeNumbers(Context{}, v)
	case []any:
		for i, item := range v {
			normalized, err := normalizeNumber(item)
			if err != nil {
				return nil, err
			}
			v[i] = normalized
		}
		return v, nil
	default:
		return value, nil
	}
}
