// Package layering composes field maps ordered from strongest to weakest.
// The wizard uses it to lay stored step data over schema defaults and to fold
// per-step data into the flat storage layout.
package layering

// Merge returns a new map holding every key of every layer. When a key
// appears in several layers the strongest (earliest) non-nil value wins;
// nested maps are merged key by key the same way. Inputs are never mutated.
func Merge(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for i := len(layers) - 1; i >= 0; i-- {
		for key, value := range layers[i] {
			if value == nil {
				continue
			}
			out[key] = mergeValue(value, out[key])
		}
	}
	return out
}

func mergeValue(strong, weak any) any {
	strongMap, ok := asMap(strong)
	if !ok {
		return Clone(strong)
	}
	weakMap, ok := asMap(weak)
	if !ok {
		return Clone(strongMap)
	}
	return Merge(strongMap, weakMap)
}

func asMap(value any) (map[string]any, bool) {
	m, ok := value.(map[string]any)
	return m, ok
}

// Clone deep-copies maps and slices built from map[string]any and []any.
// Other values are returned as-is.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Clone(item)
		}
		return out
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return value
	}
}

// Without returns a copy of src minus the given keys.
func Without(src map[string]any, keys ...string) map[string]any {
	drop := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		drop[key] = struct{}{}
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		if _, skip := drop[key]; skip {
			continue
		}
		out[key] = Clone(value)
	}
	return out
}
