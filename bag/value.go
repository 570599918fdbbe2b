package bag

import (
	"strconv"
	"strings"

	perr "bagpipe/internal/platform/errors"
)

// Get resolves a dot-separated path inside a decoded JSON value, e.g.
// Get(rec, "actor.login"). Every intermediate step must be an object
func Get(v any, path string) (any, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetString resolves path and asserts a string value
func GetString(v any, path string) (string, bool) {
	x, ok := Get(v, path)
	if !ok {
		return "", false
	}
	s, ok := x.(string)
	return s, ok
}

// GetNumber resolves path and asserts a numeric value
func GetNumber(v any, path string) (float64, bool) {
	x, ok := Get(v, path)
	if !ok {
		return 0, false
	}
	f, ok := x.(float64)
	return f, ok
}

// Slice resolves path and asserts an array value
func Slice(v any, path string) ([]any, bool) {
	x, ok := Get(v, path)
	if !ok {
		return nil, false
	}
	s, ok := x.([]any)
	return s, ok
}

// scalarKey canonicalizes a scalar record value into a counting key.
// Composite values (arrays, objects) have no stable identity here and are a
// caller programming error
func scalarKey(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return x, nil
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	default:
		return "", perr.InvalidArgf("frequencies over non-scalar value of type %T", v)
	}
}
