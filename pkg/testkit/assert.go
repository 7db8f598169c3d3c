package testkit

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatus checks the HTTP status and prints the body on mismatch.
func AssertStatus(t testing.TB, r *Response, want int) bool {
	t.Helper()
	return assert.Equal(t, want, r.Code, "HTTP status code mismatch\nbody: %s", r.Body)
}

// AssertFieldError checks for a 422 carrying an error on field.
func AssertFieldError(t testing.TB, r *Response, field string) bool {
	t.Helper()
	if !AssertStatus(t, r, 422) {
		return false
	}
	return assert.Contains(t, r.Envelope.Errors, field, "no error for field %q\nbody: %s", field, r.Body)
}

// AssertJSONSubset checks that every key in expected is present in actual
// with the same value. Extra keys in actual are ignored, and key order and
// whitespace never matter.
func AssertJSONSubset(t testing.TB, expected string, actual []byte) bool {
	t.Helper()
	var expVal, actVal any
	require.NoError(t, json.Unmarshal([]byte(expected), &expVal), "expected is not valid JSON")
	if !assert.NoError(t, json.Unmarshal(actual, &actVal), "actual response is not valid JSON\nbody: %s", actual) {
		return false
	}
	diffs := DiffJSON("", expVal, actVal)
	return assert.Empty(t, diffs, "response body mismatch:\n%s", strings.Join(diffs, "\n"))
}

// DiffJSON returns a list of human-readable difference strings between two
// JSON-decoded values. Only keys present in expected are compared.
func DiffJSON(path string, expected, actual any) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual))
		}
		for k, ev := range exp {
			p := keyPath(path) + "." + k
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing in actual", p))
				continue
			}
			diffs = append(diffs, DiffJSON(p, ev, av)...)
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual))
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: array length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", keyPath(path), i), exp[i], act[i])...)
		}
	default:
		if fmt.Sprintf("%v", expected) != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}
