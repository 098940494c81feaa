package maputil

import (
	"fmt"
	"strings"
)

// String reads a map value as a trimmed string, tolerating the
// non-string scalars that loosely typed request payloads carry.
func String(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	raw, ok := params[key]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", raw))
}
