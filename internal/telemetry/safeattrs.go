package telemetry

import (
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const maxAttrLen = 256

// Keys that could carry user text or credentials never become attributes.
var denyKeys = []string{
	"text",
	"prompt",
	"analysis",
	"finding",
	"authorization",
	"api_key",
	"apikey",
	"token",
	"cookie",
	"session",
}

// SafeAttributes filters out unsafe keys and oversized values and returns
// OTEL attributes sorted by key.
func SafeAttributes(values map[string]any) []attribute.KeyValue {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		if denied(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		switch val := values[k].(type) {
		case string:
			if len(val) > maxAttrLen {
				continue
			}
			attrs = append(attrs, attribute.String(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		}
	}
	return attrs
}

func denied(key string) bool {
	lk := strings.ToLower(key)
	for _, bad := range denyKeys {
		if strings.Contains(lk, bad) {
			return true
		}
	}
	return false
}
