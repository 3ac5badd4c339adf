package redis

import "strings"

// Topic filters use MQTT-style single-level wildcards (users/+/location).
// Redis pattern subscriptions use glob syntax where * can span separators, so
// the adapter converts filters to patterns for PSUBSCRIBE and then re-checks
// every delivered topic against the original filter.

// patternFromFilter converts a single-level-wildcard filter to a Redis glob
// pattern.
func patternFromFilter(filter string) string {
	parts := strings.Split(filter, "/")
	for i, p := range parts {
		if p == "+" {
			parts[i] = "*"
		}
	}
	return strings.Join(parts, "/")
}

// matchFilter reports whether topic matches the single-level-wildcard filter:
// same segment count, with + matching exactly one non-empty segment.
func matchFilter(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	if len(fp) != len(tp) {
		return false
	}
	for i := range fp {
		if fp[i] == "+" {
			if tp[i] == "" {
				return false
			}
			continue
		}
		if fp[i] != tp[i] {
			return false
		}
	}
	return true
}
