package redis

import "testing"

func TestPatternFromFilter(t *testing.T) {
	cases := []struct {
		filter string
		want   string
	}{
		{"users/+/location", "users/*/location"},
		{"users/u2/location", "users/u2/location"},
		{"+/+/+", "*/*/*"},
		{"users/+", "users/*"},
	}
	for _, c := range cases {
		if got := patternFromFilter(c.filter); got != c.want {
			t.Errorf("patternFromFilter(%q) = %q, want %q", c.filter, got, c.want)
		}
	}
}

func TestMatchFilter(t *testing.T) {
	cases := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"users/+/location", "users/u2/location", true},
		{"users/+/location", "users/u2/presence", false},
		// The glob pattern would deliver these; the re-check must not.
		{"users/+/location", "users/u2/extra/location", false},
		{"users/+/location", "users//location", false},
		{"users/+/location", "users/location", false},
		{"users/u2/location", "users/u2/location", true},
		{"users/u2/location", "users/u3/location", false},
		{"users/+/presence", "users/u2/presence", true},
	}
	for _, c := range cases {
		if got := matchFilter(c.filter, c.topic); got != c.want {
			t.Errorf("matchFilter(%q, %q) = %v, want %v", c.filter, c.topic, got, c.want)
		}
	}
}
