package keys

import (
	"sort"
	"strings"
)

// ScenarioKeyFromParts produces a canonical key for a scenario: trims
// parts, lower-cases, replaces spaces with underscores, sorts and joins
// with underscore. Suitable for stable DB cache keys.
func ScenarioKeyFromParts(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		s = strings.ToLower(strings.ReplaceAll(s, " ", "_"))
		out = append(out, s)
	}
	sort.Strings(out)
	return strings.Join(out, "_")
}
