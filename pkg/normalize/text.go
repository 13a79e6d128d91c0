package normalize

import (
	"regexp"
	"strings"

	"webscout/pkg/probe"
)

// Rule extracts one structured field from line-oriented tool output.
// With a single capture group the field collects plain strings; with
// multiple groups each match becomes a mapping keyed by Keys.
type Rule struct {
	Field   string
	Pattern *regexp.Regexp
	Keys    []string
}

// Text applies a tool-declared rule set to line-oriented output. Every
// field is always present in the mapping, empty when nothing matched:
// a tool may legitimately find nothing, so absence of matches is not an
// error and the status is Success.
func Text(raw string, rules []Rule) (map[string]any, probe.Status) {
	structured := make(map[string]any, len(rules))

	for _, rule := range rules {
		matches := rule.Pattern.FindAllStringSubmatch(raw, -1)

		if len(rule.Keys) > 1 {
			entries := make([]map[string]string, 0, len(matches))
			for _, m := range matches {
				entry := make(map[string]string, len(rule.Keys))
				for i, key := range rule.Keys {
					if i+1 < len(m) {
						entry[key] = strings.TrimSpace(m[i+1])
					}
				}
				entries = append(entries, entry)
			}
			structured[rule.Field] = entries
			continue
		}

		values := make([]string, 0, len(matches))
		for _, m := range matches {
			if len(m) > 1 {
				values = append(values, strings.TrimSpace(m[1]))
			}
		}
		structured[rule.Field] = values
	}

	return structured, probe.StatusSuccess
}
