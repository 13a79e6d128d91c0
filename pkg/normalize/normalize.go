// Package normalize turns raw, untrusted probe output into the uniform
// structured mapping of the probe result model. Raw text may be
// truncated, mixed with diagnostic noise, or absent; the normalizer
// maximizes extracted signal while always returning a well-typed
// result. Callers branch on the returned status, never on "is this
// valid JSON".
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"webscout/pkg/probe"
)

// Format declares how a probe's raw output should be interpreted.
type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatMarkup Format = "markup"
)

// Normalize applies the format's extraction strategy. Text extraction is
// driven by the tool-declared rule set; rules are ignored for the other
// formats.
func Normalize(raw string, format Format, rules []Rule) (map[string]any, probe.Status) {
	switch format {
	case FormatText:
		return Text(raw, rules)
	case FormatMarkup:
		return Markup(raw)
	default:
		return JSON(raw)
	}
}

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)(\{.*\})`)
	jsonArrayPattern  = regexp.MustCompile(`(?s)(\[.*\])`)
)

// JSON parses potentially malformed JSON content. On a direct parse
// failure it applies a recovery pipeline: trim, extract the largest
// embedded object/array, unescape over-escaped sequences, and finally
// parse line by line collecting every line that parses. Recovered
// content degrades the status to PartialSuccess; if nothing parses the
// status is Failed and the mapping stays empty.
func JSON(raw string) (map[string]any, probe.Status) {
	if structured, ok := parseJSON(raw); ok {
		return structured, probe.StatusSuccess
	}

	content := strings.TrimSpace(raw)

	// A complete-looking array/object is kept as is; otherwise search
	// for the largest embedded candidate.
	if !looksComplete(content) {
		if m := jsonObjectPattern.FindString(content); m != "" {
			content = m
		} else if m := jsonArrayPattern.FindString(content); m != "" {
			content = m
		}
	}

	if structured, ok := parseJSON(content); ok {
		return structured, probe.StatusPartialSuccess
	}

	unescaped := strings.ReplaceAll(content, `\"`, `"`)
	unescaped = strings.ReplaceAll(unescaped, `\'`, `'`)
	if structured, ok := parseJSON(unescaped); ok {
		return structured, probe.StatusPartialSuccess
	}

	// Last resort: the output may be a sequence of independent JSON
	// documents, or a truncated array whose leading elements are still
	// well formed.
	var items []any
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "[")
		line = strings.TrimSuffix(line, ",")
		if line == "" || (line[0] != '{' && line[0] != '[') {
			continue
		}
		var item any
		if err := json.Unmarshal([]byte(line), &item); err == nil {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		return map[string]any{"items": items}, probe.StatusPartialSuccess
	}

	return map[string]any{}, probe.StatusFailed
}

func looksComplete(content string) bool {
	if strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
		return true
	}
	return strings.HasPrefix(content, "[") && strings.HasSuffix(content, "]")
}

// parseJSON wraps non-object documents so the structured mapping is
// always a mapping.
func parseJSON(content string) (map[string]any, bool) {
	var value any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &value); err != nil {
		return nil, false
	}
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case []any:
		return map[string]any{"items": v}, true
	default:
		return map[string]any{"value": v}, true
	}
}
