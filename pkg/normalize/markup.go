package normalize

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"webscout/pkg/probe"
)

// syntheticRoot wraps fragment content during repair so the decoder
// sees a single document element.
const syntheticRoot = "document"

// Markup parses tag-based output, grouping element text by tag name.
// Some tools emit fragments without a declaration header or a single
// root element; on a strict parse failure the fragment is repaired and
// parsed once more. If the repair also fails, or yields no elements
// beyond the synthetic wrapper, the status is Failed and the mapping
// stays empty; the parse error surfaces on the result's error field,
// not in the structured mapping.
func Markup(raw string) (map[string]any, probe.Status) {
	if structured, err := parseMarkup(raw); err == nil {
		return structured, probe.StatusSuccess
	}

	if structured, err := parseMarkup(RepairMarkup(raw)); err == nil {
		delete(structured, syntheticRoot)
		if len(structured) > 0 {
			return structured, probe.StatusPartialSuccess
		}
	}
	return map[string]any{}, probe.StatusFailed
}

// RepairMarkup inserts a missing XML declaration and wraps the content
// in a synthetic root element.
func RepairMarkup(raw string) string {
	content := strings.TrimSpace(raw)
	if idx := strings.Index(content, "?>"); strings.HasPrefix(content, "<?xml") && idx >= 0 {
		content = strings.TrimSpace(content[idx+2:])
	}
	return xml.Header + "<" + syntheticRoot + ">\n" + content + "\n</" + syntheticRoot + ">"
}

// parseMarkup walks the token stream and collects the character data of
// every leaf element, grouped by local tag name. The generic grouping
// keeps the structured schema stable across tools without per-tool
// element knowledge. Unlike the decoder's default token scan, a second
// element after the document root is rejected, so rootless fragments
// take the repair path.
func parseMarkup(raw string) (map[string]any, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))

	grouped := make(map[string][]string)
	var current string
	var text strings.Builder
	depth := 0
	rootClosed := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 && rootClosed {
				return nil, &xml.SyntaxError{Msg: "junk after document element"}
			}
			depth++
			current = t.Name.Local
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			depth--
			if depth == 0 {
				rootClosed = true
			}
			if t.Name.Local == current {
				if value := strings.TrimSpace(text.String()); value != "" {
					grouped[current] = append(grouped[current], value)
				}
			}
			current = ""
			text.Reset()
		}
	}

	if depth != 0 || !rootClosed {
		return nil, &xml.SyntaxError{Msg: "no elements found"}
	}

	structured := make(map[string]any, len(grouped))
	for tag, values := range grouped {
		structured[tag] = values
	}
	return structured, nil
}
