package gemini

import (
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// parseSuggestions decodes the model's JSON object,
// keeping only the requested fields as plain text.
func parseSuggestions(raw string) (map[string]string, error) {

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse Genai response to JSON: %w", err)
	}

	suggestions := make(map[string]string, len(decoded))
	for field, value := range decoded {
		if !slices.Contains(suggestFields, field) {
			continue
		}

		text, ok := value.(string)
		if !ok {
			continue
		}

		if text = plainText(text); text != "" {
			suggestions[field] = text
		}
	}

	if len(suggestions) == 0 {
		return nil, fmt.Errorf("no usable suggestions in the Genai response")
	}

	return suggestions, nil
}

// plainText strips every tag and collapses whitespace.
// The policy escapes entities, so they are unescaped back.
func plainText(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}
