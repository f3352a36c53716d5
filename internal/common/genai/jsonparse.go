package genai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object in model response")

var (
	openingFence  = regexp.MustCompile("(?m)^```(?:json)?\\s*")
	closingFence  = regexp.MustCompile("(?m)```\\s*$")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseJSONObject decodes the first JSON object found in a model reply. Replies
// are often wrapped in Markdown fences, surrounded by prose, or carry trailing
// commas; each of those is tolerated in turn.
func ParseJSONObject(raw string, v interface{}) error {
	text := strings.TrimSpace(raw)
	text = openingFence.ReplaceAllString(text, "")
	text = closingFence.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if looksLikeObject(text) && json.Unmarshal([]byte(text), v) == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ErrNoJSONObject
	}
	candidate := text[start : end+1]

	if json.Unmarshal([]byte(candidate), v) == nil {
		return nil
	}

	fixed := trailingComma.ReplaceAllString(candidate, "$1")
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return ErrNoJSONObject
	}
	return nil
}

func looksLikeObject(s string) bool {
	return strings.HasPrefix(s, "{")
}
