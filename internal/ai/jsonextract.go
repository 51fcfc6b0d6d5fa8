// jsonextract.go - Best-effort recovery of a JSON object from model text

package ai

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject recovers a single JSON object from free-form model
// output. Models wrap JSON in code fences, prepend prose, or append
// commentary; this progressively relaxes the parse:
//
//  1. Strip an opening fence (with optional language tag) and trailing fence.
//  2. Otherwise strip stray fence markers anywhere in the string.
//  3. Direct parse of the cleaned string.
//  4. Parse the substring between the first '{' and the last '}'.
//
// This is a forgiving parse, not a validator: the result is not checked
// against any schema. Failure returns a *ParseError carrying the raw input.
func ExtractJSONObject(raw string) (map[string]interface{}, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, &ParseError{Raw: raw}
	}

	if strings.HasPrefix(cleaned, "```") {
		cleaned = stripFences(cleaned)
	} else if strings.Contains(cleaned, "```") {
		cleaned = strings.ReplaceAll(cleaned, "```", "")
		cleaned = strings.TrimSpace(cleaned)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}

	// Last resort: the widest brace-delimited substring.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &obj); err == nil {
			return obj, nil
		}
	}

	return nil, &ParseError{Raw: raw}
}

// stripFences removes an opening ``` fence with its optional language tag
// and the matching trailing fence.
func stripFences(s string) string {
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag on the opening line, e.g. "json".
	if newline := strings.Index(s, "\n"); newline >= 0 && newline < 20 {
		s = s[newline+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
