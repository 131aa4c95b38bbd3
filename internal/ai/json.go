package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrNoJSON = errors.New("no json object found in model response")

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON finds the JSON object in a model response. Models wrap their
// answers in prose or markdown fences often enough that a plain parse is not
// enough: the whole text is tried first, then fenced blocks, then the first
// brace-balanced object.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	if isJSONObject(text) {
		return text, nil
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if isJSONObject(candidate) {
			return candidate, nil
		}
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if candidate, ok := balancedObject(text[start:]); ok && isJSONObject(candidate) {
			return candidate, nil
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return "", ErrNoJSON
}

// DecodeJSON extracts the JSON object from text and unmarshals it into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(raw), v)
}

func isJSONObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var m map[string]any
	return json.Unmarshal([]byte(s), &m) == nil
}

// balancedObject returns the prefix of s up to the brace closing s[0],
// ignoring braces inside string literals.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}
