package helpers

import (
	"encoding/json"
	"errors"
	"strings"
)

// ExtractJSON finds and returns the first JSON object or array in s.
// A surrounding Markdown code fence is removed first; braces inside string
// literals are ignored while scanning.
func ExtractJSON(s string) (string, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
	if inner, ok := unfence(s); ok {
		s = strings.TrimSpace(inner)
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		if end := balancedEnd(s, i); end > 0 {
			return s[i:end], nil
		}
	}
	return "", errors.New("no balanced JSON object/array found")
}

// ParseJSONObject decodes model output leniently: the whole text first, then
// the first balanced {...} segment. Anything else yields an empty map, never
// an error.
func ParseJSONObject(s string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &out); err == nil && out != nil {
		return out
	}
	if seg, err := ExtractJSON(s); err == nil && strings.HasPrefix(seg, "{") {
		out = nil
		if err := json.Unmarshal([]byte(seg), &out); err == nil && out != nil {
			return out
		}
	}
	return map[string]any{}
}

// unfence returns the body of a leading ``` or ~~~ block.
func unfence(s string) (string, bool) {
	for _, fence := range []string{"```", "~~~"} {
		if !strings.HasPrefix(s, fence) {
			continue
		}
		rest := s[len(fence):]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return "", false
		}
		rest = rest[nl+1:]
		if end := strings.Index(rest, fence); end >= 0 {
			return rest[:end], true
		}
		return rest, true
	}
	return "", false
}

// balancedEnd returns the index just past the value opened at s[start], or -1.
func balancedEnd(s string, start int) int {
	var (
		stack    = []byte{s[start]}
		inString bool
		escaped  bool
	)
	for i := start + 1; i < len(s); i++ {
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
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			top := stack[len(stack)-1]
			if (top == '{' && c != '}') || (top == '[' && c != ']') {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1
			}
		}
	}
	return -1
}
