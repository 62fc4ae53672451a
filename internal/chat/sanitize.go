package chat

import (
	"regexp"
	"strings"
)

var (
	codeFence = regexp.MustCompile("```[A-Za-z]*")
	// *Note: ...*, **Note:** ..., *note - ...
	editorialNote = regexp.MustCompile(`(?im)^[ \t]*\*{1,2}[ \t]*note\b.*$`)
)

// Sanitize strips Markdown fences and editorial notes from raw model output and
// cuts it down to the outermost JSON array or object. It is best effort: the
// result is not guaranteed to parse.
func Sanitize(raw string) string {
	text := codeFence.ReplaceAllString(raw, "")
	text = editorialNote.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return text
	}
	if end := matchingClose(text, start); end >= 0 {
		return text[start : end+1]
	}
	return text[start:]
}

// matchingClose returns the index of the bracket closing text[start], ignoring
// brackets inside JSON strings, or -1 if it is never closed.
func matchingClose(text string, start int) int {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
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
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}
