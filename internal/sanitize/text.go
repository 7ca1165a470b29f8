package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes all HTML tags and attributes. Member-entered text
// (memos, survey comments, free-text answers) is stored and exported as plain
// text only.
var strictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML from member-entered free text and trims whitespace.
func Text(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// TextSlice sanitizes each string in a slice, removing all HTML.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Text(input)
	}
	return sanitized
}
