package cache

import (
	"regexp"
	"strings"
)

// maxTextLen caps preprocessed text so a single pathological chunk
// cannot blow past the embedding model's context window.
const maxTextLen = 1800

var whitespaceRE = regexp.MustCompile(`\s+`)

// Preprocess normalises text before embedding and cache lookup: all
// whitespace runs collapse to single spaces, the result is trimmed,
// and overlong text is truncated at the last sentence end past the
// halfway point, or hard-cut when none exists.
func Preprocess(text string) string {
	text = strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
	if len(text) <= maxTextLen {
		return text
	}

	truncated := text[:maxTextLen]
	if p := strings.LastIndex(truncated, ". "); p > maxTextLen/2 {
		return truncated[:p+1]
	}
	return truncated
}
