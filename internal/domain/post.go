package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	// PlatformPostLimit is the hard character limit the posting platform
	// enforces on a submitted post, URL included.
	PlatformPostLimit = 280

	// The body budget is still derived from the legacy short limit: platform
	// URL shorteners wrap every link to a fixed length regardless of the
	// original URL, and one character is reserved for the separator.
	legacyPostLimit = 140
	shortURLLength  = 23
	separatorWidth  = 1

	// PostTextBudget is the maximum number of characters allowed in a post
	// body before the source URL is appended.
	PostTextBudget = legacyPostLimit - shortURLLength - separatorWidth

	fallbackMarker   = "\U0001F4F0 " // newspaper glyph
	fallbackTitleCap = 100
	ellipsis         = "…"

	postURLSeparator = "\n\n"
)

// PostLength counts user-perceived characters the way the posting platform
// does: by code point, never by byte.
func PostLength(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateRunes cuts s down to at most n characters, removing whole trailing
// runes so a multi-byte glyph is never split, and trims trailing whitespace.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.TrimRight(string(runes), " \t\n\r")
}

// FallbackPost builds the deterministic post body used when content
// generation fails: a marker glyph plus a bounded prefix of the article
// title, truncated to the budget with a trailing ellipsis when cut.
func FallbackPost(title string, budget int) string {
	titleRunes := []rune(title)
	if len(titleRunes) > fallbackTitleCap {
		titleRunes = titleRunes[:fallbackTitleCap]
	}

	post := fallbackMarker + string(titleRunes)
	postRunes := []rune(post)
	if len(postRunes) > budget {
		post = string(postRunes[:budget-1]) + ellipsis
	}
	return post
}

// ComposePost joins the post body with the source URL for submission.
func ComposePost(text, sourceURL string) string {
	return text + postURLSeparator + sourceURL
}
