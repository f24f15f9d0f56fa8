package chat

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxTitleLength bounds stored session titles.
const MaxTitleLength = 255

var (
	urlPattern          = regexp.MustCompile(`(?i)(https?://|ftp://|www\.)[^\s]+`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
	multiSpacePattern   = regexp.MustCompile(`\s+`)
)

// DeriveTitle builds a session title from the first user text turn: URLs and
// markdown links are stripped, the remainder is cleaned and truncated to
// MaxTitleLength on a word boundary.
func DeriveTitle(content string) string {
	content = urlPattern.ReplaceAllString(content, "")
	content = markdownLinkPattern.ReplaceAllString(content, "$1")

	var builder strings.Builder
	for _, r := range content {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) ||
			r == '.' || r == ',' || r == '!' || r == '?' || r == '-' || r == '\'' {
			builder.WriteRune(r)
		}
	}
	content = multiSpacePattern.ReplaceAllString(builder.String(), " ")
	content = strings.TrimSpace(content)
	content = strings.TrimRight(content, " .,!?-'")

	return TruncateTitle(content, MaxTitleLength)
}

// TruncateTitle truncates a title to maxLen, preferring a word boundary.
func TruncateTitle(title string, maxLen int) string {
	if len(title) <= maxLen {
		return title
	}

	ellipsis := "..."
	contentLimit := maxLen - len(ellipsis)
	if contentLimit < 0 {
		contentLimit = 0
	}

	truncated := title[:contentLimit]
	minLen := contentLimit / 2

	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > minLen {
		truncated = strings.TrimRight(truncated[:lastSpace], " ")
	}

	return truncated + ellipsis
}
