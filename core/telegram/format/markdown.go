package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

var (
	mdV1Re = regexp.MustCompile(`([_*\\\[` + "`" + `])`)
	mdV2   = newEscaper(mdV2Specials)
	// Inside (...) of an inline link only ')' and '\' must be escaped.
	mdV2LinkRe = regexp.MustCompile(`([)\\])`)
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
// For V2 an entityType of "text_link" escapes a link URL instead of plain text.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		if entityType == "text_link" {
			return mdV2LinkRe.ReplaceAllString(text, `\$1`), nil
		}
		return mdV2.Replace(text), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// EscapeV2 escapes plain text for MarkdownV2 messages.
func EscapeV2(text string) string {
	return mdV2.Replace(text)
}

// newEscaper prefixes every rune of specials with a backslash.
func newEscaper(specials string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(specials))
	for _, r := range specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// LinkV2 renders a MarkdownV2 inline link with escaped label and URL.
func LinkV2(label, url string) string {
	return "[" + EscapeV2(label) + "](" + mdV2LinkRe.ReplaceAllString(url, `\$1`) + ")"
}
