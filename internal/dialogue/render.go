package dialogue

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/12farit21/nosql-telegram-bot/core/telegram/format"
	"github.com/12farit21/nosql-telegram-bot/internal/listing"
)

const (
	maxButtonRunes = 48
	// maxFieldRunes bounds a rendered title or address before escaping.
	maxFieldRunes = 200
	// maxMessageUnits is Telegram's text limit, counted in UTF-16 units.
	maxMessageUnits = 4096
)

// summary lists the active filters in catalog order.
func (e *Engine) summary(filters map[string]string) string {
	if len(filters) == 0 {
		return msgNoParams
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := e.cat.Position(keys[i]), e.cat.Position(keys[j])
		if pi < 0 {
			pi = len(filters) + e.cat.Len()
		}
		if pj < 0 {
			pj = len(filters) + e.cat.Len()
		}
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = e.cat.Label(k) + ": " + filters[k]
	}
	return strings.Join(lines, "\n")
}

// renderResults formats listings as MarkdownV2 messages. A listing is never
// split; a message is closed before it would exceed maxMessageUnits.
func renderResults(items []listing.Listing) []string {
	var (
		pages []string
		sb    strings.Builder
	)
	sb.WriteString(msgResultsHeader)
	sep := "\n"
	for _, l := range items {
		block := renderListing(l)
		if textUnits(sb.String())+textUnits(sep+block) > maxMessageUnits {
			pages = append(pages, sb.String())
			sb.Reset()
			sep = ""
		}
		sb.WriteString(sep)
		sb.WriteString(block)
		sep = "\n\n"
	}
	return append(pages, sb.String())
}

func renderListing(l listing.Listing) string {
	title := truncate(strings.TrimSpace(l.Data.Title), maxFieldRunes)
	if title == "" {
		title = msgUntitled
	}
	address := truncate(strings.TrimSpace(l.Address()), maxFieldRunes)
	if address == "" {
		address = msgNoAddress
	}
	price := msgNoPrice
	if l.Data.HasPrice || l.Data.Price != 0 {
		price = fmt.Sprintf("%d KZT", l.Data.Price)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏠 *%s*\n📍 _%s_\n💰 *%s*",
		format.EscapeV2(title), format.EscapeV2(address), format.EscapeV2(price))
	if l.Data.SourceID != 0 {
		fmt.Fprintf(&sb, "\n🔗 %s", format.LinkV2(msgOpenListing, fmt.Sprintf(listingURL, l.Data.SourceID)))
	}
	return sb.String()
}

func textUnits(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

func buttonText(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return msgUntitled
	}
	return truncate(title, maxButtonRunes)
}
