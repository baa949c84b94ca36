package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeV2(t *testing.T) {
	cases := map[string]string{
		"plain":             "plain",
		"Цена: 25.000.000!": `Цена: 25\.000\.000\!`,
		"a_b*c":             `a\_b\*c`,
		"(1-2) [x]":         `\(1\-2\) \[x\]`,
		`back\slash`:        `back\\slash`,
	}
	for in, want := range cases {
		assert.Equal(t, want, EscapeV2(in), in)
	}
}

func TestEscapeMarkdownVersions(t *testing.T) {
	got, err := EscapeMarkdown("a_b.c", MarkdownV1, "")
	require.NoError(t, err)
	assert.Equal(t, `a\_b.c`, got)

	got, err = EscapeMarkdown("a_b.c", MarkdownV2, "")
	require.NoError(t, err)
	assert.Equal(t, `a\_b\.c`, got)

	got, err = EscapeMarkdown("https://x.kz/a_(b)", MarkdownV2, "text_link")
	require.NoError(t, err)
	assert.Equal(t, `https://x.kz/a_(b\)`, got)

	_, err = EscapeMarkdown("x", 3, "")
	assert.Error(t, err)
}

func TestLinkV2(t *testing.T) {
	assert.Equal(t, `[Открыть\.](https://krisha.kz/a/show/1)`, LinkV2("Открыть.", "https://krisha.kz/a/show/1"))
}

func TestEscapeV2EscapesEverySpecial(t *testing.T) {
	for _, r := range mdV2Specials {
		assert.Equal(t, `\`+string(r), EscapeV2(string(r)), string(r))
	}
	// Digits and punctuation between '+' and '=' are not special.
	assert.Equal(t, "Алматы, 120000 /a:b;c<d", EscapeV2("Алматы, 120000 /a:b;c<d"))
}
