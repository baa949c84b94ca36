package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/12farit21/nosql-telegram-bot/internal/catalog"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

func TestWherePriceAndAddress(t *testing.T) {
	q, err := search.Translate(catalog.Default(), map[string]string{
		"price":        "120000",
		"addressTitle": "Almaty",
	})
	require.NoError(t, err)

	where, args := Where(q)
	assert.Equal(t,
		"doc -> $1::text ->> $2::text ILIKE $3 AND doc -> $4::text -> $5::text = to_jsonb($6::bigint)",
		where)
	assert.Equal(t, []any{"offer", "addressTitle", "%Almaty%", "data", "price", int64(120000)}, args)
}

func TestWhereEscapesLikePattern(t *testing.T) {
	q := search.Query{Clauses: []search.Clause{
		{Section: search.SectionOffer, Key: "Площадь", Op: search.OpContains, Text: `50%_a\b`},
	}}
	_, args := Where(q)
	require.Len(t, args, 3)
	assert.Equal(t, `%50\%\_a\\b%`, args[2])
}

func TestWhereEmpty(t *testing.T) {
	where, args := Where(search.Query{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}
