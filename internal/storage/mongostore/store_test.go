package mongostore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/12farit21/nosql-telegram-bot/internal/catalog"
	"github.com/12farit21/nosql-telegram-bot/internal/listing"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

func TestFilterPriceAndAddress(t *testing.T) {
	q, err := search.Translate(catalog.Default(), map[string]string{
		"price":        "120000",
		"addressTitle": "Almaty",
	})
	require.NoError(t, err)

	want := bson.D{
		{Key: "offer.addressTitle", Value: bson.D{{Key: "$regex", Value: "Almaty"}, {Key: "$options", Value: "i"}}},
		{Key: "data.price", Value: int64(120000)},
	}
	if diff := cmp.Diff(want, Filter(q)); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterEscapesRegex(t *testing.T) {
	q := search.Query{Clauses: []search.Clause{
		{Section: search.SectionOffer, Key: "Жилой комплекс", Op: search.OpContains, Text: "Nurly (Tau)+"},
	}}
	got := Filter(q)
	require.Len(t, got, 1)
	assert.Equal(t, "offer.Жилой комплекс", got[0].Key)
	assert.Equal(t, `Nurly \(Tau\)\+`, got[0].Value.(bson.D)[0].Value)
}

func TestFilterEmptyMatchesAll(t *testing.T) {
	assert.Equal(t, bson.D{}, Filter(search.Query{}))
}

func TestRecordRoundTrip(t *testing.T) {
	rooms := int64(2)
	oid := primitive.NewObjectID()
	in := record{
		ID:    oid,
		Offer: map[string]string{"Город": "Алматы", "rooms": "2"},
		Data:  listing.Data{Title: "t", Price: 10, HasPrice: true, Rooms: &rooms, ID: 7, OwnerName: "id7"},
	}
	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	// Stored shape keeps the original field names.
	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	data := doc["data"].(bson.M)
	assert.Equal(t, true, data["hasPrice"])
	assert.Equal(t, "id7", data["ownerName"])
	_, hasSource := data["sourceId"]
	assert.False(t, hasSource)

	var out record
	require.NoError(t, bson.Unmarshal(raw, &out))
	l := out.listing()
	assert.Equal(t, oid.Hex(), l.ID)
	assert.Equal(t, int64(2), *l.Data.Rooms)
	assert.Equal(t, "Алматы", l.Offer["Город"])
	assert.Equal(t, oid.Hex(), idOf(raw))
}
