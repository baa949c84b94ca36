package catalog

import (
	"errors"
	"strings"
	"testing"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOrder(t *testing.T) {
	c := Default()
	require.Equal(t, 10, c.Len())

	fields := c.Fields()
	assert.Equal(t, "Город", fields[0].Key)
	assert.Equal(t, KeyRooms, fields[len(fields)-1].Key)
	assert.Equal(t, "💰 Цена", c.Label(KeyPrice))
	assert.Equal(t, "unknown", c.Label("unknown"))
	assert.Equal(t, 7, c.Position(KeyAddress))
	assert.Equal(t, -1, c.Position("unknown"))
}

func TestFieldsReturnsCopy(t *testing.T) {
	c := Default()
	f := c.Fields()
	f[0].Label = "changed"
	assert.Equal(t, "🌆 Город", c.Label("Город"))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]Field{{Key: " "}})
	assert.Error(t, err)

	_, err = New([]Field{{Key: "a"}, {Key: "a"}})
	assert.Error(t, err)

	_, err = New([]Field{{Key: strings.Repeat("к", MaxKeyBytes/2+1)}})
	assert.ErrorContains(t, err, "longer than")

	_, err = New([]Field{{Key: strings.Repeat("k", MaxKeyBytes)}})
	assert.NoError(t, err)

	c, err := New([]Field{{Key: "City"}})
	require.NoError(t, err)
	assert.Equal(t, "City", c.Label("City"))
}

func TestNext(t *testing.T) {
	c, err := New([]Field{{Key: KeyTitle}, {Key: KeyPrice}, {Key: "City"}})
	require.NoError(t, err)

	f, ok := c.Next(func(k string) bool { return k == KeyTitle || k == KeyPrice })
	require.True(t, ok)
	assert.Equal(t, "City", f.Key)

	_, ok = c.Next(func(string) bool { return true })
	assert.False(t, ok)
}

func TestParseInt(t *testing.T) {
	n, err := ParseInt(" 120000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(120000), n)

	n, err = ParseInt("-3")
	require.NoError(t, err)
	assert.Equal(t, int64(-3), n)

	for _, bad := range []string{"two", "", "1.5", "12 000"} {
		_, err := ParseInt(bad)
		assert.True(t, errors.Is(err, ErrNotANumber), bad)
	}
	assert.True(t, IsNumeric(KeyPrice))
	assert.True(t, IsNumeric(KeyRooms))
	assert.False(t, IsNumeric(KeyAddress))
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Fields(), c.Fields())

	c, err = FromConfig([]coreconfig.CatalogField{{Key: "City", Label: "Город"}, {Key: KeyPrice}})
	require.NoError(t, err)
	assert.Equal(t, []Field{{Key: "City", Label: "Город"}, {Key: KeyPrice, Label: KeyPrice}}, c.Fields())
}

func TestDefaultKeysFitCallbackData(t *testing.T) {
	for _, f := range Default().Fields() {
		data := "\f" + "filter|" + f.Key
		assert.LessOrEqual(t, len(data), 64, f.Key)
	}
}
