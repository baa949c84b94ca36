// Package catalog describes the ordered set of listing fields the bot asks
// about when building search filters and when creating listings.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Well-known field keys.
const (
	KeyTitle   = "title"
	KeyPrice   = "price"
	KeyRooms   = "rooms"
	KeyAddress = "addressTitle"
)

// MaxKeyBytes bounds a key so that the "\ffilter|<key>" callback data of
// its menu button fits Telegram's 64-byte limit.
const MaxKeyBytes = 56

// ErrNotANumber is returned by ParseInt for non-integer input.
var ErrNotANumber = errors.New("catalog: not a number")

// Field is one catalog entry.
type Field struct {
	Key   string
	Label string
}

// Catalog is an immutable ordered list of fields.
type Catalog struct {
	fields []Field
	index  map[string]int
}

var defaultFields = []Field{
	{Key: "Город", Label: "🌆 Город"},
	{Key: "Тип дома", Label: "🏠 Тип дома"},
	{Key: "Жилой комплекс", Label: "🏢 Жилой комплекс"},
	{Key: "Год постройки", Label: "📅 Год постройки"},
	{Key: "Этаж", Label: "📶 Этаж"},
	{Key: "Площадь", Label: "📏 Площадь"},
	{Key: "Высота потолков", Label: "📐 Высота потолков"},
	{Key: KeyAddress, Label: "📍 Адрес"},
	{Key: KeyPrice, Label: "💰 Цена"},
	{Key: KeyRooms, Label: "🚪 Количество комнат"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, _ := New(defaultFields)
	return c
}

// New builds a catalog from fields, rejecting empty, oversized and
// duplicate keys.
// A missing label falls back to the key.
func New(fields []Field) (*Catalog, error) {
	if len(fields) == 0 {
		return nil, errors.New("catalog: no fields")
	}
	c := &Catalog{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		f.Key = strings.TrimSpace(f.Key)
		if f.Key == "" {
			return nil, fmt.Errorf("catalog: field %d: empty key", i)
		}
		if len(f.Key) > MaxKeyBytes {
			return nil, fmt.Errorf("catalog: key %q is longer than %d bytes", f.Key, MaxKeyBytes)
		}
		if _, dup := c.index[f.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate key %q", f.Key)
		}
		if strings.TrimSpace(f.Label) == "" {
			f.Label = f.Key
		}
		c.index[f.Key] = len(c.fields)
		c.fields = append(c.fields, f)
	}
	return c, nil
}

// Fields returns a copy of the catalog entries in order.
func (c *Catalog) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

// Len reports the number of fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Has reports whether key is part of the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Label returns the display label for key, or the key itself when unknown.
func (c *Catalog) Label(key string) string {
	if i, ok := c.index[key]; ok {
		return c.fields[i].Label
	}
	return key
}

// Position returns the catalog index of key, or -1.
func (c *Catalog) Position(key string) int {
	if i, ok := c.index[key]; ok {
		return i
	}
	return -1
}

// Next returns the first field in catalog order for which skip reports false.
func (c *Catalog) Next(skip func(key string) bool) (Field, bool) {
	for _, f := range c.fields {
		if skip != nil && skip(f.Key) {
			continue
		}
		return f, true
	}
	return Field{}, false
}

// IsNumeric reports whether values for key are integers.
func IsNumeric(key string) bool {
	return key == KeyPrice || key == KeyRooms
}

// ParseInt parses user input as a base-10 integer, ignoring surrounding spaces.
func ParseInt(text string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, text)
	}
	return n, nil
}
