package catalog

import coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"

// FromConfig builds the catalog from configuration, falling back to Default
// when no entries are configured.
func FromConfig(entries []coreconfig.CatalogField) (*Catalog, error) {
	if len(entries) == 0 {
		return Default(), nil
	}
	fields := make([]Field, len(entries))
	for i, e := range entries {
		fields[i] = Field{Key: e.Key, Label: e.Label}
	}
	return New(fields)
}
