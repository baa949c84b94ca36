package listing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed listing.schema.json
var schemaJSON string

const schemaURL = "listing.schema.json"

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("listing: add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("listing: compile schema: %w", err)
	}
	return schema, nil
}

// validateDocument checks the record in its stored JSON shape.
func validateDocument(schema *jsonschema.Schema, l Listing) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("listing: encode: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("listing: decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("listing: invalid document: %w", err)
	}
	return nil
}
