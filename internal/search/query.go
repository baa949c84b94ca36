// Package search turns a user's filter criteria into a backend-neutral query.
// Storage backends render Query into their own filter language.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/12farit21/nosql-telegram-bot/internal/catalog"
)

// ResultLimit caps the number of records returned per search.
const ResultLimit = 5

// Document sections a clause may address.
const (
	SectionData  = "data"
	SectionOffer = "offer"
)

// Op is a clause operator.
type Op int

const (
	// OpEq matches an integer field exactly.
	OpEq Op = iota + 1
	// OpContains matches a text field by case-insensitive substring.
	OpContains
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpContains:
		return "contains"
	}
	return "unknown"
}

// Clause is one condition on a record field.
type Clause struct {
	Section string
	Key     string
	Op      Op
	Int     int64
	Text    string
}

// Path returns the dotted document path, e.g. "data.price".
func (c Clause) Path() string {
	return c.Section + "." + c.Key
}

// Query is a conjunction of clauses. The zero value matches every record.
type Query struct {
	Clauses []Clause
}

// Empty reports whether the query matches every record.
func (q Query) Empty() bool { return len(q.Clauses) == 0 }

// String renders the query for logs.
func (q Query) String() string {
	if q.Empty() {
		return "all"
	}
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		if c.Op == OpEq {
			parts[i] = fmt.Sprintf("%s=%d", c.Path(), c.Int)
		} else {
			parts[i] = fmt.Sprintf("%s~%q", c.Path(), c.Text)
		}
	}
	return strings.Join(parts, " AND ")
}

// FieldError reports a criterion whose value cannot be used, such as a
// non-integer value for a numeric field.
type FieldError struct {
	Key   string
	Label string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("search: field %q: %v", e.Key, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Code classifies the error for handler summaries.
func (e *FieldError) Code() string { return "not_a_number" }

// Translate builds a query from criteria. Numeric keys become exact integer
// matches on data; all other keys become substring matches on offer.
// Clauses follow catalog order; keys outside the catalog come last, sorted.
func Translate(cat *catalog.Catalog, criteria map[string]string) (Query, error) {
	if len(criteria) == 0 {
		return Query{}, nil
	}
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := position(cat, keys[i]), position(cat, keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	q := Query{Clauses: make([]Clause, 0, len(keys))}
	for _, key := range keys {
		value := criteria[key]
		if catalog.IsNumeric(key) {
			n, err := catalog.ParseInt(value)
			if err != nil {
				return Query{}, &FieldError{Key: key, Label: label(cat, key), Value: value, Err: err}
			}
			q.Clauses = append(q.Clauses, Clause{Section: SectionData, Key: key, Op: OpEq, Int: n})
			continue
		}
		q.Clauses = append(q.Clauses, Clause{Section: SectionOffer, Key: key, Op: OpContains, Text: value})
	}
	return q, nil
}

// AsFieldError unwraps err into a *FieldError.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func position(cat *catalog.Catalog, key string) int {
	if cat == nil {
		return int(^uint(0) >> 1)
	}
	if p := cat.Position(key); p >= 0 {
		return p
	}
	return int(^uint(0) >> 1)
}

func label(cat *catalog.Catalog, key string) string {
	if cat == nil {
		return key
	}
	return cat.Label(key)
}
