// Package pgstore persists listings as JSONB documents in PostgreSQL.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/internal/listing"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

const component = "store"

type row struct {
	ID  string `db:"id"`
	Doc []byte `db:"doc"`
}

// Store implements listing.Repository on the listings table.
type Store struct {
	db *sqlx.DB
}

// New wraps db. The schema comes from the migrations directory.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Insert writes l as a single row and returns its UUID.
func (s *Store) Insert(ctx context.Context, l listing.Listing) (string, error) {
	if l.Offer == nil {
		l.Offer = map[string]string{}
	}
	doc, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("pgstore: encode: %w", err)
	}
	id := uuid.New()
	const q = `INSERT INTO listings (id, owner_id, doc) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, q, id, l.Data.ID, doc); err != nil {
		return "", fmt.Errorf("pgstore: insert: %w", err)
	}
	return id.String(), nil
}

// Find returns up to limit rows matching q, newest first.
func (s *Store) Find(ctx context.Context, q search.Query, limit int) ([]listing.Listing, error) {
	where, args := Where(q)
	return s.query(ctx, where, args, limit)
}

// FindByOwner returns up to limit rows owned by ownerID, newest first.
func (s *Store) FindByOwner(ctx context.Context, ownerID int64, limit int) ([]listing.Listing, error) {
	return s.query(ctx, "owner_id = $1", []any{ownerID}, limit)
}

func (s *Store) query(ctx context.Context, where string, args []any, limit int) ([]listing.Listing, error) {
	start := time.Now()
	var sb strings.Builder
	sb.WriteString("SELECT id, doc FROM listings")
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if limit > 0 {
		args = append(args, limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("pgstore: select: %w", err)
	}
	out := make([]listing.Listing, 0, len(rows))
	for _, r := range rows {
		var l listing.Listing
		if err := json.Unmarshal(r.Doc, &l); err != nil {
			logger.Warn(ctx, component, "decode.skip",
				slog.String("listing_id", r.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		l.ID = r.ID
		out = append(out, l)
	}
	logger.Debug(ctx, component, "find",
		slog.String("driver", "postgres"),
		slog.Int("limit", limit),
		slog.Int("results", len(out)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, nil
}

// Delete removes the row with id owned by ownerID.
func (s *Store) Delete(ctx context.Context, id string, ownerID int64) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %q", listing.ErrInvalidID, id)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1 AND owner_id = $2`, uid, ownerID)
	if err != nil {
		return fmt.Errorf("pgstore: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgstore: delete: %w", err)
	}
	if n == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Where renders q as a SQL condition with $n placeholders. An empty query
// yields an empty condition.
func Where(q search.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	for _, c := range q.Clauses {
		switch c.Op {
		case search.OpEq:
			section, key := next(c.Section), next(c.Key)
			conds = append(conds, fmt.Sprintf("doc -> %s::text -> %s::text = to_jsonb(%s::bigint)", section, key, next(c.Int)))
		case search.OpContains:
			section, key := next(c.Section), next(c.Key)
			conds = append(conds, fmt.Sprintf("doc -> %s::text ->> %s::text ILIKE %s", section, key, next("%"+escapeLike(c.Text)+"%")))
		}
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
