package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres is the self-hosted Store backend. Documents live in a single
// jsonb table keyed by (collection, id), which keeps the slash-separated
// history collection paths working without schema churn.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a pooled connection and ensures the schema exists.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	return p, p.ensureSchema(ctx)
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection);
	`)
	return err
}

// Query applies the filters with jsonb text extraction. Field names come
// from package constants, never caller input, so interpolating them is safe;
// values always bind as parameters.
func (p *Postgres) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	sqlQ := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}
	for _, f := range q.Filters {
		n := len(args) + 1
		switch f.Op {
		case "==":
			sqlQ += fmt.Sprintf(" AND data->>'%s' = $%d", f.Field, n)
			args = append(args, textValue(f.Value))
		case ">=":
			if isNumeric(f.Value) {
				sqlQ += fmt.Sprintf(" AND (data->>'%s')::numeric >= $%d", f.Field, n)
			} else {
				sqlQ += fmt.Sprintf(" AND data->>'%s' >= $%d", f.Field, n)
			}
			args = append(args, textValue(f.Value))
		default:
			return nil, fmt.Errorf("postgres store: unsupported filter op %q", f.Op)
		}
	}
	if q.OrderBy != "" {
		// The only ordered field in this service is the numeric epoch
		// timestamp; non-numeric values would sort wrong under this cast.
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		sqlQ += fmt.Sprintf(" ORDER BY (data->>'%s')::numeric %s", q.OrderBy, dir)
	}
	if q.Limit > 0 {
		sqlQ += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := p.db.QueryContext(ctx, sqlQ, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data := map[string]any{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("postgres decode %s/%s: %w", collection, id, err)
		}
		out = append(out, Document{ID: id, Data: data})
	}
	return out, rows.Err()
}

// Add inserts a document under a fresh uuid id.
func (p *Postgres) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
	`, collection, id, raw)
	if err != nil {
		return "", fmt.Errorf("postgres add %s: %w", collection, err)
	}
	return id, nil
}

// Update merges fields into an existing document's jsonb payload.
func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb
		WHERE collection = $1 AND id = $2
	`, collection, id, raw)
	if err != nil {
		return fmt.Errorf("postgres update %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("postgres update %s/%s: document not found", collection, id)
	}
	return nil
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the pool.
func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// textValue renders a filter value the way Postgres renders the matching
// jsonb scalar as text, so parameter comparison lines up for both strings
// and numbers.
func textValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		raw, _ := json.Marshal(n)
		return string(raw)
	}
	return fmt.Sprintf("%v", v)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	}
	return false
}
