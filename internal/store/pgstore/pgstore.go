// Package pgstore implements the document store port on Postgres: one
// JSONB documents table, partial updates done as read-merge-write on a
// single row.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albertomtferreira/devflow/internal/apperrors"
	"github.com/albertomtferreira/devflow/internal/store"
)

// Config holds database configuration.
type Config struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	MigrationsPath string `mapstructure:"migrationspath"`
}

// Store is the Postgres-backed document store.
type Store struct {
	pool    *pgxpool.Pool
	schemas *store.SchemaSet
}

var _ store.Store = (*Store)(nil)

// New connects to Postgres, runs pending migrations and returns the
// store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	// URL-encode password to handle special characters (/, +, =, etc.)
	encodedPassword := url.QueryEscape(cfg.Password)
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, encodedPassword, cfg.Host, cfg.Port, cfg.Name)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.MigrationsPath != "" {
		m, err := migrate.New("file://"+cfg.MigrationsPath, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %w", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &Store{pool: pool, schemas: store.NewSchemaSet()}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SetSchema registers a JSON Schema enforced on every write to the
// collection.
func (s *Store) SetSchema(collection, schemaJSON string) error {
	return s.schemas.Set(collection, schemaJSON)
}

// Get returns the document's fields, or apperrors.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Fields, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return decodeFields(raw)
}

// Add persists a new document and returns its generated id.
func (s *Store) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	doc, err := store.Prepare(fields)
	if err != nil {
		return "", err
	}
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = store.Now()
	}
	if err := s.schemas.Validate(collection, doc); err != nil {
		return "", err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, collection, data) VALUES ($1, $2, $3)`,
		id, collection, raw,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add document: %w", err)
	}
	return id, nil
}

// Update merges the supplied fields into the stored document. The merge
// is read-merge-write with no version check, matching the
// last-write-wins contract of the port.
func (s *Store) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	patch, err := store.Prepare(fields)
	if err != nil {
		return err
	}

	current, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	for k, v := range patch {
		current[k] = v
	}
	if err := s.schemas.Validate(collection, current); err != nil {
		return err
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = $3, updated_at = now() WHERE collection = $1 AND id = $2`,
		collection, id, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s/%s: %w", collection, id, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes the document; deleting a missing document is a no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// QueryByField returns documents whose field equals value, in insertion
// order.
func (s *Store) QueryByField(ctx context.Context, collection, field string, value any) ([]store.Document, error) {
	match, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return nil, fmt.Errorf("encode query value: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents
		 WHERE collection = $1 AND data @> $2
		 ORDER BY created_at`,
		collection, match,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// List returns every document in the collection in insertion order.
func (s *Store) List(ctx context.Context, collection string) ([]store.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func scanDocuments(rows pgx.Rows) ([]store.Document, error) {
	var out []store.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Document{ID: id, Fields: fields})
	}
	return out, rows.Err()
}

func decodeFields(raw []byte) (store.Fields, error) {
	var fields store.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}
