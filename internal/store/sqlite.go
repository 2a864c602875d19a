package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/spritekiln/spritekiln/core/catalog"
	"github.com/spritekiln/spritekiln/core/errors"
	"github.com/spritekiln/spritekiln/core/sqlite"
)

// Option keys in the options table. Mirrors a flat key-value options
// layout: catalog as a JSON blob, sprite and fingerprint as text.
const (
	keyCatalog     = "icon_catalog"
	keySprite      = "icon_sprite"
	keyFingerprint = "upload_fingerprint"
)

const schema = `
CREATE TABLE IF NOT EXISTS options (
	name  TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// SQLite is a Store backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) a SQLite-backed store at
// the given path. Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("initialize", path, err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM options WHERE name = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewIO("read", key, err)
	}
	return value, nil
}

func (s *SQLite) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO options (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return errors.NewIO("write", key, err)
	}
	return nil
}

func (s *SQLite) Catalog(ctx context.Context) (catalog.Catalog, error) {
	data, err := s.get(ctx, keyCatalog)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return catalog.Catalog{}, nil
	}
	var c catalog.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decoding stored catalog")
	}
	return c, nil
}

func (s *SQLite) SaveCatalog(ctx context.Context, c catalog.Catalog) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding catalog")
	}
	return s.put(ctx, keyCatalog, data)
}

func (s *SQLite) Sprite(ctx context.Context) (string, error) {
	data, err := s.get(ctx, keySprite)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *SQLite) SaveSprite(ctx context.Context, sprite string) error {
	return s.put(ctx, keySprite, []byte(sprite))
}

func (s *SQLite) Fingerprint(ctx context.Context) (string, error) {
	data, err := s.get(ctx, keyFingerprint)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *SQLite) SaveFingerprint(ctx context.Context, fp string) error {
	return s.put(ctx, keyFingerprint, []byte(fp))
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM options WHERE name IN (?, ?, ?)",
		keyCatalog, keySprite, keyFingerprint)
	if err != nil {
		return errors.NewIO("clear", "options", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
