package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/infrastructure/sessionstore/migrations"
)

// Key is the metadata key the session lives under.
const Key = "user"

// SQLiteStore keeps the session in a local SQLite key/value table.
type SQLiteStore struct {
	db    *sql.DB
	codec *Codec
}

// OpenSQLite opens dsn and applies the embedded migrations.
func OpenSQLite(ctx context.Context, dsn string, codec *Codec) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteStore(db, codec), nil
}

func NewSQLiteStore(db *sql.DB, codec *Codec) *SQLiteStore {
	return &SQLiteStore{db: db, codec: codec}
}

func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate session db: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*domain.User, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, Key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", Key, err)
	}
	return s.codec.Decode(string(value))
}

func (s *SQLiteStore) Save(ctx context.Context, u domain.User) error {
	token, err := s.codec.Encode(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, Key, []byte(token))
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", Key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, Key); err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", Key, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
