// Package kv is a small string key-value table on database/sql, used for local preferences.
package kv

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"time"

	errors "github.com/Laisky/errors/v2"
	_ "github.com/mattn/go-sqlite3"
)

var (
	_ Interface = new(Kv)

	regexpKey       = regexp.MustCompile(`^[a-zA-Z0-9_.]{1,64}$`)
	regexpTableName = regexp.MustCompile(`^[a-zA-Z0-9_]{1,64}$`)

	// ErrKeyNotFound is returned by Get for a key that was never set or was deleted.
	ErrKeyNotFound = errors.New("key not found")
)

// KvItem is one stored value
type KvItem struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interface is a kv interface
type Interface interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (*KvItem, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Kv is a key-value store on a sql table
type Kv struct {
	opt *option
	db  *sql.DB
}

type option struct {
	tableName string
	now       func() time.Time
}

// Option is a function that configures the kv
type Option func(*option) error

func applyOpts(opts ...Option) (*option, error) {
	// fill default
	o := &option{
		tableName: "kv",
		now:       time.Now,
	}

	// apply opts
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return o, nil
}

// WithTableName is a option to set table name
func WithTableName(tableName string) Option {
	return func(o *option) error {
		if !regexpTableName.MatchString(tableName) {
			return errors.Errorf("invalid table name: %s", tableName)
		}
		o.tableName = tableName
		return nil
	}
}

// WithClock sets the time source for UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(o *option) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// NewKv create a new kv on db, creating its table when missing
func NewKv(ctx context.Context, db *sql.DB, opts ...Option) (*Kv, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "apply opts")
	}

	kv := &Kv{
		opt: opt,
		db:  db,
	}

	if err := kv.setup(ctx); err != nil {
		return nil, errors.Wrap(err, "setup kv")
	}

	return kv, nil
}

// OpenSqlite opens (or creates) the sqlite file at path and returns a kv on it.
// The returned kv owns the connection, call Close when done.
func OpenSqlite(ctx context.Context, path string, opts ...Option) (*Kv, error) {
	if path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrapf(err, "create dir for %s", path)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	kv, err := NewKv(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}

	return kv, nil
}

func (kv *Kv) setup(ctx context.Context) error {
	stmt := `
CREATE TABLE IF NOT EXISTS ` + kv.opt.tableName + ` (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL
)`

	if _, err := kv.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "create kv table")
	}

	return nil
}

func (kv *Kv) validKey(key string) error {
	if !regexpKey.MatchString(key) {
		return errors.Errorf("invalid key: %s", key)
	}

	return nil
}

// Set stores value under key, replacing any previous value.
func (kv *Kv) Set(ctx context.Context, key, value string) error {
	if err := kv.validKey(key); err != nil {
		return errors.WithStack(err)
	}

	stmt := `
INSERT INTO ` + kv.opt.tableName + ` (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key)
DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	updatedAt := kv.opt.now().UTC().UnixMilli()
	if _, err := kv.db.ExecContext(ctx, stmt, key, value, updatedAt); err != nil {
		return errors.Wrapf(err, "upsert key %s", key)
	}

	return nil
}

// Get retrieves the key's value, ErrKeyNotFound when it is absent.
func (kv *Kv) Get(ctx context.Context, key string) (*KvItem, error) {
	if err := kv.validKey(key); err != nil {
		return nil, errors.WithStack(err)
	}

	var (
		doc       KvItem
		updatedAt int64
	)
	stmt := `SELECT key, value, updated_at FROM ` + kv.opt.tableName + ` WHERE key = ? LIMIT 1`
	err := kv.db.QueryRowContext(ctx, stmt, key).Scan(&doc.Key, &doc.Value, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrKeyNotFound, "key %s", key)
		}
		return nil, errors.Wrapf(err, "get key %s", key)
	}

	doc.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &doc, nil
}

// Exists checks whether a key is set.
func (kv *Kv) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := kv.Get(ctx, key); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "check existence")
	}

	return true, nil
}

// Del removes the key from the store. Deleting a missing key is not an error.
func (kv *Kv) Del(ctx context.Context, key string) error {
	stmt := `DELETE FROM ` + kv.opt.tableName + ` WHERE key = ?`
	if _, err := kv.db.ExecContext(ctx, stmt, key); err != nil {
		return errors.Wrapf(err, "delete key %s", key)
	}
	return nil
}

// Keys lists every stored key in ascending order.
func (kv *Kv) Keys(ctx context.Context) ([]string, error) {
	rows, err := kv.db.QueryContext(ctx, `SELECT key FROM `+kv.opt.tableName+` ORDER BY key`)
	if err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	defer rows.Close() //nolint:errcheck

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "scan key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate keys")
	}

	return keys, nil
}

// Close closes the underlying db.
func (kv *Kv) Close() error {
	return kv.db.Close()
}
