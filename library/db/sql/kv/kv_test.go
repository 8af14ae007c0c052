package kv

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Laisky/errors/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func setupTestKv(t *testing.T, opts ...Option) *Kv {
	db, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err, "failed to connect to in-memory db")
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	kvInstance, err := NewKv(context.Background(), db, append([]Option{WithTableName("test_kv")}, opts...)...)
	require.NoError(t, err, "failed to create kv instance")
	return kvInstance
}

func TestSetAndGet(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	kvInstance := setupTestKv(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	err := kvInstance.Set(ctx, "gallery.zoom", "4")
	require.NoError(t, err, "Set should not error")

	item, err := kvInstance.Get(ctx, "gallery.zoom")
	require.NoError(t, err, "Get should not error")
	require.Equal(t, "gallery.zoom", item.Key)
	require.Equal(t, "4", item.Value)
	require.Equal(t, now, item.UpdatedAt)
}

func TestSetOverwrites(t *testing.T) {
	kvInstance := setupTestKv(t)
	ctx := context.Background()

	require.NoError(t, kvInstance.Set(ctx, "zoom", "2"))
	require.NoError(t, kvInstance.Set(ctx, "zoom", "5"))

	item, err := kvInstance.Get(ctx, "zoom")
	require.NoError(t, err)
	require.Equal(t, "5", item.Value)

	keys, err := kvInstance.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"zoom"}, keys)
}

func TestGetMissingKey(t *testing.T) {
	kvInstance := setupTestKv(t)

	_, err := kvInstance.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestExistsAndDel(t *testing.T) {
	kvInstance := setupTestKv(t)
	ctx := context.Background()

	require.NoError(t, kvInstance.Set(ctx, "existkey", "existvalue"))

	exists, err := kvInstance.Exists(ctx, "existkey")
	require.NoError(t, err, "Exists should not error")
	require.True(t, exists, "key should exist")

	err = kvInstance.Del(ctx, "existkey")
	require.NoError(t, err, "Del should not error")

	exists, err = kvInstance.Exists(ctx, "existkey")
	require.NoError(t, err, "Exists after deletion should not error")
	require.False(t, exists, "key should not exist after deletion")
}

func TestInvalidKeyAndTable(t *testing.T) {
	kvInstance := setupTestKv(t)

	err := kvInstance.Set(context.Background(), "bad key;", "x")
	require.Error(t, err)

	_, err = NewKv(context.Background(), nil)
	require.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = NewKv(context.Background(), db, WithTableName("kv; DROP TABLE kv"))
	require.Error(t, err)
}

func TestOpenSqliteCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")
	ctx := context.Background()

	kvInstance, err := OpenSqlite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, kvInstance.Set(ctx, "zoom", "6"))
	require.NoError(t, kvInstance.Close())

	reopened, err := OpenSqlite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	item, err := reopened.Get(ctx, "zoom")
	require.NoError(t, err)
	require.Equal(t, "6", item.Value)
}

func TestSetupFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv`).
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewKv(context.Background(), db)
	require.ErrorContains(t, err, "create kv table")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAndGetDriverFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	kvInstance, err := NewKv(context.Background(), db)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv (key, value, updated_at)`)).
		WithArgs("zoom", "3", sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))
	err = kvInstance.Set(context.Background(), "zoom", "3")
	require.ErrorContains(t, err, "database is locked")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value, updated_at FROM kv WHERE key = ?`)).
		WithArgs("zoom").
		WillReturnError(errors.New("database is locked"))
	_, err = kvInstance.Get(context.Background(), "zoom")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrKeyNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value, updated_at FROM kv WHERE key = ?`)).
		WithArgs("zoom").
		WillReturnError(errors.New("database is locked"))
	_, err = kvInstance.Exists(context.Background(), "zoom")
	require.ErrorContains(t, err, "check existence")

	require.NoError(t, mock.ExpectationsWereMet())
}
