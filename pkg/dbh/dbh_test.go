package dbh

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	c := DBConfig{Driver: DriverPostgres, Host: "localhost", Port: 5432, Database: "tracks", Username: "bob", Password: "it's secret"}
	require.Equal(t, `host=localhost user=bob password='it\'s secret' dbname=tracks port=5432 sslmode=disable`, c.DSN())
	require.NotContains(t, c.LogSafeDescription(), "secret")

	s := MakeSqliteConfig("/tmp/x.sqlite")
	require.Equal(t, "/tmp/x.sqlite", s.DSN())
}

func TestOpenSqlite(t *testing.T) {
	log := logs.NewTestingLog(t)
	cfg := MakeSqliteConfig(filepath.Join(t.TempDir(), "test.sqlite"))
	migs := MakeMigrations(log, []string{
		`CREATE TABLE thing(id INTEGER PRIMARY KEY, name TEXT NOT NULL);`,
		`ALTER TABLE thing ADD COLUMN size INT;`,
	})
	db, err := OpenDB(log, cfg, migs, 0)
	require.NoError(t, err)
	require.NoError(t, db.Exec("INSERT INTO thing (name, size) VALUES (?, ?)", "a", 3).Error)
	sqlDB, _ := db.DB()
	sqlDB.Close()

	// Reopening does not run migrations again
	db, err = OpenDB(log, cfg, migs, 0)
	require.NoError(t, err)
	count := int64(0)
	require.NoError(t, db.Table("thing").Count(&count).Error)
	require.Equal(t, int64(1), count)
	sqlDB, _ = db.DB()
	sqlDB.Close()

	// Wiping starts from scratch
	db, err = OpenDB(log, cfg, migs, DBConnectFlagWipeDB)
	require.NoError(t, err)
	require.NoError(t, db.Table("thing").Count(&count).Error)
	require.Equal(t, int64(0), count)
	sqlDB, _ = db.DB()
	sqlDB.Close()
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := OpenDB(logs.NewTestingLog(t), DBConfig{Driver: "oracle"}, nil, 0)
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestIntTime(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	it := MakeIntTime(now)
	require.Equal(t, IntTime(1700000000123), it)
	require.True(t, it.Get().Equal(now))
	require.True(t, MakeIntTime(time.Time{}).IsZero())
	v, _ := IntTime(0).Value()
	require.Nil(t, v)
	require.NoError(t, it.Scan(nil))
	require.True(t, it.IsZero())
	require.NoError(t, it.Scan(int64(5)))
	require.Equal(t, IntTime(5), it)
}
