// Package dbh opens SQL databases through gorm, after bringing their schema up to date
package dbh

import (
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/logs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const DriverPostgres = "postgres"
const DriverSqlite = "sqlite3"

var ErrUnsupportedDriver = errors.New("Unsupported database driver")

// DBConnectFlags are flags passed to OpenDB
type DBConnectFlags int

const (
	// DBConnectFlagWipeDB erases the database before running migrations (useful for unit tests).
	DBConnectFlagWipeDB DBConnectFlags = 1 << iota
)

// DBConfig is the database section of our config file
type DBConfig struct {
	Driver   string `json:"driver" yaml:"driver"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"` // For sqlite, this is the filename
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

func MakeSqliteConfig(filename string) DBConfig {
	return DBConfig{
		Driver:   DriverSqlite,
		Database: filename,
	}
}

// LogSafeDescription describes the connection without revealing the password
func (c *DBConfig) LogSafeDescription() string {
	if c.Driver == DriverSqlite {
		return fmt.Sprintf("driver=%v file=%v", c.Driver, c.Database)
	}
	desc := fmt.Sprintf("driver=%v host=%v database=%v username=%v", c.Driver, c.Host, c.Database, c.Username)
	if c.Port != 0 {
		desc += fmt.Sprintf(" port=%v", c.Port)
	}
	return desc
}

func quoteDSNValue(s string) string {
	if s == "" {
		return "''"
	} else if !strings.ContainsAny(s, " '\\") {
		return s
	}
	e := strings.Builder{}
	e.WriteByte('\'')
	for _, r := range s {
		if r == '\\' || r == '\'' {
			e.WriteByte('\\')
		}
		e.WriteRune(r)
	}
	e.WriteByte('\'')
	return e.String()
}

// DSN returns the connection string for the driver
func (c *DBConfig) DSN() string {
	if c.Driver == DriverSqlite {
		return c.Database
	}
	dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v", quoteDSNValue(c.Host), quoteDSNValue(c.Username), quoteDSNValue(c.Password), quoteDSNValue(c.Database))
	if c.Port != 0 {
		dsn += fmt.Sprintf(" port=%v", c.Port)
	}
	return dsn + " sslmode=disable"
}

// MakeMigrations turns a sequence of SQL scripts into migrations, which run in order
func MakeMigrations(log logs.Log, scripts []string) []migration.Migrator {
	migs := []migration.Migrator{}
	for i, script := range scripts {
		migs = append(migs, makeMigration(log, i+1, script))
	}
	return migs
}

func makeMigration(log logs.Log, idx int, script string) migration.Migrator {
	return func(tx migration.LimitedTx) error {
		summary := strings.TrimSpace(script)
		if nl := strings.IndexAny(summary, "\r\n"); nl != -1 {
			summary = summary[:nl]
		}
		if len(summary) > 40 {
			summary = summary[:40]
		}
		log.Infof("Running migration %v: '%v...'", idx, summary)
		_, err := tx.Exec(script)
		return err
	}
}

// OpenDB opens the database, runs all migrations that have not yet been run, and returns a gorm handle
func OpenDB(log logs.Log, cfg DBConfig, migrations []migration.Migrator, flags DBConnectFlags) (*gorm.DB, error) {
	if cfg.Driver != DriverSqlite && cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("%w '%v'", ErrUnsupportedDriver, cfg.Driver)
	}
	if flags&DBConnectFlagWipeDB != 0 {
		if err := DropAllTables(log, cfg); err != nil {
			return nil, err
		}
	}
	db, err := migration.Open(cfg.Driver, cfg.DSN(), migrations)
	if err != nil {
		return nil, fmt.Errorf("Failed to migrate database (%v): %w", cfg.LogSafeDescription(), err)
	}
	db.Close()
	return gormOpen(cfg.Driver, cfg.DSN())
}

// DropAllTables erases a database. Only sqlite is supported, where the file is removed.
// A database that does not exist is not an error.
func DropAllTables(log logs.Log, cfg DBConfig) error {
	if cfg.Driver != DriverSqlite {
		return fmt.Errorf("%w: DropAllTables is not supported on %v", ErrUnsupportedDriver, cfg.Driver)
	}
	for _, suffix := range []string{"", "-shm", "-wal"} {
		err := os.Remove(cfg.Database + suffix)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	log.Infof("Erased database %v", cfg.Database)
	return nil
}

func gormOpen(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSqlite:
		dialector = sqlite.Open(dsn)
	}

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			// Record not found is never worth logging
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	return gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			// Pluralization is just another thing to worry about when writing migrations by hand
			SingularTable: true,
		},
		Logger: newLogger,
	})
}
