package sqlite

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/hrygo/callparrot/internal/profile"
	"github.com/hrygo/callparrot/store"
)

// filePragmas are appended to file DSNs that carry no query string of their own.
const filePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the sqlite database at profile.DSN. ":memory:" is supported for tests.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("sqlite", withPragmas(profile.DSN))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite allows a single writer; serializing through one connection also
	// keeps an in-memory database shared by every query.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: profile}, nil
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "?") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + "?" + filePragmas
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (*DB) Type() string {
	return "sqlite"
}

func (*DB) Rebind(query string) string {
	return query
}
