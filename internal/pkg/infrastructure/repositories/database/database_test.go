package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestSQLiteConnectorOpensInMemoryDatabase(t *testing.T) {
	is := is.New(t)

	connect, err := NewConnector(zerolog.Nop(), "SQLite", "")
	is.NoErr(err)

	db, _, err := connect()
	is.NoErr(err)
	is.NoErr(db.Exec("SELECT 1").Error)
}

func TestSQLiteConnectorOpensFile(t *testing.T) {
	is := is.New(t)

	connect := NewSQLiteConnector(zerolog.Nop(), filepath.Join(t.TempDir(), "test.db"))

	db, _, err := connect()
	is.NoErr(err)
	is.NoErr(db.Exec("CREATE TABLE t (id INTEGER)").Error)
}

func TestUnknownDriver(t *testing.T) {
	is := is.New(t)

	_, err := NewConnector(zerolog.Nop(), "oracle", "")
	is.True(errors.Is(err, ErrUnknownDriver))
}
