package configsqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Struct is the config block of a SQLite output database.
type Struct struct {
	File string `json:"file"`
}

// OpenDB opens the database, creating the file and its directory when
// missing.
func (config Struct) OpenDB() (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	err := os.MkdirAll(filepath.Dir(config.File), 0777)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see https://stackoverflow.com/questions/35804884 on writes through a single connection
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
