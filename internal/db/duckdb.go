// Package db owns the embedded DuckDB database backing the view-statistics
// event log. One file-backed connection per process; callers that can live
// without statistics treat an open failure as a soft error.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// extensions loaded at open time. Spatial backs ad-hoc geometry queries
// against the event log, parquet allows exporting it.
var extensions = []string{"spatial", "parquet"}

// Config locates the database file under the server's data directory.
type Config struct {
	DataDir string
	DBName  string
}

func (c Config) path() string {
	return filepath.Join(c.DataDir, "duckdb", c.DBName+".duckdb")
}

var (
	once    sync.Once
	conn    *sql.DB
	openErr error
)

// Get opens the process-wide connection on first call and returns the same
// handle afterwards.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		if err := os.MkdirAll(filepath.Dir(cfg.path()), 0755); err != nil {
			openErr = fmt.Errorf("creating duckdb directory: %w", err)
			return
		}
		conn, openErr = sql.Open("duckdb", cfg.path())
		if openErr != nil {
			return
		}
		for _, ext := range extensions {
			// Already-installed extensions make INSTALL a no-op; a missing
			// extension is tolerated, the stats queries degrade.
			conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext))
		}
	})
	return conn, openErr
}

// Close closes the process-wide connection if it was opened.
func Close() error {
	if conn != nil {
		return conn.Close()
	}
	return nil
}
