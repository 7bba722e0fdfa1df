package inventory

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	rlog "rackinv/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ExportInfo summarizes a SQLite export file.
type ExportInfo struct {
	Tables  []string
	Servers int
	Exports int
}

// OpenDB opens a SQLite database at path and applies the export schema.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations applies every embedded migration in filename order.
func RunMigrations(db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		rlog.L().Debug("migration", slog.String("file", name))
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}

// ExportSQLite writes every record into a fresh SQLite file and returns its
// absolute path. Any existing file at that path is replaced.
func (s *Store) ExportSQLite(path string) (string, error) {
	abs, err := s.exportPath(path, ".db")
	if err != nil {
		return "", err
	}
	servers, err := s.Load()
	if err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", ErrEmptyStore
	}

	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", storageErr("export", abs, err)
	}
	db, err := OpenDB(abs)
	if err != nil {
		return "", storageErr("export", abs, err)
	}
	defer db.Close()

	if err := insertServers(db, servers, s.path, s.now()); err != nil {
		return "", storageErr("export", abs, err)
	}
	rlog.WithOperation(s.log, "export_sqlite").Info("inventory exported", slog.String("file", abs), slog.Int("rows", len(servers)))
	return abs, nil
}

func insertServers(db *sql.DB, servers []Server, source string, now time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO servers (position, product_name, serial_number, rack_location, username)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, srv := range servers {
		if _, err := stmt.Exec(i+1, srv.ProductName, srv.SerialNumber, srv.RackLocation, srv.Username); err != nil {
			return fmt.Errorf("insert %s: %w", srv.SerialNumber, err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO exports (id, created_at, record_count, source_path) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), now.Unix(), len(servers), source,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// InspectExport reads back the table list and row counts of an export file.
func InspectExport(path string) (ExportInfo, error) {
	var info ExportInfo
	if _, err := os.Stat(path); err != nil {
		return info, storageErr("read", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return info, storageErr("read", path, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name;`)
	if err != nil {
		return info, storageErr("read", path, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return info, storageErr("read", path, err)
		}
		info.Tables = append(info.Tables, name)
	}
	if err := rows.Err(); err != nil {
		return info, storageErr("read", path, err)
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM servers;`).Scan(&info.Servers); err != nil {
		return info, storageErr("read", path, err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM exports;`).Scan(&info.Exports); err != nil {
		return info, storageErr("read", path, err)
	}
	return info, nil
}

// ReadSQLiteExport returns the servers stored in an export file in position order.
func ReadSQLiteExport(path string) ([]Server, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("read", path, err)
	}
	defer db.Close()

	rows, err := db.Query(
		`SELECT product_name, serial_number, rack_location, username
		 FROM servers ORDER BY position`,
	)
	if err != nil {
		return nil, storageErr("read", path, err)
	}
	defer rows.Close()

	out := []Server{}
	for rows.Next() {
		var srv Server
		if err := rows.Scan(&srv.ProductName, &srv.SerialNumber, &srv.RackLocation, &srv.Username); err != nil {
			return nil, storageErr("read", path, err)
		}
		out = append(out, srv)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read", path, err)
	}
	return out, nil
}
