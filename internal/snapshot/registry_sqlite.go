package snapshot

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
)

// Info describes one listed snapshot. The JSON files under the snapshots
// directory remain the source of truth; this is a convenience index so
// listing snapshots doesn't require reading and parsing every file.
type Info struct {
	Name      string
	Path      string
	CreatedAt time.Time
}

// ListRegistry is a SQLite-backed index of snapshot metadata, recording
// what Create produced without being consulted by Restore (which reads
// the snapshot file directly).
type ListRegistry struct {
	db *sql.DB
}

// OpenListRegistry opens (creating if needed) the registry database at
// path, typically <data_dir>/snapshots/registry.db.
func OpenListRegistry(path string) (*ListRegistry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, vdberrors.IOError("open snapshot registry", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, vdberrors.IOError("connect snapshot registry", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, vdberrors.IOError("init snapshot registry schema", err)
	}
	return &ListRegistry{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Close releases the underlying database connection.
func (r *ListRegistry) Close() error {
	return r.db.Close()
}

// Record upserts a snapshot's metadata after a successful Create.
func (r *ListRegistry) Record(name, path string, createdAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO snapshots (name, path, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET path = excluded.path, created_at = excluded.created_at
	`, name, path, createdAt)
	if err != nil {
		return vdberrors.IOError("record snapshot", err)
	}
	return nil
}

// List returns every recorded snapshot, most recent first.
func (r *ListRegistry) List() ([]Info, error) {
	rows, err := r.db.Query(`SELECT name, path, created_at FROM snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, vdberrors.IOError("list snapshots", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Path, &info.CreatedAt); err != nil {
			return nil, vdberrors.IOError("scan snapshot row", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Forget removes a snapshot's registry entry. It does not delete the
// underlying file.
func (r *ListRegistry) Forget(name string) error {
	res, err := r.db.Exec(`DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return vdberrors.IOError("forget snapshot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return vdberrors.IOError("forget snapshot", err)
	}
	if n == 0 {
		return vdberrors.SnapshotNotFound(name)
	}
	return nil
}
