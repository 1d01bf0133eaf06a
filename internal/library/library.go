// Package library keeps a record of completed downloads in an SQLite
// database so they can be listed and played back later.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"trackdl/internal/config"
	"trackdl/internal/media"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("library entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	platform   TEXT NOT NULL,
	title      TEXT NOT NULL,
	artist     TEXT NOT NULL,
	duration   INTEGER NOT NULL DEFAULT 0,
	path       TEXT NOT NULL UNIQUE,
	size       INTEGER,
	position   REAL NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS tracks_created_at ON tracks (created_at);
`

// resumeMargin is how close to the end a stopped track counts as finished.
const resumeMargin = 10

// Entry is one downloaded track.
type Entry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Duration  int       `json:"duration"`
	Path      string    `json:"path"`
	Size      *int64    `json:"size,omitempty"`
	Position  float64   `json:"position,omitempty"` // Seconds where playback last stopped
	CreatedAt time.Time `json:"created_at"`
}

// ResumeAt returns where playback should continue, or 0 when the track was
// never played or was played to the end.
func (e Entry) ResumeAt() float64 {
	if e.Position <= 0 {
		return 0
	}
	if e.Duration > 0 && e.Position >= float64(e.Duration-resumeMargin) {
		return 0
	}
	return e.Position
}

// NewEntry builds an entry from a successful result.
func NewEntry(platform string, req media.Request, res media.Result) (Entry, error) {
	if !res.Success {
		return Entry{}, fmt.Errorf("cannot record a failed download")
	}
	dir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return Entry{}, fmt.Errorf("resolving output directory: %w", err)
	}
	return Entry{
		ID:        uuid.NewString(),
		URL:       req.URL,
		Platform:  platform,
		Title:     res.Title,
		Artist:    res.Artist,
		Duration:  res.Duration,
		Path:      filepath.Join(dir, res.Filename),
		Size:      res.FileSize,
		CreatedAt: time.Now(),
	}, nil
}

// Store is an open library database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the library at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating library dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing library: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// migrate adds columns missing from libraries created by older versions.
func migrate(ctx context.Context, db *sql.DB) error {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info('tracks') WHERE name = 'position'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspecting library schema: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, `ALTER TABLE tracks ADD COLUMN position REAL NOT NULL DEFAULT 0`); err != nil {
		return fmt.Errorf("upgrading library schema: %w", err)
	}
	return nil
}

// OpenDefault opens the library at the configured data path.
func OpenDefault(ctx context.Context) (*Store, error) {
	path, err := config.LibraryPath()
	if err != nil {
		return nil, err
	}
	return Open(ctx, path)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records an entry. A later download of the same file replaces the
// earlier record.
func (s *Store) Add(ctx context.Context, e Entry) error {
	var size sql.NullInt64
	if e.Size != nil {
		size = sql.NullInt64{Int64: *e.Size, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (id, url, platform, title, artist, duration, path, size, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			id = excluded.id,
			url = excluded.url,
			platform = excluded.platform,
			title = excluded.title,
			artist = excluded.artist,
			duration = excluded.duration,
			size = excluded.size,
			position = excluded.position,
			created_at = excluded.created_at`,
		e.ID, e.URL, e.Platform, e.Title, e.Artist, e.Duration, e.Path, size, e.Position, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving library entry: %w", err)
	}
	return nil
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, platform, title, artist, duration, path, size, position, created_at
		FROM tracks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing library: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var size sql.NullInt64
		var created int64
		if err := rows.Scan(&e.ID, &e.URL, &e.Platform, &e.Title, &e.Artist, &e.Duration, &e.Path, &size, &e.Position, &created); err != nil {
			return nil, fmt.Errorf("reading library entry: %w", err)
		}
		if size.Valid {
			n := size.Int64
			e.Size = &n
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	return entries, nil
}

// SetPosition records where playback of an entry stopped.
func (s *Store) SetPosition(ctx context.Context, id string, pos float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tracks SET position = ? WHERE id = ?`, pos, id)
	if err != nil {
		return fmt.Errorf("saving position: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Remove deletes the entry with the given id. The audio file is left alone.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing library entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing library entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// FormatForDisplay creates display strings for fzf selection.
func FormatForDisplay(entries []Entry) []string {
	var items []string
	for _, e := range entries {
		display := fmt.Sprintf("%s - %s", e.Artist, e.Title)
		if e.Duration > 0 {
			display += fmt.Sprintf(" [%d:%02d]", e.Duration/60, e.Duration%60)
		}
		if e.Size != nil {
			display += " " + humanize.Bytes(uint64(*e.Size))
		}
		if pos := e.ResumeAt(); pos > 0 {
			display += fmt.Sprintf(" (at %d:%02d)", int(pos)/60, int(pos)%60)
		}
		items = append(items, display)
	}
	return items
}
