package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geotrack/geotrack/geolib"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

const DefaultRecentLimit = 50

// ErrPersistence wraps every failure of the storage layer.
var ErrPersistence = errors.New("persistence failure")

// Entry is a single row of tracking history.
type Entry struct {
	ID         int64             `json:"id"`
	Target     string            `json:"target"`
	TargetType geolib.TargetType `json:"target_type"`
	Lat        *float64          `json:"lat,omitempty"`
	Lon        *float64          `json:"lon,omitempty"`
	City       string            `json:"city,omitempty"`
	Country    string            `json:"country,omitempty"`
	ISP        string            `json:"isp,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Source     string            `json:"source,omitempty"`
	Accuracy   geolib.Accuracy   `json:"accuracy,omitempty"`

	// Result is decoded from a JSON snapshot stored with the row.
	Result geolib.ReconciledResult `json:"result"`
}

// Store is a database backed history of tracked results. It implements
// geolib.HistoryStore.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func (s *Store) Save(ctx context.Context, target string, targetType geolib.TargetType, result geolib.ReconciledResult) error {
	notes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: cannot serialize result: %v", ErrPersistence, err)
	}

	timestamp := s.now().UTC().Format(timestampLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: cannot start transaction: %v", ErrPersistence, err)
	}

	_, err = tx.ExecContext(ctx, rebind(s.driver, queryInsertTracking),
		target,
		string(targetType),
		nullFloat(result.Lat),
		nullFloat(result.Lon),
		result.City,
		result.Country,
		result.ISP,
		timestamp,
		result.Source,
		string(result.Accuracy),
		string(notes))
	if err != nil {
		tx.Rollback() // nolint: errcheck

		return fmt.Errorf("%w: cannot insert tracking history: %v", ErrPersistence, err)
	}

	_, err = tx.ExecContext(ctx, rebind(s.driver, queryInsertIP),
		result.IP,
		result.City,
		result.Country,
		nullFloat(result.Lat),
		nullFloat(result.Lon),
		timestamp,
		true)
	if err != nil {
		tx.Rollback() // nolint: errcheck

		return fmt.Errorf("%w: cannot insert ip history: %v", ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: cannot commit: %v", ErrPersistence, err)
	}

	return nil
}

// Recent returns at most limit entries, newest first. Non-positive
// limit means DefaultRecentLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, rebind(s.driver, querySelectRecent), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot query history: %v", ErrPersistence, err)
	}

	defer rows.Close()

	entries := []Entry{}

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: cannot read history: %v", ErrPersistence, err)
	}

	return entries, nil
}

// TrackedIPs returns a number of rows in ip_history.
func (s *Store) TrackedIPs(ctx context.Context) (int, error) {
	count := 0

	if err := s.db.QueryRowContext(ctx, queryCountIP).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: cannot count ip history: %v", ErrPersistence, err)
	}

	return count, nil
}

// Clear removes every row of both tables.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: cannot start transaction: %v", ErrPersistence, err)
	}

	for _, query := range []string{queryClearTracking, queryClearIP} {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			tx.Rollback() // nolint: errcheck

			return fmt.Errorf("%w: cannot clear history: %v", ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: cannot commit: %v", ErrPersistence, err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: cannot initialize schema: %v", ErrPersistence, err)
		}
	}

	return nil
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *value, Valid: true}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry              Entry
		lat, lon           sql.NullFloat64
		city, country, isp sql.NullString
		source, accuracy   sql.NullString
		notes              sql.NullString
		targetType         string
		timestamp          string
	)

	err := row.Scan(&entry.ID,
		&entry.Target,
		&targetType,
		&lat,
		&lon,
		&city,
		&country,
		&isp,
		&timestamp,
		&source,
		&accuracy,
		&notes)
	if err != nil {
		return entry, fmt.Errorf("cannot scan a row: %w", err)
	}

	parsed, err := time.Parse(timestampLayout, timestamp)
	if err != nil {
		return entry, fmt.Errorf("incorrect timestamp %s: %w", timestamp, err)
	}

	entry.TargetType = geolib.TargetType(targetType)
	entry.Timestamp = parsed
	entry.City = city.String
	entry.Country = country.String
	entry.ISP = isp.String
	entry.Source = source.String
	entry.Accuracy = geolib.Accuracy(accuracy.String)

	if lat.Valid && lon.Valid {
		latValue := lat.Float64
		lonValue := lon.Float64
		entry.Lat = &latValue
		entry.Lon = &lonValue
	}

	if notes.Valid && notes.String != "" {
		if err := json.Unmarshal([]byte(notes.String), &entry.Result); err != nil {
			return entry, fmt.Errorf("incorrect notes of row %d: %w", entry.ID, err)
		}
	}

	return entry, nil
}

// Open connects to a database and initializes its schema. For SQLite
// dsn is a path to a file, a parent directory is created if missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if err := ensureDirectory(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: unknown database driver %s", ErrPersistence, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open database: %v", ErrPersistence, err)
	}

	if driver == DriverSQLite {
		// sqlite3 does not tolerate concurrent writers on one file.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("%w: cannot connect to database: %v", ErrPersistence, err)
	}

	store := &Store{
		db:     db,
		driver: driver,
		now:    time.Now,
	}

	if err := store.migrate(ctx); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func ensureDirectory(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}

	if path == "" || path == ":memory:" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: cannot create directory for database: %v", ErrPersistence, err)
	}

	return nil
}
