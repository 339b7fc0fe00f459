package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/resqlink/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens the snapshot store. With ":memory:" the database lives
// exactly as long as the single pooled connection, i.e. the process.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Every new connection to :memory: is a fresh empty database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS disaster_events (
			id INTEGER PRIMARY KEY,
			position INTEGER NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			location TEXT NOT NULL,
			date TEXT NOT NULL,
			description TEXT NOT NULL,
			severity TEXT NOT NULL,
			source TEXT NOT NULL,
			latitude REAL,
			longitude REAL,
			details_url TEXT NOT NULL DEFAULT '',
			-- Unix seconds and nanoseconds; UnixNano overflows outside 1678-2262.
			raw_date_sec INTEGER,
			raw_date_nsec INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_disaster_events_position ON disaster_events(position);
		CREATE INDEX IF NOT EXISTS idx_disaster_events_raw_date ON disaster_events(raw_date_sec);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) ReplaceAll(ctx context.Context, events []models.DisasterEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM disaster_events`); err != nil {
		return fmt.Errorf("error clearing snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO disaster_events (
			id, position, type, title, location, date, description,
			severity, source, latitude, longitude, details_url, raw_date_sec, raw_date_nsec
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		var lat, lon sql.NullFloat64
		if e.Coordinates != nil {
			lat = sql.NullFloat64{Float64: e.Coordinates.Latitude, Valid: true}
			lon = sql.NullFloat64{Float64: e.Coordinates.Longitude, Valid: true}
		}
		var rawSec, rawNsec sql.NullInt64
		if !e.RawDate.IsZero() {
			rawSec = sql.NullInt64{Int64: e.RawDate.Unix(), Valid: true}
			rawNsec = sql.NullInt64{Int64: int64(e.RawDate.Nanosecond()), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			e.ID, i, string(e.Type), e.Title, e.Location, e.Date, e.Description,
			string(e.Severity), e.Source, lat, lon, e.DetailsURL, rawSec, rawNsec,
		); err != nil {
			return fmt.Errorf("error inserting event %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing snapshot: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, type, title, location, date, description, severity, source,
		latitude, longitude, details_url, raw_date_sec, raw_date_nsec
	FROM disaster_events`

func (s *SQLiteDB) List(ctx context.Context) ([]models.DisasterEvent, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	events := []models.DisasterEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// GetByID returns nil, nil when the id is not in the snapshot.
func (s *SQLiteDB) GetByID(ctx context.Context, id int64) (*models.DisasterEvent, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM disaster_events WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking event %d: %w", id, err)
	}
	return exists, nil
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disaster_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (models.DisasterEvent, error) {
	var (
		e             models.DisasterEvent
		typ, severity string
		lat, lon      sql.NullFloat64
		rawSec        sql.NullInt64
		rawNsec       sql.NullInt64
	)
	err := sc.Scan(&e.ID, &typ, &e.Title, &e.Location, &e.Date, &e.Description,
		&severity, &e.Source, &lat, &lon, &e.DetailsURL, &rawSec, &rawNsec)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("error scanning event: %w", err)
	}

	e.Type = models.DisasterType(typ)
	e.Severity = models.Severity(severity)
	if lat.Valid && lon.Valid {
		e.Coordinates = &models.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	if rawSec.Valid {
		e.RawDate = time.Unix(rawSec.Int64, rawNsec.Int64).UTC()
	}
	return e, nil
}
