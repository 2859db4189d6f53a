package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andresmejia3/maskwatch/internal/geo"
)

// ErrZoneNotFound is returned by DeleteZone for an unknown name.
var ErrZoneNotFound = errors.New("zone not found")

// Store persists safe zones and classification history in PostgreSQL.
// A single connection is shared between the monitor and the API, so every
// call is serialized.
type Store struct {
	mu   sync.Mutex
	conn *pgx.Conn
}

// ResultRecord is one persisted classification round.
type ResultRecord struct {
	ID             int64
	RoundID        string
	Class          string
	FaceCount      int
	MeanConfidence float64
	MinConfidence  float64
	MaxConfidence  float64
	SampleCount    int
	ElapsedMs      int64
	Passed         bool
	Image          []byte
	CreatedAt      time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS zones (
			name TEXT PRIMARY KEY,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS classification_results (
			id BIGSERIAL PRIMARY KEY,
			round_id TEXT NOT NULL,
			class TEXT NOT NULL,
			face_count INT NOT NULL,
			mean_confidence DOUBLE PRECISION NOT NULL,
			min_confidence DOUBLE PRECISION NOT NULL,
			max_confidence DOUBLE PRECISION NOT NULL,
			sample_count INT NOT NULL,
			elapsed_ms BIGINT NOT NULL,
			passed BOOLEAN NOT NULL,
			image BYTEA,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS classification_results_created_at_idx ON classification_results (created_at DESC);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.Close(ctx)
}

// SaveZone inserts a zone or moves an existing one to the new center.
func (s *Store) SaveZone(ctx context.Context, name string, loc geo.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(ctx, `
		INSERT INTO zones (name, latitude, longitude, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	`, name, loc.Latitude, loc.Longitude)
	return err
}

func (s *Store) DeleteZone(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.conn.Exec(ctx, "DELETE FROM zones WHERE name = $1", name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, name)
	}
	return nil
}

// ListZones returns the stored zones in insertion order. Distance and
// IsSafe are left zero; they only exist relative to a live location.
func (s *Store) ListZones(ctx context.Context) ([]geo.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.conn.Query(ctx, "SELECT name, latitude, longitude FROM zones ORDER BY created_at, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []geo.Zone
	for rows.Next() {
		var z geo.Zone
		if err := rows.Scan(&z.Name, &z.Latitude, &z.Longitude); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (s *Store) ClearZones(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(ctx, "DELETE FROM zones")
	return err
}

// InsertResult saves one classification round and returns its row ID.
func (s *Store) InsertResult(ctx context.Context, r ResultRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id int64
	err := s.conn.QueryRow(ctx, `
		INSERT INTO classification_results
			(round_id, class, face_count, mean_confidence, min_confidence, max_confidence, sample_count, elapsed_ms, passed, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, r.RoundID, r.Class, r.FaceCount, r.MeanConfidence, r.MinConfidence, r.MaxConfidence,
		r.SampleCount, r.ElapsedMs, r.Passed, r.Image).Scan(&id)
	return id, err
}

// ListResults returns the newest results first. The image column is not
// loaded; a limit <= 0 returns everything.
func (s *Store) ListResults(ctx context.Context, limit int) ([]ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, round_id, class, face_count, mean_confidence, min_confidence, max_confidence,
			sample_count, elapsed_ms, passed, created_at
		FROM classification_results
		ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		var r ResultRecord
		if err := rows.Scan(&r.ID, &r.RoundID, &r.Class, &r.FaceCount, &r.MeanConfidence, &r.MinConfidence,
			&r.MaxConfidence, &r.SampleCount, &r.ElapsedMs, &r.Passed, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResultImage loads the stored frame for one result.
func (s *Store) ResultImage(ctx context.Context, id int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var img []byte
	err := s.conn.QueryRow(ctx, "SELECT image FROM classification_results WHERE id = $1", id).Scan(&img)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("result %d not found", id)
	}
	return img, err
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS classification_results CASCADE;
		DROP TABLE IF EXISTS zones CASCADE;
	`)
	return err
}
