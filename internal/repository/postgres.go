package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"propsearch/internal/model"
)

// TitleRow is a distinct title used for autocomplete
type TitleRow struct {
	Title        string `db:"title"`
	PropertyType string `db:"property_type"`
}

// PostgresRepository reads properties and transport stations. It never writes.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing handle
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// SpatialCandidates returns properties near any matching station, each with
// its nearest station and distance in meters
func (r *PostgresRepository) SpatialCandidates(ctx context.Context, q SpatialQuery) ([]model.RankedProperty, error) {
	query, args := buildSpatialQuery(q)
	var rows []model.RankedProperty
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to run spatial query: %w", err)
	}
	return rows, nil
}

// MentionCandidates returns properties whose text fields mention a term
func (r *PostgresRepository) MentionCandidates(ctx context.Context, q MentionQuery) ([]model.Property, error) {
	if len(q.Terms) == 0 {
		return nil, nil
	}
	query, args := buildMentionQuery(q)
	var rows []model.Property
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to run mention query: %w", err)
	}
	return rows, nil
}

// KeywordSearch runs the conjunctive keyword filter
func (r *PostgresRepository) KeywordSearch(ctx context.Context, q KeywordQuery) ([]model.Property, error) {
	query, args := buildKeywordQuery(q)
	var rows []model.Property
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to run keyword query: %w", err)
	}
	return rows, nil
}

// FindStations lists stations of the given types, optionally by name containment
func (r *PostgresRepository) FindStations(ctx context.Context, q StationQuery) ([]model.TransportStation, error) {
	query, args := buildStationQuery(q)
	var rows []model.TransportStation
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find stations: %w", err)
	}
	return rows, nil
}

// NearestStationDistance returns the distance in meters from a point to the
// closest station of the given types, or nil when no station matches
func (r *PostgresRepository) NearestStationDistance(ctx context.Context, lat, lng float64, types []string) (*float64, error) {
	query, args := buildNearestStationQuery(lat, lng, types)
	var d sql.NullFloat64
	if err := r.db.GetContext(ctx, &d, query, args...); err != nil {
		return nil, fmt.Errorf("failed to compute station distance: %w", err)
	}
	if !d.Valid {
		return nil, nil
	}
	return &d.Float64, nil
}

// ListTitles returns distinct titles, filtered by containment when pattern is set
func (r *PostgresRepository) ListTitles(ctx context.Context, pattern string, limit int) ([]TitleRow, error) {
	query, args := buildTitleQuery(pattern, limit)
	var rows []TitleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	return rows, nil
}

// GetPropertyByID retrieves a single property by its ID
func (r *PostgresRepository) GetPropertyByID(ctx context.Context, id int64) (*model.Property, error) {
	var p model.Property
	query := fmt.Sprintf(`SELECT %s FROM properties p WHERE p.id = $1`, propertyColumns)
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &p, nil
}
