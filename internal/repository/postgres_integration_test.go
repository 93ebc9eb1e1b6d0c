//go:build integration

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("property_search"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(filepath.Join("..", "..", "migrations", "001_init.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	seed(t, db)

	repo := NewPostgresRepositoryFromDB(db)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seed(t *testing.T, db *sqlx.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO transport_stations (station_name, transport_type, latitude, longitude) VALUES
			('Surian', 'MRT', 3.1505, 101.5930),
			('KLCC', 'LRT', 3.1588, 101.7131)`,
		`INSERT INTO properties (title, description, property_type, listing_type, price, bedrooms, bathrooms,
			city, latitude, longitude, transport_distance, created_at) VALUES
			('Surian Residences', 'Walk to MRT Surian', 'condominium', 'rent', 2500, 3, 2, 'Petaling Jaya', 3.1510, 101.5935, NULL, NOW() - INTERVAL '1 day'),
			('Far Away Villa', 'Quiet house', 'house', 'rent', 4000, 4, 3, 'Rawang', 3.3200, 101.5800, NULL, NOW() - INTERVAL '2 day'),
			('Mention Only Loft', 'Five minutes to the MRT', 'apartment', 'rent', 1800, 1, 1, 'Kota Damansara', NULL, NULL, '500m to MRT Surian', NOW()),
			('Pavilion Suites', 'Bukit Bintang living', 'service-residence', 'sale', 900000, 2, 2, 'Kuala Lumpur', 3.1490, 101.7130, NULL, NOW())`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func TestPostgresRepositoryIntegration(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()
	rent := "rent"

	t.Run("spatial candidates within radius", func(t *testing.T) {
		rows, err := repo.SpatialCandidates(ctx, SpatialQuery{
			TransportTypes: []string{"MRT"}, StationName: "Surian", ListingType: &rent, Radius: 1800, Limit: 50,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Surian Residences", rows[0].Title)
		require.NotNil(t, rows[0].Distance)
		assert.Less(t, *rows[0].Distance, 200.0)
		require.NotNil(t, rows[0].MatchedStation)
		assert.Equal(t, "Surian", *rows[0].MatchedStation)
	})

	t.Run("mention candidates include rows without coordinates", func(t *testing.T) {
		rows, err := repo.MentionCandidates(ctx, MentionQuery{Terms: []string{"MRT"}, ListingType: &rent, Limit: 50})
		require.NoError(t, err)
		titles := make([]string, 0, len(rows))
		for _, r := range rows {
			titles = append(titles, r.Title)
		}
		assert.ElementsMatch(t, []string{"Surian Residences", "Mention Only Loft"}, titles)
	})

	t.Run("stations and nearest distance", func(t *testing.T) {
		stations, err := repo.FindStations(ctx, StationQuery{TransportTypes: []string{"MRT"}, Name: "suri"})
		require.NoError(t, err)
		require.Len(t, stations, 1)

		d, err := repo.NearestStationDistance(ctx, 3.1510, 101.5935, []string{"MRT"})
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Less(t, *d, 200.0)

		none, err := repo.NearestStationDistance(ctx, 3.1510, 101.5935, []string{"BRT"})
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("keyword search", func(t *testing.T) {
		rows, err := repo.KeywordSearch(ctx, KeywordQuery{
			Term: "pavilion", PropertyTypes: []string{"service-residence", "condominium"}, Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "service-residence", rows[0].PropertyType)
	})

	t.Run("titles and lookup", func(t *testing.T) {
		titles, err := repo.ListTitles(ctx, "suri", 50)
		require.NoError(t, err)
		require.Len(t, titles, 1)

		missing, err := repo.GetPropertyByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}
