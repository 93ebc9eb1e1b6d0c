package service

import (
	"context"

	"propsearch/internal/model"
	"propsearch/internal/repository"
)

// PropertyStore is the read-only view of the listing store used by search
type PropertyStore interface {
	SpatialCandidates(ctx context.Context, q repository.SpatialQuery) ([]model.RankedProperty, error)
	MentionCandidates(ctx context.Context, q repository.MentionQuery) ([]model.Property, error)
	KeywordSearch(ctx context.Context, q repository.KeywordQuery) ([]model.Property, error)
	FindStations(ctx context.Context, q repository.StationQuery) ([]model.TransportStation, error)
	NearestStationDistance(ctx context.Context, lat, lng float64, types []string) (*float64, error)
	ListTitles(ctx context.Context, pattern string, limit int) ([]repository.TitleRow, error)
	GetPropertyByID(ctx context.Context, id int64) (*model.Property, error)
}

var _ PropertyStore = (*repository.PostgresRepository)(nil)
