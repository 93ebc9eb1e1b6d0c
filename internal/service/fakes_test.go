package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"propsearch/internal/config"
	"propsearch/internal/model"
	"propsearch/internal/repository"
)

var testParserConfig = config.ParserConfig{
	EscalationThreshold: 0.7,
	LocationThreshold:   0.65,
	TypeThreshold:       0.6,
	MaxLengthRatio:      1.5,
	ModelTimeout:        2,
}

var testSearchConfig = config.SearchConfig{
	DefaultLimit:     20,
	MaxLimit:         100,
	GeneralRadius:    1250,
	StationRadius:    1800,
	CandidateFactor:  5,
	BackfillWorkers:  4,
	DistanceTieRange: 50,
}

// fakeStore is an in-memory PropertyStore that records the queries it sees
type fakeStore struct {
	mu sync.Mutex

	spatial    []model.RankedProperty
	mentions   []model.Property
	keyword    []model.Property
	stations   []model.TransportStation
	nearest    *float64
	nearestErr error
	titles     []repository.TitleRow
	properties map[int64]*model.Property
	err        error

	spatialQueries []repository.SpatialQuery
	mentionQueries []repository.MentionQuery
	keywordQueries []repository.KeywordQuery
	stationQueries []repository.StationQuery
	nearestCalls   int
	titleQueries   []string
}

func (f *fakeStore) SpatialCandidates(_ context.Context, q repository.SpatialQuery) ([]model.RankedProperty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spatialQueries = append(f.spatialQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.RankedProperty(nil), f.spatial...), nil
}

func (f *fakeStore) MentionCandidates(_ context.Context, q repository.MentionQuery) ([]model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentionQueries = append(f.mentionQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Property(nil), f.mentions...), nil
}

func (f *fakeStore) KeywordSearch(_ context.Context, q repository.KeywordQuery) ([]model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywordQueries = append(f.keywordQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Property(nil), f.keyword...), nil
}

func (f *fakeStore) FindStations(_ context.Context, q repository.StationQuery) ([]model.TransportStation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stationQueries = append(f.stationQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.TransportStation(nil), f.stations...), nil
}

func (f *fakeStore) NearestStationDistance(_ context.Context, _, _ float64, _ []string) (*float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearestCalls++
	return f.nearest, f.nearestErr
}

func (f *fakeStore) ListTitles(_ context.Context, pattern string, _ int) ([]repository.TitleRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titleQueries = append(f.titleQueries, pattern)
	if f.err != nil {
		return nil, f.err
	}
	if pattern == "" {
		return f.titles, nil
	}
	out := make([]repository.TitleRow, 0, len(f.titles))
	for _, row := range f.titles {
		if strings.Contains(strings.ToLower(row.Title), strings.ToLower(pattern)) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPropertyByID(_ context.Context, id int64) (*model.Property, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.properties[id], nil
}

// fakeAI is a scripted AIClient
type fakeAI struct {
	mu       sync.Mutex
	enabled  bool
	response *AIQueryResponse
	err      error
	calls    int
	// hang until the caller's context ends
	hang     bool
}

func (f *fakeAI) ParseQueryWithAI(ctx context.Context, _ string) (*AIQueryResponse, error) {
	f.mu.Lock()
	f.calls++
	hang := f.hang
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.response
	return &resp, nil
}

func (f *fakeAI) IsEnabled() bool { return f.enabled }

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func listing(id int64, propertyType string, created time.Time) model.Property {
	return model.Property{
		ID:           id,
		Title:        "Listing " + propertyType,
		PropertyType: propertyType,
		ListingType:  model.ListingRent,
		CreatedAt:    created,
	}
}

func withCoords(p model.Property, lat, lng float64) model.Property {
	p.Latitude = &lat
	p.Longitude = &lng
	return p
}

func ranked(p model.Property, distance float64) model.RankedProperty {
	return model.RankedProperty{Property: p, Distance: floatPtr(distance), MatchedReasons: []string{}}
}
