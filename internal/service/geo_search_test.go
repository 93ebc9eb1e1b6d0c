package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/model"
)

func TestCandidateSet_SpatialPrecedence(t *testing.T) {
	set := newCandidateSet(4)
	a := listing(1, "condominium", testNow)
	b := listing(2, "office", testNow)

	set.addMention(a, "Mentions MRT")
	set.addSpatial(ranked(a, 400))
	set.addSpatial(ranked(b, 300))
	set.addSpatial(ranked(b, 200))
	set.addSpatial(ranked(b, 500))
	set.addMention(b, "Mentions MRT")

	require.Equal(t, 2, set.len())
	items := set.list()
	assert.Equal(t, int64(1), items[0].ID, "first insertion fixes the position")
	assert.Equal(t, 400.0, *items[0].Distance)
	assert.True(t, set.isSpatial(1))
	assert.Equal(t, 200.0, *items[1].Distance, "closest spatial row wins")
	assert.Equal(t, []string{}, items[1].MatchedReasons)
}

func TestGeoSearcher_GeneralMergesAndBackfills(t *testing.T) {
	far := 900.0
	shared := withCoords(listing(1, "condominium", testNow), 3.15, 101.59)
	mentionOnly := withCoords(listing(2, "apartment", testNow), 3.16, 101.60)
	noCoords := listing(3, "studio", testNow)

	store := &fakeStore{
		spatial:  []model.RankedProperty{ranked(shared, 300)},
		mentions: []model.Property{shared, mentionOnly, noCoords},
		nearest:  &far,
	}
	g := NewGeoSearcher(store, 4, 5)

	res, err := g.Search(context.Background(), GeoSearchParams{
		Strategy:       model.StrategyGeneralTransport,
		TransportTypes: []string{"MRT"},
		Radius:         1250,
		Limit:          10,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	byID := map[int64]model.RankedProperty{}
	for _, it := range res.Items {
		byID[it.ID] = it
	}
	assert.Equal(t, 300.0, *byID[1].Distance)
	assert.NotContains(t, byID[1].MatchedReasons, "Mentions MRT")
	assert.Equal(t, 900.0, *byID[2].Distance)
	assert.Contains(t, byID[2].MatchedReasons, "Mentions MRT")
	assert.Equal(t, FarDistance, *byID[3].Distance)
	assert.Equal(t, 1, store.nearestCalls)

	require.Len(t, store.spatialQueries, 1)
	assert.Equal(t, 1250.0, store.spatialQueries[0].Radius)
	assert.Equal(t, 100, store.spatialQueries[0].Limit)
	assert.Equal(t, []string{"MRT"}, store.mentionQueries[0].Terms)
	assert.Empty(t, store.stationQueries, "general mode never resolves stations")
}

func TestGeoSearcher_BackfillErrorsSortLast(t *testing.T) {
	store := &fakeStore{
		mentions:   []model.Property{withCoords(listing(1, "condominium", testNow), 3.15, 101.59)},
		nearestErr: errors.New("connection reset"),
	}
	g := NewGeoSearcher(store, 2, 5)

	res, err := g.Search(context.Background(), GeoSearchParams{
		Strategy:       model.StrategyGeneralTransport,
		TransportTypes: []string{"LRT"},
		Radius:         1250,
		Limit:          10,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, FarDistance, *res.Items[0].Distance)
}

func TestGeoSearcher_MemoizesSameCell(t *testing.T) {
	far := 700.0
	store := &fakeStore{
		mentions: []model.Property{
			withCoords(listing(1, "condominium", testNow), 3.150001, 101.590001),
			withCoords(listing(2, "condominium", testNow), 3.150001, 101.590001),
		},
		nearest: &far,
	}
	g := NewGeoSearcher(store, 4, 5)

	res, err := g.Search(context.Background(), GeoSearchParams{
		Strategy:       model.StrategyGeneralTransport,
		TransportTypes: []string{"MRT"},
		Radius:         1250,
		Limit:          10,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 1, store.nearestCalls)
}

func TestGeoSearcher_StationNotFound(t *testing.T) {
	store := &fakeStore{}
	g := NewGeoSearcher(store, 2, 5)

	res, err := g.Search(context.Background(), GeoSearchParams{
		Strategy:       model.StrategySpecificStation,
		TransportTypes: []string{"MRT"},
		StationName:    "Surian",
		Radius:         1800,
		Limit:          10,
	})
	require.NoError(t, err)
	assert.True(t, res.StationNotFound)
	assert.Equal(t, model.CauseStationNotFound, res.EmptyCause)
	assert.Empty(t, res.Items)
	assert.Empty(t, store.spatialQueries, "no proximity query without a station")
	require.Len(t, store.stationQueries, 1)
	assert.Equal(t, "Surian", store.stationQueries[0].Name)
}

func TestGeoSearcher_StationModeMeasuresToStation(t *testing.T) {
	store := &fakeStore{
		stations: []model.TransportStation{{ID: 1, Name: "Surian", TransportType: "MRT", Latitude: 3.1505, Longitude: 101.5930}},
		mentions: []model.Property{withCoords(listing(7, "condominium", testNow), 3.1505, 101.5930)},
	}
	g := NewGeoSearcher(store, 2, 5)

	res, err := g.Search(context.Background(), GeoSearchParams{
		Strategy:       model.StrategySpecificStation,
		TransportTypes: []string{"MRT"},
		StationName:    "Surian",
		Radius:         1800,
		Limit:          10,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.InDelta(t, 0, *res.Items[0].Distance, 0.01)
	require.NotNil(t, res.Items[0].MatchedStation)
	assert.Equal(t, "Surian", *res.Items[0].MatchedStation)
	assert.Contains(t, res.Items[0].MatchedReasons, "Mentions Surian")
	assert.Equal(t, 0, store.nearestCalls)

	assert.Equal(t, "Surian", store.spatialQueries[0].StationName)
	assert.Equal(t, []string{"Surian"}, store.mentionQueries[0].Terms)
}

func TestGeoSearcher_EmptyCauses(t *testing.T) {
	price := 5000.0
	p := listing(1, "condominium", testNow)
	p.Price = &price

	t.Run("no candidates", func(t *testing.T) {
		g := NewGeoSearcher(&fakeStore{}, 2, 5)
		res, err := g.Search(context.Background(), GeoSearchParams{
			Strategy: model.StrategyGeneralTransport, TransportTypes: []string{"MRT"}, Radius: 1250, Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, model.CauseNoCandidates, res.EmptyCause)
	})

	t.Run("price filter", func(t *testing.T) {
		g := NewGeoSearcher(&fakeStore{spatial: []model.RankedProperty{ranked(p, 200)}}, 2, 5)
		res, err := g.Search(context.Background(), GeoSearchParams{
			Strategy:       model.StrategyGeneralTransport,
			TransportTypes: []string{"MRT"},
			Radius:         1250,
			Limit:          10,
			Filters:        model.ParsedQuery{MaxPrice: floatPtr(3000)},
		})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, model.CausePrice, res.EmptyCause)
	})

	t.Run("store error", func(t *testing.T) {
		g := NewGeoSearcher(&fakeStore{err: errors.New("db down")}, 2, 5)
		_, err := g.Search(context.Background(), GeoSearchParams{
			Strategy: model.StrategyGeneralTransport, TransportTypes: []string{"MRT"}, Radius: 1250, Limit: 10,
		})
		assert.Error(t, err)
	})
}

func TestApplyPostFilters(t *testing.T) {
	price := 2500.0
	beds := 3
	baths := 2
	roi := 5.5
	condo := ranked(listing(1, "condominium", testNow), 100)
	condo.Price, condo.Bedrooms, condo.Bathrooms, condo.ROI = &price, &beds, &baths, &roi
	serviced := ranked(listing(2, "service-residence", testNow), 150)
	serviced.Price, serviced.Bedrooms = &price, &beds
	office := ranked(listing(3, "office", testNow), 120)

	items := []*model.RankedProperty{&condo, &serviced, &office}

	t.Run("type synonyms", func(t *testing.T) {
		out, cause := applyPostFilters(items, model.ParsedQuery{PropertyType: strPtr("condominium")})
		assert.Len(t, out, 2)
		assert.Empty(t, cause)
	})

	t.Run("minimum bedrooms", func(t *testing.T) {
		out, _ := applyPostFilters(items, model.ParsedQuery{Bedrooms: intPtr(2), BedroomMode: model.MatchMinimum})
		assert.Len(t, out, 2)
	})

	t.Run("minimum bathrooms", func(t *testing.T) {
		out, _ := applyPostFilters(items, model.ParsedQuery{Bathrooms: intPtr(1), BathroomMode: model.MatchMinimum})
		require.Len(t, out, 1)
		assert.Equal(t, int64(1), out[0].ID)

		out, cause := applyPostFilters(items, model.ParsedQuery{Bathrooms: intPtr(1)})
		assert.Empty(t, out)
		assert.Equal(t, model.CauseBathrooms, cause)
	})

	t.Run("filters apply in order", func(t *testing.T) {
		out, cause := applyPostFilters(items, model.ParsedQuery{
			PropertyType: strPtr("condominium"),
			Bathrooms:    intPtr(4),
			MinROI:       floatPtr(10),
		})
		assert.Empty(t, out)
		assert.Equal(t, model.CauseBathrooms, cause)
	})

	t.Run("roi", func(t *testing.T) {
		out, cause := applyPostFilters(items, model.ParsedQuery{MinROI: floatPtr(5)})
		require.Len(t, out, 1)
		assert.Equal(t, int64(1), out[0].ID)
		assert.Empty(t, cause)
	})

	t.Run("empty input has no cause", func(t *testing.T) {
		out, cause := applyPostFilters(nil, model.ParsedQuery{MaxPrice: floatPtr(1)})
		assert.Empty(t, out)
		assert.Empty(t, cause)
	})
}
