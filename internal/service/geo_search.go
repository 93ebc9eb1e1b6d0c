package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/mmcloughlin/geohash"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"propsearch/internal/model"
	"propsearch/internal/repository"
	"propsearch/internal/utils"
)

// FarDistance is assigned to candidates whose station distance is unknown
// so they sort last
const FarDistance = 1e9

// memoPrecision gives geohash cells of about 5 meters
const memoPrecision = 9

const minCandidateRows = 100

// GeoSearchParams describes one proximity search
type GeoSearchParams struct {
	Strategy       model.SearchStrategy
	TransportTypes []string
	StationName    string
	Radius         int // meters
	Filters        model.ParsedQuery
	Limit          int
}

// GeoSearchResult holds the unranked, filtered candidates
type GeoSearchResult struct {
	Items           []model.RankedProperty
	Stations        []model.TransportStation
	StationNotFound bool
	EmptyCause      string
}

// GeoSearcher runs the spatial and mention sub-queries and merges them
type GeoSearcher struct {
	store           PropertyStore
	workers         int
	candidateFactor int
}

// NewGeoSearcher creates a proximity search executor
func NewGeoSearcher(store PropertyStore, workers, candidateFactor int) *GeoSearcher {
	if workers <= 0 {
		workers = 1
	}
	if candidateFactor <= 0 {
		candidateFactor = 1
	}
	return &GeoSearcher{store: store, workers: workers, candidateFactor: candidateFactor}
}

// Search returns candidates near the matching stations, or mentioning them
func (g *GeoSearcher) Search(ctx context.Context, p GeoSearchParams) (*GeoSearchResult, error) {
	result := &GeoSearchResult{}
	specific := p.Strategy == model.StrategySpecificStation

	if specific {
		stations, err := g.store.FindStations(ctx, repository.StationQuery{
			TransportTypes: p.TransportTypes,
			Name:           p.StationName,
		})
		if err != nil {
			return nil, err
		}
		if len(stations) == 0 {
			result.StationNotFound = true
			result.EmptyCause = model.CauseStationNotFound
			return result, nil
		}
		result.Stations = stations
	}

	rows := max(p.Limit*g.candidateFactor, minCandidateRows)
	spatialQ := repository.SpatialQuery{
		TransportTypes: p.TransportTypes,
		ListingType:    p.Filters.ListingType,
		Radius:         float64(p.Radius),
		Limit:          rows,
	}
	mentionQ := repository.MentionQuery{
		Terms:       p.TransportTypes,
		ListingType: p.Filters.ListingType,
		Limit:       rows,
	}
	mentionReason := "Mentions " + joinTypes(p.TransportTypes)
	if specific {
		spatialQ.StationName = p.StationName
		mentionQ.Terms = []string{p.StationName}
		mentionReason = "Mentions " + p.StationName
	}

	var spatial []model.RankedProperty
	var mentions []model.Property
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		spatial, err = g.store.SpatialCandidates(egCtx, spatialQ)
		return err
	})
	eg.Go(func() error {
		var err error
		mentions, err = g.store.MentionCandidates(egCtx, mentionQ)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("proximity search: %w", err)
	}

	set := newCandidateSet(len(spatial) + len(mentions))
	for _, sp := range spatial {
		set.addSpatial(sp)
	}
	for _, m := range mentions {
		set.addMention(m, mentionReason)
	}

	candidates := set.list()
	if err := g.backfill(ctx, set, candidates, p.TransportTypes, result.Stations); err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		result.EmptyCause = model.CauseNoCandidates
		return result, nil
	}

	filtered, cause := applyPostFilters(candidates, p.Filters)
	result.EmptyCause = cause
	result.Items = make([]model.RankedProperty, 0, len(filtered))
	for _, c := range filtered {
		result.Items = append(result.Items, *c)
	}
	return result, nil
}

// backfill fills the distance of mention-only candidates. Lookups are
// memoized per geohash cell for the duration of the request.
func (g *GeoSearcher) backfill(ctx context.Context, set *candidateSet, candidates []*model.RankedProperty,
	types []string, stations []model.TransportStation) error {
	pending := make([]*model.RankedProperty, 0)
	for _, c := range candidates {
		if set.isSpatial(c.ID) {
			continue
		}
		if !c.HasCoordinates() {
			c.Distance = floatPtr(FarDistance)
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return nil
	}

	pool, err := ants.NewPool(min(g.workers, len(pending)))
	if err != nil {
		return fmt.Errorf("start backfill pool: %w", err)
	}
	defer pool.Release()

	memo := newDistanceMemo()
	var wg sync.WaitGroup
	for _, c := range pending {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			d, name := memo.lookup(*c.Latitude, *c.Longitude, func() (float64, string) {
				return g.stationDistance(ctx, *c.Latitude, *c.Longitude, types, stations)
			})
			c.Distance = floatPtr(d)
			if name != "" {
				c.MatchedStation = strPtr(name)
			}
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			c.Distance = floatPtr(FarDistance)
		}
	}
	wg.Wait()
	return nil
}

// stationDistance measures to the named stations in station mode and asks
// the store for the nearest station of the given types otherwise
func (g *GeoSearcher) stationDistance(ctx context.Context, lat, lng float64, types []string,
	stations []model.TransportStation) (float64, string) {
	if len(stations) > 0 {
		best, name := math.Inf(1), ""
		for _, s := range stations {
			if d := utils.HaversineMeters(lat, lng, s.Latitude, s.Longitude); d < best {
				best, name = d, s.Name
			}
		}
		return best, name
	}

	d, err := g.store.NearestStationDistance(ctx, lat, lng, types)
	if err != nil {
		log.Debug().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("station distance backfill failed")
		return FarDistance, ""
	}
	if d == nil {
		return FarDistance, ""
	}
	return *d, ""
}

type memoEntry struct {
	distance float64
	station  string
}

type distanceMemo struct {
	group  singleflight.Group
	values sync.Map
}

func newDistanceMemo() *distanceMemo {
	return &distanceMemo{}
}

func (m *distanceMemo) lookup(lat, lng float64, compute func() (float64, string)) (float64, string) {
	key := geohash.EncodeWithPrecision(lat, lng, memoPrecision)
	if v, ok := m.values.Load(key); ok {
		e := v.(memoEntry)
		return e.distance, e.station
	}
	v, _, _ := m.group.Do(key, func() (interface{}, error) {
		if v, ok := m.values.Load(key); ok {
			return v, nil
		}
		d, name := compute()
		e := memoEntry{distance: d, station: name}
		m.values.Store(key, e)
		return e, nil
	})
	e := v.(memoEntry)
	return e.distance, e.station
}

// applyPostFilters narrows candidates in a fixed order and reports the
// filter that emptied a non-empty set
func applyPostFilters(items []*model.RankedProperty, f model.ParsedQuery) ([]*model.RankedProperty, string) {
	type step struct {
		cause  string
		active bool
		keep   func(*model.RankedProperty) bool
	}

	var accepted map[string]bool
	if f.PropertyType != nil {
		accepted = make(map[string]bool)
		for _, t := range utils.ExpandPropertyType(*f.PropertyType) {
			accepted[t] = true
		}
	}

	steps := []step{
		{model.CausePropertyType, f.PropertyType != nil, func(p *model.RankedProperty) bool {
			return accepted[p.PropertyType]
		}},
		{model.CausePrice, f.MinPrice != nil || f.MaxPrice != nil, func(p *model.RankedProperty) bool {
			return priceWithin(p.Price, f.MinPrice, f.MaxPrice)
		}},
		{model.CauseBedrooms, f.Bedrooms != nil, func(p *model.RankedProperty) bool {
			return countMatches(p.Bedrooms, *f.Bedrooms, f.BedroomMode)
		}},
		{model.CauseBathrooms, f.Bathrooms != nil, func(p *model.RankedProperty) bool {
			return countMatches(p.Bathrooms, *f.Bathrooms, f.BathroomMode)
		}},
		{model.CauseROI, f.MinROI != nil || f.MaxROI != nil, func(p *model.RankedProperty) bool {
			return priceWithin(p.ROI, f.MinROI, f.MaxROI)
		}},
	}

	for _, s := range steps {
		if !s.active {
			continue
		}
		kept := make([]*model.RankedProperty, 0, len(items))
		for _, p := range items {
			if s.keep(p) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 && len(items) > 0 {
			return kept, s.cause
		}
		items = kept
	}
	return items, ""
}

func priceWithin(v, lo, hi *float64) bool {
	if v == nil {
		return false
	}
	if lo != nil && *v < *lo {
		return false
	}
	if hi != nil && *v > *hi {
		return false
	}
	return true
}

func countMatches(v *int, want int, mode model.MatchMode) bool {
	if v == nil {
		return false
	}
	if mode == model.MatchMinimum {
		return *v >= want
	}
	return *v == want
}

func joinTypes(types []string) string {
	if len(types) == 0 {
		return "transit"
	}
	return strings.Join(types, "/")
}
