package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"propsearch/internal/config"
	"propsearch/internal/model"
	"propsearch/internal/observability"
)

// ErrUnknownStrategy means the router produced a strategy with no handler
var ErrUnknownStrategy = errors.New("unknown search strategy")

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// searchPlan is everything a strategy handler needs to run a search
type searchPlan struct {
	Query     string
	Corrected string
	Filters   model.ParsedQuery
	Route     Route
	Radius    int
	Limit     int
}

// strategyOutcome is the unranked result of one strategy
type strategyOutcome struct {
	Items           []model.RankedProperty
	EmptyCause      string
	StationNotFound bool
	StationName     string
	Term            string
	Invalid         bool
}

type strategyHandler func(ctx context.Context, plan *searchPlan) (*strategyOutcome, error)

// SearchService handles search business logic
type SearchService struct {
	store     PropertyStore
	corrector *Corrector
	parser    *QueryParser
	geo       *GeoSearcher
	keyword   *KeywordSearcher
	ranker    *Ranker
	cfg       config.SearchConfig
	handlers  map[model.SearchStrategy]strategyHandler
}

// NewSearchService creates a new search service
func NewSearchService(
	store PropertyStore,
	corrector *Corrector,
	parser *QueryParser,
	ranker *Ranker,
	cfg config.SearchConfig,
) *SearchService {
	s := &SearchService{
		store:     store,
		corrector: corrector,
		parser:    parser,
		geo:       NewGeoSearcher(store, cfg.BackfillWorkers, cfg.CandidateFactor),
		keyword:   NewKeywordSearcher(store),
		ranker:    ranker,
		cfg:       cfg,
	}
	s.handlers = map[model.SearchStrategy]strategyHandler{
		model.StrategyGeneralTransport: s.runGeneralTransport,
		model.StrategySpecificStation:  s.runSpecificStation,
		model.StrategyKeyword:          s.runKeyword,
	}
	return s
}

// Search performs a complete search: correction, parsing, routing, execution
// and ranking
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return s.SearchStream(ctx, req, nil)
}

// SearchStream is Search with progress events delivered to callback after
// each stage; callback may be nil
func (s *SearchService) SearchStream(ctx context.Context, req *model.SearchRequest, callback SearchEventCallback) (*model.SearchResponse, error) {
	startTime := time.Now()
	searchID := uuid.NewString()
	emit := func(event string, data any) error {
		if callback == nil {
			return nil
		}
		return callback(event, data)
	}

	if err := emit("start", map[string]any{"search_id": searchID, "query": req.Query}); err != nil {
		return nil, err
	}

	corrected, corrections := s.corrector.Correct(req.Query)
	if err := emit("corrected", map[string]any{"corrected": corrected, "corrections": corrections}); err != nil {
		return nil, err
	}

	parsed := s.parser.Parse(ctx, corrected)
	observability.ObserveParse(string(parsed.Method), parsed.Cached)
	filters := mergeFilters(req.Filters, parsed.Query)
	filters.OriginalText = req.Query
	if err := emit("parsed", map[string]any{"parsed": filters, "method": parsed.Method, "cached": parsed.Cached}); err != nil {
		return nil, err
	}

	route := Classify(corrected, filters)
	if err := emit("routed", route.Info()); err != nil {
		return nil, err
	}

	var sortPref string
	limit := 0
	if req.Options != nil {
		sortPref = req.Options.Sort
		limit = req.Options.Limit
	}
	plan := &searchPlan{
		Query:     req.Query,
		Corrected: corrected,
		Filters:   filters,
		Route:     route,
		Radius:    s.radius(route.Strategy, req.Filters, filters),
		Limit:     s.normalizeLimit(limit),
	}

	handler, ok := s.handlers[route.Strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, route.Strategy)
	}
	outcome, err := handler(ctx, plan)
	if err != nil {
		observability.ObserveSearch(string(route.Strategy), "error")
		return nil, err
	}

	ranked := s.ranker.Rank(outcome.Items, route.Strategy, sortPref, filters)
	if len(ranked) > plan.Limit {
		ranked = ranked[:plan.Limit]
	}

	summary := buildSummary(plan, outcome, len(ranked))
	summary.Corrections = corrections

	resp := &model.SearchResponse{
		SearchID: searchID,
		Results:  ranked,
		Count:    len(ranked),
		Summary:  summary,
		Parsed:   &filters,
		Took:     time.Since(startTime).Milliseconds(),
	}

	observability.ObserveSearch(string(route.Strategy), searchOutcome(outcome, len(ranked)))
	log.Info().
		Str("search_id", searchID).
		Str("strategy", string(route.Strategy)).
		Str("parse_method", string(parsed.Method)).
		Int("count", resp.Count).
		Int64("took_ms", resp.Took).
		Msg("search completed")

	if err := emit("results", resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Analyze runs correction, parsing and routing without touching the store
func (s *SearchService) Analyze(ctx context.Context, query string) *model.ParseResponse {
	corrected, corrections := s.corrector.Correct(query)
	parsed := s.parser.Parse(ctx, corrected)
	observability.ObserveParse(string(parsed.Method), parsed.Cached)
	parsed.Query.OriginalText = query
	route := Classify(corrected, parsed.Query)

	return &model.ParseResponse{
		Query:       query,
		Corrected:   corrected,
		Corrections: corrections,
		Parsed:      parsed.Query,
		Method:      parsed.Method,
		Cached:      parsed.Cached,
		TokenCost:   parsed.TokenCost,
		Route:       route.Info(),
	}
}

// GetProperty retrieves a single property by ID; nil when absent
func (s *SearchService) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	return s.store.GetPropertyByID(ctx, id)
}

func (s *SearchService) runGeneralTransport(ctx context.Context, plan *searchPlan) (*strategyOutcome, error) {
	res, err := s.geo.Search(ctx, GeoSearchParams{
		Strategy:       model.StrategyGeneralTransport,
		TransportTypes: plan.Route.TransportTypes,
		Radius:         plan.Radius,
		Filters:        plan.Filters,
		Limit:          plan.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &strategyOutcome{Items: res.Items, EmptyCause: res.EmptyCause}, nil
}

func (s *SearchService) runSpecificStation(ctx context.Context, plan *searchPlan) (*strategyOutcome, error) {
	res, err := s.geo.Search(ctx, GeoSearchParams{
		Strategy:       model.StrategySpecificStation,
		TransportTypes: plan.Route.TransportTypes,
		StationName:    plan.Route.StationName,
		Radius:         plan.Radius,
		Filters:        plan.Filters,
		Limit:          plan.Limit,
	})
	if err != nil {
		return nil, err
	}
	name := plan.Route.StationName
	if len(res.Stations) == 1 {
		name = res.Stations[0].Name
	}
	return &strategyOutcome{
		Items:           res.Items,
		EmptyCause:      res.EmptyCause,
		StationNotFound: res.StationNotFound,
		StationName:     name,
	}, nil
}

func (s *SearchService) runKeyword(ctx context.Context, plan *searchPlan) (*strategyOutcome, error) {
	res, err := s.keyword.Search(ctx, plan.Corrected, plan.Filters, plan.Limit)
	if err != nil {
		return nil, err
	}
	if res.Invalid {
		return &strategyOutcome{Invalid: true, EmptyCause: model.CauseInvalidTerm}, nil
	}
	out := &strategyOutcome{Items: res.Items, Term: res.Term}
	if len(res.Items) == 0 {
		out.EmptyCause = model.CauseNoCandidates
	}
	return out, nil
}

// radius picks the proximity radius: caller override, then a distance named
// in the query, then the strategy default
func (s *SearchService) radius(strategy model.SearchStrategy, explicit *model.FilterOverrides, f model.ParsedQuery) int {
	if explicit != nil && explicit.MaxDistance != nil && *explicit.MaxDistance > 0 {
		return *explicit.MaxDistance
	}
	if f.Transport != nil && f.Transport.MaxDistance != nil && *f.Transport.MaxDistance > 0 {
		return *f.Transport.MaxDistance
	}
	if strategy == model.StrategySpecificStation {
		return s.cfg.StationRadius
	}
	return s.cfg.GeneralRadius
}

func (s *SearchService) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// mergeFilters lets caller-supplied values override parsed ones
func mergeFilters(explicit *model.FilterOverrides, parsed model.ParsedQuery) model.ParsedQuery {
	merged := parsed
	if explicit == nil {
		return merged
	}
	if explicit.ListingType != nil && *explicit.ListingType != "" {
		merged.ListingType = explicit.ListingType
	}
	if explicit.PropertyType != nil && *explicit.PropertyType != "" {
		merged.PropertyType = explicit.PropertyType
	}
	if explicit.MinPrice != nil {
		merged.MinPrice = explicit.MinPrice
	}
	if explicit.MaxPrice != nil {
		merged.MaxPrice = explicit.MaxPrice
	}
	if explicit.Bedrooms != nil {
		merged.Bedrooms = explicit.Bedrooms
		merged.BedroomMode = model.MatchExact
		if explicit.BedroomMode == model.MatchMinimum {
			merged.BedroomMode = model.MatchMinimum
		}
	}
	if explicit.Bathrooms != nil {
		merged.Bathrooms = explicit.Bathrooms
		merged.BathroomMode = model.MatchExact
		if explicit.BathroomMode == model.MatchMinimum {
			merged.BathroomMode = model.MatchMinimum
		}
	}
	if explicit.MaxDistance != nil && merged.Transport != nil {
		t := *merged.Transport
		t.MaxDistance = explicit.MaxDistance
		merged.Transport = &t
	}
	return merged
}

func buildSummary(plan *searchPlan, out *strategyOutcome, count int) model.SearchSummary {
	summary := model.SearchSummary{
		SearchType: plan.Route.Strategy,
		EmptyCause: "",
	}
	if count == 0 {
		summary.EmptyCause = out.EmptyCause
	}

	switch plan.Route.Strategy {
	case model.StrategyGeneralTransport:
		radius := plan.Radius
		summary.ProximityRadius = &radius
		summary.TransportTypes = plan.Route.TransportTypes
		types := joinTypes(plan.Route.TransportTypes)
		if count > 0 {
			summary.Message = fmt.Sprintf("Found %d properties within %dm of %s", count, radius, types)
		} else {
			summary.Message = fmt.Sprintf("No properties found within %dm of %s", radius, types)
		}

	case model.StrategySpecificStation:
		radius := plan.Radius
		name := out.StationName
		summary.ProximityRadius = &radius
		summary.TransportTypes = plan.Route.TransportTypes
		summary.StationName = &name
		types := joinTypes(plan.Route.TransportTypes)
		switch {
		case out.StationNotFound:
			summary.Message = fmt.Sprintf("No %s station named %q was found", types, name)
		case count > 0:
			summary.Message = fmt.Sprintf("Found %d properties within %dm of %s %s", count, radius, types, name)
		default:
			summary.Message = fmt.Sprintf("Station %s exists but no nearby listings matched", name)
		}

	default:
		switch {
		case out.Invalid:
			summary.Message = fmt.Sprintf("Invalid search term: %q", plan.Query)
		case count > 0:
			summary.Message = fmt.Sprintf("Found %d properties matching %q", count, displayTerm(out.Term, plan.Query))
		default:
			summary.Message = fmt.Sprintf("No properties matched %q", displayTerm(out.Term, plan.Query))
		}
	}

	if count == 0 && isFilterCause(out.EmptyCause) {
		summary.Message += fmt.Sprintf("; no listings passed the %s filter", strings.ReplaceAll(out.EmptyCause, "_", " "))
	}
	return summary
}

func displayTerm(term, query string) string {
	if term != "" {
		return term
	}
	return query
}

func isFilterCause(cause string) bool {
	switch cause {
	case model.CausePropertyType, model.CausePrice, model.CauseBedrooms, model.CauseBathrooms, model.CauseROI:
		return true
	}
	return false
}

func searchOutcome(out *strategyOutcome, count int) string {
	switch {
	case out.Invalid:
		return "invalid"
	case out.StationNotFound:
		return "station_not_found"
	case count == 0:
		return "empty"
	default:
		return "ok"
	}
}
