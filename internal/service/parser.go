package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"propsearch/internal/cache"
	"propsearch/internal/config"
	"propsearch/internal/model"
	"propsearch/internal/utils"
)

const (
	parseCachePrefix = "parse:"
	modelConfidence  = 0.9
)

// ParseResult is a parsed query plus how it was obtained
type ParseResult struct {
	Query     model.ParsedQuery
	Method    model.ParseMethod
	Cached    bool
	TokenCost int
}

// QueryParser turns free text into filters: cache, heuristics, then the
// language model when heuristic confidence is low
type QueryParser struct {
	cache        cache.Store
	ai           AIClient
	ttl          time.Duration
	threshold    float64
	modelTimeout time.Duration
	now          func() time.Time
}

// NewQueryParser creates a parser. store and ai may be nil.
func NewQueryParser(store cache.Store, ai AIClient, cfg config.ParserConfig, ttl time.Duration) *QueryParser {
	return &QueryParser{
		cache:        store,
		ai:           ai,
		ttl:          ttl,
		threshold:    cfg.EscalationThreshold,
		modelTimeout: time.Duration(cfg.ModelTimeout) * time.Second,
		now:          time.Now,
	}
}

// Parse never fails: cache and model errors degrade to the heuristic result
func (p *QueryParser) Parse(ctx context.Context, query string) ParseResult {
	normalized := normalizeQuery(query)
	key := parseCachePrefix + normalized

	if p.cache != nil {
		var entry model.CachedQueryEntry
		hit, err := p.cache.Get(ctx, key, &entry)
		if err != nil {
			log.Warn().Err(err).Str("query", normalized).Msg("parse cache read failed")
		} else if hit {
			entry.Query.OriginalText = query
			return ParseResult{Query: entry.Query, Method: entry.Method, Cached: true, TokenCost: entry.TokenCost}
		}
	}

	parsed := ParseHeuristic(normalized)
	parsed.OriginalText = query
	result := ParseResult{Query: parsed, Method: model.MethodHeuristic}

	if parsed.Confidence < p.threshold && p.ai != nil && p.ai.IsEnabled() {
		mctx, cancel := context.WithTimeout(ctx, p.modelTimeout)
		resp, err := p.ai.ParseQueryWithAI(mctx, normalized)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("query", normalized).Float64("confidence", parsed.Confidence).
				Msg("model parse failed; using heuristic result")
		} else {
			result = ParseResult{
				Query:     mergeModelParse(parsed, resp),
				Method:    model.MethodModel,
				TokenCost: resp.TokensUsed,
			}
		}
	}

	if p.cache != nil {
		entry := model.CachedQueryEntry{
			Query:     result.Query,
			Method:    result.Method,
			TokenCost: result.TokenCost,
			CachedAt:  p.now().UTC(),
		}
		if err := p.cache.Set(ctx, key, entry, p.ttl); err != nil {
			log.Warn().Err(err).Str("query", normalized).Msg("parse cache write failed")
		}
	}
	return result
}

// mergeModelParse prefers model fields and keeps heuristic values for
// anything the model left out
func mergeModelParse(h model.ParsedQuery, m *AIQueryResponse) model.ParsedQuery {
	out := h
	if m.Bedrooms != nil {
		out.Bedrooms = m.Bedrooms
		out.BedroomMode = model.MatchExact
		if m.BedroomMode == string(model.MatchMinimum) {
			out.BedroomMode = model.MatchMinimum
		}
	}
	if m.Bathrooms != nil {
		out.Bathrooms = m.Bathrooms
		out.BathroomMode = model.MatchExact
		if m.BathroomMode == string(model.MatchMinimum) {
			out.BathroomMode = model.MatchMinimum
		}
	}
	if m.PropertyType != nil {
		out.PropertyType = m.PropertyType
	}
	if m.ListingType != nil {
		out.ListingType = m.ListingType
	}
	if m.MinPrice != nil {
		out.MinPrice = m.MinPrice
	}
	if m.MaxPrice != nil {
		out.MaxPrice = m.MaxPrice
	}
	if m.MinROI != nil {
		out.MinROI = m.MinROI
	}
	if m.MaxROI != nil {
		out.MaxROI = m.MaxROI
	}
	if m.City != nil && *m.City != "" {
		out.City = strPtr(utils.CanonicalLocation(*m.City))
	}

	if len(m.TransportTypes) > 0 || len(m.StationNames) > 0 || m.MaxDistance != nil {
		t := &model.TransportFilter{}
		if h.Transport != nil {
			*t = *h.Transport
		}
		if len(m.TransportTypes) > 0 {
			t.Types = m.TransportTypes
		}
		if len(t.Types) == 0 {
			t.Types = append([]string(nil), model.AllTransportTypes...)
		}
		if len(m.StationNames) > 0 {
			names := make([]string, 0, len(m.StationNames))
			for _, n := range m.StationNames {
				names = append(names, utils.CanonicalStation(n))
			}
			t.StationNames = names
		}
		if m.MaxDistance != nil {
			t.MaxDistance = m.MaxDistance
		}
		out.Transport = t
	}

	out.Confidence = max(h.Confidence, modelConfidence)
	return out
}
