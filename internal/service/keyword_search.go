package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"propsearch/internal/model"
	"propsearch/internal/repository"
	"propsearch/internal/utils"
)

// KeywordResult is the outcome of a plain text search
type KeywordResult struct {
	Items   []model.RankedProperty
	Term    string
	Invalid bool
}

// KeywordSearcher runs building and location searches without a spatial join
type KeywordSearcher struct {
	store PropertyStore
}

// NewKeywordSearcher creates a keyword search executor
func NewKeywordSearcher(store PropertyStore) *KeywordSearcher {
	return &KeywordSearcher{store: store}
}

var keywordNoise = func() map[string]bool {
	set := make(map[string]bool)
	for _, list := range [][]string{utils.StopWords, utils.FillerWords, utils.PriceWords,
		utils.ListingWords, utils.RoomWords, utils.PropertyTypeTerms, utils.ProximityPhrases} {
		for _, w := range list {
			for _, part := range strings.Fields(w) {
				set[part] = true
			}
		}
	}
	for kw := range utils.TransportKeywords {
		set[kw] = true
	}
	for w := range utils.NumberWords {
		set[w] = true
	}
	return set
}()

// cityStripPatterns matches each vocabulary locality case-insensitively,
// keyed by the lower-case name
var cityStripPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(utils.Locations))
	for _, l := range utils.Locations {
		out[strings.ToLower(l)] = cityStripPattern(l)
	}
	return out
}()

func cityStripPattern(city string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(city) + `\b`)
}

// KeywordTerm strips filter vocabulary, numbers and the extracted city from
// text, leaving the building or place name to match against titles
func KeywordTerm(text string, parsed model.ParsedQuery) string {
	if parsed.City != nil && *parsed.City != "" {
		cityRe, ok := cityStripPatterns[strings.ToLower(*parsed.City)]
		if !ok {
			cityRe = cityStripPattern(*parsed.City)
		}
		text = cityRe.ReplaceAllString(text, " ")
	}
	kept := make([]string, 0)
	for _, raw := range strings.Fields(text) {
		t := splitToken(raw)
		if t.core == "" || hasDigit(t.core) {
			continue
		}
		lower := strings.ToLower(t.core)
		if keywordNoise[lower] {
			continue
		}
		if inflectedNoise(lower) {
			continue
		}
		kept = append(kept, t.core)
	}
	return strings.Join(kept, " ")
}

// inflectedNoise catches plurals of vocabulary words such as "condos"
func inflectedNoise(w string) bool {
	for _, suffix := range []string{"es", "s"} {
		if base, ok := strings.CutSuffix(w, suffix); ok && keywordNoise[base] {
			return true
		}
	}
	return false
}

// Search validates the query and runs the conjunctive keyword filter
func (k *KeywordSearcher) Search(ctx context.Context, text string, f model.ParsedQuery, limit int) (*KeywordResult, error) {
	if !IsPlausible(text) {
		return &KeywordResult{Invalid: true}, nil
	}

	term := KeywordTerm(text, f)
	q := repository.KeywordQuery{
		Term:         term,
		ListingType:  f.ListingType,
		MinPrice:     f.MinPrice,
		MaxPrice:     f.MaxPrice,
		City:         f.City,
		Bedrooms:     f.Bedrooms,
		BedroomMode:  f.BedroomMode,
		Bathrooms:    f.Bathrooms,
		BathroomMode: f.BathroomMode,
		MinROI:       f.MinROI,
		MaxROI:       f.MaxROI,
		Limit:        limit,
	}
	if f.PropertyType != nil {
		q.PropertyTypes = utils.ExpandPropertyType(*f.PropertyType)
	}
	if term == "" && !hasStructuredFilter(q) {
		return &KeywordResult{Invalid: true}, nil
	}

	rows, err := k.store.KeywordSearch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	items := make([]model.RankedProperty, 0, len(rows))
	for _, p := range rows {
		items = append(items, model.RankedProperty{Property: p, MatchedReasons: []string{}})
	}
	return &KeywordResult{Items: items, Term: term}, nil
}

func hasStructuredFilter(q repository.KeywordQuery) bool {
	return q.ListingType != nil || q.MinPrice != nil || q.MaxPrice != nil || q.City != nil ||
		q.Bedrooms != nil || q.Bathrooms != nil || q.MinROI != nil || q.MaxROI != nil ||
		len(q.PropertyTypes) > 0
}
