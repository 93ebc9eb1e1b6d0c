package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"propsearch/internal/model"
)

// Match reason constants
const (
	ReasonFeatured       = "Featured listing"
	ReasonBedroomsMatch  = "Bedrooms match"
	ReasonBathroomsMatch = "Bathrooms match"
	ReasonTypeMatch      = "Property type match"
	ReasonLocationMatch  = "Location match"
	ReasonPriceMatch     = "Price within budget"
	ReasonROIMatch       = "ROI target met"
	ReasonNewlyListed    = "Newly listed"
	ReasonGeneralMatch   = "General match"
)

const (
	newlyListedWindow     = 7 * 24 * time.Hour
	defaultDistanceTieGap = 50.0
)

type rankMode int

const (
	rankByDistance rankMode = iota
	rankByTypeThenRecency
	rankByRecencyThenType
)

var typePriority = map[string]int{
	"condominium": 1, "apartment": 1, "service-residence": 1, "house": 1, "townhouse": 1,
	"studio": 1, "penthouse": 1, "flat": 1, "duplex": 1, "residential": 1,
	"office": 2, "shop-office": 2, "retail-space": 2, "commercial": 2,
	"industrial": 3, "warehouse": 3, "factory": 3,
	"land": 4,
}

// TypePriority orders property categories: residential, commercial,
// industrial, land, then anything else
func TypePriority(propertyType string) int {
	if p, ok := typePriority[strings.ToLower(propertyType)]; ok {
		return p
	}
	return 5
}

// Ranker orders search results
type Ranker struct {
	tieRange float64
	now      func() time.Time
}

// NewRanker creates a ranker treating distances within tieRange meters as equal
func NewRanker(tieRange float64) *Ranker {
	if tieRange <= 0 {
		tieRange = defaultDistanceTieGap
	}
	return &Ranker{tieRange: tieRange, now: time.Now}
}

func modeFor(strategy model.SearchStrategy, sortPref string) rankMode {
	switch sortPref {
	case model.SortDistance:
		return rankByDistance
	case model.SortRecency:
		return rankByRecencyThenType
	}
	switch strategy {
	case model.StrategySpecificStation:
		return rankByDistance
	case model.StrategyGeneralTransport:
		return rankByTypeThenRecency
	default:
		return rankByRecencyThenType
	}
}

// Rank orders items for strategy and fills their matched reasons. Currently
// featured properties always come first.
func (r *Ranker) Rank(items []model.RankedProperty, strategy model.SearchStrategy, sortPref string,
	filters model.ParsedQuery) []model.RankedProperty {
	now := r.now()
	featured := make([]model.RankedProperty, 0)
	regular := make([]model.RankedProperty, 0, len(items))
	for _, it := range items {
		it.MatchedReasons = r.matchedReasons(it, filters, now)
		if it.IsCurrentlyFeatured(now) {
			featured = append(featured, it)
		} else {
			regular = append(regular, it)
		}
	}

	mode := modeFor(strategy, sortPref)
	r.order(featured, mode)
	r.order(regular, mode)
	return append(featured, regular...)
}

func (r *Ranker) order(items []model.RankedProperty, mode rankMode) {
	switch mode {
	case rankByDistance:
		r.orderByDistance(items)
	case rankByTypeThenRecency:
		sort.SliceStable(items, func(i, j int) bool { return typeThenRecency(items[i], items[j]) })
	default:
		sort.SliceStable(items, func(i, j int) bool { return recencyThenType(items[i], items[j]) })
	}
}

// orderByDistance sorts ascending by distance, then groups items lying within
// tieRange of the first item of their group and orders each group by type
// priority and recency
func (r *Ranker) orderByDistance(items []model.RankedProperty) {
	sort.SliceStable(items, func(i, j int) bool { return distanceOf(items[i]) < distanceOf(items[j]) })
	for start := 0; start < len(items); {
		end := start + 1
		base := distanceOf(items[start])
		for end < len(items) && distanceOf(items[end])-base <= r.tieRange {
			end++
		}
		group := items[start:end]
		sort.SliceStable(group, func(i, j int) bool { return typeThenRecency(group[i], group[j]) })
		start = end
	}
}

func distanceOf(p model.RankedProperty) float64 {
	if p.Distance == nil {
		return FarDistance
	}
	return *p.Distance
}

func typeThenRecency(a, b model.RankedProperty) bool {
	pa, pb := TypePriority(a.PropertyType), TypePriority(b.PropertyType)
	if pa != pb {
		return pa < pb
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func recencyThenType(a, b model.RankedProperty) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return TypePriority(a.PropertyType) < TypePriority(b.PropertyType)
}

// matchedReasons explains why a property is in the result set
func (r *Ranker) matchedReasons(p model.RankedProperty, f model.ParsedQuery, now time.Time) []string {
	reasons := make([]string, 0, len(p.MatchedReasons)+4)
	reasons = append(reasons, p.MatchedReasons...)

	if p.IsCurrentlyFeatured(now) {
		reasons = append(reasons, ReasonFeatured)
	}
	if p.Distance != nil && *p.Distance < FarDistance {
		station := "station"
		if p.MatchedStation != nil {
			station = *p.MatchedStation
		}
		reasons = append(reasons, fmt.Sprintf("%dm from %s", int(*p.Distance+0.5), station))
	}
	if f.PropertyType != nil && strings.EqualFold(p.PropertyType, *f.PropertyType) {
		reasons = append(reasons, ReasonTypeMatch)
	}
	if (f.MinPrice != nil || f.MaxPrice != nil) && priceWithin(p.Price, f.MinPrice, f.MaxPrice) {
		reasons = append(reasons, ReasonPriceMatch)
	}
	if f.Bedrooms != nil && countMatches(p.Bedrooms, *f.Bedrooms, f.BedroomMode) {
		reasons = append(reasons, ReasonBedroomsMatch)
	}
	if f.Bathrooms != nil && countMatches(p.Bathrooms, *f.Bathrooms, f.BathroomMode) {
		reasons = append(reasons, ReasonBathroomsMatch)
	}
	if (f.MinROI != nil || f.MaxROI != nil) && priceWithin(p.ROI, f.MinROI, f.MaxROI) {
		reasons = append(reasons, ReasonROIMatch)
	}
	if f.City != nil && p.City != nil && strings.Contains(strings.ToLower(*p.City), strings.ToLower(*f.City)) {
		reasons = append(reasons, ReasonLocationMatch)
	}
	if now.Sub(p.CreatedAt) <= newlyListedWindow {
		reasons = append(reasons, ReasonNewlyListed)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	return reasons
}
