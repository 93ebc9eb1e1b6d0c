package model

import "time"

// MatchMode controls how a numeric filter is compared
type MatchMode string

const (
	MatchExact   MatchMode = "exact"
	MatchMinimum MatchMode = "minimum"
)

// Canonical transport types
const (
	TransportMRT      = "MRT"
	TransportLRT      = "LRT"
	TransportKTM      = "KTM"
	TransportMonorail = "Monorail"
	TransportBRT      = "BRT"
)

// AllTransportTypes lists every transport type in display order
var AllTransportTypes = []string{TransportMRT, TransportLRT, TransportKTM, TransportMonorail, TransportBRT}

// Listing types
const (
	ListingRent = "rent"
	ListingSale = "sale"
)

// TransportFilter describes a proximity requirement extracted from the query
type TransportFilter struct {
	Types        []string `json:"types"`
	MaxDistance  *int     `json:"max_distance,omitempty"` // meters
	StationNames []string `json:"station_names,omitempty"`
}

// ParsedQuery is the structured filter set produced from free text
type ParsedQuery struct {
	Bedrooms     *int             `json:"bedrooms,omitempty"`
	BedroomMode  MatchMode        `json:"bedroom_mode,omitempty"`
	Bathrooms    *int             `json:"bathrooms,omitempty"`
	BathroomMode MatchMode        `json:"bathroom_mode,omitempty"`
	PropertyType *string          `json:"property_type,omitempty"`
	ListingType  *string          `json:"listing_type,omitempty"`
	MinPrice     *float64         `json:"min_price,omitempty"`
	MaxPrice     *float64         `json:"max_price,omitempty"`
	MinROI       *float64         `json:"min_roi,omitempty"`
	MaxROI       *float64         `json:"max_roi,omitempty"`
	City         *string          `json:"city,omitempty"`
	Transport    *TransportFilter `json:"transport,omitempty"`
	OriginalText string           `json:"original_text"`
	Confidence   float64          `json:"confidence"`
}

// ParseMethod records which path produced a ParsedQuery
type ParseMethod string

const (
	MethodHeuristic ParseMethod = "heuristic"
	MethodModel     ParseMethod = "model"
)

// CachedQueryEntry is the value stored under a normalized query key.
// Entries are replaced as a whole, never updated in place.
type CachedQueryEntry struct {
	Query     ParsedQuery `json:"query"`
	Method    ParseMethod `json:"method"`
	TokenCost int         `json:"token_cost"`
	CachedAt  time.Time   `json:"cached_at"`
}

// Correction is a single typo fix applied before parsing
type Correction struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Score float64 `json:"score"`
}
