package model

// SearchStrategy is the closed set of search strategies
type SearchStrategy string

const (
	StrategyGeneralTransport SearchStrategy = "general_transport"
	StrategySpecificStation  SearchStrategy = "specific_station"
	StrategyKeyword          SearchStrategy = "keyword"
)

// Sort preferences accepted in SearchOptions.Sort
const (
	SortDistance  = "distance"
	SortRecency   = "recency"
	SortRelevance = "relevance"
)

// Empty-result causes surfaced through SearchSummary.EmptyCause
const (
	CauseInvalidTerm     = "invalid_search_term"
	CauseStationNotFound = "station_not_found"
	CauseNoCandidates    = "no_candidates"
	CausePropertyType    = "property_type"
	CausePrice           = "price"
	CauseBedrooms        = "bedrooms"
	CauseBathrooms       = "bathrooms"
	CauseROI             = "roi"
)

// SearchRequest represents a search query request
type SearchRequest struct {
	Query   string           `json:"query" binding:"required"`
	Filters *FilterOverrides `json:"filters,omitempty"`
	Options *SearchOptions   `json:"options,omitempty"`
}

// FilterOverrides lets the caller override or supplement parsed values
type FilterOverrides struct {
	ListingType  *string   `json:"listing_type,omitempty"`
	PropertyType *string   `json:"property_type,omitempty"`
	MinPrice     *float64  `json:"min_price,omitempty"`
	MaxPrice     *float64  `json:"max_price,omitempty"`
	Bedrooms     *int      `json:"bedrooms,omitempty"`
	BedroomMode  MatchMode `json:"bedroom_mode,omitempty"`
	Bathrooms    *int      `json:"bathrooms,omitempty"`
	BathroomMode MatchMode `json:"bathroom_mode,omitempty"`
	MaxDistance  *int      `json:"max_distance,omitempty"` // meters
}

// SearchOptions represents search options
type SearchOptions struct {
	Limit int    `json:"limit"`
	Sort  string `json:"sort,omitempty"`
}

// SearchSummary explains how a search was executed
type SearchSummary struct {
	SearchType      SearchStrategy `json:"search_type"`
	Message         string         `json:"message"`
	ProximityRadius *int           `json:"proximity_radius,omitempty"`
	TransportTypes  []string       `json:"transport_types,omitempty"`
	StationName     *string        `json:"station_name,omitempty"`
	Corrections     []Correction   `json:"corrections,omitempty"`
	EmptyCause      string         `json:"empty_cause,omitempty"`
}

// SearchResponse represents a search result response
type SearchResponse struct {
	SearchID string           `json:"search_id"`
	Results  []RankedProperty `json:"results"`
	Count    int              `json:"count"`
	Summary  SearchSummary    `json:"search_summary"`
	Parsed   *ParsedQuery     `json:"parsed,omitempty"`
	Took     int64            `json:"took_ms"`
}

// RouteInfo is the classifier decision exposed to callers
type RouteInfo struct {
	Strategy       SearchStrategy `json:"strategy"`
	StationName    string         `json:"station_name,omitempty"`
	TransportTypes []string       `json:"transport_types,omitempty"`
}

// ParseResponse is returned by the parse-only endpoint
type ParseResponse struct {
	Query       string       `json:"query"`
	Corrected   string       `json:"corrected"`
	Corrections []Correction `json:"corrections,omitempty"`
	Parsed      ParsedQuery  `json:"parsed"`
	Method      ParseMethod  `json:"method"`
	Cached      bool         `json:"cached"`
	TokenCost   int          `json:"token_cost"`
	Route       RouteInfo    `json:"route"`
}

// Suggestion is a single autocomplete entry
type Suggestion struct {
	Text  string  `json:"title"`
	Type  string  `json:"type"`
	Kind  string  `json:"kind"` // property|location|property_type
	Score float64 `json:"score"`
}
