package service

import (
	"context"
)

// AIClient is the interface for language-model providers used on low
// confidence parses
type AIClient interface {
	// ParseQueryWithAI extracts structured filters from a query. The
	// result has already passed schema validation.
	ParseQueryWithAI(ctx context.Context, query string) (*AIQueryResponse, error)

	// IsEnabled returns whether the AI client is configured and ready
	IsEnabled() bool
}

// AIQueryResponse represents the filters returned by the model
type AIQueryResponse struct {
	Bedrooms       *int     `json:"bedrooms,omitempty"`
	BedroomMode    string   `json:"bedroom_mode,omitempty"`
	Bathrooms      *int     `json:"bathrooms,omitempty"`
	BathroomMode   string   `json:"bathroom_mode,omitempty"`
	PropertyType   *string  `json:"property_type,omitempty"`
	ListingType    *string  `json:"listing_type,omitempty"`
	MinPrice       *float64 `json:"min_price,omitempty"`
	MaxPrice       *float64 `json:"max_price,omitempty"`
	MinROI         *float64 `json:"min_roi,omitempty"`
	MaxROI         *float64 `json:"max_roi,omitempty"`
	City           *string  `json:"city,omitempty"`
	TransportTypes []string `json:"transport_types,omitempty"`
	StationNames   []string `json:"station_names,omitempty"`
	MaxDistance    *int     `json:"max_distance,omitempty"` // meters

	TokensUsed int `json:"-"`
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
