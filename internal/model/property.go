package model

import (
	"time"
)

// Property represents a listing row as stored in the properties table
type Property struct {
	ID                int64      `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	Description       *string    `json:"description,omitempty" db:"description"`
	PropertyType      string     `json:"property_type" db:"property_type"`
	ListingType       string     `json:"listing_type" db:"listing_type"`
	Price             *float64   `json:"price,omitempty" db:"price"`
	Bedrooms          *int       `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms         *int       `json:"bathrooms,omitempty" db:"bathrooms"`
	City              *string    `json:"city,omitempty" db:"city"`
	Address           *string    `json:"address,omitempty" db:"address"`
	Latitude          *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64   `json:"longitude,omitempty" db:"longitude"`
	ROI               *float64   `json:"roi,omitempty" db:"roi"`
	TransportDistance *string    `json:"transport_distance,omitempty" db:"transport_distance"`
	IsFeatured        bool       `json:"is_featured" db:"is_featured"`
	FeaturedUntil     *time.Time `json:"featured_until,omitempty" db:"featured_until"`
	AgentID           *int64     `json:"agent_id,omitempty" db:"agent_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// HasCoordinates reports whether the property can take part in proximity matching
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// IsCurrentlyFeatured is true only while featured_until lies strictly after now
func (p *Property) IsCurrentlyFeatured(now time.Time) bool {
	return p.IsFeatured && p.FeaturedUntil != nil && p.FeaturedUntil.After(now)
}

// TransportStation is read-only reference data
type TransportStation struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"station_name" db:"station_name"`
	TransportType string  `json:"transport_type" db:"transport_type"`
	Latitude      float64 `json:"latitude" db:"latitude"`
	Longitude     float64 `json:"longitude" db:"longitude"`
}

// RankedProperty is a property enriched for a single search response
type RankedProperty struct {
	Property
	Distance         *float64 `json:"distance_m,omitempty" db:"distance"`
	MatchedStationID *int64   `json:"matched_station_id,omitempty" db:"station_id"`
	MatchedStation   *string  `json:"matched_station,omitempty" db:"matched_station"`
	MatchedReasons   []string `json:"matched_reasons"`
}
