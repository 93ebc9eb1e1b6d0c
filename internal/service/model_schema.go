package service

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const queryResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "bedrooms":        {"type": ["integer", "null"], "minimum": 0, "maximum": 20},
    "bedroom_mode":    {"enum": ["exact", "minimum", "", null]},
    "bathrooms":       {"type": ["integer", "null"], "minimum": 0, "maximum": 20},
    "bathroom_mode":   {"enum": ["exact", "minimum", "", null]},
    "property_type":   {"enum": ["condominium", "apartment", "service-residence", "house", "townhouse",
                                 "studio", "penthouse", "land", "office", "shop-office", "retail-space",
                                 "commercial", "industrial", "warehouse", "factory", null]},
    "listing_type":    {"enum": ["rent", "sale", null]},
    "min_price":       {"type": ["number", "null"], "minimum": 0},
    "max_price":       {"type": ["number", "null"], "minimum": 0},
    "min_roi":         {"type": ["number", "null"], "minimum": 0, "maximum": 100},
    "max_roi":         {"type": ["number", "null"], "minimum": 0, "maximum": 100},
    "city":            {"type": ["string", "null"], "maxLength": 64},
    "transport_types": {"type": ["array", "null"], "items": {"enum": ["MRT", "LRT", "KTM", "Monorail", "BRT"]}},
    "station_names":   {"type": ["array", "null"], "items": {"type": "string", "minLength": 2, "maxLength": 40}},
    "max_distance":    {"type": ["integer", "null"], "minimum": 50, "maximum": 20000}
  }
}`

var querySchema = jsonschema.MustCompileString("query_response.json", queryResponseSchema)

// decodeModelResponse validates raw model JSON against the response schema
// and decodes it
func decodeModelResponse(raw []byte) (*AIQueryResponse, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("model response is not JSON: %w", err)
	}
	if err := querySchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("model response failed schema validation: %w", err)
	}

	var resp AIQueryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}
	if resp.MinPrice != nil && resp.MaxPrice != nil && *resp.MinPrice > *resp.MaxPrice {
		return nil, fmt.Errorf("min_price (%.0f) cannot be greater than max_price (%.0f)", *resp.MinPrice, *resp.MaxPrice)
	}
	if resp.MinROI != nil && resp.MaxROI != nil && *resp.MinROI > *resp.MaxROI {
		return nil, fmt.Errorf("min_roi (%.2f) cannot be greater than max_roi (%.2f)", *resp.MinROI, *resp.MaxROI)
	}
	return &resp, nil
}
