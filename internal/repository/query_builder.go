package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

const propertyColumns = `p.id, p.title, p.description, p.property_type::text AS property_type,
	p.listing_type::text AS listing_type, p.price, p.bedrooms, p.bathrooms, p.city, p.address,
	p.latitude, p.longitude, p.roi, p.transport_distance, p.is_featured, p.featured_until,
	p.agent_id, p.created_at`

// SpatialQuery selects properties within Radius meters of a matching station
type SpatialQuery struct {
	TransportTypes []string
	StationName    string // containment match when set
	ListingType    *string
	Radius         float64
	Limit          int
}

// MentionQuery selects properties whose free-text fields mention any term
type MentionQuery struct {
	Terms       []string
	ListingType *string
	Limit       int
}

// KeywordQuery is the conjunctive filter of a plain text search
type KeywordQuery struct {
	Term          string
	ListingType   *string
	PropertyTypes []string
	MinPrice      *float64
	MaxPrice      *float64
	City          *string
	Bedrooms      *int
	BedroomMode   model.MatchMode
	Bathrooms     *int
	BathroomMode  model.MatchMode
	MinROI        *float64
	MaxROI        *float64
	Limit         int
}

// StationQuery looks up transport stations
type StationQuery struct {
	TransportTypes []string
	Name           string
}

type queryBuilder struct {
	conditions []string
	args       []interface{}
}

// bind appends arg and returns its placeholder
func (qb *queryBuilder) bind(arg interface{}) string {
	qb.args = append(qb.args, arg)
	return fmt.Sprintf("$%d", len(qb.args))
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.bind(arg)))
}

func (qb *queryBuilder) addRaw(condition string) {
	qb.conditions = append(qb.conditions, condition)
}

func (qb *queryBuilder) where() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

// likePattern wraps s for a containment ILIKE, escaping wildcards
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

// haversineSQL renders the great-circle distance in meters between two points
func haversineSQL(lat1, lng1, lat2, lng2 string) string {
	return fmt.Sprintf(`(2 * %[1]s * ASIN(LEAST(1.0, SQRT(
		POWER(SIN(RADIANS(%[4]s - %[2]s) / 2), 2) +
		COS(RADIANS(%[2]s)) * COS(RADIANS(%[4]s)) * POWER(SIN(RADIANS(%[5]s - %[3]s) / 2), 2)))))`,
		strconv.FormatFloat(utils.EarthRadiusMeters, 'f', 1, 64), lat1, lng1, lat2, lng2)
}

func buildSpatialQuery(q SpatialQuery) (string, []interface{}) {
	qb := &queryBuilder{}
	qb.addRaw("p.latitude IS NOT NULL AND p.longitude IS NOT NULL")
	typesArg := qb.bind(pq.Array(q.TransportTypes))
	if q.ListingType != nil {
		qb.addCondition("%s = %s", "p.listing_type::text", *q.ListingType)
	}
	if q.StationName != "" {
		qb.addCondition("%s ILIKE %s", "s.station_name", likePattern(q.StationName))
	}
	distance := haversineSQL("p.latitude", "p.longitude", "s.latitude", "s.longitude")

	inner := fmt.Sprintf(`SELECT DISTINCT ON (p.id) %s,
		s.id AS station_id, s.station_name AS matched_station, %s AS distance
	FROM properties p
	JOIN transport_stations s ON s.transport_type::text = ANY(%s)
	%s
	ORDER BY p.id, distance`, propertyColumns, distance, typesArg, qb.where())

	radiusArg := qb.bind(q.Radius)
	limitArg := qb.bind(q.Limit)
	query := fmt.Sprintf(`SELECT * FROM (%s) nearest WHERE distance <= %s ORDER BY distance LIMIT %s`,
		inner, radiusArg, limitArg)
	return query, qb.args
}

func buildMentionQuery(q MentionQuery) (string, []interface{}) {
	qb := &queryBuilder{}
	patterns := make([]string, 0, len(q.Terms))
	for _, t := range q.Terms {
		if strings.TrimSpace(t) != "" {
			patterns = append(patterns, likePattern(t))
		}
	}
	arg := qb.bind(pq.Array(patterns))
	qb.addRaw(fmt.Sprintf("(p.title ILIKE ANY(%[1]s) OR p.description ILIKE ANY(%[1]s) OR p.transport_distance ILIKE ANY(%[1]s))", arg))
	if q.ListingType != nil {
		qb.addCondition("%s = %s", "p.listing_type::text", *q.ListingType)
	}
	query := fmt.Sprintf(`SELECT %s FROM properties p %s ORDER BY p.created_at DESC LIMIT %s`,
		propertyColumns, qb.where(), qb.bind(q.Limit))
	return query, qb.args
}

func buildKeywordQuery(q KeywordQuery) (string, []interface{}) {
	qb := &queryBuilder{}
	if strings.TrimSpace(q.Term) != "" {
		arg := qb.bind(likePattern(q.Term))
		qb.addRaw(fmt.Sprintf("(p.title ILIKE %[1]s OR p.description ILIKE %[1]s)", arg))
	}
	if q.ListingType != nil {
		qb.addCondition("%s = %s", "p.listing_type::text", *q.ListingType)
	}
	if q.MinPrice != nil {
		qb.addCondition("%s >= %s", "p.price", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		qb.addCondition("%s <= %s", "p.price", *q.MaxPrice)
	}
	if len(q.PropertyTypes) > 0 {
		qb.addCondition("%s = ANY(%s)", "p.property_type::text", pq.Array(q.PropertyTypes))
	}
	if q.City != nil {
		arg := qb.bind(likePattern(*q.City))
		qb.addRaw(fmt.Sprintf("(p.city ILIKE %[1]s OR p.address ILIKE %[1]s)", arg))
	}
	if q.Bedrooms != nil {
		qb.addCondition("%s "+countOperator(q.BedroomMode)+" %s", "p.bedrooms", *q.Bedrooms)
	}
	if q.Bathrooms != nil {
		qb.addCondition("%s "+countOperator(q.BathroomMode)+" %s", "p.bathrooms", *q.Bathrooms)
	}
	if q.MinROI != nil {
		qb.addCondition("%s >= %s", "p.roi", *q.MinROI)
	}
	if q.MaxROI != nil {
		qb.addCondition("%s <= %s", "p.roi", *q.MaxROI)
	}
	query := fmt.Sprintf(`SELECT %s FROM properties p %s ORDER BY p.created_at DESC LIMIT %s`,
		propertyColumns, qb.where(), qb.bind(q.Limit))
	return query, qb.args
}

func countOperator(mode model.MatchMode) string {
	if mode == model.MatchMinimum {
		return ">="
	}
	return "="
}

func buildStationQuery(q StationQuery) (string, []interface{}) {
	qb := &queryBuilder{}
	if len(q.TransportTypes) > 0 {
		qb.addCondition("%s = ANY(%s)", "transport_type::text", pq.Array(q.TransportTypes))
	}
	if q.Name != "" {
		qb.addCondition("%s ILIKE %s", "station_name", likePattern(q.Name))
	}
	query := fmt.Sprintf(`SELECT id, station_name, transport_type::text AS transport_type, latitude, longitude
	FROM transport_stations %s ORDER BY station_name`, qb.where())
	return query, qb.args
}

func buildNearestStationQuery(lat, lng float64, types []string) (string, []interface{}) {
	qb := &queryBuilder{}
	latArg := qb.bind(lat)
	lngArg := qb.bind(lng)
	qb.addCondition("%s = ANY(%s)", "s.transport_type::text", pq.Array(types))
	query := fmt.Sprintf(`SELECT MIN(%s) FROM transport_stations s %s`,
		haversineSQL(latArg, lngArg, "s.latitude", "s.longitude"), qb.where())
	return query, qb.args
}

func buildTitleQuery(pattern string, limit int) (string, []interface{}) {
	qb := &queryBuilder{}
	if strings.TrimSpace(pattern) != "" {
		qb.addCondition("%s ILIKE %s", "title", likePattern(pattern))
	}
	query := fmt.Sprintf(`SELECT DISTINCT title, property_type::text AS property_type
	FROM properties %s ORDER BY title LIMIT %s`, qb.where(), qb.bind(limit))
	return query, qb.args
}
