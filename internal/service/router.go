package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

const (
	minStationLen = 3
	maxStationLen = 20
)

// Route is the strategy chosen for a query
type Route struct {
	Strategy       model.SearchStrategy
	StationName    string
	TransportTypes []string
}

// Info converts the route for API responses
func (r Route) Info() model.RouteInfo {
	return model.RouteInfo{Strategy: r.Strategy, StationName: r.StationName, TransportTypes: r.TransportTypes}
}

// Station candidates are matched case-sensitively: a proper noun next to a
// transport keyword in any case.
var (
	stationAfterKeywordRe  = regexp.MustCompile(`\b((?i:mrt|lrt|ktm|komuter|monorail|brt))\s+([A-Z][A-Za-z'-]+(?:\s+[A-Z][A-Za-z'-]+)?)\b`)
	stationBeforeKeywordRe = regexp.MustCompile(`\b([A-Z][A-Za-z'-]+(?:\s+[A-Z][A-Za-z'-]+)?)\s+((?i:mrt|lrt|ktm|komuter|monorail|brt))\b`)
)

const (
	proximityAlt = `(?:near(?:by)?|close to|walking distance(?: to)?|walk to|next to|beside|dekat|berhampiran|berdekatan)`
	transportAlt = `(?:mrt|lrt|ktm|komuter|monorail|brt|stations?|stesen)`
)

// generalTransportPatterns run in order over normalized text
var generalTransportPatterns = []*regexp.Regexp{
	// "near mrt", "mrt station"
	regexp.MustCompile(`^(?:` + proximityAlt + `\s+)?` + transportAlt + `(?:\s+stations?)?$`),
	// "near lrt under rm2500"
	regexp.MustCompile(`^(?:` + proximityAlt + `\s+)?` + transportAlt + `(?:\s+stations?)?\s+(?:below|under|less than|bawah|max|budget|up to|above|over|from)?\s*(?:rm\s*)?\d`),
	// "condo near lrt ...", "3 rooms near mrt ..."
	regexp.MustCompile(`^(?:\d+\s*(?:bedrooms?|beds?|br|rooms?|bilik)\s+)?(?:[a-z-]+\s+){0,2}` + proximityAlt + `\s+` + transportAlt + `\b`),
	// "unit for my parents near mrt"
	regexp.MustCompile(`\b` + proximityAlt + `\s+(?:the\s+|an?\s+)?` + transportAlt + `\b`),
}

// Classify picks the search strategy for corrected query text. Specific
// stations take priority; general transport needs a transport phrase with no
// station; everything else is a keyword search.
func Classify(text string, parsed model.ParsedQuery) Route {
	if name, kw, ok := isolateStation(text); ok {
		return Route{
			Strategy:       model.StrategySpecificStation,
			StationName:    name,
			TransportTypes: stationTypes(kw, parsed),
		}
	}

	if parsed.Transport != nil && len(parsed.Transport.StationNames) > 0 && ValidStationName(parsed.Transport.StationNames[0]) {
		return Route{
			Strategy:       model.StrategySpecificStation,
			StationName:    parsed.Transport.StationNames[0],
			TransportTypes: parsed.Transport.Types,
		}
	}

	normalized := normalizeQuery(text)
	for _, re := range generalTransportPatterns {
		if re.MatchString(normalized) {
			return Route{Strategy: model.StrategyGeneralTransport, TransportTypes: transportTypesIn(normalized, parsed)}
		}
	}
	if parsed.Transport != nil {
		return Route{Strategy: model.StrategyGeneralTransport, TransportTypes: transportTypesIn(normalized, parsed)}
	}

	return Route{Strategy: model.StrategyKeyword}
}

func stationTypes(keyword string, parsed model.ParsedQuery) []string {
	if t, ok := utils.TransportKeywords[strings.ToLower(keyword)]; ok {
		return []string{t}
	}
	if parsed.Transport != nil && len(parsed.Transport.Types) > 0 {
		return parsed.Transport.Types
	}
	return append([]string(nil), model.AllTransportTypes...)
}

func transportTypesIn(normalized string, parsed model.ParsedQuery) []string {
	if parsed.Transport != nil && len(parsed.Transport.Types) > 0 {
		return parsed.Transport.Types
	}
	types := make([]string, 0)
	seen := make(map[string]bool)
	for _, m := range transportKwRe.FindAllStringSubmatch(normalized, -1) {
		t := utils.TransportKeywords[m[1]]
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return append([]string(nil), model.AllTransportTypes...)
	}
	return types
}

// isolateStation finds a proper-noun station name adjacent to a transport
// keyword. A rejected two-word candidate retries with the word touching the
// keyword.
func isolateStation(text string) (name, keyword string, ok bool) {
	for _, m := range stationAfterKeywordRe.FindAllStringSubmatch(text, -1) {
		words := strings.Fields(m[2])
		if name, ok := pickStation(words, 0); ok {
			return name, m[1], true
		}
	}
	for _, m := range stationBeforeKeywordRe.FindAllStringSubmatch(text, -1) {
		words := strings.Fields(m[1])
		if name, ok := pickStation(words, len(words)-1); ok {
			return name, m[2], true
		}
	}
	return "", "", false
}

func pickStation(words []string, adjacent int) (string, bool) {
	if candidate := strings.Join(words, " "); ValidStationName(candidate) {
		return utils.CanonicalStation(candidate), true
	}
	if len(words) == 2 && ValidStationName(words[adjacent]) {
		return utils.CanonicalStation(words[adjacent]), true
	}
	return "", false
}

// ValidStationName rejects candidates built from price, filler, stop or
// property words unless the name is a known station
func ValidStationName(candidate string) bool {
	n := utf8.RuneCountInString(candidate)
	if n < minStationLen || n > maxStationLen {
		return utils.IsKnownStation(candidate)
	}
	if utils.IsKnownStation(candidate) {
		return true
	}
	for _, w := range strings.Fields(candidate) {
		if utils.IsStationGuardWord(w) {
			return false
		}
	}
	return true
}
