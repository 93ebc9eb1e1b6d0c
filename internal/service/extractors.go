package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// Extraction is one field pulled out of the query text
type Extraction struct {
	Field  string
	Apply  func(*model.ParsedQuery)
	Weight float64
}

// Extractor inspects normalized (lower-case, single-spaced) text for one field
type Extractor func(text string) (Extraction, bool)

// Extractors is the ordered rule set driven by ParseHeuristic
var Extractors = []Extractor{
	ExtractBedrooms,
	ExtractBathrooms,
	ExtractPropertyType,
	ExtractListingType,
	ExtractTransport,
	ExtractCity,
	ExtractPrice,
	ExtractROI,
}

const (
	weightBedrooms     = 0.2
	weightBathrooms    = 0.1
	weightPropertyType = 0.25
	weightListingType  = 0.15
	weightTransport    = 0.25
	weightCity         = 0.15
	weightPrice        = 0.2
	weightROI          = 0.2
)

// ParseHeuristic runs every extractor over text and sums their weights
func ParseHeuristic(text string) model.ParsedQuery {
	normalized := normalizeQuery(text)
	q := model.ParsedQuery{OriginalText: text}
	confidence := 0.0
	for _, extract := range Extractors {
		if e, ok := extract(normalized); ok {
			e.Apply(&q)
			confidence += e.Weight
		}
	}
	q.Confidence = round2(min(confidence, 1.0))
	return q
}

func normalizeQuery(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var numberAlt = func() string {
	words := make([]string, 0, len(utils.NumberWords))
	for w := range utils.NumberWords {
		words = append(words, w)
	}
	// longest first so "sepuluh" wins over shorter prefixes
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return `\d+|` + strings.Join(words, "|")
}()

func parseCount(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0 && n < 100
	}
	n, ok := utils.NumberWords[s]
	return n, ok
}

const bedroomWords = `(?:bedrooms?|beds?|br|rooms?|bilik(?:\s+tidur)?)`

const bathroomWords = `(?:bathrooms?|baths?|bilik\s+(?:air|mandi))`

var (
	minBedroomRe        = regexp.MustCompile(`\b(?:at least|minimum|min)\s+(` + numberAlt + `)\s*-?\s*` + bedroomWords + `\b`)
	plusBedroomRe       = regexp.MustCompile(`\b(\d+)\s*\+\s*` + bedroomWords + `\b|\b(\d+)\s*` + bedroomWords + `\s*(?:\+|or more|and above)`)
	shorthandRoomRe     = regexp.MustCompile(`\b(\d+)r(?:(\d+)b)?\b`)
	exactBedroomRe      = regexp.MustCompile(`\b(` + numberAlt + `)\s*-?\s*(bedrooms?|beds?|br|rooms?|bilik)\b(?:\s+(air|mandi|tidur))?`)
	minBathroomRe       = regexp.MustCompile(`\b(?:at least|minimum|min)\s+(` + numberAlt + `)\s*-?\s*` + bathroomWords + `\b`)
	plusBathroomRe      = regexp.MustCompile(`\b(\d+)\s*\+\s*` + bathroomWords + `\b|\b(\d+)\s*` + bathroomWords + `\s*(?:\+|or more|and above)`)
	bathroomRe          = regexp.MustCompile(`\b(` + numberAlt + `)\s*-?\s*(?:bathrooms?|baths?)\b`)
	malayBathroomRe     = regexp.MustCompile(`\b(` + numberAlt + `)\s+bilik\s+(?:air|mandi)\b`)
	listingRentRe       = regexp.MustCompile(`\b(?:for rent|rent(?:al|ing)?|to let|lease|sewa|disewa|menyewa)\b`)
	listingSaleRe       = regexp.MustCompile(`\b(?:for sale|sale|buy(?:ing)?|purchase|jual|dijual|beli)\b`)
	transportKwRe       = regexp.MustCompile(`\b(mrt|lrt|ktm|komuter|monorail|brt)\b`)
	genericTransitRe    = regexp.MustCompile(`\b(?:stations?|stesen|trains?|rail|transit)\b`)
	proximityRe         = regexp.MustCompile(`\b(?:near(?:by)?|close to|walking distance|walk to|next to|beside|dekat|berhampiran|berdekatan|within)\b`)
	withinDistanceRe    = regexp.MustCompile(`\bwithin\s+(\d+(?:\.\d+)?)\s*(km|kilometers?|kilometres?|m|meters?|metres?)\b`)
	walkMinutesRe       = regexp.MustCompile(`\b(\d+)\s*-?\s*(?:min(?:ute)?s?)\s+(?:walk(?:ing)?)\b`)
	commaThousandsRe    = regexp.MustCompile(`(\d),(\d{3})`)
	priceFollowRejectRe = regexp.MustCompile(`^\s*(?:%|bed|bath|room|bilik|br\b|min|km\b|meter|metre|sq|year|yr|storey|tingkat|walk)`)
)

type typeRule struct {
	re   *regexp.Regexp
	name string
}

// industrial and commercial rules come first so generic residential words
// cannot shadow them
var propertyTypeRules = []typeRule{
	{regexp.MustCompile(`\b(?:factory|factories|warehouses?|kilang|gudang|industrial)\b`), "industrial"},
	{regexp.MustCompile(`\b(?:shop ?lots?|shop ?houses?|shop-offices?|kedai)\b`), "shop-office"},
	{regexp.MustCompile(`\boffices?\b`), "office"},
	{regexp.MustCompile(`\bretail\b`), "retail-space"},
	{regexp.MustCompile(`\bcommercial\b`), "commercial"},
	{regexp.MustCompile(`\b(?:serviced? (?:residences?|apartments?|suites?)|service-residence|soho)\b`), "service-residence"},
	{regexp.MustCompile(`\b(?:condos?|condominiums?|kondo)\b`), "condominium"},
	{regexp.MustCompile(`\b(?:apartments?|apartmen|flats?)\b`), "apartment"},
	{regexp.MustCompile(`\b(?:terraces?|townhouses?|town house|teres)\b`), "townhouse"},
	{regexp.MustCompile(`\b(?:bungalows?|semi-d|semi d|houses?|rumah|landed)\b`), "house"},
	{regexp.MustCompile(`\bstudios?\b`), "studio"},
	{regexp.MustCompile(`\bpenthouses?\b`), "penthouse"},
	{regexp.MustCompile(`\b(?:land|tanah)\b`), "land"},
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

// ExtractBedrooms recognizes "3 bedroom", "at least 2 rooms", "3+ br",
// "3r2b" and "dua bilik"
func ExtractBedrooms(text string) (Extraction, bool) {
	set := func(n int, mode model.MatchMode) (Extraction, bool) {
		return Extraction{Field: "bedrooms", Weight: weightBedrooms, Apply: func(q *model.ParsedQuery) {
			q.Bedrooms = intPtr(n)
			q.BedroomMode = mode
		}}, true
	}

	if m := minBedroomRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok {
			return set(n, model.MatchMinimum)
		}
	}
	if m := plusBedroomRe.FindStringSubmatch(text); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if n, ok := parseCount(raw); ok {
			return set(n, model.MatchMinimum)
		}
	}
	if m := shorthandRoomRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok {
			return set(n, model.MatchExact)
		}
	}
	for _, m := range exactBedroomRe.FindAllStringSubmatch(text, -1) {
		// "bilik air" and "bilik mandi" are bathrooms
		if m[2] == "bilik" && (m[3] == "air" || m[3] == "mandi") {
			continue
		}
		if n, ok := parseCount(m[1]); ok {
			return set(n, model.MatchExact)
		}
	}
	return Extraction{}, false
}

// ExtractBathrooms recognizes "2 bath", "2 bilik air", "at least 2 bathrooms",
// "2+ baths" and the "3r2b" shorthand
func ExtractBathrooms(text string) (Extraction, bool) {
	raw, mode := "", model.MatchExact
	if m := minBathroomRe.FindStringSubmatch(text); m != nil {
		raw, mode = m[1], model.MatchMinimum
	} else if m := plusBathroomRe.FindStringSubmatch(text); m != nil {
		raw, mode = m[1], model.MatchMinimum
		if raw == "" {
			raw = m[2]
		}
	} else if m := bathroomRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := malayBathroomRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := shorthandRoomRe.FindStringSubmatch(text); m != nil && m[2] != "" {
		raw = m[2]
	}
	n, ok := parseCount(raw)
	if !ok {
		return Extraction{}, false
	}
	return Extraction{Field: "bathrooms", Weight: weightBathrooms, Apply: func(q *model.ParsedQuery) {
		q.Bathrooms = intPtr(n)
		q.BathroomMode = mode
	}}, true
}

// ExtractPropertyType maps type keywords to a canonical property type
func ExtractPropertyType(text string) (Extraction, bool) {
	for _, rule := range propertyTypeRules {
		if rule.re.MatchString(text) {
			name := rule.name
			return Extraction{Field: "property_type", Weight: weightPropertyType, Apply: func(q *model.ParsedQuery) {
				q.PropertyType = strPtr(name)
			}}, true
		}
	}
	return Extraction{}, false
}

// ExtractListingType picks rent or sale, whichever is mentioned first
func ExtractListingType(text string) (Extraction, bool) {
	rent := listingRentRe.FindStringIndex(text)
	sale := listingSaleRe.FindStringIndex(text)
	var listing string
	switch {
	case rent != nil && (sale == nil || rent[0] <= sale[0]):
		listing = model.ListingRent
	case sale != nil:
		listing = model.ListingSale
	default:
		return Extraction{}, false
	}
	return Extraction{Field: "listing_type", Weight: weightListingType, Apply: func(q *model.ParsedQuery) {
		q.ListingType = strPtr(listing)
	}}, true
}

// ExtractTransport detects transport types, an adjacent station name and a
// distance limit
func ExtractTransport(text string) (Extraction, bool) {
	types := make([]string, 0, len(model.AllTransportTypes))
	seen := make(map[string]bool)
	for _, m := range transportKwRe.FindAllStringSubmatch(text, -1) {
		t := utils.TransportKeywords[m[1]]
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	if len(types) == 0 {
		prox := proximityRe.FindStringIndex(text)
		generic := genericTransitRe.FindStringIndex(text)
		if prox == nil || generic == nil || generic[0] < prox[0] {
			return Extraction{}, false
		}
		types = append(types, model.AllTransportTypes...)
	}

	filter := &model.TransportFilter{Types: types}
	if names := stationNamesNearKeywords(text); len(names) > 0 {
		filter.StationNames = names
	}
	if d, ok := distanceLimit(text); ok {
		filter.MaxDistance = intPtr(d)
	}

	return Extraction{Field: "transport", Weight: weightTransport, Apply: func(q *model.ParsedQuery) {
		q.Transport = filter
	}}, true
}

// stationNamesNearKeywords collects the one or two words right after each
// transport keyword, or right before it when nothing usable follows
func stationNamesNearKeywords(text string) []string {
	words := strings.Fields(text)
	names := make([]string, 0)
	seen := make(map[string]bool)
	for i, w := range words {
		if _, ok := utils.TransportKeywords[strings.Trim(w, ".,;:!?")]; !ok {
			continue
		}
		name := stationAfter(words, i)
		if name == "" {
			name = stationBefore(words, i)
		}
		if name == "" {
			continue
		}
		canonical := utils.CanonicalStation(name)
		if !seen[canonical] {
			seen[canonical] = true
			names = append(names, canonical)
		}
	}
	return names
}

var stationWordRe = regexp.MustCompile(`^[a-z][a-z'-]*$`)

func stationWord(w string) (string, bool) {
	w = strings.Trim(w, ".,;:!?()\"")
	if !stationWordRe.MatchString(w) {
		return "", false
	}
	return w, true
}

func stationAfter(words []string, i int) string {
	picked := make([]string, 0, 2)
	for k := i + 1; k < len(words) && len(picked) < 2; k++ {
		w, ok := stationWord(words[k])
		if !ok {
			break
		}
		if utils.IsStationGuardWord(w) {
			// two-word allow-listed names may contain a guard word
			if len(picked) == 1 && utils.IsKnownStation(picked[0]+" "+w) {
				picked = append(picked, w)
			}
			break
		}
		picked = append(picked, w)
		if strings.ContainsAny(words[k], ".,;:!?") {
			break
		}
	}
	return validateStation(picked)
}

func stationBefore(words []string, i int) string {
	picked := make([]string, 0, 2)
	for k := i - 1; k >= 0 && len(picked) < 2; k-- {
		w, ok := stationWord(words[k])
		if !ok || utils.IsStationGuardWord(w) || strings.ContainsAny(words[k], ".,;:!?") {
			break
		}
		picked = append([]string{w}, picked...)
	}
	return validateStation(picked)
}

// validateStation prefers the allow-listed reading of a two-word candidate,
// then falls back to the word adjacent to the keyword
func validateStation(picked []string) string {
	if len(picked) == 0 {
		return ""
	}
	name := strings.Join(picked, " ")
	if len(picked) == 2 && !utils.IsKnownStation(name) {
		for _, w := range picked {
			if utils.IsKnownStation(w) {
				return w
			}
		}
	}
	if !ValidStationName(name) {
		return ""
	}
	return name
}

func distanceLimit(text string) (int, bool) {
	if m := withinDistanceRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v > 0 {
			if strings.HasPrefix(m[2], "k") {
				v *= 1000
			}
			return int(v + 0.5), true
		}
	}
	if m := walkMinutesRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			return utils.WalkingMeters(float64(v)), true
		}
	}
	return 0, false
}

type cityPattern struct {
	re   *regexp.Regexp
	name string
}

// cityPatterns holds the locality vocabulary longest first
var cityPatterns = func() []cityPattern {
	locs := append([]string(nil), utils.Locations...)
	sort.SliceStable(locs, func(i, j int) bool { return len(locs[i]) > len(locs[j]) })
	out := make([]cityPattern, 0, len(locs))
	for _, l := range locs {
		out = append(out, cityPattern{
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(l)) + `\b`),
			name: l,
		})
	}
	return out
}()

// ExtractCity finds the longest locality that is not being used as a station
// name next to a transport keyword
func ExtractCity(text string) (Extraction, bool) {
	for _, cp := range cityPatterns {
		for _, loc := range cp.re.FindAllStringIndex(text, -1) {
			if adjacentToTransport(text, loc[0], loc[1]) {
				continue
			}
			city := utils.CanonicalLocation(cp.name)
			return Extraction{Field: "city", Weight: weightCity, Apply: func(q *model.ParsedQuery) {
				q.City = strPtr(city)
			}}, true
		}
	}
	return Extraction{}, false
}

func adjacentToTransport(text string, start, end int) bool {
	before := strings.Fields(text[:start])
	if len(before) > 0 {
		if _, ok := utils.TransportKeywords[before[len(before)-1]]; ok {
			return true
		}
	}
	after := strings.Fields(text[end:])
	if len(after) > 0 {
		if _, ok := utils.TransportKeywords[strings.Trim(after[0], ".,;:!?")]; ok {
			return true
		}
	}
	return false
}

const amountPattern = `(?:rm\s*)?\d+(?:\.\d+)?(?:\s*(?:million|juta|mil|k|m))?`

var (
	amountRe     = regexp.MustCompile(`^(rm\s*)?(\d+(?:\.\d+)?)(?:\s*(million|juta|mil|k|m))?$`)
	priceRangeRe = regexp.MustCompile(`\b(?:between\s+)?(` + amountPattern + `)\s*(?:-|to|and|hingga|sehingga)\s*(` + amountPattern + `)\b`)
	priceMaxRe   = regexp.MustCompile(`\b(?:below|under|less than|bawah|max(?:imum)?|budget(?: of)?|up to|not more than|cheaper than)\s+(` + amountPattern + `)\b`)
	priceMinRe   = regexp.MustCompile(`\b(?:above|over|more than|atas|from)\s+(` + amountPattern + `)\b`)
	priceBareRe  = regexp.MustCompile(`\b(` + amountPattern + `)\b`)
)

type amount struct {
	value  float64
	marked bool // has an RM prefix or a magnitude suffix
}

func parseAmount(s string) (amount, bool) {
	m := amountRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return amount{}, false
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return amount{}, false
	}
	hasRM := m[1] != ""
	switch m[3] {
	case "k":
		v *= 1000
	case "m":
		// "500m" without RM is a distance
		if !hasRM && v >= 100 {
			return amount{}, false
		}
		v *= 1_000_000
	case "mil", "million", "juta":
		v *= 1_000_000
	}
	return amount{value: v, marked: hasRM || m[3] != ""}, true
}

// priceMatches yields the captured amounts of re whose match is not followed
// by a unit that makes the number something other than a price
func priceMatches(re *regexp.Regexp, text string) [][]amount {
	out := make([][]amount, 0)
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		if priceFollowRejectRe.MatchString(text[idx[1]:]) {
			continue
		}
		amounts := make([]amount, 0, 2)
		ok := true
		for g := 2; g+1 < len(idx); g += 2 {
			if idx[g] < 0 {
				continue
			}
			a, valid := parseAmount(text[idx[g]:idx[g+1]])
			if !valid {
				ok = false
				break
			}
			amounts = append(amounts, a)
		}
		if ok && len(amounts) > 0 {
			out = append(out, amounts)
		}
	}
	return out
}

// ExtractPrice recognizes ranges, upper and lower bounds, and a bare
// RM or suffixed amount treated as a maximum
func ExtractPrice(text string) (Extraction, bool) {
	for {
		next := commaThousandsRe.ReplaceAllString(text, "$1$2")
		if next == text {
			break
		}
		text = next
	}

	var minP, maxP *float64
	for _, m := range priceMatches(priceRangeRe, text) {
		if len(m) == 2 && (m[0].marked || m[1].marked) {
			lo, hi := m[0].value, m[1].value
			// "1-2k" carries the suffix on the upper bound only
			if !m[0].marked && m[1].marked && lo < hi/100 {
				lo *= upperBase(hi)
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			minP, maxP = floatPtr(lo), floatPtr(hi)
			break
		}
	}
	if minP == nil && maxP == nil {
		if m := priceMatches(priceMaxRe, text); len(m) > 0 {
			maxP = floatPtr(m[0][0].value)
		}
		for _, m := range priceMatches(priceMinRe, text) {
			if m[0].marked {
				minP = floatPtr(m[0].value)
				break
			}
		}
	}
	if minP == nil && maxP == nil {
		for _, m := range priceMatches(priceBareRe, text) {
			if m[0].marked {
				maxP = floatPtr(m[0].value)
				break
			}
		}
	}
	if minP == nil && maxP == nil {
		return Extraction{}, false
	}
	return Extraction{Field: "price", Weight: weightPrice, Apply: func(q *model.ParsedQuery) {
		q.MinPrice = minP
		q.MaxPrice = maxP
	}}, true
}

// upperBase returns the unit of a suffixed upper bound: 1000 for thousands,
// 1e6 for millions
func upperBase(hi float64) float64 {
	if hi >= 1_000_000 {
		return 1_000_000
	}
	return 1000
}

const roiNumber = `(\d+(?:\.\d+)?)\s*%?`

var (
	roiMinBeforeRe = regexp.MustCompile(`\b(?:at least|above|over|min(?:imum)?|more than)\s+` + roiNumber + `\s*(?:roi|yield|returns?)\b`)
	roiMinAfterRe  = regexp.MustCompile(`\b(?:roi|yield)\s+(?:of\s+)?(?:at least|above|over|min(?:imum)?|more than)\s+` + roiNumber)
	roiMaxBeforeRe = regexp.MustCompile(`\b(?:below|under|max(?:imum)?|less than)\s+` + roiNumber + `\s*(?:roi|yield|returns?)\b`)
	roiMaxAfterRe  = regexp.MustCompile(`\b(?:roi|yield)\s+(?:of\s+)?(?:below|under|max(?:imum)?|less than)\s+` + roiNumber)
	roiBareRe      = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*%\s*(?:roi|yield)\b|\b(?:roi|yield)\s+(?:of\s+)?(\d+(?:\.\d+)?)\s*%`)
)

func firstFloat(m []string) (float64, bool) {
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		v, err := strconv.ParseFloat(g, 64)
		return v, err == nil
	}
	return 0, false
}

// ExtractROI reads minimum and maximum ROI percentages phrased on either
// side of "roi"
func ExtractROI(text string) (Extraction, bool) {
	var minROI, maxROI *float64
	for _, re := range []*regexp.Regexp{roiMinBeforeRe, roiMinAfterRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := firstFloat(m); ok {
				minROI = floatPtr(v)
				break
			}
		}
	}
	for _, re := range []*regexp.Regexp{roiMaxBeforeRe, roiMaxAfterRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := firstFloat(m); ok {
				maxROI = floatPtr(v)
				break
			}
		}
	}
	if minROI == nil && maxROI == nil {
		if m := roiBareRe.FindStringSubmatch(text); m != nil {
			if v, ok := firstFloat(m); ok {
				minROI = floatPtr(v)
			}
		}
	}
	if minROI == nil && maxROI == nil {
		return Extraction{}, false
	}
	return Extraction{Field: "roi", Weight: weightROI, Apply: func(q *model.ParsedQuery) {
		q.MinROI = minROI
		q.MaxROI = maxROI
	}}, true
}
