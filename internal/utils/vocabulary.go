package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locations lists Malaysian place names and common abbreviations
var Locations = []string{
	"Kuala Lumpur", "KL", "KLCC", "Petaling Jaya", "PJ", "Subang Jaya", "USJ", "Shah Alam",
	"Klang", "Puchong", "Cheras", "Kajang", "Bangi", "Cyberjaya", "Putrajaya", "Damansara",
	"Kota Damansara", "Ara Damansara", "Damansara Heights", "Mont Kiara", "Bangsar",
	"Bangsar South", "Bukit Bintang", "Bukit Jalil", "Ampang", "Setapak", "Wangsa Maju",
	"Kepong", "Sentul", "Sri Hartamas", "Desa ParkCity", "Seri Kembangan", "Sungai Buloh",
	"Bandar Utama", "Sunway", "Bandar Sunway", "Setia Alam", "Selayang", "Rawang",
	"Semenyih", "Kelana Jaya", "Taman Tun Dr Ismail", "TTDI", "Mid Valley", "Brickfields",
	"Titiwangsa", "Chow Kit", "Pudu", "Seremban", "Nilai", "Johor Bahru", "JB", "Iskandar Puteri",
	"Penang", "George Town", "Ipoh", "Melaka", "Kota Kinabalu", "Kuching",
}

// PropertyTypeTerms is the correction vocabulary for property-type words
var PropertyTypeTerms = []string{
	"condo", "condominium", "apartment", "flat", "house", "terrace", "townhouse", "bungalow",
	"studio", "penthouse", "duplex", "residence", "serviced", "office", "shoplot", "shophouse",
	"retail", "warehouse", "factory", "industrial", "commercial", "residential", "land",
	"kondo", "apartmen", "rumah", "kedai", "kilang", "gudang", "tanah",
}

// KnownStations is the allow-list of real station names
var KnownStations = []string{
	"KLCC", "Surian", "Sungai Buloh", "Kota Damansara", "Mutiara Damansara", "Bandar Utama",
	"TTDI", "Semantan", "Bukit Bintang", "Pasar Seni", "Merdeka", "Maluri", "Cochrane",
	"Taman Connaught", "Kajang", "Stadium Kajang", "Sri Raya", "Kelana Jaya", "Bangsar",
	"Abdullah Hukum", "Kerinchi", "Universiti", "Taman Jaya", "Asia Jaya", "Taman Paramount",
	"Masjid Jamek", "Dang Wangi", "Kampung Baru", "Ampang Park", "Setiawangsa", "Wangsa Maju",
	"Gombak", "Sentul", "Titiwangsa", "Chow Kit", "Hang Tuah", "Imbi", "Raja Chulan",
	"Bukit Nanas", "KL Sentral", "Mid Valley", "Subang Jaya", "Shah Alam", "Batu Caves",
	"Putrajaya Sentral", "Cyberjaya", "Serdang", "Sri Petaling", "Bukit Jalil", "USJ 7",
	"Glenmarie", "Ara Damansara", "Puchong Prima", "Putra Heights", "Cheras", "Pudu",
}

// TransportKeywords maps a lower-case keyword to its transport type
var TransportKeywords = map[string]string{
	"mrt":      "MRT",
	"lrt":      "LRT",
	"ktm":      "KTM",
	"komuter":  "KTM",
	"monorail": "Monorail",
	"brt":      "BRT",
}

// GenericTransportWords refer to rail transit without naming a type
var GenericTransportWords = []string{"station", "stesen", "train", "rail", "transit"}

// ProximityPhrases trigger transport extraction
var ProximityPhrases = []string{
	"near", "nearby", "close to", "walking distance", "walk to", "next to", "beside",
	"dekat", "berhampiran", "berdekatan",
}

// FillerWords describe the searcher rather than the place
var FillerWords = []string{
	"parents", "parent", "elderly", "family", "families", "kids", "children", "student",
	"students", "couple", "couples", "working", "professional", "professionals", "expat",
	"expats", "people", "someone", "me", "my", "our", "us", "them", "looking", "want",
	"need", "find", "show", "search", "please", "good", "nice", "cheap", "affordable",
	"new", "big", "small", "luxury", "spacious", "furnished", "unit", "units", "property",
	"properties", "place", "area", "untuk", "yang", "cari", "murah", "yes", "yeah", "ok",
	"okay", "no", "sure", "thanks", "thank", "pls", "lah",
}

// StopWords are grammatical words with no filter meaning
var StopWords = []string{
	"a", "an", "the", "and", "or", "with", "without", "in", "at", "on", "to", "of", "for",
	"from", "by", "is", "are", "be", "that", "this", "it", "its", "any", "some", "around",
	"among", "along", "about", "within", "between", "than", "more", "less", "least", "most",
	"only", "also", "very", "just", "di", "dan", "ke",
}

// PriceWords appear in price expressions
var PriceWords = []string{
	"rm", "ringgit", "price", "budget", "below", "under", "above", "over", "max", "maximum",
	"min", "minimum", "cheaper", "k", "mil", "million", "juta", "bawah", "atas", "per",
	"month", "monthly", "sebulan",
}

// ListingWords signal rent or sale
var ListingWords = []string{
	"rent", "rental", "renting", "let", "lease", "sale", "sell", "selling", "buy", "buying",
	"purchase", "sewa", "disewa", "menyewa", "jual", "dijual", "beli",
}

// RoomWords describe bedroom and bathroom counts
var RoomWords = []string{
	"bed", "beds", "bedroom", "bedrooms", "br", "room", "rooms", "bath", "baths",
	"bathroom", "bathrooms", "bilik", "air", "mandi", "tidur", "roi", "yield", "return",
	"walk", "walking", "min", "mins", "minute", "minutes", "km", "m", "meter", "meters",
}

// NumberWords covers English and Malay counts up to ten
var NumberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"satu": 1, "dua": 2, "tiga": 3, "empat": 4, "lima": 5,
	"enam": 6, "tujuh": 7, "lapan": 8, "sembilan": 9, "sepuluh": 10,
}

// TypeSynonyms widens a property-type filter to local market terminology
var TypeSynonyms = map[string][]string{
	"condominium":       {"condominium", "service-residence", "apartment"},
	"apartment":         {"apartment", "flat"},
	"service-residence": {"service-residence", "condominium"},
	"house":             {"house", "townhouse"},
	"industrial":        {"industrial", "warehouse", "factory"},
	"commercial":        {"commercial", "office", "shop-office", "retail-space"},
	"office":            {"office", "commercial"},
}

// ExpandPropertyType returns the property types accepted for a filter value
func ExpandPropertyType(t string) []string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return nil
	}
	if syn, ok := TypeSynonyms[t]; ok {
		return syn
	}
	return []string{t}
}

func newWordSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, w := range list {
			for _, part := range strings.Fields(strings.ToLower(w)) {
				set[part] = struct{}{}
			}
		}
	}
	return set
}

var (
	stationGuardSet = newWordSet(FillerWords, StopWords, PriceWords, ListingWords, RoomWords,
		ProximityPhrases, PropertyTypeTerms, GenericTransportWords)
	knownWordSet = newWordSet(Locations, PropertyTypeTerms, KnownStations, GenericTransportWords,
		ProximityPhrases, FillerWords, StopWords, PriceWords, ListingWords, RoomWords)
	correctionSkipSet = newWordSet(FillerWords, StopWords, PriceWords, ListingWords, RoomWords,
		ProximityPhrases, GenericTransportWords, KnownStations)
	locationWordSet = newWordSet(Locations)
)

func init() {
	for kw := range TransportKeywords {
		stationGuardSet[kw] = struct{}{}
		knownWordSet[kw] = struct{}{}
		correctionSkipSet[kw] = struct{}{}
	}
	for w := range NumberWords {
		stationGuardSet[w] = struct{}{}
		knownWordSet[w] = struct{}{}
		correctionSkipSet[w] = struct{}{}
	}
}

// IsStationGuardWord reports words that can never be part of a station name
func IsStationGuardWord(w string) bool {
	_, ok := stationGuardSet[strings.ToLower(w)]
	return ok
}

// IsKnownWord reports whether w belongs to any shipped vocabulary
func IsKnownWord(w string) bool {
	_, ok := knownWordSet[strings.ToLower(w)]
	return ok
}

// SkipCorrection reports words that typo correction must leave alone
func SkipCorrection(w string) bool {
	_, ok := correctionSkipSet[strings.ToLower(w)]
	return ok
}

// IsLocationWord reports words that appear in some place name
func IsLocationWord(w string) bool {
	_, ok := locationWordSet[strings.ToLower(w)]
	return ok
}

// IsKnownStation matches the allow-list case-insensitively
func IsKnownStation(name string) bool {
	_, ok := lookupFold(KnownStations, name)
	return ok
}

// stationWordForms expands abbreviations common in station names and keeps
// acronyms upper case
var stationWordForms = map[string]string{
	"kl":   "KL",
	"klcc": "KLCC",
	"pj":   "PJ",
	"ttdi": "TTDI",
	"usj":  "USJ",
	"ukm":  "UKM",
	"upm":  "UPM",
	"sg":   "Sungai",
	"sg.":  "Sungai",
	"bt":   "Bukit",
	"bkt":  "Bukit",
	"tmn":  "Taman",
	"jln":  "Jalan",
	"bdr":  "Bandar",
	"kg":   "Kampung",
	"kpg":  "Kampung",
}

// CanonicalStation returns the allow-list spelling of a station name when
// known, the name unchanged when it is an acronym, and Title Case otherwise.
// Abbreviated words are expanded first, so "sg buloh" reads "Sungai Buloh".
func CanonicalStation(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if known, ok := lookupFold(KnownStations, name); ok {
		return known
	}
	if name == strings.ToUpper(name) {
		return name
	}

	words := strings.Fields(name)
	expanded := false
	for i, w := range words {
		if form, ok := stationWordForms[strings.ToLower(w)]; ok {
			words[i] = form
			expanded = true
			continue
		}
		words[i] = toTitle(w)
	}
	out := strings.Join(words, " ")
	if expanded {
		if known, ok := lookupFold(KnownStations, out); ok {
			return known
		}
	}
	return out
}

// CanonicalLocation returns the vocabulary spelling of a locality
func CanonicalLocation(name string) string {
	if known, ok := lookupFold(Locations, name); ok {
		return known
	}
	return toTitle(name)
}

// toTitle builds a Caser per call; a Caser must not be shared between goroutines
func toTitle(s string) string {
	return cases.Title(language.English).String(s)
}

func lookupFold(list []string, name string) (string, bool) {
	for _, v := range list {
		if strings.EqualFold(v, name) {
			return v, true
		}
	}
	return "", false
}
