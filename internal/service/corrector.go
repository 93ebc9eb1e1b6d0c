package service

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"propsearch/internal/config"
	"propsearch/internal/model"
	"propsearch/internal/utils"
)

const (
	minLocationTokenLen = 3
	minTypeTokenLen     = 4
	maxLocationWindow   = 3
)

// Corrector fixes typos in location and property-type words before parsing
type Corrector struct {
	locationThreshold float64
	typeThreshold     float64
	maxLengthRatio    float64

	// location candidates grouped by word count
	locationsByWords map[int][]string
}

// NewCorrector creates a corrector using the parser thresholds
func NewCorrector(cfg config.ParserConfig) *Corrector {
	c := &Corrector{
		locationThreshold: cfg.LocationThreshold,
		typeThreshold:     cfg.TypeThreshold,
		maxLengthRatio:    cfg.MaxLengthRatio,
		locationsByWords:  make(map[int][]string),
	}
	for _, loc := range utils.Locations {
		n := len(strings.Fields(loc))
		c.locationsByWords[n] = append(c.locationsByWords[n], loc)
	}
	return c
}

type token struct {
	lead, core, trail string
}

func splitToken(raw string) token {
	start := strings.IndexFunc(raw, isWordRune)
	if start < 0 {
		return token{lead: raw}
	}
	end := strings.LastIndexFunc(raw, isWordRune)
	_, size := utf8.DecodeRuneInString(raw[end:])
	return token{lead: raw[:start], core: raw[start : end+size], trail: raw[end+size:]}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// correctable reports whether a token may take part in correction at all
func correctable(t token) bool {
	return t.core != "" && !hasDigit(t.core) && !utils.SkipCorrection(t.core)
}

// Correct returns text with typos replaced and the list of applied fixes.
// Known vocabulary terms are never altered.
func (c *Corrector) Correct(text string) (string, []model.Correction) {
	fields := strings.Fields(text)
	tokens := make([]token, len(fields))
	for i, f := range fields {
		tokens[i] = splitToken(f)
	}

	out := make([]string, 0, len(tokens))
	corrections := make([]model.Correction, 0)

	for i := 0; i < len(tokens); {
		if n, to, fix, ok := c.correctLocationWindow(tokens[i:]); ok {
			if fix == nil {
				out = append(out, fields[i:i+n]...)
			} else {
				out = append(out, tokens[i].lead+to+tokens[i+n-1].trail)
				corrections = append(corrections, *fix)
			}
			i += n
			continue
		}

		t := tokens[i]
		if correctable(t) && !utils.IsKnownWord(t.core) {
			if fix, ok := c.correctLocationToken(t.core); ok {
				corrections = append(corrections, fix)
				out = append(out, t.lead+fix.To+t.trail)
				i++
				continue
			}
			if fix, ok := c.correctTypeToken(t.core); ok {
				corrections = append(corrections, fix)
				out = append(out, t.lead+fix.To+t.trail)
				i++
				continue
			}
		}
		out = append(out, fields[i])
		i++
	}

	return strings.Join(out, " "), corrections
}

// correctLocationWindow tries multi-word place names starting at tokens[0].
// It returns the number of tokens consumed and their replacement; fix is nil
// when the window already spells a known place.
func (c *Corrector) correctLocationWindow(tokens []token) (int, string, *model.Correction, bool) {
	for n := maxLocationWindow; n >= 2; n-- {
		if len(tokens) < n {
			continue
		}
		window := tokens[:n]
		words := make([]string, 0, n)
		unknown := false
		valid := true
		for k, t := range window {
			if !correctable(t) && !(t.core != "" && utils.IsLocationWord(t.core)) {
				valid = false
				break
			}
			// inner punctuation splits phrases
			if (k > 0 && t.lead != "") || (k < n-1 && t.trail != "") {
				valid = false
				break
			}
			if !utils.IsKnownWord(t.core) {
				unknown = true
			}
			words = append(words, t.core)
		}
		if !valid {
			continue
		}
		phrase := strings.Join(words, " ")

		if !unknown {
			if known, ok := exactFold(c.locationsByWords[n], phrase); ok {
				return n, known, nil, true
			}
			continue
		}

		m, ok := utils.BestMatch(phrase, c.locationsByWords[n], c.locationThreshold)
		if !ok || !c.withinLength(phrase, m.Candidate) {
			continue
		}
		if m.Score == utils.ScoreExact {
			return n, m.Candidate, nil, true
		}
		return n, m.Candidate, &model.Correction{From: phrase, To: m.Candidate, Score: round2(m.Score)}, true
	}
	return 0, "", nil, false
}

func (c *Corrector) correctLocationToken(word string) (model.Correction, bool) {
	if utf8.RuneCountInString(word) < minLocationTokenLen {
		return model.Correction{}, false
	}
	for _, m := range utils.RankCandidates(word, c.locationsByWords[1], c.locationThreshold) {
		if m.Score == utils.ScoreExact {
			return model.Correction{}, false
		}
		if c.withinLength(word, m.Candidate) {
			return model.Correction{From: word, To: m.Candidate, Score: round2(m.Score)}, true
		}
	}
	return model.Correction{}, false
}

func (c *Corrector) correctTypeToken(word string) (model.Correction, bool) {
	if utf8.RuneCountInString(word) < minTypeTokenLen {
		return model.Correction{}, false
	}
	m, ok := utils.BestMatch(word, utils.PropertyTypeTerms, c.typeThreshold)
	if !ok || m.Score == utils.ScoreExact || !c.withinLength(word, m.Candidate) {
		return model.Correction{}, false
	}
	// inflected forms such as "condos" keep their spelling
	if strings.Contains(strings.ToLower(word), m.Candidate) {
		return model.Correction{}, false
	}
	return model.Correction{From: word, To: m.Candidate, Score: round2(m.Score)}, true
}

// withinLength rejects corrections that blow a token up into a much longer name
func (c *Corrector) withinLength(from, to string) bool {
	return float64(utf8.RuneCountInString(to)) <= c.maxLengthRatio*float64(utf8.RuneCountInString(from))
}

func exactFold(list []string, s string) (string, bool) {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
