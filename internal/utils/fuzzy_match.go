package utils

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Scores assigned before edit distance is considered
const (
	ScoreExact       = 1.0
	ScoreSubstring   = 0.9
	ScorePrefix      = 0.95
	ScoreContains    = 0.85
	ScoreContainedBy = 0.8
)

// Match is a candidate with its normalized similarity score
type Match struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Levenshtein returns the unit-cost edit distance between a and b, counted in runes
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity is 1 - distance/max(len(a), len(b)), case-insensitive
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(longest)
}

// PartialSimilarity is the best Similarity between query and any run of
// consecutive words in text holding as many words as query. Each run is
// also compared cut to the query length so a partly typed word still scores.
func PartialSimilarity(query, text string) float64 {
	qWords := strings.Fields(strings.ToLower(query))
	tWords := strings.Fields(strings.ToLower(text))
	if len(qWords) == 0 || len(tWords) == 0 {
		return 0
	}
	q := strings.Join(qWords, " ")
	if len(tWords) <= len(qWords) {
		return Similarity(q, strings.Join(tWords, " "))
	}

	best := 0.0
	qLen := utf8.RuneCountInString(q)
	for i := 0; i+len(qWords) <= len(tWords); i++ {
		window := strings.Join(tWords[i:i+len(qWords)], " ")
		best = max(best, Similarity(q, window))
		if r := []rune(window); len(r) > qLen {
			best = max(best, Similarity(q, string(r[:qLen])))
		}
	}
	return best
}

// score applies exact > substring > edit-distance precedence
func score(token, candidate string, threshold float64) (float64, bool) {
	t, c := strings.ToLower(strings.TrimSpace(token)), strings.ToLower(candidate)
	if t == "" || c == "" {
		return 0, false
	}
	if t == c {
		return ScoreExact, true
	}
	if strings.Contains(c, t) || strings.Contains(t, c) {
		return ScoreSubstring, true
	}
	if s := Similarity(t, c); s >= threshold {
		return s, true
	}
	return 0, false
}

// BestMatch returns the highest-scoring candidate for token, or false when
// nothing reaches the threshold. The first candidate wins ties.
func BestMatch(token string, candidates []string, threshold float64) (Match, bool) {
	var best Match
	found := false
	for _, c := range candidates {
		s, ok := score(token, c, threshold)
		if !ok {
			continue
		}
		if s == ScoreExact {
			return Match{Candidate: c, Score: s}, true
		}
		if !found || s > best.Score {
			best = Match{Candidate: c, Score: s}
			found = true
		}
	}
	return best, found
}

// RankCandidates scores every candidate like BestMatch and returns the
// qualifying ones ordered by descending score.
func RankCandidates(token string, candidates []string, threshold float64) []Match {
	matches := make([]Match, 0)
	for _, c := range candidates {
		if s, ok := score(token, c, threshold); ok {
			matches = append(matches, Match{Candidate: c, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// MatchAll is the suggestion variant: prefix, contains and contained-by
// matches get separate tiers.
func MatchAll(token string, candidates []string, threshold float64) []Match {
	t := strings.ToLower(strings.TrimSpace(token))
	matches := make([]Match, 0)
	if t == "" {
		return matches
	}

	for _, c := range candidates {
		lc := strings.ToLower(c)
		var s float64
		switch {
		case lc == t:
			s = ScoreExact
		case strings.HasPrefix(lc, t):
			s = ScorePrefix
		case strings.Contains(lc, t):
			s = ScoreContains
		case strings.Contains(t, lc):
			s = ScoreContainedBy
		default:
			s = Similarity(t, lc)
			if s < threshold {
				continue
			}
		}
		matches = append(matches, Match{Candidate: c, Score: s})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
