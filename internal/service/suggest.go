package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"propsearch/internal/model"
	"propsearch/internal/repository"
	"propsearch/internal/utils"
)

const (
	minSuggestQuery        = 2
	suggestTitleLimit      = 50
	suggestFuzzyTitleLimit = 500
	suggestTitleFloor      = 70.0
	suggestFuzzyTitleFloor = 0.6
	suggestFuzzyFloor      = 0.6
	maxSuggestions         = 5
)

// Suggester produces autocomplete entries from listing titles and the
// location and property-type vocabularies
type Suggester struct {
	store PropertyStore
}

// NewSuggester creates an autocomplete service
func NewSuggester(store PropertyStore) *Suggester {
	return &Suggester{store: store}
}

// Suggest returns at most five suggestions for a partial query
func (s *Suggester) Suggest(ctx context.Context, q string) ([]model.Suggestion, error) {
	q = strings.TrimSpace(q)
	out := make([]model.Suggestion, 0, maxSuggestions)
	if len([]rune(q)) < minSuggestQuery {
		return out, nil
	}

	var rows, fuzzyRows []repository.TitleRow
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		rows, err = s.store.ListTitles(egCtx, q, suggestTitleLimit)
		return err
	})
	eg.Go(func() error {
		var err error
		fuzzyRows, err = s.store.ListTitles(egCtx, "", suggestFuzzyTitleLimit)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("autocomplete titles: %w", err)
	}

	all := make([]model.Suggestion, 0, len(rows)+len(fuzzyRows)+8)
	for _, row := range rows {
		score := suggestTitleFloor
		if m := utils.MatchAll(q, []string{row.Title}, 0); len(m) > 0 {
			score = max(score, m[0].Score*100)
		}
		all = append(all, model.Suggestion{Text: row.Title, Type: row.PropertyType, Kind: "property", Score: score})
	}
	// misspelt titles never match the containment pass
	for _, row := range fuzzyRows {
		if sim := utils.PartialSimilarity(q, row.Title); sim >= suggestFuzzyTitleFloor {
			all = append(all, model.Suggestion{Text: row.Title, Type: row.PropertyType, Kind: "property", Score: sim * 100})
		}
	}
	for _, m := range utils.MatchAll(q, utils.Locations, suggestFuzzyFloor) {
		all = append(all, model.Suggestion{Text: m.Candidate, Type: "location", Kind: "location", Score: m.Score * 100})
	}
	for _, m := range utils.MatchAll(q, utils.PropertyTypeTerms, suggestFuzzyFloor) {
		all = append(all, model.Suggestion{Text: m.Candidate, Type: m.Candidate, Kind: "property_type", Score: m.Score * 100})
	}

	sort.SliceStable(all, func(i, j int) bool {
		pi, pj := TypePriority(all[i].Type), TypePriority(all[j].Type)
		if pi != pj {
			return pi < pj
		}
		return all[i].Score > all[j].Score
	})

	seen := make(map[string]bool)
	for _, sg := range all {
		key := strings.ToLower(sg.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sg)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out, nil
}
