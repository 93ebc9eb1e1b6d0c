package service

import (
	"strings"
	"unicode"

	"propsearch/internal/utils"
)

const (
	minVowelRatio   = 0.25
	maxConsonantRun = 4
	minPlausibleLen = 3
)

// IsPlausible reports whether text can be a real search term: it needs
// letters and at least one token that is known vocabulary or reads like a
// word.
func IsPlausible(text string) bool {
	if strings.IndexFunc(text, unicode.IsLetter) < 0 {
		return false
	}
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, t := range tokens {
		if utils.IsKnownWord(t) || wordLike(t) {
			return true
		}
	}
	return false
}

// wordLike checks vowel density and the longest consonant run
func wordLike(token string) bool {
	letters, vowels, run, longest := 0, 0, 0, 0
	for _, r := range strings.ToLower(token) {
		if !unicode.IsLetter(r) {
			run = 0
			continue
		}
		letters++
		if strings.ContainsRune("aeiouy", r) {
			vowels++
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	if letters < minPlausibleLen {
		return false
	}
	return float64(vowels)/float64(letters) >= minVowelRatio && longest <= maxConsonantRun
}
