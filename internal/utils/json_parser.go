package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoObject means no JSON object could be recovered from model output
var ErrNoObject = errors.New("no JSON object in model output")

var (
	codeFenceRe     = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.+?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// ExtractModelObject recovers the filter object a chat model returned. Models
// asked for json_object mostly comply, but some wrap the object in a code
// fence, surround it with prose, or leave bare keys and trailing commas. The
// first candidate that is a valid JSON object wins.
func ExtractModelObject(content string) (json.RawMessage, error) {
	content = strings.TrimPrefix(strings.TrimSpace(content), "\ufeff")
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrNoObject)
	}

	for _, candidate := range objectCandidates(content) {
		if isObject(candidate) {
			return json.RawMessage(candidate), nil
		}
		if repaired := repairObject(candidate); isObject(repaired) {
			return json.RawMessage(repaired), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoObject, clip(content, 80))
}

// objectCandidates lists the substrings worth trying, most literal first
func objectCandidates(content string) []string {
	out := []string{content}
	if m := codeFenceRe.FindStringSubmatch(content); len(m) > 1 {
		out = append(out, m[1])
	}
	if start := strings.IndexByte(content, '{'); start >= 0 {
		if obj := balancedObject(content[start:]); obj != "" {
			out = append(out, obj)
		}
	}
	return out
}

func isObject(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// balancedObject returns the leading {...} of s, honouring string literals
func balancedObject(s string) string {
	depth := 0
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// repairObject fixes the malformations seen in model output: bare keys,
// trailing commas, single-quoted strings and stray control characters
func repairObject(s string) string {
	s = controlCharRe.ReplaceAllString(s, "")
	s = singleToDoubleQuotes(s)
	s = bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// singleToDoubleQuotes rewrites 'value' as "value" outside double-quoted
// strings; apostrophes inside words are left alone
func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble, inSingle := false, false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"' && !inSingle && (i == 0 || s[i-1] != '\\'):
			inDouble = !inDouble
		case ch == '\'' && !inDouble:
			if inSingle || opensValue(s, i) {
				inSingle = !inSingle
				ch = '"'
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func opensValue(s string, i int) bool {
	j := i - 1
	for j >= 0 && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
		j--
	}
	return j < 0 || strings.IndexByte("{[,:", s[j]) >= 0
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// PrettyPrintJSON formats v as indented JSON
func PrettyPrintJSON(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
