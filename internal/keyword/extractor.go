// Package keyword substitutes for a Korean morphological analyzer: it
// extracts candidate noun-like tokens from free text by script-aware
// token splitting, length and stopword filtering, and frequency counting
// (spec §4.4 "Vector Enhancer").
package keyword

import (
	"regexp"
	"strings"

	"github.com/simpleflo/rdfusion/internal/catalog"
)

// tokenPattern splits on anything that is not a letter, digit, or hyphen,
// the same shape as the ecosystem's tokenizeQuery helper, generalized to
// operate over whatever script the payload uses rather than special-casing
// Korean particles.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}-]+`)

// MinTokenLength is the shortest candidate token length (substitutes for
// the NNG/NNP/SL morphological tags' minimum length requirement).
const MinTokenLength = 2

// FrequencyThreshold is the minimum occurrence count a candidate must
// clear before being proposed as an expansion keyword (spec §4.4).
const FrequencyThreshold = 60

// MaxCandidates caps the number of expansion keywords returned per entity
// (spec §4.4).
const MaxCandidates = 3

// Tokenize splits text into lowercase candidate tokens, dropping anything
// shorter than MinTokenLength or present in the domain stopword list.
func Tokenize(text string) []string {
	matches := tokenPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.ToLower(m)
		if utf8RuneCount(m) < MinTokenLength {
			continue
		}
		if catalog.IsEntityNoun(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func utf8RuneCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// FrequencyCount counts token occurrences across a set of payload texts.
func FrequencyCount(payloads []string) map[string]int {
	counts := make(map[string]int)
	for _, payload := range payloads {
		for _, tok := range Tokenize(payload) {
			counts[tok]++
		}
	}
	return counts
}

// scored pairs a candidate token with its payload-frequency count.
type scored struct {
	token string
	count int
}

// ExtractCandidates runs the full extraction pipeline: tokenize every
// payload, count frequencies, keep tokens at or above FrequencyThreshold,
// verify each survivor appears as a substring in at least one payload, and
// drop any candidate that is a strict substring of an original keyword
// (the compound-preservation rule, spec §4.4 "Never split the original
// compound keywords").
func ExtractCandidates(originalKeywords, payloads []string) []string {
	counts := FrequencyCount(payloads)

	var candidates []scored
	for tok, count := range counts {
		if count < FrequencyThreshold {
			continue
		}
		if isSubstringOfAny(tok, originalKeywords) {
			continue
		}
		if !verifiedInPayloads(tok, payloads) {
			continue
		}
		candidates = append(candidates, scored{token: tok, count: count})
	}

	sortByCountDesc(candidates)

	out := make([]string, 0, MaxCandidates)
	for _, c := range candidates {
		if len(out) >= MaxCandidates {
			break
		}
		out = append(out, c.token)
	}
	return out
}

func isSubstringOfAny(candidate string, keywords []string) bool {
	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if candidate != kwLower && strings.Contains(kwLower, candidate) {
			return true
		}
	}
	return false
}

func verifiedInPayloads(token string, payloads []string) bool {
	for _, p := range payloads {
		if strings.Contains(strings.ToLower(p), token) {
			return true
		}
	}
	return false
}

func sortByCountDesc(items []scored) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].count > items[j-1].count; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
