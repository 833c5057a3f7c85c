package catalog

import (
	"sort"
	"strings"
)

// countryTokens maps raw-query surface forms to normalized country codes
// (spec §4.1). "NOT_KR" is a negation pseudo-code, not an ISO code.
var countryTokens = map[string]string{
	"한국":  "KR",
	"대한민국": "KR",
	"KR":  "KR",
	"국내":  "KR",
	"미국":  "US",
	"USA": "US",
	"US":  "US",
	"일본":  "JP",
	"JP":  "JP",
	"중국":  "CN",
	"CN":  "CN",
	"독일":  "DE",
	"DE":  "DE",
	"영국":  "GB",
	"GB":  "GB",
	"해외":  "NOT_KR",
	"타국":  "NOT_KR",
	"외국":  "NOT_KR",
}

// ExtractCountries scans a raw query for country tokens and returns the
// normalized codes found (order of first occurrence, deduplicated), plus
// the list of raw tokens that matched (for scrubbing from keywords).
func ExtractCountries(query string) (codes []string, matched []string) {
	type hit struct {
		pos   int
		token string
	}
	var hits []hit
	for token := range countryTokens {
		if pos := strings.Index(query, token); pos >= 0 {
			hits = append(hits, hit{pos, token})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].token < hits[j].token
	})
	seen := make(map[string]bool)
	for _, h := range hits {
		matched = append(matched, h.token)
		if code := countryTokens[h.token]; !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes, matched
}

// IsCountryToken reports whether s is a recognized country surface form
// (used by the keyword-scrub pass and by property tests, spec invariant §3.4).
func IsCountryToken(s string) bool {
	_, ok := countryTokens[s]
	return ok
}

// SQLNationalityPredicate renders the nationality filter fragment for a
// normalized country code (spec §4.5 "country filter").
func SQLNationalityPredicate(code string) string {
	switch code {
	case "NOT_KR":
		return "ntcd != 'KR'"
	case "":
		return ""
	default:
		return "ntcd = '" + code + "'"
	}
}
