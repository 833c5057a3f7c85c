package catalog

import "strings"

// entityNouns are the entity-type nouns that must never survive into
// keywords (spec §4.1, invariant §3.5).
var entityNouns = []string{
	"특허", "과제", "장비", "제안서", "공고", "출원",
	"연구과제", "연구장비", "평가",
}

// equipmentSuffixes are stripped to recover the bare root of an equipment
// noun phrase for the equipment fast path (spec §4.1 scenario 5), e.g.
// "표면단차측정기" -> "표면단차".
var equipmentSuffixes = []string{"측정기", "시험기", "분석기", "장치", "시스템"}

// capabilityCues mark a query as asking about technical capability rather
// than equipment ownership (spec §4.3 domain filter).
var capabilityCues = []string{"역량", "보유", "기술력", "전문성"}

// StripEntityNouns removes entity-type nouns from a keyword list, returning
// a new slice with relative order preserved.
func StripEntityNouns(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if !containsAny(kw, entityNouns) {
			out = append(out, kw)
		}
	}
	return out
}

// IsEntityNoun reports whether s is one of the closed entity-type nouns.
func IsEntityNoun(s string) bool {
	for _, n := range entityNouns {
		if s == n {
			return true
		}
	}
	return false
}

// StripEquipmentSuffix strips a known equipment suffix, returning the bare
// root and true if a suffix was found.
func StripEquipmentSuffix(s string) (string, bool) {
	for _, suf := range equipmentSuffixes {
		if strings.HasSuffix(s, suf) && len(s) > len(suf) {
			return strings.TrimSuffix(s, suf), true
		}
	}
	return s, false
}

// HasCapabilityCue reports whether the raw query mentions a capability cue,
// which excludes "equip" from the ES scout's domain set (spec §4.3).
func HasCapabilityCue(query string) bool {
	return containsAny(query, capabilityCues)
}

func containsAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}
