package analyzer

import (
	"regexp"

	"github.com/simpleflo/rdfusion/internal/catalog"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// greetingPattern matches a greeting/help-style message with no retrieval
// intent (spec §4.1 fast path 1).
var greetingPattern = regexp.MustCompile(`(안녕|반갑|고마워|감사|도움말|help|hi|hello)`)

// matchGreeting implements the greeting/help fast path.
func matchGreeting(query string) (*Result, bool) {
	if !greetingPattern.MatchString(query) {
		return nil, false
	}
	return &Result{
		QueryType:   models.QueryTypeSimple,
		QueryIntent: "인사",
	}, true
}

// equipmentNounPattern matches an equipment-shaped noun ending in one of the
// known suffixes.
var equipmentNounPattern = regexp.MustCompile(`\S*(측정기|시험기|분석기|장치)`)

// searchVerbPattern matches a "search for / own" verb cue.
var searchVerbPattern = regexp.MustCompile(`(보유|찾아|검색|있는|알려)`)

// regionNounPattern matches a region noun cue.
var regionNounPattern = regexp.MustCompile(`(지역|권역|수도권|영남|호남|충청|강원|제주)`)

// matchEquipment implements the equipment-query fast path (spec §4.1 fast
// path 2, scenario 5): an equipment noun co-occurring with a search verb or
// a region noun routes straight to sql/list without an LLM call.
func matchEquipment(query string) (*Result, bool) {
	noun := equipmentNounPattern.FindString(query)
	if noun == "" {
		return nil, false
	}
	if !searchVerbPattern.MatchString(query) && !regionNounPattern.MatchString(query) {
		return nil, false
	}

	keywords := []string{noun}
	if root, ok := catalog.StripEquipmentSuffix(noun); ok {
		keywords = append(keywords, root)
	}

	res := &Result{
		QueryType:    models.QueryTypeSQL,
		QuerySubtype: models.SubtypeList,
		RankingType:  models.RankingSimple,
		Keywords:     keywords,
		EntityTypes:  []string{"equip"},
		IsEquipment:  true,
		QueryIntent:  "장비 보유 조회",
	}
	return res, true
}
