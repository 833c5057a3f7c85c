package analyzer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/simpleflo/rdfusion/pkg/models"
)

// classificationSystemPrompt enumerates the closed subtype set, entity-type
// nouns, and forbidden tokens the LLM classification call must respect
// (spec §4.1 "LLM path").
const classificationSystemPrompt = `You are a query classifier for a patent/research retrieval system.
Classify the user's query into exactly one of these subtypes:
list, aggregation, ranking, trend_analysis, crosstab_analysis, impact_ranking,
nationality_ranking, concept, compound, recommendation, comparison, evalp_score, evalp_pref.

Entity types (closed set): patent, project, equip, proposal, evalp, evalp_pref,
evalp_detail, ancm, tech, applicant, ipc, org, gis, k12, 6t.

Never include a country name or an entity-type noun (특허, 과제, 장비, 제안서, 공고, 출원)
as a keyword; those are captured separately.

Respond with a single JSON object:
{"query_type":"sql|rag|hybrid|simple","query_subtype":"...","keywords":["..."],
"entity_types":["..."],"is_compound":false,"sub_queries":[]}`

func buildClassificationPrompt(query string, reasoning bool) string {
	if reasoning {
		return fmt.Sprintf("Query: %s\n\nThink step by step about the subtype and entities before producing the JSON.", query)
	}
	return fmt.Sprintf("Query: %s", query)
}

// llmClassification is the wire shape of the LLM's JSON response.
type llmClassification struct {
	QueryType    string   `json:"query_type"`
	QuerySubtype string   `json:"query_subtype"`
	Keywords     []string `json:"keywords"`
	EntityTypes  []string `json:"entity_types"`
	IsCompound   bool     `json:"is_compound"`
	SubQueries   []struct {
		Intent      string   `json:"intent"`
		Subtype     string   `json:"subtype"`
		EntityTypes []string `json:"entity_types"`
		Keywords    []string `json:"keywords"`
	} `json:"sub_queries"`
}

// braceMatch matches from the first '{' to the last '}' in the response,
// used as the second parse strategy when the model wraps JSON in prose. It
// does not balance braces, so trailing prose containing '}' is included.
var braceMatch = regexp.MustCompile(`\{[\s\S]*\}`)

// fieldRegexes back the third parse strategy: best-effort field extraction
// when the response is not valid JSON at all.
var (
	queryTypeFieldRe    = regexp.MustCompile(`"?query_type"?\s*[:=]\s*"?(\w+)"?`)
	querySubtypeFieldRe = regexp.MustCompile(`"?query_subtype"?\s*[:=]\s*"?(\w+)"?`)
)

// parseClassification tries direct JSON parse, then a brace-matched
// substring, then field-regex extraction, in that order (spec §4.1).
func parseClassification(raw string) (*Result, error) {
	if c, err := tryParseJSON(raw); err == nil {
		return classificationToResult(c), nil
	}

	if m := braceMatch.FindString(raw); m != "" {
		if c, err := tryParseJSON(m); err == nil {
			return classificationToResult(c), nil
		}
	}

	if c, ok := tryParseFields(raw); ok {
		return classificationToResult(c), nil
	}

	return nil, fmt.Errorf("could not parse LLM classification response")
}

func tryParseJSON(s string) (*llmClassification, error) {
	var c llmClassification
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, err
	}
	if c.QueryType == "" && c.QuerySubtype == "" {
		return nil, fmt.Errorf("empty classification")
	}
	return &c, nil
}

func tryParseFields(raw string) (*llmClassification, bool) {
	qt := queryTypeFieldRe.FindStringSubmatch(raw)
	qs := querySubtypeFieldRe.FindStringSubmatch(raw)
	if qt == nil && qs == nil {
		return nil, false
	}
	c := &llmClassification{}
	if qt != nil {
		c.QueryType = qt[1]
	}
	if qs != nil {
		c.QuerySubtype = qs[1]
	}
	return c, true
}

func classificationToResult(c *llmClassification) *Result {
	res := &Result{
		QueryType:    models.QueryType(strings.ToLower(c.QueryType)),
		QuerySubtype: models.QuerySubtype(strings.ToLower(c.QuerySubtype)),
		Keywords:     append([]string(nil), c.Keywords...),
		EntityTypes:  append([]string(nil), c.EntityTypes...),
		IsCompound:   c.IsCompound,
	}
	if res.QueryType == "" {
		res.QueryType = models.QueryTypeHybrid
	}
	for i, sq := range c.SubQueries {
		idx := i
		res.SubQueries = append(res.SubQueries, models.SubQuery{
			Index:       idx,
			Intent:      sq.Intent,
			Subtype:     models.QuerySubtype(sq.Subtype),
			EntityTypes: sq.EntityTypes,
			Keywords:    sq.Keywords,
			Priority:    idx,
		})
	}
	return res
}
