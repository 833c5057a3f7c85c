// Package esscout implements the ES Scout: a cross-domain existence probe
// that reveals which entity backends actually contain documents matching
// the synonym-expanded query (spec §4.3, glossary "Scout").
package esscout

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/backend/esx"
	"github.com/simpleflo/rdfusion/internal/catalog"
	"github.com/simpleflo/rdfusion/internal/observability"
)

// perDomainHits bounds the best-effort ES fetch before filtering (spec §4.3
// step 3).
const perDomainHits = 50

// topKPerDomain bounds the post-filter result set emitted per domain.
const topKPerDomain = 20

// Scout runs the synonym-expansion → domain-filter → per-domain-search →
// match-filter → activation pipeline (spec §4.3).
type Scout struct {
	client   *esx.Client
	synonyms *catalog.SynonymDict
	logger   zerolog.Logger
}

// New constructs a Scout. client may be nil (ES disabled/unreachable);
// searches are then skipped and empty results are returned (spec §4.3
// "Failure").
func New(client *esx.Client, synonyms *catalog.SynonymDict) *Scout {
	return &Scout{client: client, synonyms: synonyms, logger: observability.Logger("esscout")}
}

// Result is the ES Scout's contract output (spec §4.3).
type Result struct {
	ESDocIDs    map[string][]string
	DomainHits  map[string]int
	EntityTypes []string
	Keywords    []string
}

// Run implements the full scout contract: state → {es_doc_ids, domain_hits,
// entity_types (maybe updated), keywords (synonym-expanded)}.
func (s *Scout) Run(ctx context.Context, query string, keywords, entityTypes []string) Result {
	expanded := s.synonyms.Expand(keywords, 3)

	domains := s.domainSet(query, entityTypes)

	esDocIDs := make(map[string][]string, len(domains))
	domainHits := make(map[string]int, len(domains))

	if s.client != nil {
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, domain := range domains {
			if s.client.Index(domain) == "" {
				continue
			}
			domain := domain
			wg.Add(1)
			go func() {
				defer wg.Done()
				ids, hits := s.searchDomain(ctx, domain, keywords, expanded)
				mu.Lock()
				defer mu.Unlock()
				esDocIDs[domain] = ids
				domainHits[domain] = hits
			}()
		}
		wg.Wait()
	}

	updatedEntityTypes, prunedDocIDs := s.applyEntityTypePolicy(entityTypes, domains, domainHits, esDocIDs)

	return Result{
		ESDocIDs:    prunedDocIDs,
		DomainHits:  domainHits,
		EntityTypes: updatedEntityTypes,
		Keywords:    expanded,
	}
}

// domainSet implements spec §4.3 step 2 "Domain filter".
func (s *Scout) domainSet(query string, entityTypes []string) []string {
	if len(entityTypes) > 0 {
		return entityTypes
	}
	domains := make([]string, 0, len(catalog.AllEntityTypes))
	excludeEquip := catalog.HasCapabilityCue(query)
	for _, d := range catalog.AllEntityTypes {
		if excludeEquip && d == "equip" {
			continue
		}
		domains = append(domains, d)
	}
	return domains
}

type scoredHit struct {
	hit   esx.Hit
	score int
}

// searchDomain implements spec §4.3 step 3 "Per-domain search" including
// the core-vs-synonym match filter.
func (s *Scout) searchDomain(ctx context.Context, domain string, core, expanded []string) ([]string, int) {
	queryText := strings.Join(expanded, " ")
	hits, err := s.client.Search(ctx, domain, queryText, esx.SearchOptions{Limit: perDomainHits})
	if err != nil {
		s.logger.Warn().Err(err).Str("domain", domain).Msg("es scout domain search failed")
		return nil, 0
	}

	synonymOnly := synonymTerms(core, expanded)

	var scored []scoredHit
	for _, h := range hits {
		text := strings.ToLower(hitText(h))
		coreMatch := containsAnyLower(text, core)
		synonymMatch := containsAnyLower(text, synonymOnly)

		var score int
		switch {
		case coreMatch && synonymMatch:
			score = 3
		case coreMatch:
			score = 2
		case synonymMatch:
			score = 1
		default:
			continue // neither core nor synonym matched: filtered out
		}
		scored = append(scored, scoredHit{hit: h, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].hit.Score > scored[j].hit.Score
	})

	if len(scored) > topKPerDomain {
		scored = scored[:topKPerDomain]
	}

	ids := make([]string, 0, len(scored))
	for _, sh := range scored {
		ids = append(ids, docID(sh.hit))
	}
	return ids, len(scored)
}

// synonymTerms returns the expansion terms that are not themselves original
// keywords (the "synonym" half of the core-vs-synonym split).
func synonymTerms(core, expanded []string) []string {
	coreSet := make(map[string]bool, len(core))
	for _, k := range core {
		coreSet[strings.ToLower(k)] = true
	}
	var out []string
	for _, k := range expanded {
		if !coreSet[strings.ToLower(k)] {
			out = append(out, k)
		}
	}
	return out
}

func hitText(h esx.Hit) string {
	var b strings.Builder
	for _, field := range []string{"title", "description", "summary"} {
		if v, ok := h.Source[field]; ok {
			if s, ok := v.(string); ok {
				b.WriteString(s)
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

func containsAnyLower(text string, terms []string) bool {
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// docID extracts the id field per spec §4.3 step 4: "documentid", "conts_id",
// "sbjt_id" as applicable, falling back to the ES document id.
func docID(h esx.Hit) string {
	for _, field := range []string{"documentid", "conts_id", "sbjt_id"} {
		if v, ok := h.Source[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return h.ID
}

// applyEntityTypePolicy implements spec §4.3 "Policy for entity_types
// update": if the analyzer left entity_types empty, set it to active
// domains (or the default set if none); if the analyzer provided entity
// types, keep them but prune es_doc_ids to that subset.
func (s *Scout) applyEntityTypePolicy(analyzerEntityTypes, scannedDomains []string, domainHits map[string]int, esDocIDs map[string][]string) ([]string, map[string][]string) {
	if len(analyzerEntityTypes) > 0 {
		pruned := make(map[string][]string, len(analyzerEntityTypes))
		for _, e := range analyzerEntityTypes {
			if ids, ok := esDocIDs[e]; ok {
				pruned[e] = ids
			}
		}
		return analyzerEntityTypes, pruned
	}

	var active []string
	for _, d := range scannedDomains {
		if domainHits[d] > 0 {
			active = append(active, d)
		}
	}
	if len(active) == 0 {
		active = append([]string(nil), catalog.DefaultEntityTypes...)
	}
	return active, esDocIDs
}
