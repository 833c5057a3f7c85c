package graphx

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PageRankTopK runs FalkorDB's built-in PageRank procedure restricted to
// nodes matching the given keywords and returns the top k by score (spec
// §4.6 "GRAPH_ONLY": "PageRank prefix search"). Results are cached per
// keyword set for PageRankTTL (spec §5 "graph PageRank... cache").
func (s *Store) PageRankTopK(ctx context.Context, keywords []string, k int) ([]PageRankNode, error) {
	if k <= 0 {
		k = 10
	}
	cacheKey := fmt.Sprintf("%s|%d", strings.Join(keywords, ","), k)

	entry, err := s.pageRankCache.GetOrCompute(cacheKey, func() (cacheEntry[[]PageRankNode], error) {
		nodes, err := s.pageRankQuery(ctx, keywords, k)
		if err != nil {
			return cacheEntry[[]PageRankNode]{}, err
		}
		return cacheEntry[[]PageRankNode]{value: nodes, expires: time.Now().Add(s.pageRankTTL)}, nil
	})
	if err != nil {
		return nil, err
	}
	if time.Now().After(entry.expires) {
		nodes, err := s.pageRankQuery(ctx, keywords, k)
		if err != nil {
			return entry.value, nil // serve stale on refresh failure
		}
		return nodes, nil
	}
	return entry.value, nil
}

func (s *Store) pageRankQuery(ctx context.Context, keywords []string, k int) ([]PageRankNode, error) {
	filter := keywordDisjunctionCypher("n", keywords)
	cypher := fmt.Sprintf(`CALL algo.pageRank() YIELD node, score
WITH node AS n, score
WHERE %s
RETURN n.id, n.name, score
ORDER BY score DESC
LIMIT %d`, filter, k)

	_, rows, err := s.query(ctx, cypher)
	if err != nil {
		return nil, err
	}
	out := make([]PageRankNode, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		out = append(out, PageRankNode{
			NodeID: cellString(row[0]),
			Name:   cellString(row[1]),
			Score:  cellFloat(row[2]),
		})
	}
	return out, nil
}

// LouvainCommunities runs FalkorDB's Louvain community-detection procedure
// over the whole graph and returns a node-id → membership map, including
// each community's size so callers can apply the size-based boost (spec
// §4.6 "Graph cross-validation"). Cached for LouvainTTL.
func (s *Store) LouvainCommunities(ctx context.Context) (map[string]CommunityMembership, error) {
	entry, err := s.louvainCache.GetOrCompute("all", func() (cacheEntry[map[string]CommunityMembership], error) {
		m, err := s.louvainQuery(ctx)
		if err != nil {
			return cacheEntry[map[string]CommunityMembership]{}, err
		}
		return cacheEntry[map[string]CommunityMembership]{value: m, expires: time.Now().Add(s.louvainTTL)}, nil
	})
	if err != nil {
		return nil, err
	}
	if time.Now().After(entry.expires) {
		if m, err := s.louvainQuery(ctx); err == nil {
			return m, nil
		}
	}
	return entry.value, nil
}

func (s *Store) louvainQuery(ctx context.Context) (map[string]CommunityMembership, error) {
	cypher := `CALL algo.louvain() YIELD node, community RETURN node.id, community`
	_, rows, err := s.query(ctx, cypher)
	if err != nil {
		return nil, err
	}

	members := make(map[string]CommunityMembership, len(rows))
	sizes := make(map[int64]int)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		id := cellString(row[0])
		community := cellInt(row[1])
		members[id] = CommunityMembership{NodeID: id, Community: int(community)}
		sizes[community]++
	}
	for id, m := range members {
		m.CommunitySize = sizes[int64(m.Community)]
		members[id] = m
	}
	return members, nil
}

// CommunityOf looks up a single node's membership, computing the whole
// Louvain partition on first use (spec §4.6 "look up Louvain community").
func (s *Store) CommunityOf(ctx context.Context, nodeID string) (CommunityMembership, bool) {
	all, err := s.LouvainCommunities(ctx)
	if err != nil {
		return CommunityMembership{}, false
	}
	m, ok := all[nodeID]
	return m, ok
}

// NeighborsOfNode returns nodes reachable from nodeID within depth hops
// (spec §6 "neighbors-of-node with depth").
func (s *Store) NeighborsOfNode(ctx context.Context, nodeID string, depth int) ([]Neighbor, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > 5 {
		depth = 5
	}
	cypher := fmt.Sprintf(`MATCH path = (start {id: '%s'})-[*1..%d]-(end)
RETURN DISTINCT end.id, end.name, length(path)`, sanitizeLiteral(nodeID), depth)

	_, rows, err := s.query(ctx, cypher)
	if err != nil {
		return nil, err
	}
	out := make([]Neighbor, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		out = append(out, Neighbor{
			NodeID: cellString(row[0]),
			Name:   cellString(row[1]),
			Hops:   int(cellInt(row[2])),
		})
	}
	return out, nil
}

// GraphStats returns the graph's aggregate node/edge counts (spec §6
// "graph statistics").
func (s *Store) GraphStats(ctx context.Context) (Stats, error) {
	_, rows, err := s.query(ctx, "MATCH (n) RETURN count(n)")
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	if len(rows) > 0 && len(rows[0]) > 0 {
		stats.NodeCount = cellInt(rows[0][0])
	}
	_, rows, err = s.query(ctx, "MATCH ()-[r]->() RETURN count(r)")
	if err != nil {
		return stats, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		stats.EdgeCount = cellInt(rows[0][0])
	}
	return stats, nil
}
