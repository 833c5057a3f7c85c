package vectorx

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/observability"
)

// pointUUID derives a deterministic UUID from a chunk/document id so
// string-keyed domain ids can satisfy Qdrant's UUID point-id requirement.
func pointUUID(id string) string {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	hash := sha256.Sum256([]byte(id))
	return uuid.NewSHA1(namespace, hash[:]).String()
}

const defaultUpsertBatchSize = 100

// Point is one vector to store, keyed to a domain entity (spec §4.4
// "entity collections").
type Point struct {
	ID         string
	Vector     []float32
	EntityType string
	EntityID   string
	Title      string
	Payload    string
	Metadata   map[string]string
}

// SearchHit is a single dense-search result.
type SearchHit struct {
	ID         string
	Score      float32
	EntityType string
	EntityID   string
	Title      string
	Payload    string
	Metadata   map[string]string
}

// SearchOptions controls a Store.Search call.
type SearchOptions struct {
	Limit    int
	MinScore float32
}

// Store wraps one Qdrant collection per entity type (spec §4.4 "entity's
// collection(s)"). Collections are created lazily on first use.
type Store struct {
	client    *qdrant.Client
	dimension uint64
	batchSize int
	logger    zerolog.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// Config configures the vector store.
type Config struct {
	Host      string
	Port      int
	Dimension int
	BatchSize int
}

// New constructs a Store over a Qdrant gRPC client.
func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port <= 0 {
		cfg.Port = 6334
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultEmbeddingDimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultUpsertBatchSize
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: cfg.Host, Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &Store{
		client:    client,
		dimension: uint64(cfg.Dimension),
		batchSize: cfg.BatchSize,
		logger:    observability.Logger("vectorx.store"),
		ready:     make(map[string]bool),
	}, nil
}

// collectionName maps an entity type to its collection (spec §4.4
// "entity's collection(s)").
func collectionName(entityType string) string {
	return "rdfusion_" + entityType
}

// ensureCollection creates the entity's collection if it does not exist.
func (s *Store) ensureCollection(ctx context.Context, entityType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := collectionName(entityType)
	if s.ready[name] {
		return nil
	}

	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range collections {
		if c == name {
			s.ready[name] = true
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	for _, field := range []string{"entity_id", "entity_type"} {
		if _, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		}); err != nil {
			s.logger.Warn().Err(err).Str("field", field).Msg("failed to create field index")
		}
	}

	s.ready[name] = true
	return nil
}

// Upsert writes points into their entity's collection, batched.
func (s *Store) Upsert(ctx context.Context, entityType string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, entityType); err != nil {
		return err
	}

	qp := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := map[string]any{
			"entity_id":   p.EntityID,
			"entity_type": p.EntityType,
			"title":       p.Title,
			"payload":     p.Payload,
		}
		for k, v := range p.Metadata {
			payload[k] = v
		}
		qp[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointUUID(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	name := collectionName(entityType)
	for i := 0; i < len(qp); i += s.batchSize {
		end := i + s.batchSize
		if end > len(qp) {
			end = len(qp)
		}
		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: name, Points: qp[i:end]}); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// Search runs a dense similarity search against one entity's collection.
func (s *Store) Search(ctx context.Context, entityType string, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	if err := s.ensureCollection(ctx, entityType); err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}

	start := time.Now()
	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName(entityType),
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(opts.Limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: qdrant.PtrOf(opts.MinScore),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", entityType, err)
	}

	hits := make([]SearchHit, len(result))
	for i, point := range result {
		hit := SearchHit{Score: point.Score, Metadata: map[string]string{}}
		if payload := point.Payload; payload != nil {
			if v, ok := payload["entity_id"]; ok {
				hit.EntityID = v.GetStringValue()
			}
			if v, ok := payload["entity_type"]; ok {
				hit.EntityType = v.GetStringValue()
			}
			if v, ok := payload["title"]; ok {
				hit.Title = v.GetStringValue()
			}
			if v, ok := payload["payload"]; ok {
				hit.Payload = v.GetStringValue()
			}
			for k, v := range payload {
				switch k {
				case "entity_id", "entity_type", "title", "payload":
					continue
				default:
					hit.Metadata[k] = v.GetStringValue()
				}
			}
		}
		hit.ID = hit.EntityID
		hits[i] = hit
	}

	s.logger.Debug().Str("entity", entityType).Int("hits", len(hits)).Dur("duration", time.Since(start)).Msg("vector search")
	return hits, nil
}

// SearchMany fans a dense search out across several entity collections in
// parallel (spec §4.4 "parallel dense-vector search").
func (s *Store) SearchMany(ctx context.Context, entityTypes []string, vector []float32, opts SearchOptions) (map[string][]SearchHit, error) {
	type outcome struct {
		entity string
		hits   []SearchHit
		err    error
	}
	ch := make(chan outcome, len(entityTypes))
	var wg sync.WaitGroup
	for _, et := range entityTypes {
		et := et
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := s.Search(ctx, et, vector, opts)
			ch <- outcome{entity: et, hits: hits, err: err}
		}()
	}
	wg.Wait()
	close(ch)

	out := make(map[string][]SearchHit, len(entityTypes))
	for o := range ch {
		if o.err != nil {
			s.logger.Warn().Err(o.err).Str("entity", o.entity).Msg("vector search failed")
			continue
		}
		out[o.entity] = o.hits
	}
	return out, nil
}
