// Package retrieval owns the indexing and query lifecycle: entity text
// extraction, chunking, embedding, and similarity-ranked retrieval over
// an injected chunk store.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/workstreamlabs/retrieval/internal/config"
	"github.com/workstreamlabs/retrieval/internal/embedding"
	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/internal/suggest"
	"github.com/workstreamlabs/retrieval/internal/vectorstore"
	"github.com/workstreamlabs/retrieval/pkg/chunker"
	"github.com/workstreamlabs/retrieval/pkg/similarity"
)

const (
	defaultLimit     = 5
	defaultThreshold = 0.3

	// Canonical texts shorter than this chunk better with the small
	// strategy regardless of entity type.
	smallTextThreshold = 500
)

// Embedder is the slice of the embedding generator the coordinator
// depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Config() embedding.ProviderConfig
}

// Options tunes a single retrieve call. Zero values fall back to the
// coordinator's configured defaults.
type Options struct {
	Limit       int      `json:"limit,omitempty"`
	Threshold   float64  `json:"threshold,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

// Coordinator wires the chunker, the embedding generator, and the chunk
// store into the indexing and query operations. It holds no state beyond
// those handles, so instances are safe for concurrent use.
type Coordinator struct {
	store     vectorstore.Store
	embedder  Embedder
	logger    *slog.Logger
	limit     int
	threshold float64
}

func NewCoordinator(store vectorstore.Store, embedder Embedder, cfg config.RetrievalConfig, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = defaultLimit
	}
	threshold := cfg.DefaultThreshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Coordinator{
		store:     store,
		embedder:  embedder,
		logger:    logger,
		limit:     limit,
		threshold: threshold,
	}
}

// IndexEntity chunks the entity's canonical text, embeds the chunks, and
// upserts them into the store. Chunk ids derive from the entity type, id,
// and chunk index, so re-indexing unchanged text rewrites the same rows.
// Embedding failures leave the affected chunk text-only; they never fail
// the operation.
func (c *Coordinator) IndexEntity(ctx context.Context, entity models.Entity) ([]*models.Chunk, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	text := EntityText(entity)
	if text == "" {
		return nil, fmt.Errorf("%w: entity %s/%s has no indexable text", models.ErrEmptyInput, entity.Type, entity.ID)
	}

	strategy := selectStrategy(entity.Type, len(text))
	pieces, err := chunker.Chunk(text, strategy)
	if err != nil {
		return nil, fmt.Errorf("chunk entity text: %w", err)
	}

	vectors, err := c.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	now := time.Now().UTC()
	embedded := 0
	chunks := make([]*models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		metadata := map[string]string{
			"strategy":        strategy.Name,
			"original_length": strconv.Itoa(len(text)),
			"processed_at":    now.Format(time.RFC3339),
		}
		if keywords := suggest.Keywords(piece, 5); len(keywords) > 0 {
			metadata["keywords"] = strings.Join(keywords, ",")
		}
		chunk := &models.Chunk{
			ID:               models.ChunkID(entity.Type, entity.ID, i),
			OrganizationID:   entity.OrganizationID,
			SourceEntityType: entity.Type,
			SourceEntityID:   entity.ID,
			ChunkIndex:       i,
			Text:             piece,
			Metadata:         metadata,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if i < len(vectors) && len(vectors[i]) > 0 {
			chunk.Embedding = vectors[i]
			embedded++
		}
		if err := c.store.Put(ctx, chunk); err != nil {
			return nil, fmt.Errorf("store chunk %d: %w", i, err)
		}
		chunks = append(chunks, chunk)
	}

	c.logger.Info("indexed entity",
		"entity_type", entity.Type,
		"entity_id", entity.ID,
		"chunks", len(chunks),
		"embedded", embedded,
	)
	return chunks, nil
}

// IndexEntities indexes a batch. An entity that fails to index is logged
// and skipped so one bad record does not abort the rest; only context
// cancellation stops the batch early.
func (c *Coordinator) IndexEntities(ctx context.Context, entities []models.Entity) ([]*models.Chunk, error) {
	var all []*models.Chunk
	for _, entity := range entities {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}
		chunks, err := c.IndexEntity(ctx, entity)
		if err != nil {
			if ctx.Err() != nil {
				return all, err
			}
			c.logger.Warn("skipping entity",
				"entity_type", entity.Type,
				"entity_id", entity.ID,
				"error", err,
			)
			continue
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// Retrieve embeds the query, ranks every stored candidate in the
// organization against it, and returns the top results above the
// threshold. An empty candidate set or nothing above the threshold is an
// empty result, not an error.
func (c *Coordinator) Retrieve(ctx context.Context, orgID, query string, opts Options) ([]models.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.ErrEmptyQuery
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidLimit, opts.Limit)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = c.limit
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = c.threshold
	}

	queryVec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := c.store.SearchCandidates(ctx, vectorstore.Filter{
		OrganizationID: orgID,
		EntityTypes:    opts.EntityTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	simCandidates := make([]similarity.Candidate, 0, len(candidates))
	byID := make(map[string]vectorstore.Candidate, len(candidates))
	for _, cand := range candidates {
		id := cand.ID.String()
		simCandidates = append(simCandidates, similarity.Candidate{ID: id, Vector: cand.Embedding})
		byID[id] = cand
	}

	ranked := similarity.FilterByThreshold(similarity.Rank(queryVec, simCandidates), threshold)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]models.RetrievalResult, 0, len(ranked))
	for i, scored := range ranked {
		cand := byID[scored.ID]
		sim := scored.Similarity
		if sim < 0 {
			sim = 0
		}
		results = append(results, models.RetrievalResult{
			Chunk: &models.Chunk{
				ID:               cand.ID,
				OrganizationID:   orgID,
				SourceEntityType: cand.SourceEntityType,
				SourceEntityID:   cand.SourceEntityID,
				Text:             cand.Text,
			},
			Similarity: sim,
			Rank:       i + 1,
		})
	}

	c.logger.Debug("retrieve",
		"org_id", orgID,
		"candidates", len(candidates),
		"results", len(results),
		"threshold", threshold,
	)
	return results, nil
}

// Embed exposes standalone embedding for callers that manage their own
// vectors.
func (c *Coordinator) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.Embed(ctx, text)
}

// EmbedBatch embeds several texts at once, preserving input order. Slots
// that could not be embedded come back nil.
func (c *Coordinator) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embedder.EmbedBatch(ctx, texts)
}

// ProviderConfig reports the active embedding model, dimensions, and
// token ceiling.
func (c *Coordinator) ProviderConfig() embedding.ProviderConfig {
	return c.embedder.Config()
}

// ChunksBySource returns the stored chunks for one entity in chunk-index
// order.
func (c *Coordinator) ChunksBySource(ctx context.Context, entityType, entityID string) ([]*models.Chunk, error) {
	return c.store.GetBySource(ctx, entityType, entityID)
}

// Remove drops every chunk indexed from the given entity.
func (c *Coordinator) Remove(ctx context.Context, entityType, entityID string) error {
	return c.store.DeleteBySource(ctx, entityType, entityID)
}

// Rebuild re-embeds the stored chunks of every matching source, keeping
// chunk ids and text as they are. Useful after switching providers or to
// backfill vectors. Returns the number of chunks written; a source that
// fails is logged and skipped.
func (c *Coordinator) Rebuild(ctx context.Context, orgID string, entityTypes []string) (int, error) {
	candidates, err := c.store.SearchCandidates(ctx, vectorstore.Filter{
		OrganizationID: orgID,
		EntityTypes:    entityTypes,
	})
	if err != nil {
		return 0, fmt.Errorf("search candidates: %w", err)
	}

	type sourceRef struct {
		entityType string
		entityID   string
	}
	seen := make(map[sourceRef]struct{}, len(candidates))
	var sources []sourceRef
	for _, cand := range candidates {
		ref := sourceRef{cand.SourceEntityType, cand.SourceEntityID}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		sources = append(sources, ref)
	}

	total := 0
	for _, src := range sources {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := c.reindexSource(ctx, src.entityType, src.entityID)
		total += n
		if err != nil {
			c.logger.Warn("rebuild skipping source",
				"entity_type", src.entityType,
				"entity_id", src.entityID,
				"error", err,
			)
		}
	}

	c.logger.Info("rebuild finished", "org_id", orgID, "sources", len(sources), "chunks", total)
	return total, nil
}

func (c *Coordinator) reindexSource(ctx context.Context, entityType, entityID string) (int, error) {
	chunks, err := c.store.GetBySource(ctx, entityType, entityID)
	if err != nil {
		return 0, fmt.Errorf("get chunks: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	now := time.Now().UTC()
	written := 0
	for i, chunk := range chunks {
		// A slot the generator could not fill keeps its previous vector.
		if i < len(vectors) && len(vectors[i]) > 0 {
			chunk.Embedding = vectors[i]
		}
		chunk.UpdatedAt = now
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]string, 1)
		}
		chunk.Metadata["processed_at"] = now.Format(time.RFC3339)
		if err := c.store.Put(ctx, chunk); err != nil {
			return written, fmt.Errorf("store chunk %d: %w", chunk.ChunkIndex, err)
		}
		written++
	}
	return written, nil
}

func selectStrategy(entityType string, textLen int) chunker.Strategy {
	if textLen < smallTextThreshold {
		return chunker.SmallStrategy()
	}
	switch entityType {
	case models.EntityTypeTask, models.EntityTypeOpportunity, models.EntityTypeWorkflow:
		return chunker.StructuredStrategy()
	}
	return chunker.DefaultStrategy()
}
