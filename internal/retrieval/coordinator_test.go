package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstreamlabs/retrieval/internal/config"
	"github.com/workstreamlabs/retrieval/internal/embedding"
	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/internal/vectorstore"
)

// stubEmbedder returns the same fixed vector for every text. A nil vector
// simulates a generator whose provider produced nothing for any slot.
type stubEmbedder struct {
	vec []float32
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.vec == nil {
		return nil, nil
	}
	return append([]float32(nil), s.vec...), nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if s.vec == nil {
		return out, nil
	}
	for i := range out {
		out[i] = append([]float32(nil), s.vec...)
	}
	return out, nil
}

func (s *stubEmbedder) Config() embedding.ProviderConfig {
	return embedding.ProviderConfig{Model: "stub", Dimensions: len(s.vec), MaxTokens: 8000}
}

// hashGenerator wires a real generator over the deterministic provider so
// indexing tests run the full embed path offline.
func hashGenerator() *embedding.Generator {
	cfg := config.EmbeddingConfig{BatchSize: 100, BatchPause: time.Millisecond, Timeout: time.Second}
	return embedding.NewGenerator(embedding.NewHashProvider(64, 8000), nil, cfg, nil)
}

func taskEntity(id string) models.Entity {
	return models.Entity{
		ID:             id,
		Type:           models.EntityTypeTask,
		OrganizationID: "org-1",
		Fields: map[string]any{
			"title":       "Migrate billing exports",
			"description": "Move the nightly billing export to the new pipeline and verify totals match the ledger.",
			"status":      "in_progress",
			"priority":    "high",
		},
	}
}

func seedChunk(t *testing.T, store *vectorstore.MemoryStore, entityType, entityID string, vec []float32) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), &models.Chunk{
		ID:               models.ChunkID(entityType, entityID, 0),
		OrganizationID:   "org-1",
		SourceEntityType: entityType,
		SourceEntityID:   entityID,
		ChunkIndex:       0,
		Text:             "chunk from " + entityID,
		Embedding:        vec,
	}))
}

func TestIndexEntityCreatesChunks(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	coord := NewCoordinator(store, hashGenerator(), config.RetrievalConfig{}, nil)

	chunks, err := coord.IndexEntity(ctx, taskEntity("42"))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		assert.Equal(t, models.ChunkID("task", "42", i), chunk.ID)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "org-1", chunk.OrganizationID)
		assert.True(t, chunk.HasEmbedding(), "hash provider embeds every chunk")
		assert.Equal(t, "small", chunk.Metadata["strategy"])
		assert.NotEmpty(t, chunk.Metadata["original_length"])
		assert.NotEmpty(t, chunk.Metadata["processed_at"])
		assert.Contains(t, chunk.Metadata["keywords"], "billing")
	}

	stored, err := store.GetBySource(ctx, "task", "42")
	require.NoError(t, err)
	assert.Len(t, stored, len(chunks))
}

func TestIndexEntityIdempotent(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	coord := NewCoordinator(store, hashGenerator(), config.RetrievalConfig{}, nil)

	first, err := coord.IndexEntity(ctx, taskEntity("42"))
	require.NoError(t, err)
	second, err := coord.IndexEntity(ctx, taskEntity("42"))
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].Embedding, second[i].Embedding)
	}

	stored, err := store.GetBySource(ctx, "task", "42")
	require.NoError(t, err)
	assert.Len(t, stored, len(first), "re-indexing overwrites instead of duplicating")
}

func TestIndexEntityRejectsEmptyText(t *testing.T) {
	coord := NewCoordinator(vectorstore.NewMemoryStore(), hashGenerator(), config.RetrievalConfig{}, nil)

	entity := models.Entity{ID: "7", Type: models.EntityTypeTask, OrganizationID: "org-1", Fields: map[string]any{}}
	_, err := coord.IndexEntity(context.Background(), entity)
	require.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestIndexEntityRejectsMissingIdentity(t *testing.T) {
	coord := NewCoordinator(vectorstore.NewMemoryStore(), hashGenerator(), config.RetrievalConfig{}, nil)

	entity := taskEntity("42")
	entity.ID = ""
	_, err := coord.IndexEntity(context.Background(), entity)
	require.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestIndexEntityKeepsTextOnlyChunkWhenEmbeddingAbsent(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	coord := NewCoordinator(store, &stubEmbedder{vec: nil}, config.RetrievalConfig{}, nil)

	chunks, err := coord.IndexEntity(ctx, taskEntity("42"))
	require.NoError(t, err, "a failed embedding must not fail indexing")
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.False(t, chunk.HasEmbedding())
		assert.NotEmpty(t, chunk.Text)
	}

	candidates, err := store.SearchCandidates(ctx, vectorstore.Filter{OrganizationID: "org-1"})
	require.NoError(t, err)
	assert.Empty(t, candidates, "text-only chunks stay out of similarity search")
}

func TestIndexEntitiesSkipsFailingEntity(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	coord := NewCoordinator(store, hashGenerator(), config.RetrievalConfig{}, nil)

	empty := models.Entity{ID: "9", Type: models.EntityTypeTask, OrganizationID: "org-1", Fields: map[string]any{}}
	chunks, err := coord.IndexEntities(ctx, []models.Entity{taskEntity("1"), empty, taskEntity("2")})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	one, err := store.GetBySource(ctx, "task", "1")
	require.NoError(t, err)
	two, err := store.GetBySource(ctx, "task", "2")
	require.NoError(t, err)
	nine, err := store.GetBySource(ctx, "task", "9")
	require.NoError(t, err)
	assert.NotEmpty(t, one)
	assert.NotEmpty(t, two)
	assert.Empty(t, nine)
}

func TestRetrieveEmptyStoreReturnsEmpty(t *testing.T) {
	coord := NewCoordinator(vectorstore.NewMemoryStore(), &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	results, err := coord.Retrieve(context.Background(), "org-1", "billing export status", Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveRanksFiltersAndAnnotates(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()

	// Cosine against the query [1,0] is the x component of a unit vector.
	seedChunk(t, store, "task", "high", []float32{0.9, 0.43589})
	seedChunk(t, store, "note", "low", []float32{0.3, 0.95394})
	seedChunk(t, store, "task", "mid", []float32{0.75, 0.66144})

	coord := NewCoordinator(store, &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	results, err := coord.Retrieve(ctx, "org-1", "export pipeline", Options{Threshold: 0.5, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "high", results[0].Chunk.SourceEntityID)
	assert.InDelta(t, 0.9, results[0].Similarity, 1e-3)
	assert.Equal(t, 1, results[0].Rank)

	assert.Equal(t, "mid", results[1].Chunk.SourceEntityID)
	assert.InDelta(t, 0.75, results[1].Similarity, 1e-3)
	assert.Equal(t, 2, results[1].Rank)

	assert.Equal(t, "chunk from high", results[0].Chunk.Text)
	assert.Equal(t, "org-1", results[0].Chunk.OrganizationID)
}

func TestRetrieveAppliesDefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		seedChunk(t, store, "task", id, []float32{1, 0})
	}

	coord := NewCoordinator(store, &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	results, err := coord.Retrieve(ctx, "org-1", "anything", Options{})
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRetrieveDefaultThresholdDropsWeakMatches(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	seedChunk(t, store, "task", "strong", []float32{1, 0})
	seedChunk(t, store, "task", "weak", []float32{0.2, 0.9798})

	coord := NewCoordinator(store, &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	results, err := coord.Retrieve(ctx, "org-1", "anything", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "strong", results[0].Chunk.SourceEntityID)
}

func TestRetrieveFiltersByEntityType(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	seedChunk(t, store, "task", "t1", []float32{1, 0})
	seedChunk(t, store, "note", "n1", []float32{1, 0})

	coord := NewCoordinator(store, &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	results, err := coord.Retrieve(ctx, "org-1", "anything", Options{EntityTypes: []string{"note"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "note", results[0].Chunk.SourceEntityType)
}

func TestRetrieveScopedToOrganization(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	seedChunk(t, store, "task", "mine", []float32{1, 0})
	require.NoError(t, store.Put(ctx, &models.Chunk{
		ID:               models.ChunkID("task", "theirs", 0),
		OrganizationID:   "org-2",
		SourceEntityType: "task",
		SourceEntityID:   "theirs",
		Text:             "other org",
		Embedding:        []float32{1, 0},
	}))

	coord := NewCoordinator(store, &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	results, err := coord.Retrieve(ctx, "org-1", "anything", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mine", results[0].Chunk.SourceEntityID)
}

func TestRetrieveRejectsBadInput(t *testing.T) {
	coord := NewCoordinator(vectorstore.NewMemoryStore(), &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	_, err := coord.Retrieve(context.Background(), "org-1", "   ", Options{})
	require.ErrorIs(t, err, models.ErrEmptyQuery)

	_, err = coord.Retrieve(context.Background(), "org-1", "valid", Options{Limit: -1})
	require.ErrorIs(t, err, models.ErrInvalidLimit)
}

func TestRetrieveClampsNegativeSimilarity(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	seedChunk(t, store, "task", "opposite", []float32{-1, 0})

	coord := NewCoordinator(store, &stubEmbedder{vec: []float32{1, 0}}, config.RetrievalConfig{}, nil)

	results, err := coord.Retrieve(ctx, "org-1", "anything", Options{Threshold: -2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, float64(0), results[0].Similarity)
}

func TestRemoveDropsEntityChunks(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	coord := NewCoordinator(store, hashGenerator(), config.RetrievalConfig{}, nil)

	_, err := coord.IndexEntity(ctx, taskEntity("42"))
	require.NoError(t, err)
	require.NoError(t, coord.Remove(ctx, "task", "42"))

	chunks, err := coord.ChunksBySource(ctx, "task", "42")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRebuildReembedsStoredChunks(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	coord := NewCoordinator(store, hashGenerator(), config.RetrievalConfig{}, nil)

	taskChunks, err := coord.IndexEntity(ctx, taskEntity("1"))
	require.NoError(t, err)
	noteChunks, err := coord.IndexEntity(ctx, models.Entity{
		ID:             "n1",
		Type:           models.EntityTypeNote,
		OrganizationID: "org-1",
		Fields:         map[string]any{"content": "Customer asked for an onsite workshop next quarter."},
	})
	require.NoError(t, err)

	written, err := coord.Rebuild(ctx, "org-1", nil)
	require.NoError(t, err)
	assert.Equal(t, len(taskChunks)+len(noteChunks), written)

	stored, err := store.GetBySource(ctx, "task", "1")
	require.NoError(t, err)
	for _, chunk := range stored {
		assert.True(t, chunk.HasEmbedding())
	}
}

func TestRebuildFiltersByEntityType(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	coord := NewCoordinator(store, hashGenerator(), config.RetrievalConfig{}, nil)

	_, err := coord.IndexEntity(ctx, taskEntity("1"))
	require.NoError(t, err)
	noteChunks, err := coord.IndexEntity(ctx, models.Entity{
		ID:             "n1",
		Type:           models.EntityTypeNote,
		OrganizationID: "org-1",
		Fields:         map[string]any{"content": "Renewal call notes with pricing follow-ups."},
	})
	require.NoError(t, err)

	written, err := coord.Rebuild(ctx, "org-1", []string{"note"})
	require.NoError(t, err)
	assert.Equal(t, len(noteChunks), written)
}

func TestRebuildEmptyOrg(t *testing.T) {
	coord := NewCoordinator(vectorstore.NewMemoryStore(), hashGenerator(), config.RetrievalConfig{}, nil)

	written, err := coord.Rebuild(context.Background(), "org-1", nil)
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestProviderConfigPassthrough(t *testing.T) {
	coord := NewCoordinator(vectorstore.NewMemoryStore(), hashGenerator(), config.RetrievalConfig{}, nil)

	cfg := coord.ProviderConfig()
	assert.Equal(t, 64, cfg.Dimensions)
	assert.Equal(t, "hash-sha256", cfg.Model)
}

func TestSelectStrategy(t *testing.T) {
	assert.Equal(t, "small", selectStrategy(models.EntityTypeTask, 120).Name)
	assert.Equal(t, "structured", selectStrategy(models.EntityTypeTask, 2400).Name)
	assert.Equal(t, "structured", selectStrategy(models.EntityTypeOpportunity, 900).Name)
	assert.Equal(t, "default", selectStrategy(models.EntityTypeNote, 2400).Name)
	assert.Equal(t, "default", selectStrategy(models.EntityTypeDocument, 5000).Name)
}
