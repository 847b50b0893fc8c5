package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/workstreamlabs/retrieval/internal/models"
)

func retrievalResult(rank int, entityType, entityID, text string, sim float64) models.RetrievalResult {
	return models.RetrievalResult{
		Chunk: &models.Chunk{
			SourceEntityType: entityType,
			SourceEntityID:   entityID,
			Text:             text,
		},
		Similarity: sim,
		Rank:       rank,
	}
}

func TestBuildContextFormatsSections(t *testing.T) {
	results := []models.RetrievalResult{
		retrievalResult(1, "task", "42", "Renew the Acme contract before October.", 0.91),
		retrievalResult(2, "note", "7", "Acme asked about multi-year pricing.", 0.84),
	}

	got := BuildContext(results, 0)

	assert.Contains(t, got, "[1] task 42 (similarity 0.91)")
	assert.Contains(t, got, "Renew the Acme contract before October.")
	assert.Contains(t, got, "[2] note 7 (similarity 0.84)")
	assert.True(t, strings.Index(got, "[1]") < strings.Index(got, "[2]"), "sections keep rank order")
}

func TestBuildContextRespectsTokenBudget(t *testing.T) {
	long := strings.Repeat("pipeline migration notes and caveats. ", 40)
	results := []models.RetrievalResult{
		retrievalResult(1, "task", "1", long, 0.9),
		retrievalResult(2, "task", "2", long, 0.8),
		retrievalResult(3, "task", "3", long, 0.7),
	}

	got := BuildContext(results, 500)

	assert.Contains(t, got, "[1] task 1")
	assert.NotContains(t, got, "[3] task 3", "lowest-ranked section is dropped first")
}

func TestBuildContextEmptyResults(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil, 1000))
}
