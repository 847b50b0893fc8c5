package retrieval

import (
	"fmt"
	"strings"

	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/pkg/tokenizer"
)

const defaultContextTokens = 2000

// BuildContext renders retrieval results into a human-readable grounding
// block, one source-tagged section per result, stopping before the token
// budget is exceeded. Results arrive already ranked, so truncation drops
// the least relevant ones.
func BuildContext(results []models.RetrievalResult, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = defaultContextTokens
	}

	var sb strings.Builder
	used := 0
	for _, r := range results {
		section := fmt.Sprintf("[%d] %s %s (similarity %.2f)\n%s",
			r.Rank, r.Chunk.SourceEntityType, r.Chunk.SourceEntityID, r.Similarity, r.Chunk.Text)
		cost := tokenizer.Estimate(section)
		if used+cost > maxTokens {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(section)
		used += cost
	}
	return sb.String()
}
