package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/workstreamlabs/retrieval/internal/models"
	"github.com/workstreamlabs/retrieval/internal/vectorstore"
)

const (
	maxKeywords = 5
	maxTags     = 5
	maxRelated  = 3

	// Minimum Jaccard overlap before two keyword sets count as related.
	relatedThreshold = 0.1
)

// Analysis is the full lexical breakdown of one text.
type Analysis struct {
	Keywords        []string            `json:"keywords"`
	Patterns        map[string][]string `json:"patterns,omitempty"`
	SuggestedTags   []string            `json:"suggested_tags"`
	RelatedEntities []RelatedEntity     `json:"related_entities"`
}

// RelatedEntity is an indexed entity whose keyword set overlaps the
// analyzed text.
type RelatedEntity struct {
	EntityType       string   `json:"entity_type"`
	EntityID         string   `json:"entity_id"`
	Similarity       float64  `json:"similarity"`
	MatchingKeywords []string `json:"matching_keywords"`
}

// Service analyzes text against the indexed chunks of an organization.
type Service struct {
	store  vectorstore.Store
	logger *slog.Logger
}

func NewService(store vectorstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Analyze extracts keywords, patterns, and suggested tags from text and
// looks up indexed entities with overlapping keyword sets.
func (s *Service) Analyze(ctx context.Context, orgID, text string) (*Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: nothing to analyze", models.ErrEmptyInput)
	}

	keywords := Keywords(text, maxKeywords)
	patterns := Patterns(text)
	tags := Tags(text, keywords, patterns, maxTags)

	related, err := s.relatedEntities(ctx, orgID, keywords)
	if err != nil {
		return nil, fmt.Errorf("find related entities: %w", err)
	}

	s.logger.Debug("analyzed text",
		"org_id", orgID,
		"keywords", len(keywords),
		"related", len(related),
	)
	return &Analysis{
		Keywords:        keywords,
		Patterns:        patterns,
		SuggestedTags:   tags,
		RelatedEntities: related,
	}, nil
}

func (s *Service) relatedEntities(ctx context.Context, orgID string, queryKeywords []string) ([]RelatedEntity, error) {
	if len(queryKeywords) == 0 {
		return nil, nil
	}

	candidates, err := s.store.SearchCandidates(ctx, vectorstore.Filter{OrganizationID: orgID})
	if err != nil {
		return nil, err
	}

	best := make(map[string]*RelatedEntity)
	for _, cand := range candidates {
		candKeywords := Keywords(cand.Text, maxKeywords)
		sim := Jaccard(queryKeywords, candKeywords)
		if sim <= relatedThreshold {
			continue
		}
		key := cand.SourceEntityType + ":" + cand.SourceEntityID
		if existing, ok := best[key]; ok && existing.Similarity >= sim {
			continue
		}
		best[key] = &RelatedEntity{
			EntityType:       cand.SourceEntityType,
			EntityID:         cand.SourceEntityID,
			Similarity:       sim,
			MatchingKeywords: matching(queryKeywords, candKeywords),
		}
	}

	related := make([]RelatedEntity, 0, len(best))
	for _, r := range best {
		related = append(related, *r)
	}
	sort.Slice(related, func(i, j int) bool {
		if related[i].Similarity != related[j].Similarity {
			return related[i].Similarity > related[j].Similarity
		}
		if related[i].EntityType != related[j].EntityType {
			return related[i].EntityType < related[j].EntityType
		}
		return related[i].EntityID < related[j].EntityID
	})
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	return related, nil
}
