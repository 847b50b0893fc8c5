package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordsRanksByFrequency(t *testing.T) {
	text := "pipeline export review export pipeline export"

	assert.Equal(t, []string{"export", "pipeline", "review"}, Keywords(text, 5))
	assert.Equal(t, []string{"export", "pipeline"}, Keywords(text, 2))
}

func TestKeywordsTiesKeepFirstOccurrenceOrder(t *testing.T) {
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, Keywords("alpha beta alpha beta gamma", 5))
}

func TestKeywordsFiltersStopwordsAndShortTokens(t *testing.T) {
	assert.Empty(t, Keywords("the and for you all it a of", 5))
	assert.Equal(t, []string{"export"}, Keywords("the export and", 5))
}

func TestKeywordsZeroLimit(t *testing.T) {
	assert.Nil(t, Keywords("anything at all", 0))
}

func TestPatterns(t *testing.T) {
	text := "Finish the rollout by Friday, built using Terraform for client Acme. This is urgent priority work on project Atlas."

	got := Patterns(text)

	assert.Equal(t, []string{"Friday"}, got["deadlines"])
	assert.Equal(t, []string{"Terraform"}, got["technologies"])
	assert.Equal(t, []string{"Acme"}, got["stakeholders"])
	assert.Equal(t, []string{"Atlas"}, got["projects"])
	assert.Equal(t, []string{"urgent priority"}, got["priorities"])
}

func TestPatternsDedupesAndOmitsEmptyGroups(t *testing.T) {
	got := Patterns("due Monday and again due Monday")

	assert.Equal(t, []string{"Monday"}, got["deadlines"])
	_, hasProjects := got["projects"]
	assert.False(t, hasProjects)
}

func TestTagsCombinesSources(t *testing.T) {
	text := "Meeting notes: decide the export rollout by Friday."
	keywords := []string{"export", "rollout", "notes", "friday"}
	patterns := Patterns(text)

	tags := Tags(text, keywords, patterns, 5)

	assert.Len(t, tags, 5)
	assert.Equal(t, []string{"export", "rollout", "notes"}, tags[:3], "top three keywords lead")
	assert.Contains(t, tags, "deadline")
	assert.Contains(t, tags, "meeting")
}

func TestTagsDedupes(t *testing.T) {
	tags := Tags("nothing special", []string{"meeting", "meeting"}, nil, 5)
	assert.Equal(t, []string{"meeting"}, tags)
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard([]string{"a", "b"}, []string{"b", "a"}))
	assert.Equal(t, 0.0, Jaccard([]string{"a"}, []string{"b"}))
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.InDelta(t, 1.0/3.0, Jaccard([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
}
