// Package suggest derives keywords, tags, and related entities from raw
// text. It is a cheap lexical complement to vector retrieval: no
// provider calls, fully deterministic.
package suggest

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "had": {}, "her": {},
	"was": {}, "one": {}, "our": {}, "out": {}, "day": {}, "get": {},
	"has": {}, "him": {}, "his": {}, "how": {}, "man": {}, "new": {},
	"now": {}, "old": {}, "see": {}, "two": {}, "way": {}, "who": {},
	"boy": {}, "did": {}, "its": {}, "let": {}, "put": {}, "say": {},
	"she": {}, "too": {}, "use": {},
}

// Keywords returns the most frequent meaningful words in text, most
// frequent first. Ties keep first-occurrence order so the result is
// deterministic.
func Keywords(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	type wordStat struct {
		word  string
		count int
		first int
	}
	stats := make(map[string]*wordStat, len(words))
	for i, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if s, ok := stats[w]; ok {
			s.count++
		} else {
			stats[w] = &wordStat{word: w, count: 1, first: i}
		}
	}

	ranked := make([]*wordStat, 0, len(stats))
	for _, s := range stats {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.word
	}
	return out
}

type patternScan struct {
	name      string
	re        *regexp.Regexp
	fullMatch bool
}

var patternScans = []patternScan{
	{"deadlines", regexp.MustCompile(`(?i)\b(?:due|deadline|by)\s+([^\s.,!?]+)`), false},
	{"projects", regexp.MustCompile(`(?i)\b(?:project|initiative|campaign)\s+([^\s.,!?]+)`), false},
	{"stakeholders", regexp.MustCompile(`(?i)\b(?:client|customer|user|stakeholder)\s+([^\s.,!?]+)`), false},
	{"technologies", regexp.MustCompile(`\b(?:using|with|via)\s+([A-Z][a-zA-Z]+)`), false},
	{"priorities", regexp.MustCompile(`(?i)\b(?:urgent|high|low|medium)\s+priority\b`), true},
}

// Patterns scans text for recognizable structures such as deadlines,
// project names, stakeholders, and priority markers. Matches are
// deduplicated in first-occurrence order; pattern groups with no matches
// are omitted.
func Patterns(text string) map[string][]string {
	out := make(map[string][]string)
	for _, scan := range patternScans {
		matches := scan.re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(matches))
		var values []string
		for _, m := range matches {
			v := m[0]
			if !scan.fullMatch && len(m) > 1 {
				v = m[1]
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		out[scan.name] = values
	}
	return out
}

var patternTags = map[string]string{
	"deadlines":    "deadline",
	"projects":     "project",
	"stakeholders": "stakeholder",
	"technologies": "technology",
	"priorities":   "priority",
}

var tagIndicators = []struct {
	tag        string
	indicators []string
}{
	{"meeting", []string{"meeting", "call", "discussion"}},
	{"todo", []string{"todo", "task", "action", "need to"}},
	{"idea", []string{"idea", "concept", "thought"}},
	{"issue", []string{"problem", "issue", "bug", "error"}},
	{"decision", []string{"decision", "choose", "select", "pick"}},
}

// Tags combines top keywords, detected pattern groups, and content
// indicators into a capped suggestion list.
func Tags(text string, keywords []string, patterns map[string][]string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for i, kw := range keywords {
		if i == 3 {
			break
		}
		add(kw)
	}
	for _, scan := range patternScans {
		if len(patterns[scan.name]) > 0 {
			add(patternTags[scan.name])
		}
	}
	lower := strings.ToLower(text)
	for _, ti := range tagIndicators {
		for _, indicator := range ti.indicators {
			if strings.Contains(lower, indicator) {
				add(ti.tag)
				break
			}
		}
	}

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

// Jaccard returns the set overlap of two keyword lists: intersection
// size over union size, 0 when both are empty.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// matching returns the sorted intersection of two keyword lists.
func matching(a, b []string) []string {
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, w := range a {
		if _, ok := setB[w]; !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
