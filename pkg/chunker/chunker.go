// Package chunker splits normalized text into ordered, overlapping,
// size-bounded chunks suitable for embedding.
package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyText       = errors.New("text is empty")
	ErrInvalidStrategy = errors.New("invalid chunking strategy")
)

// DefaultSeparators lists break points in preference order: paragraph
// break, line break, sentence end, word boundary.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Strategy configures how text is cut into chunks.
type Strategy struct {
	Name         string   // label carried into chunk metadata
	MaxChunkSize int      // upper bound on characters per chunk
	Overlap      int      // characters repeated between consecutive chunks
	MinChunkSize int      // chunks below this are dropped unless sole chunk
	Separators   []string // preferred break points, most preferred first
}

// DefaultStrategy balances chunk size and overlap for general prose.
func DefaultStrategy() Strategy {
	return Strategy{
		Name:         "default",
		MaxChunkSize: 1000,
		Overlap:      200,
		MinChunkSize: 100,
		Separators:   DefaultSeparators,
	}
}

// SmallStrategy suits short content such as notes and task records.
func SmallStrategy() Strategy {
	return Strategy{
		Name:         "small",
		MaxChunkSize: 500,
		Overlap:      100,
		MinChunkSize: 50,
		Separators:   DefaultSeparators,
	}
}

// StructuredStrategy suits record-like content where related fields
// should stay together: larger chunks, more overlap.
func StructuredStrategy() Strategy {
	return Strategy{
		Name:         "structured",
		MaxChunkSize: 1500,
		Overlap:      300,
		MinChunkSize: 100,
		Separators:   DefaultSeparators,
	}
}

// Validate checks the strategy invariants.
func (s Strategy) Validate() error {
	if s.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: max chunk size must be positive", ErrInvalidStrategy)
	}
	if s.Overlap < 0 || s.Overlap >= s.MaxChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than max chunk size %d", ErrInvalidStrategy, s.Overlap, s.MaxChunkSize)
	}
	if s.MinChunkSize < 0 || s.MinChunkSize > s.MaxChunkSize {
		return fmt.Errorf("%w: min chunk size %d must not exceed max chunk size %d", ErrInvalidStrategy, s.MinChunkSize, s.MaxChunkSize)
	}
	return nil
}

var (
	horizontalRun = regexp.MustCompile(`[ \t]+`)
	newlineRun    = regexp.MustCompile(`\n{3,}`)
)

// Normalize collapses runs of spaces and tabs to a single space, collapses
// three or more consecutive newlines to two, and trims surrounding
// whitespace. Chunking always operates on normalized text.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Chunk splits text into ordered spans of at most MaxChunkSize characters,
// cutting at the most preferred separator found within each window and
// repeating Overlap characters between consecutive chunks. Deterministic:
// identical input always yields the identical sequence.
func Chunk(text string, s Strategy) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	norm := Normalize(text)
	if norm == "" {
		return nil, ErrEmptyText
	}

	runes := []rune(norm)
	var pieces []string
	cursor := 0
	for cursor < len(runes) {
		end := cursor + s.MaxChunkSize
		last := end >= len(runes)
		if last {
			end = len(runes)
		} else {
			end = cutPoint(runes, cursor, end, s.Separators)
		}

		piece := strings.TrimSpace(string(runes[cursor:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
		if last {
			break
		}

		// Guarantee forward progress even when the overlap would move the
		// cursor backwards.
		next := end - s.Overlap
		if next <= cursor {
			next = cursor + 1
		}
		cursor = next
	}

	if len(pieces) == 1 {
		// The sole chunk of a short document is exempt from MinChunkSize.
		return pieces, nil
	}
	kept := pieces[:0]
	for _, p := range pieces {
		if utf8.RuneCountInString(p) >= s.MinChunkSize {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// cutPoint searches backward from limit for the most preferred separator
// inside the window and returns the position immediately after it, or
// limit when no separator occurs.
func cutPoint(runes []rune, cursor, limit int, separators []string) int {
	window := string(runes[cursor:limit])
	for _, sep := range separators {
		if sep == "" {
			continue
		}
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		return cursor + utf8.RuneCountInString(window[:idx+len(sep)])
	}
	return limit
}
