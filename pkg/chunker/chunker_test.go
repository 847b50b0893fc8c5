package chunker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "a    b\t\tc", "a b c"},
		{"keeps double newline", "para one\n\npara two", "para one\n\npara two"},
		{"collapses newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"normalizes crlf", "a\r\nb", "a\nb"},
		{"trims", "  hello  ", "hello"},
		{"whitespace only", " \t\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("The pipeline indexes workflow entities. ", 60)
	s := DefaultStrategy()

	first, err := Chunk(text, s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	second, err := Chunk(text, s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical input produced different chunk sequences")
	}
}

func TestChunkCoverageNoGaps(t *testing.T) {
	// Numbered sentences keep every substring position unique.
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "Task record %02d carries a status and owner. ", i)
	}
	text := b.String()
	s := Strategy{Name: "test", MaxChunkSize: 400, Overlap: 80, MinChunkSize: 0, Separators: DefaultSeparators}

	chunks, err := Chunk(text, s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	norm := Normalize(text)
	prevEnd := 0
	searchFrom := 0
	for i, c := range chunks {
		rel := strings.Index(norm[searchFrom:], c)
		if rel < 0 {
			t.Fatalf("chunk %d is not a substring of the normalized input", i)
		}
		start := searchFrom + rel
		if i == 0 && start != 0 {
			t.Errorf("first chunk starts at %d, want 0", start)
		}
		if i > 0 && start > prevEnd {
			t.Errorf("gap before chunk %d: starts at %d, previous ended at %d", i, start, prevEnd)
		}
		prevEnd = start + len(c)
		searchFrom = start + 1
	}
	if prevEnd != len(norm) {
		t.Errorf("last chunk ends at %d, want %d", prevEnd, len(norm))
	}
}

func TestChunkArticleOverlap(t *testing.T) {
	// Six ~380-char paragraphs of numbered sentences, so chunk positions
	// in the article are unambiguous.
	paras := make([]string, 6)
	n := 0
	for p := range paras {
		var b strings.Builder
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, "Roadmap note %02d continues this month. ", n)
			n++
		}
		paras[p] = strings.TrimSpace(b.String())
	}
	text := strings.Join(paras, "\n\n")
	s := Strategy{Name: "test", MaxChunkSize: 1000, Overlap: 200, MinChunkSize: 100, Separators: DefaultSeparators}

	chunks, err := Chunk(text, s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	norm := Normalize(text)
	prevEnd := 0
	searchFrom := 0
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 1000 {
			t.Errorf("chunk %d has %d chars, want <= 1000", i, n)
		}
		start := searchFrom + strings.Index(norm[searchFrom:], c)
		if i > 0 {
			overlap := prevEnd - start
			if overlap <= 0 || overlap > 200 {
				t.Errorf("chunk %d overlaps predecessor by %d chars, want 1..200", i, overlap)
			}
		}
		prevEnd = start + len(c)
		searchFrom = start + 1
	}
}

func TestChunkSeparatorPreference(t *testing.T) {
	// The window holds a paragraph break early and sentence breaks later;
	// the cut must honor the paragraph break.
	first := "Short opening paragraph."
	second := strings.TrimSpace(strings.Repeat("Follow-up detail sentence here. ", 6))
	text := first + "\n\n" + second

	s := Strategy{Name: "test", MaxChunkSize: 120, Overlap: 0, MinChunkSize: 0, Separators: DefaultSeparators}
	chunks, err := Chunk(text, s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if chunks[0] != first {
		t.Errorf("first chunk = %q, want cut at the paragraph break %q", chunks[0], first)
	}
}

func TestChunkHardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)
	s := Strategy{Name: "test", MaxChunkSize: 100, Overlap: 0, MinChunkSize: 0, Separators: DefaultSeparators}

	chunks, err := Chunk(text, s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want := []string{strings.Repeat("x", 100), strings.Repeat("x", 100), strings.Repeat("x", 50)}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("chunks = %v, want raw cuts at the size limit", chunks)
	}
}

func TestChunkSoleChunkExemptFromMinSize(t *testing.T) {
	s := DefaultStrategy() // MinChunkSize 100
	chunks, err := Chunk("Short note.", s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "Short note." {
		t.Errorf("chunks = %v, want the sole short chunk kept", chunks)
	}
}

func TestChunkDropsShortTrailingFragment(t *testing.T) {
	// Two pieces come out of the loop; the 20-char tail is below the
	// minimum and must be dropped.
	text := strings.TrimSpace(strings.Repeat("word ", 20)) + " tail fragment here"
	s := Strategy{Name: "test", MaxChunkSize: 100, Overlap: 0, MinChunkSize: 50, Separators: DefaultSeparators}

	chunks, err := Chunk(text, s)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk after dropping the fragment, got %d: %v", len(chunks), chunks)
	}
	if utf8.RuneCountInString(chunks[0]) < 50 {
		t.Errorf("kept chunk is below the minimum size: %q", chunks[0])
	}
}

func TestChunkInvalidStrategy(t *testing.T) {
	tests := []struct {
		name string
		s    Strategy
	}{
		{"zero max size", Strategy{MaxChunkSize: 0}},
		{"overlap equals max", Strategy{MaxChunkSize: 100, Overlap: 100}},
		{"negative overlap", Strategy{MaxChunkSize: 100, Overlap: -1}},
		{"min above max", Strategy{MaxChunkSize: 100, Overlap: 10, MinChunkSize: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Chunk("some text", tt.s); !errors.Is(err, ErrInvalidStrategy) {
				t.Errorf("err = %v, want ErrInvalidStrategy", err)
			}
		})
	}
}

func TestChunkEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		if _, err := Chunk(text, DefaultStrategy()); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Chunk(%q) err = %v, want ErrEmptyText", text, err)
		}
	}
}
