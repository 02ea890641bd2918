// Package chunker splits raw document text into ordered, overlapping
// segments bounded by a character budget.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docquery/internal/domain"
)

// DefaultChunkSize is the default segment budget in characters.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of characters shared between
// consecutive segments.
const DefaultOverlap = 200

// separators, in priority order. Raw rune boundaries are the last resort.
var separators = []string{"\n\n", "\n", " "}

// Chunker splits text on a prioritized separator list so that every segment
// fits the size budget wherever a suitable boundary exists.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New validates the size parameters and returns a chunker.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("chunk size must be positive, got %d", chunkSize)}
	}
	if overlap < 0 {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("overlap must not be negative, got %d", overlap)}
	}
	if overlap >= chunkSize {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)}
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into ordered segments. Consecutive segments share the
// trailing overlap characters of their predecessor, so each segment stays
// within the chunk size. Pure function of its input; empty or blank text
// yields no segments.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	base := split(text, separators, c.chunkSize-c.overlap)
	if c.overlap == 0 || len(base) < 2 {
		return base
	}
	out := make([]string, len(base))
	out[0] = base[0]
	for i := 1; i < len(base); i++ {
		out[i] = tail(base[i-1], c.overlap) + base[i]
	}
	return out
}

// split recursively breaks text on the first separator present, then merges
// adjacent pieces back together while they fit the budget. Separator
// characters inside a merged segment are preserved; separators falling on a
// segment boundary are dropped.
func split(text string, seps []string, budget int) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}
	for i, sep := range seps {
		if !strings.Contains(text, sep) {
			continue
		}
		parts := strings.Split(text, sep)
		sepLen := utf8.RuneCountInString(sep)
		var out []string
		var cur strings.Builder
		curLen := 0
		flush := func() {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
				curLen = 0
			}
		}
		for _, part := range parts {
			partLen := utf8.RuneCountInString(part)
			if partLen > budget {
				flush()
				out = append(out, split(part, seps[i+1:], budget)...)
				continue
			}
			need := partLen
			if curLen > 0 {
				need += sepLen
			}
			if curLen+need > budget {
				flush()
			}
			if curLen > 0 {
				cur.WriteString(sep)
				curLen += sepLen
			}
			cur.WriteString(part)
			curLen += partLen
		}
		flush()
		return out
	}
	return splitRunes(text, budget)
}

// splitRunes cuts text at raw rune boundaries.
func splitRunes(text string, budget int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/budget+1)
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	runes := []rune(s)
	if n >= len(runes) {
		return s
	}
	return string(runes[len(runes)-n:])
}
