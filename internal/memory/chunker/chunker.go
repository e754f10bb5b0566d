// Package chunker splits page text into overlapping fixed-size windows for
// embedding.
package chunker

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSize    = 900
	DefaultOverlap = 120
)

// ErrInvalidWindow is returned when size is not positive or overlap is not
// in [0, size).
var ErrInvalidWindow = errors.New("chunker: overlap must be in [0, size) and size > 0")

// Chunk slides a window of size runes over text, stepping size-overlap runes
// each time. Every chunk except the last has exactly size runes; the last
// window ends at the end of the text. Whitespace-only input yields no chunks.
// Chunks are byte slices of text cut at rune starts, so an invalid UTF-8 byte
// counts as one rune and is carried through unchanged.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrInvalidWindow
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	offsets := runeOffsets(text)
	n := len(offsets) - 1
	var chunks []string
	for start := 0; start < n; {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, text[offsets[start]:offsets[end]])
		if end == n {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}

// runeOffsets returns the byte offset of every rune start plus len(text).
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		offsets = append(offsets, i)
		_, w := utf8.DecodeRuneInString(text[i:])
		i += w
	}
	return append(offsets, len(text))
}

// Default chunks text with DefaultSize and DefaultOverlap.
func Default(text string) []string {
	chunks, _ := Chunk(text, DefaultSize, DefaultOverlap)
	return chunks
}
