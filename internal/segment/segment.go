package segment

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// Segmenter locates character and word boundaries within a run of text.
// All offsets are code point offsets into text. Implementations clamp
// out-of-range offsets rather than failing.
type Segmenter interface {
	// PreviousCharacter returns the start of the character before offset.
	PreviousCharacter(text string, offset int) int

	// NextCharacter returns the end of the character after offset.
	NextCharacter(text string, offset int) int

	// PreviousWord returns the start of the word before offset, skipping
	// any separators between offset and that word.
	PreviousWord(text string, offset int) int

	// NextWord returns the end of the word after offset, skipping any
	// separators between offset and that word.
	NextWord(text string, offset int) int
}

// Unicode is the default Segmenter based on UAX #29 segmentation.
type Unicode struct{}

// Default returns the default Unicode segmenter.
func Default() Segmenter {
	return Unicode{}
}

// span is a segment of text measured in code points.
type span struct {
	start, end int
	word       bool
}

// graphemes returns the grapheme cluster boundaries of text.
func graphemes(text string) []span {
	var spans []span
	pos := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		n := len(g.Runes())
		spans = append(spans, span{start: pos, end: pos + n})
		pos += n
	}
	return spans
}

// words returns the word segments of text.
func words(text string) []span {
	var spans []span
	pos := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var w string
		w, rest, state = uniseg.FirstWordInString(rest, state)
		n := 0
		isWord := false
		for _, r := range w {
			n++
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
				isWord = true
			}
		}
		spans = append(spans, span{start: pos, end: pos + n, word: isWord})
		pos += n
	}
	return spans
}

func clamp(offset, size int) int {
	if offset < 0 {
		return 0
	}
	if offset > size {
		return size
	}
	return offset
}

func runeCount(spans []span) int {
	if len(spans) == 0 {
		return 0
	}
	return spans[len(spans)-1].end
}

// PreviousCharacter implements Segmenter.
func (Unicode) PreviousCharacter(text string, offset int) int {
	spans := graphemes(text)
	offset = clamp(offset, runeCount(spans))
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].start < offset {
			return spans[i].start
		}
	}
	return 0
}

// NextCharacter implements Segmenter.
func (Unicode) NextCharacter(text string, offset int) int {
	spans := graphemes(text)
	size := runeCount(spans)
	offset = clamp(offset, size)
	for _, s := range spans {
		if s.end > offset {
			return s.end
		}
	}
	return size
}

// PreviousWord implements Segmenter.
func (Unicode) PreviousWord(text string, offset int) int {
	spans := words(text)
	offset = clamp(offset, runeCount(spans))
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].word && spans[i].start < offset {
			return spans[i].start
		}
	}
	return 0
}

// NextWord implements Segmenter.
func (Unicode) NextWord(text string, offset int) int {
	spans := words(text)
	size := runeCount(spans)
	offset = clamp(offset, size)
	for _, s := range spans {
		if s.word && s.end > offset {
			return s.end
		}
	}
	return size
}
