package splice

// A buffer over part of a source file that accepts edits addressed by
// positions in the original text. Edits never shift the positions of other
// edits, so they can be applied in any order.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/minibundle/minibundle/internal/helpers"
)

type edit struct {
	start int32
	end   int32
	text  string
	order int
}

type Buffer struct {
	original string
	intro    string
	outro    string
	edits    []edit
	start    int32
	end      int32
}

func New(original string) *Buffer {
	return &Buffer{original: original, end: int32(len(original))}
}

func (b *Buffer) Start() int32 {
	return b.start
}

func (b *Buffer) End() int32 {
	return b.end
}

// Returns an independent buffer over the given range of the original text.
// Edits already made inside that range are carried over.
func (b *Buffer) Snip(start int32, end int32) *Buffer {
	if start < b.start || end > b.end || start > end {
		panic(fmt.Sprintf("Internal error: cannot snip [%d, %d) from [%d, %d)", start, end, b.start, b.end))
	}
	clone := &Buffer{original: b.original, start: start, end: end}
	for _, e := range b.edits {
		if e.start >= start && e.end <= end {
			clone.edits = append(clone.edits, e)
		}
	}
	return clone
}

func (b *Buffer) Clone() *Buffer {
	clone := *b
	clone.edits = append([]edit{}, b.edits...)
	return &clone
}

// Replaces the original text in [start, end) with the given text. An empty
// range inserts the text at that position.
func (b *Buffer) Overwrite(start int32, end int32, text string) error {
	if start < b.start || end > b.end || start > end {
		return fmt.Errorf("cannot overwrite [%d, %d) outside of [%d, %d)", start, end, b.start, b.end)
	}
	for _, e := range b.edits {
		if start < e.end && e.start < end {
			return fmt.Errorf("cannot overwrite [%d, %d) because [%d, %d) was already edited", start, end, e.start, e.end)
		}
	}
	b.edits = append(b.edits, edit{start: start, end: end, text: text, order: len(b.edits)})
	return nil
}

func (b *Buffer) Remove(start int32, end int32) error {
	if start == end {
		return nil
	}
	return b.Overwrite(start, end, "")
}

func (b *Buffer) Prepend(text string) {
	b.intro = text + b.intro
}

func (b *Buffer) Append(text string) {
	b.outro += text
}

// Shrinks the range so it doesn't start or end with whitespace in the
// original text
func (b *Buffer) Trim() {
	for b.start < b.end && isWhitespace(b.original[b.start]) && !b.editedAt(b.start) {
		b.start++
	}
	for b.end > b.start && isWhitespace(b.original[b.end-1]) && !b.editedAt(b.end-1) {
		b.end--
	}
}

func (b *Buffer) editedAt(offset int32) bool {
	for _, e := range b.edits {
		if offset >= e.start && offset < e.end {
			return true
		}
	}
	return false
}

func (b *Buffer) String() string {
	edits := append([]edit{}, b.edits...)
	sort.SliceStable(edits, func(i int, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].order < edits[j].order
	})

	j := helpers.Joiner{}
	j.AddString(b.intro)
	offset := b.start
	for _, e := range edits {
		j.AddString(b.original[offset:e.start])
		j.AddString(e.text)
		offset = e.end
	}
	j.AddString(b.original[offset:b.end])
	j.AddString(b.outro)
	return j.Done()
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Many buffers joined together, each preceded by its own separator
type Bundle struct {
	intro   string
	outro   string
	sources []bundleSource
}

type bundleSource struct {
	buffer    *Buffer
	separator string
}

func (b *Bundle) AddSource(buffer *Buffer, separator string) {
	b.sources = append(b.sources, bundleSource{buffer: buffer, separator: separator})
}

func (b *Bundle) Prepend(text string) {
	b.intro = text + b.intro
}

func (b *Bundle) Append(text string) {
	b.outro += text
}

func (b *Bundle) String() string {
	j := helpers.Joiner{}
	j.AddString(b.intro)
	for i, source := range b.sources {
		if i > 0 {
			j.AddString(source.separator)
		}
		j.AddString(source.buffer.String())
	}
	j.AddString(b.outro)
	return j.Done()
}

// Guesses the indentation used by the joined sources. Tabs win ties, and
// tabs are the default when nothing is indented.
func (b *Bundle) IndentString() string {
	var tabbed, spaced int
	minSpaces := 0
	for _, source := range b.sources {
		for _, line := range strings.Split(source.buffer.String(), "\n") {
			if strings.HasPrefix(line, "\t") {
				tabbed++
				continue
			}
			spaces := len(line) - len(strings.TrimLeft(line, " "))
			if spaces >= 2 && spaces < len(line) {
				spaced++
				if minSpaces == 0 || spaces < minSpaces {
					minSpaces = spaces
				}
			}
		}
	}
	if spaced > tabbed {
		return strings.Repeat(" ", minSpaces)
	}
	return "\t"
}
