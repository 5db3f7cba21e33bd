package text

import (
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators, in boundary-preference order. The empty string is the terminal
// fallback: a hard cut at rune boundaries.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts plain text into chunks of at most Size bytes, with up to
// Overlap bytes of trailing content repeated at the start of the next chunk.
// Splits prefer paragraph, then line, then sentence, then word boundaries
// before falling back to a hard cut.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}
	return &Splitter{Size: size, Overlap: overlap}
}

// Split returns the chunk sequence for text. Empty input yields no chunks.
// Separators stay attached to the piece they terminate, so concatenating the
// non-overlapping portions of consecutive chunks reconstructs the input.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	pieces := splitRecursive(text, s.Size, separators)
	return s.merge(pieces)
}

// splitRecursive breaks text into ordered pieces no longer than size bytes,
// trying each separator in turn on pieces that are still too long.
func splitRecursive(text string, size int, seps []string) []string {
	if len(text) <= size {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return hardCut(text, size)
	}

	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		// Separator absent, fall through to the next boundary kind.
		return splitRecursive(text, size, seps[1:])
	}

	var pieces []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) <= size {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, splitRecursive(part, size, seps[1:])...)
	}
	return pieces
}

// hardCut slices text into runs of at most size bytes without splitting a
// UTF-8 sequence.
func hardCut(text string, size int) []string {
	var cuts []string
	start := 0
	last := 0
	for i := range text {
		if i-start > size {
			cuts = append(cuts, text[start:last])
			start = last
		}
		last = i
	}
	if len(text)-start > size {
		cuts = append(cuts, text[start:last])
		start = last
	}
	if start < len(text) {
		cuts = append(cuts, text[start:])
	}
	return cuts
}

// merge packs pieces into chunks up to Size bytes. When a chunk closes, the
// trailing pieces totalling at most Overlap bytes seed the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		window  []string
		winLen  int
		carried int // leading window entries repeated from the previous chunk
	)

	for _, piece := range pieces {
		for winLen > 0 && winLen+len(piece) > s.Size {
			if carried > 0 {
				// Shed carried overlap first; it already lives in the
				// previous chunk.
				winLen -= len(window[0])
				window = window[1:]
				carried--
				continue
			}
			chunks = append(chunks, strings.Join(window, ""))
			window, winLen = overlapTail(window, s.Overlap)
			carried = len(window)
		}
		window = append(window, piece)
		winLen += len(piece)
	}

	// The window is all overlap when no new piece arrived after the last
	// close; emitting it would duplicate the previous chunk's tail.
	if len(window) > carried {
		chunks = append(chunks, strings.Join(window, ""))
	}
	return chunks
}

// overlapTail returns the longest run of trailing whole pieces whose combined
// length fits in overlap.
func overlapTail(window []string, overlap int) ([]string, int) {
	var tail []string
	length := 0
	for i := len(window) - 1; i >= 0; i-- {
		if length+len(window[i]) > overlap {
			break
		}
		tail = append([]string{window[i]}, tail...)
		length += len(window[i])
	}
	return tail, length
}
