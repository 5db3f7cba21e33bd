package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	s := NewSplitter(1000, 200)
	assert.Empty(t, s.Split(""))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	text := "Employees get 20 vacation days per year."

	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_ChunkSizeBound(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 50, "chunk %d exceeds size", i)
		assert.NotEmpty(t, c)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("a", 40)
	para2 := strings.Repeat("b", 40)
	text := para1 + "\n\n" + para2

	s := NewSplitter(50, 0)
	chunks := s.Split(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, para1+"\n\n", chunks[0])
	assert.Equal(t, para2, chunks[1])
}

func TestSplit_PrefersSentenceBoundaries(t *testing.T) {
	text := "First sentence is right here. Second one follows it. Third closes."

	s := NewSplitter(40, 0)
	chunks := s.Split(text)

	require.True(t, len(chunks) >= 2)
	assert.True(t, strings.HasSuffix(chunks[0], ". "), "expected a sentence-boundary split, got %q", chunks[0])
}

func TestSplit_ReconstructsWithoutOverlap(t *testing.T) {
	text := strings.Repeat("Some words about onboarding.\nMore detail on the policy.\n\n", 30)

	s := NewSplitter(80, 0)
	chunks := s.Split(text)

	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_OverlapIsSharedContent(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon. ", 40)

	s := NewSplitter(100, 30)
	chunks := s.Split(text)
	require.True(t, len(chunks) > 1)

	for i := 1; i < len(chunks); i++ {
		shared := false
		// Some prefix of this chunk must be a suffix of the previous one.
		for n := len(chunks[i]); n > 0 && !shared; n-- {
			if n <= 30 && strings.HasSuffix(chunks[i-1], chunks[i][:n]) {
				shared = true
			}
		}
		if !shared {
			// Zero carried overlap is possible when no whole piece fits.
			assert.False(t, strings.HasPrefix(chunks[i], " "), "chunk %d starts mid-air: %q", i, chunks[i][:10])
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Orientation happens on the first Monday. Bring your laptop.\n\n", 25)

	s := NewSplitter(120, 40)
	first := s.Split(text)
	second := s.Split(text)

	assert.Equal(t, first, second)
}

func TestSplit_HardCutLongToken(t *testing.T) {
	// No separator of any kind: forces the rune-level fallback.
	text := strings.Repeat("x", 215)

	s := NewSplitter(100, 0)
	chunks := s.Split(text)

	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
}

func TestSplit_HardCutRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 90) // two bytes per rune

	s := NewSplitter(25, 0)
	chunks := s.Split(text)

	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 25)
		assert.Zero(t, len(c)%2, "chunk split a UTF-8 sequence")
	}
}

func TestNewSplitter_Defaults(t *testing.T) {
	s := NewSplitter(0, -5)
	assert.Equal(t, DefaultChunkSize, s.Size)
	assert.Equal(t, DefaultChunkOverlap, s.Overlap)
}
