package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oranjParker/Paperbase/internal/core"
)

func TestSplit_ShortTextPassesThrough(t *testing.T) {
	c := New(100, 20)
	chunks := c.Split("a short paragraph")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short paragraph", chunks[0])
}

func TestSplit_BlankTextProducesNothing(t *testing.T) {
	c := New(100, 20)
	assert.Empty(t, c.Split("   \n\n  "))
}

func TestSplit_SizeBoundHolds(t *testing.T) {
	c := New(50, 10)

	texts := []string{
		strings.Repeat("word ", 200),
		strings.Repeat("sentence one. sentence two. ", 40),
		strings.Repeat("para\n\n", 60) + strings.Repeat("x", 500),
		strings.Repeat("y", 173), // no separators at all
	}

	for _, text := range texts {
		for i, chunk := range c.Split(text) {
			assert.LessOrEqual(t, len([]rune(chunk)), c.MaxChunkSize,
				"chunk %d exceeds the size bound: %q", i, chunk)
		}
	}
}

func TestSplit_NoContentLost(t *testing.T) {
	c := New(40, 8)
	text := strings.Repeat("alpha beta gamma delta ", 30)

	var joined strings.Builder
	prevTail := ""
	for _, chunk := range c.Split(text) {
		// Strip the seeded overlap before reassembly.
		body := chunk
		if prevTail != "" && strings.HasPrefix(chunk, prevTail) {
			body = chunk[len(prevTail):]
		}
		joined.WriteString(body)
		prevTail = lastRunes(chunk, c.Overlap)
	}

	assert.Equal(t, strings.TrimSpace(text), strings.TrimSpace(joined.String()))
}

func TestSplit_OverlapSharedBetweenNeighbors(t *testing.T) {
	c := New(40, 8)
	text := strings.Repeat("alpha beta gamma delta ", 30)

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		tail := lastRunes(chunks[i-1], c.Overlap)
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d does not start with the %d-rune tail of its predecessor", i, c.Overlap)
	}
}

func TestSplit_HardSplitOverlap(t *testing.T) {
	c := New(10, 4)
	text := strings.Repeat("z", 25) // forces the rune-window fallback

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		tail := lastRunes(chunks[i-1], c.Overlap)
		assert.True(t, strings.HasPrefix(chunks[i], tail))
	}
}

func TestNew_RepairsBadOverlap(t *testing.T) {
	c := New(100, 100)
	assert.Equal(t, 20, c.Overlap, "overlap >= size should fall back to size/5")

	c = New(100, -1)
	assert.Equal(t, 20, c.Overlap)
}

func TestChunkPages_ProvenanceAndIdentity(t *testing.T) {
	c := New(50, 10)
	pages := []core.Page{
		{Document: "report.pdf", Number: 1, Text: strings.Repeat("page one text. ", 20)},
		{Document: "report.pdf", Number: 2, Text: "tiny page"},
		{Document: "report.pdf", Number: 3, Text: strings.Repeat("page three text. ", 20)},
	}

	chunks := c.ChunkPages(pages, "report.pdf")
	require.NotEmpty(t, chunks)

	seen := make(map[string]bool)
	for _, ch := range chunks {
		assert.Equal(t, "report.pdf", ch.Title)
		assert.GreaterOrEqual(t, ch.PageNumber, 1)
		assert.LessOrEqual(t, ch.PageNumber, 3)
		assert.NotEmpty(t, ch.ID)
		assert.False(t, seen[ch.ID], "chunk ID %s assigned twice", ch.ID)
		seen[ch.ID] = true
	}

	// Two passes over the same pages must never share identifiers.
	again := c.ChunkPages(pages, "report.pdf")
	for _, ch := range again {
		assert.False(t, seen[ch.ID], "chunk ID %s reused across runs", ch.ID)
	}
}

func TestExtractPages_MalformedInput(t *testing.T) {
	_, err := ExtractPages([]byte("definitely not a pdf"), "junk.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMalformedInput), "want malformed-input classification, got %v", err)
}

func TestChunkDocument_MalformedInput(t *testing.T) {
	c := New(100, 20)
	_, err := c.ChunkDocument([]byte{0x25, 0x50}, "truncated.pdf")
	assert.True(t, errors.Is(err, core.ErrMalformedInput))
}
