package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/oranjParker/Paperbase/internal/core"
)

// Chunker splits page text into pieces of at most MaxChunkSize runes, trying
// separators at decreasing granularity before falling back to hard rune
// windows. Consecutive chunks cut at the same level share the last Overlap
// runes of the previous chunk as a prefix.
type Chunker struct {
	MaxChunkSize int
	Overlap      int
	Separators   []string
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{
		MaxChunkSize: size,
		Overlap:      overlap,
		Separators:   []string{"\n\n", "\n", ". ", "! ", "? ", " "},
	}
}

// ChunkDocument extracts pages from PDF bytes and splits them. Every chunk
// carries the source title and its 1-based page number, and gets a fresh UUID
// here and only here.
func (c *Chunker) ChunkDocument(data []byte, title string) ([]core.Chunk, error) {
	pages, err := ExtractPages(data, title)
	if err != nil {
		return nil, err
	}
	return c.ChunkPages(pages, title), nil
}

func (c *Chunker) ChunkPages(pages []core.Page, title string) []core.Chunk {
	var chunks []core.Chunk
	for _, page := range pages {
		for _, piece := range c.Split(page.Text) {
			chunks = append(chunks, core.Chunk{
				ID:         uuid.NewString(),
				Title:      title,
				PageNumber: page.Number,
				Text:       piece,
			})
		}
	}
	return chunks
}

func (c *Chunker) Split(text string) []string {
	return c.splitRecursive(text, c.Separators)
}

func (c *Chunker) splitRecursive(text string, seps []string) []string {
	if runeLen(text) <= c.MaxChunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	if len(seps) == 0 {
		return c.hardSplit(text)
	}

	parts := strings.SplitAfter(text, seps[0])

	var out []string
	var cur string
	flush := func() {
		if strings.TrimSpace(cur) != "" {
			out = append(out, cur)
		}
		cur = ""
	}

	for _, part := range parts {
		if runeLen(part) > c.MaxChunkSize {
			flush()
			out = append(out, c.splitRecursive(part, seps[1:])...)
			continue
		}

		if runeLen(cur)+runeLen(part) > c.MaxChunkSize {
			prev := cur
			flush()
			// Seed the next chunk with the tail of the previous one, unless
			// that would push it over the size bound.
			tail := lastRunes(prev, c.Overlap)
			if runeLen(tail)+runeLen(part) <= c.MaxChunkSize {
				cur = tail
			}
		}
		cur += part
	}
	flush()

	return out
}

func (c *Chunker) hardSplit(text string) []string {
	runes := []rune(text)
	stride := c.MaxChunkSize - c.Overlap
	if stride <= 0 {
		stride = c.MaxChunkSize
	}

	var out []string
	for i := 0; i < len(runes); i += stride {
		end := i + c.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}

func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
