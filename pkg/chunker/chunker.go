package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/Aryamaan9/ResearchPortalCodex/pkg/tokenizer"
)

type Options struct {
	ChunkSize    int // target chunk size in characters
	ChunkOverlap int // characters of overlap between adjacent window chunks
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:    1200,
		ChunkOverlap: 200,
	}
}

// Page is one page of extracted text to be chunked.
type Page struct {
	Number int
	Text   string
}

// Chunk is a retrieval unit carrying its ordering within the document and an
// estimated token count so downstream truncation never re-tokenizes.
type Chunk struct {
	PageNumber int
	Text       string
	Index      int
	TokenCount int
}

// Split chunks a document page by page. Paragraph boundaries are preferred;
// paragraphs longer than the chunk size fall back to an overlapping fixed
// window. Chunk indexes run across the whole document, and a non-empty
// document always yields at least one chunk.
func Split(pages []Page, opts Options) []Chunk {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1200
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 0
	}

	var chunks []Chunk
	idx := 0
	for _, page := range pages {
		for _, text := range splitPage(page.Text, opts) {
			chunks = append(chunks, Chunk{
				PageNumber: page.Number,
				Text:       text,
				Index:      idx,
				TokenCount: tokenizer.Estimate(text),
			})
			idx++
		}
	}
	return chunks
}

func splitPage(text string, opts Options) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) > opts.ChunkSize {
			flush()
			out = append(out, windowSplit(para, opts)...)
			continue
		}

		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(para)+2 > opts.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return out
}

// windowSplit cuts text into fixed-size rune windows with overlap.
func windowSplit(text string, opts Options) []string {
	runes := []rune(text)
	step := opts.ChunkSize - opts.ChunkOverlap
	if step <= 0 {
		step = opts.ChunkSize
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + opts.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
