// Package chunker splits document text into ordered, token-bounded chunks.
package chunker

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// Candidate is a chunk before it is assigned an id and persisted.
type Candidate struct {
	Index      int
	Content    string
	TokenCount int
}

// Chunker splits raw text into contextual, token-bounded pieces.
type Chunker interface {
	Chunk(text string, annotations []rag.ChunkAnnotation) []Candidate
}

// TokenBudget chunks paragraph-first, falling back to a word-level token
// budget, honoring overlap and boundary-preserving annotations.
type TokenBudget struct {
	MaxTokens int
	Overlap   int
	encoder   *tiktoken.Tiktoken
}

// New constructs a chunker with the given target token budget and overlap.
func New(maxTokens, overlap int) *TokenBudget {
	if maxTokens <= 0 {
		maxTokens = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &TokenBudget{MaxTokens: maxTokens, Overlap: overlap, encoder: enc}
}

// Chunk splits text into Candidates. An empty document yields zero chunks;
// the ingestion coordinator treats that as a failure per C6.
func (c *TokenBudget) Chunk(text string, annotations []rag.ChunkAnnotation) []Candidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	boundaries := boundaryOffsets(annotations)
	segments := splitAtBoundaries(text, boundaries)

	var out []Candidate
	for _, segment := range segments {
		out = append(out, c.chunkSegment(segment, &out)...)
	}
	for i := range out {
		out[i].Index = i
	}
	return out
}

// boundaryOffsets extracts sorted, deduplicated offsets that must never be
// merged across, from annotations marked PreserveBoundary.
func boundaryOffsets(annotations []rag.ChunkAnnotation) []int {
	seen := map[int]bool{}
	var offsets []int
	for _, a := range annotations {
		if a.PreserveBoundary && !seen[a.Offset] {
			seen[a.Offset] = true
			offsets = append(offsets, a.Offset)
		}
	}
	sort.Ints(offsets)
	return offsets
}

func splitAtBoundaries(text string, offsets []int) []string {
	if len(offsets) == 0 {
		return paragraphs(text)
	}
	var segments []string
	prev := 0
	for _, off := range offsets {
		if off <= prev || off >= len(text) {
			continue
		}
		segments = append(segments, text[prev:off])
		prev = off
	}
	segments = append(segments, text[prev:])
	var out []string
	for _, s := range segments {
		out = append(out, paragraphs(s)...)
	}
	return out
}

func paragraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	var out []string
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// chunkSegment applies the word/token budget within one paragraph-delimited
// segment; prior is used only to seed overlap from the last emitted chunk.
func (c *TokenBudget) chunkSegment(segment string, prior *[]Candidate) []Candidate {
	maxRunes := c.MaxTokens * 5
	lines := strings.FieldsFunc(segment, func(r rune) bool { return r == '\n' || r == '\r' })

	var (
		current      strings.Builder
		currentRunes int
		out          []Candidate
	)

	flush := func() {
		content := strings.TrimSpace(current.String())
		if content == "" {
			current.Reset()
			currentRunes = 0
			return
		}
		out = append(out, Candidate{Content: content, TokenCount: c.countTokens(content)})
		current.Reset()
		currentRunes = 0
	}

	lastEmitted := func() string {
		if len(out) > 0 {
			return out[len(out)-1].Content
		}
		if len(*prior) > 0 {
			return (*prior)[len(*prior)-1].Content
		}
		return ""
	}

	for _, line := range lines {
		for _, word := range strings.Fields(line) {
			wordRunes := utf8.RuneCountInString(word)

			if wordRunes > maxRunes {
				for i, piece := range splitLongWord(word, maxRunes) {
					if currentRunes+utf8.RuneCountInString(piece) > maxRunes {
						flush()
					}
					current.WriteString(piece)
					current.WriteString(" ")
					currentRunes += utf8.RuneCountInString(piece) + 1
					if i > 0 {
						flush()
					}
				}
				continue
			}

			if currentRunes+wordRunes > maxRunes || c.countTokens(current.String()+word) >= c.MaxTokens {
				flush()
				if c.Overlap > 0 {
					overlap := c.tailTokens(lastEmitted(), c.Overlap)
					current.WriteString(overlap)
					currentRunes = utf8.RuneCountInString(overlap)
				}
			}
			current.WriteString(word)
			current.WriteString(" ")
			currentRunes += wordRunes + 1
		}
		current.WriteString("\n")
		currentRunes++
	}
	if strings.TrimSpace(current.String()) != "" {
		flush()
	}
	return out
}

func (c *TokenBudget) countTokens(text string) int {
	if text == "" {
		return 0
	}
	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}
	return len(strings.Fields(text))
}

func (c *TokenBudget) tailTokens(text string, limit int) string {
	if limit <= 0 || text == "" {
		return ""
	}
	if c.encoder != nil {
		ids := c.encoder.Encode(text, nil, nil)
		if len(ids) <= limit {
			return text + " "
		}
		return c.encoder.Decode(ids[len(ids)-limit:]) + " "
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text + " "
	}
	return strings.Join(words[len(words)-limit:], " ") + " "
}

func splitLongWord(word string, maxRunes int) []string {
	if maxRunes <= 0 || utf8.RuneCountInString(word) <= maxRunes {
		return []string{word}
	}
	runes := []rune(word)
	var parts []string
	for i := 0; i < len(runes); i += maxRunes {
		end := i + maxRunes
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
	}
	return parts
}
