package prompt

import (
	"fmt"
	"strings"

	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

// CitationStyle selects how context and references are rendered.
type CitationStyle string

const (
	CitationInline       CitationStyle = "inline"
	CitationAcademic     CitationStyle = "academic"
	CitationAcademicFull CitationStyle = "academic_full"
	CitationNarrative    CitationStyle = "narrative"
)

// FormatContextWithCitations renders the chunks as context text plus a
// matching references block. The academic styles number each chunk [1],
// [2]...; the narrative style introduces each chunk with "From <title>:"
// and lists titles without numbers. An empty chunk list yields two empty
// strings.
func FormatContextWithCitations(chunks []retrieval.Result, style CitationStyle) (contextText, references string) {
	if len(chunks) == 0 {
		return "", ""
	}
	switch style {
	case CitationNarrative:
		return formatNarrative(chunks)
	case CitationAcademicFull:
		return formatAcademicFull(chunks)
	default:
		return formatAcademic(chunks)
	}
}

func formatAcademic(chunks []retrieval.Result) (string, string) {
	var contextParts, refs []string
	for i, c := range chunks {
		n := i + 1
		contextParts = append(contextParts, fmt.Sprintf("[%d] %s", n, c.Content))
		refs = append(refs, fmt.Sprintf("[%d] %s", n, referenceTitle(c, n)))
	}
	return strings.Join(contextParts, "\n\n"), strings.Join(refs, "\n")
}

func formatAcademicFull(chunks []retrieval.Result) (string, string) {
	var contextParts, refs []string
	for i, c := range chunks {
		n := i + 1
		contextParts = append(contextParts, fmt.Sprintf("[%d] %s", n, c.Content))

		parts := []string{fmt.Sprintf("[%d]", n), referenceTitle(c, n)}
		if author, ok := c.Metadata["author"]; ok && author != "" {
			parts = append(parts, "- "+author)
		}
		if date, ok := c.Metadata["date"]; ok && date != "" {
			parts = append(parts, "("+date+")")
		}
		if source, ok := c.Metadata["source"]; ok && source != "" {
			parts = append(parts, "["+source+"]")
		}
		refs = append(refs, strings.Join(parts, " "))
	}
	return strings.Join(contextParts, "\n\n"), strings.Join(refs, "\n")
}

func formatNarrative(chunks []retrieval.Result) (string, string) {
	var contextParts, refs []string
	for i, c := range chunks {
		title := referenceTitle(c, i+1)
		contextParts = append(contextParts, fmt.Sprintf("From %s:\n%s", title, c.Content))
		refs = append(refs, "- "+title)
	}
	return strings.Join(contextParts, "\n\n---\n\n"), strings.Join(refs, "\n")
}

func referenceTitle(c retrieval.Result, ordinal int) string {
	if c.Document.Title != "" {
		return c.Document.Title
	}
	if c.Document.Filename != "" {
		return c.Document.Filename
	}
	if c.Document.ID.String() != "" && c.Document.ID.String() != "00000000-0000-0000-0000-000000000000" {
		return fmt.Sprintf("Document %d", ordinal)
	}
	return fmt.Sprintf("Source %d", ordinal)
}

// FormatInlineCitations appends [1], [2]... markers referencing the given
// source indices to a generated answer.
func FormatInlineCitations(text string, sourceIndices []int) string {
	if len(sourceIndices) == 0 {
		return text
	}
	parts := make([]string, len(sourceIndices))
	for i, idx := range sourceIndices {
		parts[i] = fmt.Sprintf("[%d]", idx)
	}
	return text + " " + strings.Join(parts, ", ")
}
