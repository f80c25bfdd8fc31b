package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

func fixedNow() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

func sampleChunks() []retrieval.Result {
	return []retrieval.Result{
		{Content: "first chunk text", Document: retrieval.DocumentRef{Title: "Doc One"}},
		{Content: "second chunk text", Document: retrieval.DocumentRef{Filename: "doc2.pdf"}},
	}
}

func TestAssembleComprehensivePresetIncludesReferences(t *testing.T) {
	asm, err := New(fixedNow)
	require.NoError(t, err)
	out, err := asm.Build(Request{Query: "what happened?", Chunks: sampleChunks(), Preset: PresetComprehensive})
	require.NoError(t, err)
	assert.Contains(t, out.SystemPrompt, "[1] first chunk text")
	assert.Contains(t, out.SystemPrompt, "what happened?")
	assert.Contains(t, out.References, "[1] Doc One")
	assert.Contains(t, out.References, "[2] doc2.pdf")
}

func TestAssembleGraphContextPrecedesChunkContext(t *testing.T) {
	asm, err := New(fixedNow)
	require.NoError(t, err)
	out, err := asm.Build(Request{
		Query:        "q",
		Chunks:       sampleChunks(),
		Preset:       PresetComprehensive,
		GraphContext: "entity A relates to entity B",
	})
	require.NoError(t, err)
	graphIdx := strings.Index(out.SystemPrompt, "entity A relates to entity B")
	contextIdx := strings.Index(out.SystemPrompt, "first chunk text")
	require.NotEqual(t, -1, graphIdx)
	require.NotEqual(t, -1, contextIdx)
	assert.Less(t, graphIdx, contextIdx)
}

func TestAssembleCustomPromptBypassesTemplate(t *testing.T) {
	asm, err := New(fixedNow)
	require.NoError(t, err)
	out, err := asm.Build(Request{
		Query:              "q",
		Chunks:             sampleChunks(),
		Preset:             PresetAcademic,
		CustomSystemPrompt: "You are a pirate.",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.SystemPrompt, "You are a pirate."))
	assert.Contains(t, out.SystemPrompt, "[1] first chunk text")
}

func TestAssembleUnknownPresetFallsBackToDefault(t *testing.T) {
	asm, err := New(fixedNow)
	require.NoError(t, err)
	out, err := asm.Build(Request{Query: "q", Chunks: nil, Preset: "nonexistent"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.SystemPrompt)
}

func TestFormatContextWithCitationsEmptyChunks(t *testing.T) {
	ctx, refs := FormatContextWithCitations(nil, CitationAcademic)
	assert.Empty(t, ctx)
	assert.Empty(t, refs)
}

func TestFormatContextNarrativeStyle(t *testing.T) {
	ctx, refs := FormatContextWithCitations(sampleChunks(), CitationNarrative)
	assert.Contains(t, ctx, "From Doc One:")
	assert.Contains(t, refs, "- Doc One")
}
