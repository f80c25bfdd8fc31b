// Package prompt assembles the system prompt sent to the chat LLM: preset
// style templates, citation-formatted context, and optional graph context
// placed ahead of chunk context since it is already synthesized.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

// Preset selects a system prompt style.
type Preset string

const (
	PresetBrief         Preset = "brief"
	PresetComprehensive Preset = "comprehensive"
	PresetAcademic      Preset = "academic"
	PresetTechnical     Preset = "technical"
	PresetExploratory   Preset = "exploratory"
	PresetQnA           Preset = "qna"
)

// presetConfig pairs a preset with its default citation style.
var presetConfig = map[Preset]CitationStyle{
	PresetBrief:         CitationInline,
	PresetComprehensive: CitationAcademic,
	PresetAcademic:      CitationAcademicFull,
	PresetTechnical:     CitationInline,
	PresetExploratory:   CitationNarrative,
	PresetQnA:           CitationInline,
}

// DefaultPreset is used when an unknown preset name is requested.
const DefaultPreset = PresetComprehensive

// Request describes one prompt assembly call.
type Request struct {
	Query               string
	Chunks              []retrieval.Result
	Preset              Preset
	GraphContext        string
	CustomSystemPrompt  string
	CustomInstruction   string
	IsFollowUp          bool
	PreviousContext     string
}

// Assembled is the rendered system prompt plus the references block built
// alongside it. The chat orchestrator uses only SystemPrompt; its sources
// event is built from the retrieved chunks, not from References.
type Assembled struct {
	SystemPrompt string
	References   string
}

// Assembler renders system prompts from preset templates.
type Assembler struct {
	templates map[Preset]*template.Template
	now       func() time.Time
}

// New constructs an Assembler with the six built-in preset templates
// compiled once at startup.
func New(now func() time.Time) (*Assembler, error) {
	if now == nil {
		now = time.Now
	}
	templates := map[Preset]*template.Template{}
	for preset, body := range presetTemplates {
		tmpl, err := template.New(string(preset)).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", preset, err)
		}
		templates[preset] = tmpl
	}
	return &Assembler{templates: templates, now: now}, nil
}

// Build renders the system prompt for req. A caller-supplied
// CustomSystemPrompt bypasses template selection but still receives
// citation-formatted context appended.
func (a *Assembler) Build(req Request) (Assembled, error) {
	citationStyle := presetConfig[req.Preset]
	if citationStyle == "" {
		citationStyle = presetConfig[DefaultPreset]
	}
	contextText, references := FormatContextWithCitations(req.Chunks, citationStyle)

	if req.CustomSystemPrompt != "" {
		inlineContext, inlineRefs := FormatContextWithCitations(req.Chunks, CitationInline)
		return Assembled{
			SystemPrompt: fmt.Sprintf("%s\n\nContext:\n%s", req.CustomSystemPrompt, inlineContext),
			References:   inlineRefs,
		}, nil
	}

	preset := req.Preset
	tmpl, ok := a.templates[preset]
	if !ok {
		preset = DefaultPreset
		tmpl = a.templates[preset]
	}

	data := templateData{
		Query:             req.Query,
		Context:           contextText,
		References:        references,
		GraphContext:      req.GraphContext,
		CurrentDate:       a.now().Format("January 2, 2006"),
		CustomInstruction: req.CustomInstruction,
		IsFollowUp:        req.IsFollowUp,
		PreviousContext:   req.PreviousContext,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Assembled{SystemPrompt: fallbackPrompt(req.Query, contextText, references), References: references}, nil
	}
	return Assembled{SystemPrompt: buf.String(), References: references}, nil
}

type templateData struct {
	Query             string
	Context           string
	References        string
	GraphContext      string
	CurrentDate       string
	CustomInstruction string
	IsFollowUp        bool
	PreviousContext   string
}

func fallbackPrompt(query, context, references string) string {
	return fmt.Sprintf(`You are a helpful assistant. Answer questions using the provided context.
Use [1], [2] style citations when referencing information.

## Context
%s

## References
%s

## Question
%s`, context, references, query)
}

const graphContextBlock = `{{if .GraphContext}}## Knowledge graph context
{{.GraphContext}}

{{end}}`

const followUpBlock = `{{if .IsFollowUp}}## Previous context
{{.PreviousContext}}

{{end}}`

const customInstructionBlock = `{{if .CustomInstruction}}
## Additional instructions
{{.CustomInstruction}}
{{end}}`

var presetTemplates = map[Preset]string{
	PresetBrief: `You are a helpful assistant. Today is {{.CurrentDate}}.
Answer briefly and directly, in at most a few sentences. Use [1], [2] inline citations.
` + graphContextBlock + followUpBlock + `## Context
{{.Context}}
` + customInstructionBlock + `
## Question
{{.Query}}`,

	PresetComprehensive: `You are a knowledgeable assistant. Today is {{.CurrentDate}}.
Answer thoroughly, covering relevant nuance found in the context. Cite sources as [1], [2].
` + graphContextBlock + followUpBlock + `## Context
{{.Context}}

## References
{{.References}}
` + customInstructionBlock + `
## Question
{{.Query}}`,

	PresetAcademic: `You are a meticulous research assistant. Today is {{.CurrentDate}}.
Write in a formal, academic register. Support every claim with a citation and include a full bibliography.
` + graphContextBlock + followUpBlock + `## Context
{{.Context}}

## Bibliography
{{.References}}
` + customInstructionBlock + `
## Question
{{.Query}}`,

	PresetTechnical: `You are a precise technical assistant. Today is {{.CurrentDate}}.
Favor exact terminology, code, and step-by-step detail over prose. Use [1], [2] inline citations.
` + graphContextBlock + followUpBlock + `## Context
{{.Context}}
` + customInstructionBlock + `
## Question
{{.Query}}`,

	PresetExploratory: `You are a curious, exploratory assistant. Today is {{.CurrentDate}}.
Surface connections and alternative angles across the sources; write narratively, naming sources as you draw from them.
` + graphContextBlock + followUpBlock + `## Context
{{.Context}}

## Sources
{{.References}}
` + customInstructionBlock + `
## Question
{{.Query}}`,

	PresetQnA: `You are a question-answering assistant. Today is {{.CurrentDate}}.
Answer the question directly using only the context below. If the context is insufficient, say so. Use [1], [2] inline citations.
` + graphContextBlock + followUpBlock + `## Context
{{.Context}}
` + customInstructionBlock + `
## Question
{{.Query}}`,
}
