package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// ResumeExtractor is the LLM-based integrity-scored extractor the resume
// processor prefers; it falls back to regex heuristics when unavailable or
// when the returned integrity score is below 0.3.
type ResumeExtractor interface {
	Extract(ctx context.Context, content string) (fields map[string]string, integrityScore float64, err error)
}

func baseResult(name string, confidence float64, content string, metadata map[string]string, fields map[string]string) Result {
	md := map[string]string{}
	for k, v := range metadata {
		md[k] = v
	}
	for k, v := range fields {
		md[k] = v
	}
	return Result{
		Content:          content,
		DocumentMetadata: md,
		ProcessorName:    name,
		Confidence:       confidence,
	}
}

func countMatches(re *regexp.Regexp, content string) int {
	return len(re.FindAllStringIndex(content, -1))
}

func confidenceFromHits(hits, scale int) float64 {
	if scale <= 0 {
		scale = 1
	}
	c := float64(hits) / float64(scale)
	if c > 1 {
		c = 1
	}
	return c
}

// --- legal -------------------------------------------------------------

type LegalProcessor struct{}

func (LegalProcessor) Name() string { return "legal" }

var legalKeywords = regexp.MustCompile(`(?i)\b(whereas|hereinafter|indemnif\w*|jurisdiction|covenant|liability|governing law|shall not)\b`)

func (LegalProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	return confidenceFromHits(countMatches(legalKeywords, content), 6), nil
}

func (p LegalProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	clauseBreaks := regexp.MustCompile(`(?m)^\s*(Section|Article|Clause)\s+\d+`)
	var annotations []rag.ChunkAnnotation
	for _, loc := range clauseBreaks.FindAllStringIndex(content, -1) {
		annotations = append(annotations, rag.ChunkAnnotation{Type: "clause", PreserveBoundary: true, Offset: loc[0]})
	}
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "legal"})
	r.ChunkAnnotations = annotations
	return r, nil
}

// --- academic ------------------------------------------------------------

type AcademicProcessor struct{}

func (AcademicProcessor) Name() string { return "academic" }

var academicKeywords = regexp.MustCompile(`(?i)\b(abstract|references|doi:|et al\.|introduction|methodology|conclusion)\b`)

func (AcademicProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	return confidenceFromHits(countMatches(academicKeywords, content), 5), nil
}

func (p AcademicProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	sectionBreaks := regexp.MustCompile(`(?mi)^\s*(Abstract|Introduction|Methodology|Results|Discussion|Conclusion|References)\s*$`)
	var annotations []rag.ChunkAnnotation
	for _, loc := range sectionBreaks.FindAllStringIndex(content, -1) {
		annotations = append(annotations, rag.ChunkAnnotation{Type: "section", PreserveBoundary: true, Offset: loc[0]})
	}
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "academic"})
	r.ChunkAnnotations = annotations
	return r, nil
}

// --- qa (question/answer, FAQ-shaped documents) -------------------------

type QAProcessor struct{}

func (QAProcessor) Name() string { return "qa" }

var qaPattern = regexp.MustCompile(`(?mi)^\s*(Q:|Question:|A:|Answer:)`)

func (QAProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	return confidenceFromHits(countMatches(qaPattern, content), 8), nil
}

func (p QAProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	var annotations []rag.ChunkAnnotation
	for _, loc := range regexp.MustCompile(`(?mi)^\s*(Q:|Question:)`).FindAllStringIndex(content, -1) {
		annotations = append(annotations, rag.ChunkAnnotation{Type: "qa_pair", PreserveBoundary: true, Offset: loc[0]})
	}
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "qa"})
	r.ChunkAnnotations = annotations
	return r, nil
}

// --- table (content already rendered as markdown tables by the parser) --

type TableProcessor struct{}

func (TableProcessor) Name() string { return "table" }

var tableRowPattern = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)

func (TableProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	rows := countMatches(tableRowPattern, content)
	lines := strings.Count(content, "\n") + 1
	if lines == 0 {
		return 0, nil
	}
	ratio := float64(rows) / float64(lines)
	if ratio > 1 {
		ratio = 1
	}
	return ratio, nil
}

func (p TableProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "table"})
	return r, nil
}

// --- book (long-form, chaptered) -----------------------------------------

type BookProcessor struct{}

func (BookProcessor) Name() string { return "book" }

var chapterPattern = regexp.MustCompile(`(?mi)^\s*(Chapter|Part)\s+\d+`)

func (BookProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	hits := countMatches(chapterPattern, content)
	lengthBonus := 0.0
	if len(content) > 50_000 {
		lengthBonus = 0.2
	}
	return confidenceFromHits(hits, 4) + lengthBonus, nil
}

func (p BookProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	var annotations []rag.ChunkAnnotation
	for _, loc := range chapterPattern.FindAllStringIndex(content, -1) {
		annotations = append(annotations, rag.ChunkAnnotation{Type: "chapter", PreserveBoundary: true, Offset: loc[0]})
	}
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "book"})
	r.ChunkAnnotations = annotations
	return r, nil
}

// --- email -----------------------------------------------------------------

type EmailProcessor struct{}

func (EmailProcessor) Name() string { return "email" }

func (EmailProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	if metadata["contentType"] == "message/rfc822" || metadata["from"] != "" {
		return 0.95, nil
	}
	headerHits := countMatches(regexp.MustCompile(`(?mi)^(From|To|Subject|Date):`), content)
	return confidenceFromHits(headerHits, 3), nil
}

func (p EmailProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "email"})
	return r, nil
}

// --- manual (procedural / instructional) -----------------------------------

type ManualProcessor struct{}

func (ManualProcessor) Name() string { return "manual" }

var manualKeywords = regexp.MustCompile(`(?i)\b(step \d+|warning:|caution:|procedure|install|troubleshooting)\b`)

func (ManualProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	return confidenceFromHits(countMatches(manualKeywords, content), 6), nil
}

func (p ManualProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	var annotations []rag.ChunkAnnotation
	for _, loc := range regexp.MustCompile(`(?mi)^\s*step\s+\d+`).FindAllStringIndex(content, -1) {
		annotations = append(annotations, rag.ChunkAnnotation{Type: "step", PreserveBoundary: true, Offset: loc[0]})
	}
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "manual"})
	r.ChunkAnnotations = annotations
	return r, nil
}

// --- presentation (already slide-structured by the parser) -----------------

type PresentationProcessor struct{}

func (PresentationProcessor) Name() string { return "presentation" }

func (PresentationProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	if metadata["slideCount"] != "" {
		return 0.9, nil
	}
	return 0, nil
}

func (p PresentationProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	r := baseResult(p.Name(), conf, content, metadata, map[string]string{"documentKind": "presentation"})
	return r, nil
}

// --- general (fallback) -----------------------------------------------------

type GeneralProcessor struct{}

func (GeneralProcessor) Name() string { return "general" }

func (GeneralProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	return 0, nil
}

func (p GeneralProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	return baseResult(p.Name(), 0, content, metadata, map[string]string{"documentKind": "general"}), nil
}

// --- resume (LLM-first, regex fallback) ------------------------------------

const resumeIntegrityFloor = 0.3

type ResumeProcessor struct {
	Extractor ResumeExtractor // optional; nil means regex-only
}

func (ResumeProcessor) Name() string { return "resume" }

var resumeKeywords = regexp.MustCompile(`(?i)\b(curriculum vitae|resume|work experience|professional experience|education|skills)\b`)

func (ResumeProcessor) CanProcess(ctx context.Context, content string, metadata map[string]string) (float64, error) {
	return confidenceFromHits(countMatches(resumeKeywords, content), 4), nil
}

func (p ResumeProcessor) Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	conf, _ := p.CanProcess(ctx, content, metadata)
	fields := map[string]string{"documentKind": "resume"}

	if p.Extractor != nil {
		extracted, integrity, err := p.Extractor.Extract(ctx, content)
		if err == nil && integrity >= resumeIntegrityFloor {
			for k, v := range extracted {
				fields[k] = v
			}
			r := baseResult(p.Name(), conf, content, metadata, fields)
			return r, nil
		}
	}

	fields["name"] = regexFirstLine(content)
	fields["email"] = regexFirst(`[\w.+-]+@[\w-]+\.[\w.-]+`, content)
	r := baseResult(p.Name(), conf, content, metadata, fields)
	return r, nil
}

func regexFirstLine(content string) string {
	lines := strings.SplitN(strings.TrimSpace(content), "\n", 2)
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}

func regexFirst(pattern, content string) string {
	re := regexp.MustCompile(pattern)
	return re.FindString(content)
}
