package classifier

import (
	"context"
	"testing"
)

func TestRegistryPicksHighestConfidenceProcessor(t *testing.T) {
	reg := NewRegistry(DefaultThreshold, GeneralProcessor{}, LegalProcessor{}, AcademicProcessor{}, QAProcessor{})
	content := "WHEREAS the parties agree, hereinafter referred to as the Agreement, under the governing law of Delaware. Section 1 Indemnification shall not apply."
	result, err := reg.Classify(context.Background(), content, map[string]string{}, "contract.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessorName != "legal" {
		t.Fatalf("expected legal processor, got %s", result.ProcessorName)
	}
}

func TestRegistryFallsBackToGeneral(t *testing.T) {
	reg := NewRegistry(DefaultThreshold, GeneralProcessor{}, LegalProcessor{}, AcademicProcessor{})
	result, err := reg.Classify(context.Background(), "just some plain unrelated prose with nothing special in it", nil, "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessorName != "general" {
		t.Fatalf("expected general fallback, got %s", result.ProcessorName)
	}
}

func TestResumeProcessorFallsBackToRegexOnLowIntegrity(t *testing.T) {
	p := ResumeProcessor{Extractor: fakeLowIntegrityExtractor{}}
	result, err := p.Process(context.Background(), "Jane Doe\nwork experience: engineer\nemail jane@example.com", nil, "resume.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DocumentMetadata["email"] != "jane@example.com" {
		t.Fatalf("expected regex-extracted email, got %q", result.DocumentMetadata["email"])
	}
}

type fakeLowIntegrityExtractor struct{}

func (fakeLowIntegrityExtractor) Extract(ctx context.Context, content string) (map[string]string, float64, error) {
	return map[string]string{"name": "garbage"}, 0.1, nil
}
