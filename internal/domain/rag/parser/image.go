package parser

import (
	"context"
	"strings"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

var imageContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// ImageParser dispatches to the Vision port for a description and OCR text,
// returning the combination as the parsed content.
type ImageParser struct {
	Vision rag.VisionPort
}

func (ImageParser) CanParse(contentType string) bool {
	return imageContentTypes[contentType]
}

func (p ImageParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	metadata := map[string]string{}
	if p.Vision == nil {
		metadata["vision_error"] = "vision port unavailable"
		return Result{Content: "", Metadata: metadata}, errNoVisionContent
	}

	description, ocrText, err := p.Vision.Describe(ctx, data, "")
	if err != nil {
		metadata["vision_error"] = err.Error()
		return Result{Content: "", Metadata: metadata}, err
	}

	var b strings.Builder
	if description != "" {
		b.WriteString(description)
	}
	if ocrText != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ocrText)
	}
	return Result{Content: strings.TrimSpace(b.String()), Metadata: metadata}, nil
}

var errNoVisionContent = visionUnavailableError{}

type visionUnavailableError struct{}

func (visionUnavailableError) Error() string { return "vision port unavailable, no content produced" }
