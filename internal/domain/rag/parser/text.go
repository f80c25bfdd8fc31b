package parser

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextParser handles plain text, markdown, CSV/TSV and similar text/* types
// with a lossy UTF-8 fallback for non-conformant input.
type TextParser struct{}

func (TextParser) CanParse(contentType string) bool {
	return strings.HasPrefix(contentType, "text/")
}

func (TextParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	return Result{
		Content:  strings.TrimSpace(content),
		Metadata: map[string]string{"extraction_method": "structured"},
	}, nil
}
