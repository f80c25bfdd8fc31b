// Package parser turns raw file bytes into UTF-8 text plus structural
// metadata, one implementation per content type.
package parser

import "context"

// Image is an image extracted from a parsed document, dispatched
// downstream to the Vision port for description.
type Image struct {
	Bytes    []byte
	Page     int
	Index    int
	Format   string
	Filename string
}

// Result is the common parser output contract.
type Result struct {
	Content     string
	Metadata    map[string]string
	PageCount   int
	Images      []Image
	ExtractMode string // e.g. "structured" or "fallback"; the stored document gets it via Metadata["extraction_method"] (§8 scenario 6)
}

// Parser handles one or more content types.
type Parser interface {
	CanParse(contentType string) bool
	Parse(ctx context.Context, filename string, data []byte) (Result, error)
}

// Registry holds parsers in priority order; the first matching parser wins,
// so more specific parsers must be registered ahead of generic ones.
type Registry struct {
	parsers []Parser
}

// NewRegistry builds a registry with parsers in the given priority order.
func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// Select returns the first parser that accepts contentType, if any.
func (r *Registry) Select(contentType string) (Parser, bool) {
	for _, p := range r.parsers {
		if p.CanParse(contentType) {
			return p, true
		}
	}
	return nil, false
}

// Parse selects a parser for contentType and runs it. Empty content after
// all fallbacks is reported as an error; the ingestion coordinator treats
// that as a failed document per C6.
func (r *Registry) Parse(ctx context.Context, contentType, filename string, data []byte) (Result, error) {
	p, ok := r.Select(contentType)
	if !ok {
		return Result{}, ErrUnsupportedContentType{ContentType: contentType}
	}
	res, err := p.Parse(ctx, filename, data)
	if err != nil {
		return Result{}, err
	}
	if res.Content == "" {
		return Result{}, ErrEmptyContent{Filename: filename}
	}
	return res, nil
}

// ErrUnsupportedContentType is returned when no parser accepts a content type.
type ErrUnsupportedContentType struct{ ContentType string }

func (e ErrUnsupportedContentType) Error() string {
	return "no parser registered for content type " + e.ContentType
}

// ErrEmptyContent is returned when a parser yields no usable text.
type ErrEmptyContent struct{ Filename string }

func (e ErrEmptyContent) Error() string {
	return "parser produced empty content for " + e.Filename
}
