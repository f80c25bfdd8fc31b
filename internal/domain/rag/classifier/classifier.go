// Package classifier detects a document's kind and emits kind-specific
// metadata plus chunk annotations that the chunker and retrieval engine
// can use.
package classifier

import (
	"context"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// Result is what a processor returns for a document.
type Result struct {
	Content           string
	DocumentMetadata  map[string]string
	ChunkAnnotations  []rag.ChunkAnnotation
	ProcessorName     string
	Confidence        float64
}

// Processor classifies and annotates one document kind.
type Processor interface {
	Name() string
	CanProcess(ctx context.Context, content string, metadata map[string]string) (confidence float64, err error)
	Process(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error)
}

// priorityOrder breaks confidence ties; earlier entries win.
var priorityOrder = []string{
	"legal", "academic", "resume", "table", "email", "manual",
	"presentation", "book", "qa", "general",
}

// DefaultThreshold is the minimum confidence required to prefer a
// specific processor over the general fallback.
const DefaultThreshold = 0.3

// Registry selects among the fixed processor set.
type Registry struct {
	processors map[string]Processor
	threshold  float64
	general    Processor
}

// NewRegistry builds a registry from the processor set; general must be
// present and is used whenever no other processor clears the threshold.
func NewRegistry(threshold float64, general Processor, others ...Processor) *Registry {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	m := map[string]Processor{general.Name(): general}
	for _, p := range others {
		m[p.Name()] = p
	}
	return &Registry{processors: m, threshold: threshold, general: general}
}

// Classify runs CanProcess over every registered processor and returns the
// Result of the highest-confidence one clearing the threshold, falling
// back to general. Ties are broken by priorityOrder.
func (r *Registry) Classify(ctx context.Context, content string, metadata map[string]string, filename string) (Result, error) {
	type scored struct {
		name       string
		confidence float64
	}
	var candidates []scored
	for name, p := range r.processors {
		if name == r.general.Name() {
			continue
		}
		conf, err := p.CanProcess(ctx, content, metadata)
		if err != nil {
			continue
		}
		if conf >= r.threshold {
			candidates = append(candidates, scored{name, conf})
		}
	}

	best := ""
	bestConf := -1.0
	for _, c := range candidates {
		if c.confidence > bestConf {
			best, bestConf = c.name, c.confidence
			continue
		}
		if c.confidence == bestConf && priorityRank(c.name) < priorityRank(best) {
			best = c.name
		}
	}

	chosen := r.general
	if best != "" {
		chosen = r.processors[best]
	}
	return chosen.Process(ctx, content, metadata, filename)
}

func priorityRank(name string) int {
	for i, n := range priorityOrder {
		if n == name {
			return i
		}
	}
	return len(priorityOrder)
}
