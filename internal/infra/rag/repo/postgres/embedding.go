package postgres

import (
	"fmt"
	"strconv"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
)

// normalizeEmbedding converts whatever shape pgx scans a vector column into
// back to a plain []float32, regardless of whether the driver returns a
// pgvector.Vector, a numeric slice, or a literal string.
func normalizeEmbedding(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case pgvector.Vector:
		return append([]float32(nil), v.Slice()...), nil
	case []float32:
		return append([]float32(nil), v...), nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimPrefix(trimmed, "[")
		trimmed = strings.TrimSuffix(trimmed, "]")
		if trimmed == "" {
			return nil, nil
		}
		parts := strings.Split(trimmed, ",")
		out := make([]float32, 0, len(parts))
		for _, p := range parts {
			numStr := strings.TrimSpace(p)
			if numStr == "" {
				continue
			}
			f, err := strconv.ParseFloat(numStr, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, float32(f))
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported embedding type %T", raw)
	}
}
