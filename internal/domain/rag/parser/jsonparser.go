package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

var jsonContentTypes = map[string]bool{
	"application/json":  true,
	"application/jsonl": true,
}

// maxSectionBytes bounds each rendered section so very large documents or
// records stay manageable for the chunker.
const maxSectionBytes = 8000

// JSONParser auto-detects a single JSON object/array vs newline-delimited
// JSON, and renders each record as flattened dot.path: value text.
type JSONParser struct{}

func (JSONParser) CanParse(contentType string) bool {
	return jsonContentTypes[contentType]
}

func (JSONParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Result{}, fmt.Errorf("empty JSON payload")
	}

	records, isJSONL := splitRecords(trimmed)

	var b strings.Builder
	for i, rec := range records {
		var v any
		if err := json.Unmarshal(rec, &v); err != nil {
			continue
		}
		flat := map[string]string{}
		flatten("", v, flat)
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(&b, "## record %d\n", i)
		var section strings.Builder
		for _, k := range keys {
			line := fmt.Sprintf("%s: %s\n", k, flat[k])
			if section.Len()+len(line) > maxSectionBytes {
				break
			}
			section.WriteString(line)
		}
		b.WriteString(section.String())
		b.WriteString("\n")
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return Result{}, fmt.Errorf("no records found in JSON payload")
	}

	mode := "object"
	if isJSONL {
		mode = "jsonl"
	}
	return Result{
		Content:  content,
		Metadata: map[string]string{"jsonMode": mode, "recordCount": fmt.Sprint(len(records))},
	}, nil
}

func splitRecords(data []byte) (records [][]byte, isJSONL bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var probe any
		if err := json.Unmarshal(trimmed, &probe); err == nil {
			if arr, ok := probe.([]any); ok {
				var out [][]byte
				for _, item := range arr {
					b, _ := json.Marshal(item)
					out = append(out, b)
				}
				return out, false
			}
			return [][]byte{trimmed}, false
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var out [][]byte
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		out = append(out, cp)
	}
	return out, true
}

func flatten(prefix string, v any, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			flatten(path, val[k], out)
		}
	case []any:
		for i, item := range val {
			path := fmt.Sprintf("%s[%d]", prefix, i)
			flatten(path, item, out)
		}
	default:
		out[prefix] = fmt.Sprint(val)
	}
}
