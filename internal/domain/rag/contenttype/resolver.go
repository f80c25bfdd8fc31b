// Package contenttype resolves a canonical MIME type for an ingested
// file from its name, bytes, and any client-declared type.
package contenttype

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const Octet = "application/octet-stream"

// extensionMap covers types net/mime's built-in table handles unevenly,
// mirroring the original extension table this resolver was ported from.
var extensionMap = map[string]string{
	// Email
	".eml": "message/rfc822",
	".msg": "application/vnd.ms-outlook",
	// Documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	// Text
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".rst":      "text/x-rst",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	// Data
	".json":  "application/json",
	".jsonl": "application/jsonl",
	".xml":   "application/xml",
	".yaml":  "application/x-yaml",
	".yml":   "application/x-yaml",
	// Audio
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	// Video
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// Resolve detects a content type with a fallback chain: extension table,
// then the stdlib's own extension table, then content sniffing, then the
// client-declared type if non-generic, finally octet-stream. It never fails.
func Resolve(filename string, content []byte, clientContentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	if ct, ok := extensionMap[ext]; ok {
		return ct
	}

	if ct := mime.TypeByExtension(ext); ct != "" {
		if stripParams(ct) != Octet {
			return stripParams(ct)
		}
	}

	if len(content) > 0 {
		if ct := http.DetectContentType(content); ct != "" && stripParams(ct) != Octet {
			return stripParams(ct)
		}
	}

	if clientContentType != "" && stripParams(clientContentType) != Octet {
		return stripParams(clientContentType)
	}

	return Octet
}

func stripParams(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		return strings.TrimSpace(ct[:i])
	}
	return ct
}
