package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var documentContentTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
}

// DocumentParser handles PDF and Word documents. PDF text extraction tries
// the structured page-text reader first and falls back to a raw byte scan
// when the structured path returns nothing, matching §8 scenario 6.
type DocumentParser struct{}

func (DocumentParser) CanParse(contentType string) bool {
	return documentContentTypes[contentType]
}

func (DocumentParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".docx") || looksLikeZip(data) {
		return parseDOCX(data)
	}
	return parsePDF(data)
}

func looksLikeZip(data []byte) bool {
	return len(data) > 4 && data[0] == 'P' && data[1] == 'K'
}

func parsePDF(data []byte) (Result, error) {
	reader := bytes.NewReader(data)
	r, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return parsePDFFallback(data, err)
	}

	var b strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return parsePDFFallback(data, fmt.Errorf("structured extractor yielded no text"))
	}

	return Result{
		Content:     content,
		Metadata:    map[string]string{"extraction_method": "structured"},
		PageCount:   pages,
		ExtractMode: "structured",
	}, nil
}

// parsePDFFallback performs a crude raw scan for parenthesized text runs,
// the classic PDF content-stream text-show operator payloads, when the
// structured extractor fails or returns nothing.
func parsePDFFallback(data []byte, cause error) (Result, error) {
	var b strings.Builder
	i := 0
	for i < len(data) {
		if data[i] == '(' {
			depth := 1
			j := i + 1
			var run strings.Builder
			for j < len(data) && depth > 0 {
				switch data[j] {
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						break
					}
				case '\\':
					j++
				}
				if depth > 0 {
					run.WriteByte(data[j])
				}
				j++
			}
			if run.Len() > 0 {
				b.WriteString(run.String())
				b.WriteString(" ")
			}
			i = j
			continue
		}
		i++
	}
	content := strings.TrimSpace(b.String())
	return Result{
		Content:     content,
		Metadata:    map[string]string{"extraction_method": "fallback", "fallback_reason": cause.Error()},
		ExtractMode: "fallback",
	}, nil
}

// --- DOCX (OOXML word/document.xml) ---------------------------------------

type docxBody struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text string `xml:"t"`
}

func parseDOCX(data []byte) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("opening docx: %w", err)
	}

	var xmlData []byte
	imageCount := 0
	var images []Image
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				continue
			}
			xmlData, _ = io.ReadAll(rc)
			rc.Close()
		}
		if strings.HasPrefix(f.Name, "word/media/") {
			rc, err := f.Open()
			if err != nil {
				continue
			}
			b, _ := io.ReadAll(rc)
			rc.Close()
			images = append(images, Image{
				Bytes:    b,
				Page:     0,
				Index:    imageCount,
				Format:   strings.TrimPrefix(strings.ToLower(extOf(f.Name)), "."),
				Filename: f.Name,
			})
			imageCount++
		}
	}

	if xmlData == nil {
		return Result{}, fmt.Errorf("docx missing word/document.xml")
	}

	var body docxBody
	if err := xml.Unmarshal(xmlData, &body); err != nil {
		return Result{}, fmt.Errorf("parsing docx body: %w", err)
	}

	var b strings.Builder
	for _, p := range body.Paragraphs {
		for _, r := range p.Runs {
			b.WriteString(r.Text)
		}
		b.WriteString("\n\n")
	}

	return Result{
		Content:     strings.TrimSpace(b.String()),
		Metadata:    map[string]string{"extraction_method": "structured"},
		Images:      images,
		ExtractMode: "structured",
	}, nil
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
