package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/richardlehane/mscfb"
)

var emailContentTypes = map[string]bool{
	"message/rfc822":              true,
	"application/vnd.ms-outlook":  true,
}

var emailHeaderFields = []string{"From", "To", "Cc", "Subject", "Date", "Message-Id", "In-Reply-To", "References"}

// EmailParser extracts headers and a text body from RFC 822 and legacy
// Outlook messages, optionally recursing into attachments via Registry.
type EmailParser struct {
	// Attachments, when set, is used to recurse into attachment bytes via
	// the same content-type resolution/parser selection used at the top
	// level. Nil disables attachment recursion.
	Attachments *Registry
	ResolveType func(filename string, data []byte) string
}

func (EmailParser) CanParse(contentType string) bool {
	return emailContentTypes[contentType]
}

func (p EmailParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	if looksLikeOLE(data) {
		return p.parseOutlookMSG(ctx, filename, data)
	}
	return p.parseRFC822(ctx, filename, data)
}

func looksLikeOLE(data []byte) bool {
	sig := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	return len(data) > len(sig) && bytes.Equal(data[:len(sig)], sig)
}

func (p EmailParser) parseRFC822(ctx context.Context, filename string, data []byte) (Result, error) {
	m, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("parsing rfc822 message: %w", err)
	}

	metadata := map[string]string{}
	for _, field := range emailHeaderFields {
		if v := m.Header.Get(field); v != "" {
			metadata[headerKey(field)] = v
		}
	}

	var body strings.Builder
	var images []Image

	mediaType, params, _ := mime.ParseMediaType(m.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(m.Body, params["boundary"])
		imgIdx := 0
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}
			b, _ := io.ReadAll(part)
			ct, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
			disposition := part.Header.Get("Content-Disposition")

			switch {
			case strings.Contains(disposition, "attachment") && p.Attachments != nil && p.ResolveType != nil:
				attName := part.FileName()
				attType := p.ResolveType(attName, b)
				if res, err := p.Attachments.Parse(ctx, attType, attName, b); err == nil {
					body.WriteString("\n--- attachment: " + attName + " ---\n")
					body.WriteString(res.Content)
				}
			case strings.HasPrefix(ct, "text/plain"):
				body.WriteString(string(b))
			case strings.HasPrefix(ct, "text/html") && body.Len() == 0:
				body.WriteString(htmlToText(string(b)))
			case strings.HasPrefix(ct, "image/"):
				images = append(images, Image{Bytes: b, Index: imgIdx, Format: strings.TrimPrefix(ct, "image/"), Filename: part.FileName()})
				imgIdx++
			}
		}
	} else {
		b, _ := io.ReadAll(m.Body)
		if strings.HasPrefix(mediaType, "text/html") {
			body.WriteString(htmlToText(string(b)))
		} else {
			body.WriteString(string(b))
		}
	}

	content := strings.TrimSpace(headerBlock(metadata) + "\n\n" + body.String())
	return Result{
		Content:  content,
		Metadata: metadata,
		Images:   images,
	}, nil
}

// parseOutlookMSG extracts header-ish streams from a legacy OLE compound
// file (.msg) via mscfb; Outlook's named-property streams are not fully
// decoded, so this is best-effort plain-text recovery.
func (p EmailParser) parseOutlookMSG(ctx context.Context, filename string, data []byte) (Result, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("opening OLE message: %w", err)
	}

	var b strings.Builder
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry == nil || entry.IsDir() {
			continue
		}
		name := entry.Name
		if !strings.Contains(strings.ToLower(name), "body") && !strings.Contains(strings.ToLower(name), "subject") {
			continue
		}
		buf := make([]byte, entry.Size)
		n, _ := entry.Read(buf)
		b.Write(sanitizeUTF16ish(buf[:n]))
		b.WriteString("\n")
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return Result{}, fmt.Errorf("no recoverable text streams in .msg file")
	}
	return Result{Content: content, Metadata: map[string]string{"extraction_method": "ole_stream"}}, nil
}

// sanitizeUTF16ish drops interleaved NUL bytes common in UTF-16LE OLE
// streams so the recovered text is readable ASCII/UTF-8-ish.
func sanitizeUTF16ish(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c != 0 {
			out = append(out, c)
		}
	}
	return out
}

func headerKey(field string) string {
	return strings.ToLower(strings.ReplaceAll(field, "-", "_"))
}

func headerBlock(metadata map[string]string) string {
	var b strings.Builder
	for _, field := range emailHeaderFields {
		if v, ok := metadata[headerKey(field)]; ok {
			fmt.Fprintf(&b, "%s: %s\n", field, v)
		}
	}
	return b.String()
}

func htmlToText(html string) string {
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(html)
	if err != nil {
		return html
	}
	return text
}
