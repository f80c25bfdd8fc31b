package parser

import (
	"context"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-shiori/go-readability"
)

var htmlContentTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
}

// HTMLParser converts a raw HTML document to text. When the filename parses
// as a URL with a scheme, it first extracts the main article body via
// Readability and falls back to the whole document when Readability can't
// isolate an article; for any other filename Readability is not run and the
// whole document is converted.
type HTMLParser struct{}

func (HTMLParser) CanParse(contentType string) bool {
	return htmlContentTypes[contentType]
}

func (HTMLParser) Parse(_ context.Context, filename string, data []byte) (Result, error) {
	html := string(data)
	metadata := map[string]string{}

	var base *url.URL
	if u, err := url.Parse(filename); err == nil && u.Scheme != "" {
		base = u
	}

	articleHTML := html
	if base != nil {
		if article, err := readability.FromReader(strings.NewReader(html), base); err == nil && strings.TrimSpace(article.Content) != "" {
			articleHTML = article.Content
			if article.Title != "" {
				metadata["title"] = article.Title
			}
			if article.Byline != "" {
				metadata["author"] = article.Byline
			}
			metadata["extraction"] = "readability"
		}
	}
	if metadata["extraction"] == "" {
		metadata["extraction"] = "full_document"
	}

	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(articleHTML)
	if err != nil {
		text = articleHTML
	}
	return Result{Content: strings.TrimSpace(text), Metadata: metadata}, nil
}
