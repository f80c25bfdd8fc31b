package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var presentationContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// PresentationParser handles slide-oriented PPTX decks. Registered ahead of
// DocumentParser so presentation MIME types are claimed by the more
// specific parser, per §4.2's ordering note.
type PresentationParser struct{}

func (PresentationParser) CanParse(contentType string) bool {
	return presentationContentTypes[contentType]
}

type pptxShapeTree struct {
	Shapes []pptxShape `xml:"spTree>sp"`
}

type pptxShape struct {
	Transform pptxTransform `xml:"spPr>xfrm"`
	Paragraphs []pptxParagraph `xml:"txBody>p"`
}

type pptxTransform struct {
	Off pptxOffset `xml:"off"`
}

type pptxOffset struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type pptxParagraph struct {
	Runs []pptxRun `xml:"r"`
}

type pptxRun struct {
	Text string `xml:"t"`
}

var slideFileRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (PresentationParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("opening pptx: %w", err)
	}

	type slideFile struct {
		num  int
		data []byte
	}
	var slides []slideFile
	var images []Image
	imageIdx := 0

	for _, f := range zr.File {
		if m := slideFileRe.FindStringSubmatch(f.Name); m != nil {
			rc, err := f.Open()
			if err != nil {
				continue
			}
			b, _ := io.ReadAll(rc)
			rc.Close()
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slideFile{num: n, data: b})
		}
		if strings.HasPrefix(f.Name, "ppt/media/") {
			rc, err := f.Open()
			if err != nil {
				continue
			}
			b, _ := io.ReadAll(rc)
			rc.Close()
			images = append(images, Image{Bytes: b, Page: 0, Index: imageIdx, Format: strings.TrimPrefix(extOf(f.Name), "."), Filename: f.Name})
			imageIdx++
		}
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b strings.Builder
	for _, s := range slides {
		var tree pptxShapeTree
		if err := xml.Unmarshal(s.data, &tree); err != nil {
			continue
		}
		// Order shapes top-left to bottom-right: sort by Y then X.
		sort.Slice(tree.Shapes, func(i, j int) bool {
			oi, oj := tree.Shapes[i].Transform.Off, tree.Shapes[j].Transform.Off
			if oi.Y != oj.Y {
				return oi.Y < oj.Y
			}
			return oi.X < oj.X
		})
		fmt.Fprintf(&b, "## Slide %d\n\n", s.num)
		for _, shape := range tree.Shapes {
			for _, p := range shape.Paragraphs {
				var line strings.Builder
				for _, r := range p.Runs {
					line.WriteString(r.Text)
				}
				if line.Len() > 0 {
					b.WriteString(line.String())
					b.WriteString("\n")
				}
			}
		}
		b.WriteString("\n")
	}
	for i := range images {
		// Slide number unknown per-image without relationship parsing; best
		// effort assigns them in deck order.
		images[i].Page = i + 1
	}

	return Result{
		Content:     strings.TrimSpace(b.String()),
		Metadata:    map[string]string{"slideCount": strconv.Itoa(len(slides)), "extraction_method": "structured"},
		PageCount:   len(slides),
		Images:      images,
		ExtractMode: "structured",
	}, nil
}
