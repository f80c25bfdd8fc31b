package parser

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// WebTranscriptContentType is the sentinel content type WebTranscriptParser
// accepts. Neither the content-type resolver nor the ingestion coordinator
// assigns it; a document carries it only if its caller sets it.
const WebTranscriptContentType = "application/x-web-video-url"

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=)([\w-]{6,})`),
	regexp.MustCompile(`(?:youtu\.be/)([\w-]{6,})`),
	regexp.MustCompile(`(?:youtube\.com/embed/)([\w-]{6,})`),
	regexp.MustCompile(`(?:youtube\.com/v/)([\w-]{6,})`),
	regexp.MustCompile(`(?:youtube\.com/shorts/)([\w-]{6,})`),
}

// ExtractVideoID pulls a YouTube-style video id from any of the short,
// watch, embed, v, or shorts URL forms.
func ExtractVideoID(rawURL string) (string, error) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no recognizable video id in URL %q", rawURL)
}

// WebTranscriptParser fetches a timestamped transcript and oEmbed metadata
// for a YouTube-style URL.
type WebTranscriptParser struct {
	Transcript rag.TranscriptPort
}

func (WebTranscriptParser) CanParse(contentType string) bool {
	return contentType == WebTranscriptContentType
}

func (p WebTranscriptParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	videoID, err := ExtractVideoID(filename)
	if err != nil {
		return Result{}, err
	}
	if p.Transcript == nil {
		return Result{}, fmt.Errorf("transcript port unavailable")
	}

	transcript, err := p.Transcript.FetchTranscript(ctx, videoID)
	metadata := map[string]string{"video_id": videoID}
	if err != nil {
		metadata["transcript_error"] = err.Error()
	}

	title, author, oerr := p.Transcript.FetchOEmbed(ctx, filename)
	if oerr == nil {
		metadata["title"] = title
		metadata["author"] = author
	} else {
		metadata["oembed_error"] = oerr.Error()
	}

	content := strings.TrimSpace(transcript)
	if content == "" && err != nil {
		return Result{}, err
	}
	return Result{Content: content, Metadata: metadata}, nil
}
