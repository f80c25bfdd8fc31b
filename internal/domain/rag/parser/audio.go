package parser

import (
	"context"
	"strings"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// AudioParser dispatches to the Speech port and returns the transcript.
type AudioParser struct {
	Speech rag.SpeechPort
}

func (AudioParser) CanParse(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/")
}

func (p AudioParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	metadata := map[string]string{}
	if p.Speech == nil {
		metadata["speech_error"] = "speech port unavailable"
		return Result{Content: "", Metadata: metadata}, errNoSpeechContent
	}

	transcript, language, err := p.Speech.Transcribe(ctx, data, "")
	if err != nil {
		metadata["speech_error"] = err.Error()
		return Result{Content: "", Metadata: metadata}, err
	}
	if language != "" {
		metadata["language"] = language
	}
	return Result{Content: strings.TrimSpace(transcript), Metadata: metadata}, nil
}

var errNoSpeechContent = speechUnavailableError{}

type speechUnavailableError struct{}

func (speechUnavailableError) Error() string { return "speech port unavailable, no content produced" }
