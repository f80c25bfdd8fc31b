package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// MaxVideoDuration is the configured ceiling above which a video parse is
// rejected outright, per §4.2 and §8 boundary behaviors.
var MaxVideoDuration = 2 * time.Hour

// VideoParser extracts the audio track via a VideoTool, then dispatches to
// the Speech port for a transcript.
type VideoParser struct {
	Tool          rag.VideoTool
	Speech        rag.SpeechPort
	MaxDuration   time.Duration
}

func (VideoParser) CanParse(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}

func (p VideoParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	maxDuration := p.MaxDuration
	if maxDuration <= 0 {
		maxDuration = MaxVideoDuration
	}

	if p.Tool == nil || p.Speech == nil {
		return Result{}, fmt.Errorf("video parsing requires both a video tool and a speech port")
	}

	duration, width, height, codec, err := p.Tool.Probe(ctx, data)
	if err != nil {
		return Result{}, fmt.Errorf("probing video: %w", err)
	}
	if duration > maxDuration {
		return Result{}, fmt.Errorf("video duration %s exceeds configured maximum %s", duration, maxDuration)
	}

	audio, err := p.Tool.ExtractAudio(ctx, data)
	if err != nil {
		return Result{}, fmt.Errorf("extracting audio: %w", err)
	}

	transcript, language, err := p.Speech.Transcribe(ctx, audio, "")
	metadata := map[string]string{
		"duration_seconds": strconv.FormatFloat(duration.Seconds(), 'f', 2, 64),
		"width":            strconv.Itoa(width),
		"height":           strconv.Itoa(height),
		"codec":            codec,
	}
	if err != nil {
		metadata["speech_error"] = err.Error()
		return Result{Content: "", Metadata: metadata}, err
	}
	if language != "" {
		metadata["language"] = language
	}

	return Result{Content: strings.TrimSpace(transcript), Metadata: metadata}, nil
}
