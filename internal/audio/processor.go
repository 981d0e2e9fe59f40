package audio

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/nikhilbhutani/speakcoach/internal/fluency"
	"github.com/nikhilbhutani/speakcoach/internal/stt"
	"github.com/nikhilbhutani/speakcoach/internal/transcript"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the response shape for a processed audio answer.
type Result struct {
	Status     string                 `json:"status"`
	Text       string                 `json:"text,omitempty"`
	Filename   string                 `json:"filename"`
	Fluency    *fluency.Report        `json:"fluency,omitempty"`
	Transcript *transcript.Transcript `json:"transcript,omitempty"`
	Message    string                 `json:"message,omitempty"`
}

// Processor transcribes an answer once and scores its fluency.
type Processor struct {
	analyzer *fluency.Analyzer
}

func NewProcessor(analyzer *fluency.Analyzer) *Processor {
	return &Processor{analyzer: analyzer}
}

// Options controls a single Process call.
type Options struct {
	Language       string
	PauseThreshold float64
	// Filename is reported back instead of the base name of path.
	Filename string
}

// Process transcribes the audio at path. A failed transcription yields a
// Result with StatusError and a fluency report scored 0.
func (p *Processor) Process(ctx context.Context, path string, opts Options) *Result {
	name := opts.Filename
	if name == "" {
		name = filepath.Base(path)
	}

	resp, report := p.analyzer.Analyze(ctx, stt.TranscriptionRequest{
		FilePath: path,
		Language: opts.Language,
	}, opts.PauseThreshold)

	if resp == nil {
		slog.Error("error processing audio file", "filename", name, "error", report.Error)
		return &Result{
			Status:   StatusError,
			Filename: name,
			Fluency:  report,
			Message:  "Error processing audio: " + report.Error,
		}
	}

	slog.Info("transcribed and analyzed audio file",
		"filename", name,
		"pause_count", report.PauseCount,
		"fluency_score", report.FluencyScore,
	)
	return &Result{
		Status:     StatusSuccess,
		Text:       resp.Text,
		Filename:   name,
		Fluency:    report,
		Transcript: resp.Transcript,
	}
}
