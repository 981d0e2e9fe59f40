package fluency

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikhilbhutani/speakcoach/internal/stt"
	"github.com/nikhilbhutani/speakcoach/internal/transcript"
)

var errNoTranscription = errors.New("transcription returned no result")

// Analyzer transcribes audio and scores the resulting transcript.
type Analyzer struct {
	transcriber stt.STTProvider
	language    string
}

// NewAnalyzer returns an Analyzer using the given transcription backend.
// language is the hint sent with every request; empty means "en".
func NewAnalyzer(transcriber stt.STTProvider, language string) *Analyzer {
	if language == "" {
		language = "en"
	}
	return &Analyzer{transcriber: transcriber, language: language}
}

// AnalyzeFluency transcribes the audio at path and scores it. It never
// returns a raw transport error: failures come back as a report with a zero
// score and Error set.
func (a *Analyzer) AnalyzeFluency(ctx context.Context, path string, threshold float64) *Report {
	_, report := a.Analyze(ctx, stt.TranscriptionRequest{FilePath: path}, threshold)
	return report
}

// Analyze is AnalyzeFluency that also hands back the transcription so the
// caller does not have to transcribe twice. The response is nil whenever
// transcription failed.
func (a *Analyzer) Analyze(ctx context.Context, req stt.TranscriptionRequest, threshold float64) (*stt.TranscriptionResponse, *Report) {
	if req.Language == "" {
		req.Language = a.language
	}

	resp, err := a.transcriber.Transcribe(ctx, req)
	if err != nil {
		slog.Warn("transcription failed", "provider", a.transcriber.Name(), "error", err)
		return nil, failed(err)
	}
	if resp == nil {
		slog.Warn("transcriber returned no response", "provider", a.transcriber.Name())
		return nil, failed(errNoTranscription)
	}

	report, err := Score(resp.Transcript, threshold)
	if err != nil {
		if errors.Is(err, transcript.ErrMalformedWord) {
			slog.Error("transcriber returned malformed word timings", "provider", a.transcriber.Name(), "error", err)
		}
		return resp, failed(err)
	}

	slog.Debug("fluency scored",
		"pause_count", report.PauseCount,
		"fluency_score", report.FluencyScore,
		"no_timing_data", report.NoTimingData,
	)
	return resp, report
}

func failed(err error) *Report {
	return &Report{
		PauseDetails: []Pause{},
		FluencyScore: 0,
		Error:        err.Error(),
	}
}
