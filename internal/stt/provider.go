package stt

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/speakcoach/internal/config"
	"github.com/nikhilbhutani/speakcoach/internal/transcript"
)

// TranscriptionRequest holds the parameters for audio transcription.
type TranscriptionRequest struct {
	FilePath    string  `json:"file_path"`
	Language    string  `json:"language,omitempty"`
	Prompt      string  `json:"prompt,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// TranscriptionResponse holds the transcription result with word timings.
type TranscriptionResponse struct {
	Text       string                 `json:"text"`
	Language   string                 `json:"language"`
	Duration   float64                `json:"duration"`
	Transcript *transcript.Transcript `json:"transcript"`
}

// STTProvider is the interface for speech-to-text backends.
type STTProvider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
	Name() string
}

// NewProvider builds the backend selected by cfg.Backend.
func NewProvider(cfg config.STTConfig) (STTProvider, error) {
	switch cfg.Backend {
	case "", "openai", "groq":
		return NewOpenAISTT(OpenAISTTConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "local":
		return NewLocalSTT(LocalSTTConfig{BaseURL: cfg.LocalBaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unknown STT backend %q", cfg.Backend)
	}
}
