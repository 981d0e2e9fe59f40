package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nikhilbhutani/speakcoach/internal/transcript"
)

// OpenAISTTConfig holds configuration for the OpenAI-compatible STT backend.
// Groq is reached by pointing BaseURL at https://api.groq.com/openai/v1.
type OpenAISTTConfig struct {
	APIKey  string
	BaseURL string        // default: "https://api.openai.com/v1"
	Model   string        // default: "whisper-1"
	Timeout time.Duration // default: 300s
}

// OpenAISTT transcribes audio using a Whisper-compatible HTTP API.
type OpenAISTT struct {
	cfg        OpenAISTTConfig
	httpClient *http.Client
}

// NewOpenAISTT creates an OpenAISTT with sensible defaults applied.
func NewOpenAISTT(cfg OpenAISTTConfig) *OpenAISTT {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	return &OpenAISTT{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (o *OpenAISTT) Name() string { return "openai-whisper" }

type verboseWord struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type verboseSegment struct {
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Text  string        `json:"text"`
	Words []verboseWord `json:"words,omitempty"`
}

type verboseResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []verboseSegment `json:"segments"`
	Words    []verboseWord    `json:"words"`
}

// Transcribe uploads the audio file and requests word-level timestamps.
func (o *OpenAISTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(req.FilePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err = io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	_ = mw.WriteField("model", o.cfg.Model)
	_ = mw.WriteField("response_format", "verbose_json")
	_ = mw.WriteField("timestamp_granularities[]", "word")
	_ = mw.WriteField("timestamp_granularities[]", "segment")
	_ = mw.WriteField("temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64))

	if req.Language != "" {
		_ = mw.WriteField("language", req.Language)
	}
	if req.Prompt != "" {
		_ = mw.WriteField("prompt", req.Prompt)
	}

	if err = mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	if o.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp verboseResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	t := apiResp.toTranscript()
	return &TranscriptionResponse{
		Text:       t.Text,
		Language:   t.Language,
		Duration:   t.Duration,
		Transcript: t,
	}, nil
}

func (r verboseResponse) toTranscript() *transcript.Transcript {
	segments := make([]transcript.Segment, len(r.Segments))
	for i, s := range r.Segments {
		segments[i] = transcript.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
			Words: convertWords(s.Words),
		}
	}
	return &transcript.Transcript{
		Text:     r.Text,
		Language: r.Language,
		Duration: r.Duration,
		Segments: transcript.AttachWords(segments, convertWords(r.Words)),
	}
}

func convertWords(in []verboseWord) []transcript.Word {
	if len(in) == 0 {
		return nil
	}
	out := make([]transcript.Word, len(in))
	for i, w := range in {
		out[i] = transcript.Word{Text: w.Word, Start: w.Start, End: w.End}
	}
	return out
}
