package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nikhilbhutani/speakcoach/internal/audio"
)

// AudioProcessor is implemented by *audio.Processor.
type AudioProcessor interface {
	Process(ctx context.Context, path string, opts audio.Options) *audio.Result
}

type AudioConfig struct {
	TempDir        string
	MaxUploadBytes int64
	Language       string
	PauseThreshold float64
}

type AudioHandler struct {
	processor AudioProcessor
	cfg       AudioConfig
}

func NewAudioHandler(p AudioProcessor, cfg AudioConfig) *AudioHandler {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	return &AudioHandler{processor: p, cfg: cfg}
}

// ProcessAudio transcribes an uploaded answer and scores its fluency.
// Form fields: file (required), language, pause_threshold.
func (h *AudioHandler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeMultipartError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	threshold := h.cfg.PauseThreshold
	if v := r.FormValue("pause_threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil || threshold <= 0 {
			writeError(w, http.StatusBadRequest, "pause_threshold must be a positive number of seconds")
			return
		}
	}
	language := r.FormValue("language")
	if language == "" {
		language = h.cfg.Language
	}

	path, cleanup, err := saveTemp(h.cfg.TempDir, header.Filename, file)
	if err != nil {
		slog.Error("failed to save upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	defer cleanup()

	res := h.processor.Process(r.Context(), path, audio.Options{
		Language:       language,
		PauseThreshold: threshold,
		Filename:       header.Filename,
	})
	status := http.StatusOK
	if res.Status != audio.StatusSuccess {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func writeMultipartError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, "invalid multipart form")
}

// saveTemp copies src into dir, keeping the upload's extension so the
// transcription backend can tell the container format.
func saveTemp(dir, filename string, src io.Reader) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 {
		ext = ""
	}
	f, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("error cleaning up temp file", "path", f.Name(), "error", err)
		}
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
