package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/speakcoach/internal/audio"
	"github.com/nikhilbhutani/speakcoach/internal/feedback"
	"github.com/nikhilbhutani/speakcoach/internal/models"
	"github.com/nikhilbhutani/speakcoach/internal/queue"
	"github.com/nikhilbhutani/speakcoach/internal/storage"
)

// AssessmentStore is the part of assessment.Store the worker uses.
type AssessmentStore interface {
	Get(ctx context.Context, learnerID string, id uuid.UUID) (*models.Assessment, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, errMsg string) error
	SaveResult(ctx context.Context, id uuid.UUID, res models.AssessmentResult) error
}

type AudioProcessor interface {
	Process(ctx context.Context, path string, opts audio.Options) *audio.Result
}

type FeedbackProcessor interface {
	AnalyzeText(ctx context.Context, text string) (*feedback.TextFeedback, error)
	GenerateIdealAnswer(ctx context.Context, question, userAnswer string) (*feedback.IdealAnswer, error)
}

type AssessmentWorkerConfig struct {
	Bucket         string
	TempDir        string
	Language       string
	PauseThreshold float64
}

// AssessmentWorker handles queue.TypeAssessmentAnalyze tasks.
type AssessmentWorker struct {
	store    AssessmentStore
	storage  storage.Storage
	audio    AudioProcessor
	feedback FeedbackProcessor
	cfg      AssessmentWorkerConfig
}

func NewAssessmentWorker(store AssessmentStore, objects storage.Storage, ap AudioProcessor, fp FeedbackProcessor, cfg AssessmentWorkerConfig) *AssessmentWorker {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &AssessmentWorker{
		store:    store,
		storage:  objects,
		audio:    ap,
		feedback: fp,
		cfg:      cfg,
	}
}

func (w *AssessmentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AssessmentAnalyzePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	id, err := uuid.Parse(payload.AssessmentID)
	if err != nil {
		return fmt.Errorf("parse assessment ID: %w: %w", err, asynq.SkipRetry)
	}

	slog.Info("processing assessment", "assessment_id", id)

	if err := w.store.UpdateStatus(ctx, id, models.AssessmentStatusProcessing, ""); err != nil {
		return fmt.Errorf("update status to processing: %w", err)
	}

	a, err := w.store.Get(ctx, "", id)
	if err != nil {
		return w.fail(ctx, id, fmt.Errorf("get assessment: %w", err))
	}

	res, err := w.analyze(ctx, a)
	if err != nil {
		err = w.fail(ctx, id, err)
		if errors.Is(err, feedback.ErrRejectedInput) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := w.store.SaveResult(ctx, id, *res); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	slog.Info("assessment processed", "assessment_id", id, "has_audio", a.AudioPath != "")
	return nil
}

func (w *AssessmentWorker) analyze(ctx context.Context, a *models.Assessment) (*models.AssessmentResult, error) {
	res := &models.AssessmentResult{Transcript: a.AnswerText}

	if a.AudioPath != "" {
		path, cleanup, err := w.download(ctx, a.AudioPath)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		out := w.audio.Process(ctx, path, audio.Options{
			Language:       w.cfg.Language,
			PauseThreshold: w.cfg.PauseThreshold,
			Filename:       filepath.Base(a.AudioPath),
		})
		if out.Status != audio.StatusSuccess {
			return nil, fmt.Errorf("process audio: %s", out.Message)
		}
		res.Fluency = out.Fluency
		if out.Text != "" {
			res.Transcript = out.Text
		}
	}

	if res.Transcript == "" {
		return nil, fmt.Errorf("no answer text to analyze")
	}

	fb, err := w.feedback.AnalyzeText(ctx, res.Transcript)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}
	res.Feedback = fb

	if a.QuestionID != nil {
		q, err := w.store.GetQuestion(ctx, *a.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("get question: %w", err)
		}
		ideal, err := w.feedback.GenerateIdealAnswer(ctx, q.Text, res.Transcript)
		if err != nil {
			// The rest of the feedback is still useful.
			slog.Warn("ideal answer generation failed", "assessment_id", a.ID, "error", err)
		} else {
			res.IdealAnswer = ideal
		}
	}

	return res, nil
}

// download copies the stored audio into a temp file that keeps the
// original extension, since transcription backends sniff the format from it.
func (w *AssessmentWorker) download(ctx context.Context, objectPath string) (string, func(), error) {
	rc, err := w.storage.Download(ctx, w.cfg.Bucket, objectPath)
	if err != nil {
		return "", nil, fmt.Errorf("download audio: %w", err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(w.cfg.TempDir, "assessment-*"+filepath.Ext(objectPath))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temp audio", "path", f.Name(), "error", err)
		}
	}

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp audio: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp audio: %w", err)
	}
	return f.Name(), cleanup, nil
}

func (w *AssessmentWorker) fail(ctx context.Context, id uuid.UUID, cause error) error {
	slog.Error("assessment failed", "assessment_id", id, "error", cause)
	if err := w.store.UpdateStatus(ctx, id, models.AssessmentStatusFailed, cause.Error()); err != nil {
		slog.Error("failed to mark assessment failed", "assessment_id", id, "error", err)
	}
	return cause
}
