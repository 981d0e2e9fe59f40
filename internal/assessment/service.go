// Package assessment stores learner answers and hands them to the worker
// for transcription and feedback.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/speakcoach/internal/models"
	"github.com/nikhilbhutani/speakcoach/internal/queue"
	"github.com/nikhilbhutani/speakcoach/internal/storage"
)

// ErrEmptyAnswer is returned by Submit when there is neither audio nor text.
var ErrEmptyAnswer = errors.New("audio or answer text required")

// Repository is implemented by *Store.
type Repository interface {
	CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	ListQuestions(ctx context.Context, category string) ([]models.Question, error)
	Create(ctx context.Context, a models.Assessment) (*models.Assessment, error)
	Get(ctx context.Context, learnerID string, id uuid.UUID) (*models.Assessment, error)
	ListByLearner(ctx context.Context, learnerID string, limit, offset int) ([]models.Assessment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, errMsg string) error
	SaveResult(ctx context.Context, id uuid.UUID, res models.AssessmentResult) error
}

// Enqueuer is implemented by *queue.Client.
type Enqueuer interface {
	EnqueueAssessmentAnalyze(payload queue.AssessmentAnalyzePayload) error
}

type Service struct {
	repo    Repository
	storage storage.Storage
	bucket  string
	queue   Enqueuer
}

func NewService(repo Repository, store storage.Storage, bucket string, q Enqueuer) *Service {
	return &Service{repo: repo, storage: store, bucket: bucket, queue: q}
}

type SubmitRequest struct {
	LearnerID   string
	QuestionID  *uuid.UUID
	AnswerText  string
	Filename    string
	ContentType string
	Audio       io.Reader
}

// Submit stores the answer and queues it for analysis. Either Audio or
// AnswerText must be present.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Assessment, error) {
	if req.Audio == nil && strings.TrimSpace(req.AnswerText) == "" {
		return nil, ErrEmptyAnswer
	}
	if req.QuestionID != nil {
		if _, err := s.repo.GetQuestion(ctx, *req.QuestionID); err != nil {
			return nil, fmt.Errorf("question %s: %w", req.QuestionID, err)
		}
	}

	id := uuid.New()
	var path string
	if req.Audio != nil {
		path = fmt.Sprintf("%s/%s%s", req.LearnerID, id, strings.ToLower(filepath.Ext(req.Filename)))
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.storage.Upload(ctx, s.bucket, path, req.Audio, contentType); err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}
	}

	a, err := s.repo.Create(ctx, models.Assessment{
		ID:         id,
		LearnerID:  req.LearnerID,
		QuestionID: req.QuestionID,
		AnswerText: req.AnswerText,
		AudioPath:  path,
		Status:     models.AssessmentStatusPending,
	})
	if err != nil {
		if path != "" {
			if derr := s.storage.Delete(ctx, s.bucket, path); derr != nil {
				slog.Error("failed to remove orphaned upload", "bucket", s.bucket, "path", path, "error", derr)
			}
		}
		return nil, err
	}

	if err := s.queue.EnqueueAssessmentAnalyze(queue.AssessmentAnalyzePayload{AssessmentID: id.String()}); err != nil {
		slog.Error("failed to enqueue assessment", "assessment_id", id, "error", err)
		if uerr := s.repo.UpdateStatus(ctx, id, models.AssessmentStatusFailed, "could not queue analysis"); uerr != nil {
			slog.Error("failed to mark assessment failed", "assessment_id", id, "error", uerr)
		}
		return nil, fmt.Errorf("enqueue analysis: %w", err)
	}

	slog.Info("assessment submitted", "assessment_id", id, "learner_id", req.LearnerID, "has_audio", path != "")
	return a, nil
}

func (s *Service) Get(ctx context.Context, learnerID string, id uuid.UUID) (*models.Assessment, error) {
	return s.repo.Get(ctx, learnerID, id)
}

func (s *Service) List(ctx context.Context, learnerID string, limit, offset int) ([]models.Assessment, error) {
	return s.repo.ListByLearner(ctx, learnerID, limit, offset)
}

func (s *Service) CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	return s.repo.CreateQuestion(ctx, q)
}

func (s *Service) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return s.repo.GetQuestion(ctx, id)
}

func (s *Service) ListQuestions(ctx context.Context, category string) ([]models.Question, error) {
	return s.repo.ListQuestions(ctx, category)
}
