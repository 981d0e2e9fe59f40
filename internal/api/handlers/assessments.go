package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/speakcoach/internal/assessment"
	"github.com/nikhilbhutani/speakcoach/internal/auth"
	"github.com/nikhilbhutani/speakcoach/internal/models"
)

// AssessmentService is implemented by *assessment.Service.
type AssessmentService interface {
	Submit(ctx context.Context, req assessment.SubmitRequest) (*models.Assessment, error)
	Get(ctx context.Context, learnerID string, id uuid.UUID) (*models.Assessment, error)
	List(ctx context.Context, learnerID string, limit, offset int) ([]models.Assessment, error)
	CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	ListQuestions(ctx context.Context, category string) ([]models.Question, error)
}

type AssessmentHandler struct {
	svc            AssessmentService
	maxUploadBytes int64
}

func NewAssessmentHandler(svc AssessmentService, maxUploadBytes int64) *AssessmentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 25 << 20
	}
	return &AssessmentHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

type createQuestionRequest struct {
	Text       string `json:"text" validate:"required,max=2000"`
	Category   string `json:"category" validate:"max=100"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

func (h *AssessmentHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	q, err := h.svc.CreateQuestion(r.Context(), models.Question{
		Text:       req.Text,
		Category:   req.Category,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		slog.Error("failed to create question", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create question")
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *AssessmentHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.ListQuestions(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		slog.Error("failed to list questions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list questions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs, "count": len(qs)})
}

func (h *AssessmentHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	q, err := h.svc.GetQuestion(r.Context(), id)
	if errors.Is(err, assessment.ErrNotFound) {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	if err != nil {
		slog.Error("failed to get question", "question_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load question")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Submit accepts a multipart form with an optional file, answer_text and
// question_id, and queues the answer for analysis.
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeMultipartError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	req := assessment.SubmitRequest{
		LearnerID:  auth.LearnerFromContext(r.Context()),
		AnswerText: strings.TrimSpace(r.FormValue("answer_text")),
	}

	if v := r.FormValue("question_id"); v != "" {
		qid, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question ID")
			return
		}
		req.QuestionID = &qid
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		req.Audio = file
		req.Filename = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
	case !errors.Is(err, http.ErrMissingFile):
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}

	a, err := h.svc.Submit(r.Context(), req)
	switch {
	case errors.Is(err, assessment.ErrEmptyAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, assessment.ErrNotFound):
		writeError(w, http.StatusNotFound, "question not found")
	case err != nil:
		slog.Error("failed to submit assessment", "learner_id", req.LearnerID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not submit assessment")
	default:
		writeJSON(w, http.StatusAccepted, a)
	}
}

func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	out, err := h.svc.List(r.Context(), auth.LearnerFromContext(r.Context()), limit, offset)
	if err != nil {
		slog.Error("failed to list assessments", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list assessments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": out, "count": len(out)})
}

func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment ID")
		return
	}
	a, err := h.svc.Get(r.Context(), auth.LearnerFromContext(r.Context()), id)
	if errors.Is(err, assessment.ErrNotFound) {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}
	if err != nil {
		slog.Error("failed to get assessment", "assessment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load assessment")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
