package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nikhilbhutani/speakcoach/internal/feedback"
)

// FeedbackAnalyzer is implemented by *feedback.Processor.
type FeedbackAnalyzer interface {
	AnalyzeText(ctx context.Context, text string) (*feedback.TextFeedback, error)
	GenerateIdealAnswer(ctx context.Context, question, userAnswer string) (*feedback.IdealAnswer, error)
}

type FeedbackHandler struct {
	analyzer FeedbackAnalyzer
}

func NewFeedbackHandler(a FeedbackAnalyzer) *FeedbackHandler {
	return &FeedbackHandler{analyzer: a}
}

type analyzeTextRequest struct {
	Text string `json:"text"`
}

func (h *FeedbackHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}

	fb, err := h.analyzer.AnalyzeText(r.Context(), req.Text)
	if errors.Is(err, feedback.ErrRejectedInput) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		slog.Error("error analyzing text", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to analyze text")
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

type idealAnswerRequest struct {
	Question   string `json:"question" validate:"required,max=2000"`
	UserAnswer string `json:"user_answer" validate:"required,max=20000"`
	// Answer is accepted as an alias of user_answer.
	Answer string `json:"answer" validate:"-"`
}

func (h *FeedbackHandler) IdealAnswer(w http.ResponseWriter, r *http.Request) {
	var req idealAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserAnswer == "" {
		req.UserAnswer = req.Answer
	}
	req.Question = strings.TrimSpace(req.Question)
	req.UserAnswer = strings.TrimSpace(req.UserAnswer)
	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	ideal, err := h.analyzer.GenerateIdealAnswer(r.Context(), req.Question, req.UserAnswer)
	if errors.Is(err, feedback.ErrRejectedInput) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		slog.Error("error generating ideal answer", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate ideal answer")
		return
	}
	writeJSON(w, http.StatusOK, ideal)
}
