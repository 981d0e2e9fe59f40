package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/speakcoach/internal/feedback"
	"github.com/nikhilbhutani/speakcoach/internal/fluency"
)

type Question struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Text       string    `json:"text" db:"text"`
	Category   string    `json:"category,omitempty" db:"category"`
	Difficulty string    `json:"difficulty,omitempty" db:"difficulty"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Assessment struct {
	ID          uuid.UUID              `json:"id" db:"id"`
	LearnerID   string                 `json:"learner_id" db:"learner_id"`
	QuestionID  *uuid.UUID             `json:"question_id,omitempty" db:"question_id"`
	AnswerText  string                 `json:"answer_text,omitempty" db:"answer_text"`
	AudioPath   string                 `json:"audio_path,omitempty" db:"audio_path"`
	Status      string                 `json:"status" db:"status"`
	Transcript  string                 `json:"transcript,omitempty" db:"transcript"`
	Fluency     *fluency.Report        `json:"fluency,omitempty" db:"fluency"`
	Feedback    *feedback.TextFeedback `json:"feedback,omitempty" db:"feedback"`
	IdealAnswer *feedback.IdealAnswer  `json:"ideal_answer,omitempty" db:"ideal_answer"`
	Error       string                 `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" db:"updated_at"`
}

// AssessmentResult is what the worker writes back once analysis finishes.
type AssessmentResult struct {
	Transcript  string
	Fluency     *fluency.Report
	Feedback    *feedback.TextFeedback
	IdealAnswer *feedback.IdealAnswer
}

const (
	AssessmentStatusPending    = "pending"
	AssessmentStatusProcessing = "processing"
	AssessmentStatusCompleted  = "completed"
	AssessmentStatusFailed     = "failed"
)
