package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikhilbhutani/speakcoach/internal/models"
)

// ErrNotFound is returned when a question or assessment does not exist.
var ErrNotFound = errors.New("not found")

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists questions and assessments in Postgres.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

const assessmentColumns = `id, learner_id, question_id, answer_text, audio_path, status,
	transcript, fluency, feedback, ideal_answer, error, created_at, updated_at`

func scanAssessment(row pgx.Row) (*models.Assessment, error) {
	var a models.Assessment
	err := row.Scan(&a.ID, &a.LearnerID, &a.QuestionID, &a.AnswerText, &a.AudioPath, &a.Status,
		&a.Transcript, &a.Fluency, &a.Feedback, &a.IdealAnswer, &a.Error, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	var out models.Question
	err := s.db.QueryRow(ctx,
		`INSERT INTO questions (text, category, difficulty) VALUES ($1, $2, $3)
		 RETURNING id, text, category, difficulty, created_at`,
		q.Text, q.Category, q.Difficulty,
	).Scan(&out.ID, &out.Text, &out.Category, &out.Difficulty, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return &out, nil
}

func (s *Store) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	err := s.db.QueryRow(ctx,
		`SELECT id, text, category, difficulty, created_at FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.Text, &q.Category, &q.Difficulty, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

func (s *Store) ListQuestions(ctx context.Context, category string) ([]models.Question, error) {
	query := `SELECT id, text, category, difficulty, created_at FROM questions`
	var args []any
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.Difficulty, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) Create(ctx context.Context, a models.Assessment) (*models.Assessment, error) {
	out, err := scanAssessment(s.db.QueryRow(ctx,
		`INSERT INTO assessments (id, learner_id, question_id, answer_text, audio_path, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+assessmentColumns,
		a.ID, a.LearnerID, a.QuestionID, a.AnswerText, a.AudioPath, a.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}
	return out, nil
}

// Get loads an assessment. An empty learnerID skips the ownership check.
func (s *Store) Get(ctx context.Context, learnerID string, id uuid.UUID) (*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`
	args := []any{id}
	if learnerID != "" {
		query += ` AND learner_id = $2`
		args = append(args, learnerID)
	}
	a, err := scanAssessment(s.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return a, err
}

func (s *Store) ListByLearner(ctx context.Context, learnerID string, limit, offset int) ([]models.Assessment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		 WHERE learner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		learnerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := []models.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status, errMsg string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE assessments SET status = $2, error = $3, updated_at = now() WHERE id = $1`,
		id, status, errMsg,
	)
	if err != nil {
		return fmt.Errorf("update assessment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SaveResult(ctx context.Context, id uuid.UUID, res models.AssessmentResult) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE assessments
		 SET status = $2, transcript = $3, fluency = $4, feedback = $5, ideal_answer = $6, error = '', updated_at = now()
		 WHERE id = $1`,
		id, models.AssessmentStatusCompleted, res.Transcript, res.Fluency, res.Feedback, res.IdealAnswer,
	)
	if err != nil {
		return fmt.Errorf("save assessment result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
