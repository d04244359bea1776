package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Interaction is one question/answer exchange between a student and a tutor.
type Interaction struct {
	ID                 int64      `json:"id"`
	StudentID          string     `json:"student_id"`
	Question           string     `json:"question"`
	Answer             string     `json:"answer"`
	TutorType          string     `json:"tutor_type"`
	SatisfactionRating *int       `json:"satisfaction_rating,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
}

// Progress records a student's completion of a topic.
type Progress struct {
	ID              int64      `json:"id"`
	StudentID       string     `json:"student_id"`
	Topic           string     `json:"topic"`
	CompletionScore float64    `json:"completion_score"`
	TimeSpent       int        `json:"time_spent"` // minutes
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// Lesson is authored lesson content.
type Lesson struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	DifficultyLevel string     `json:"difficulty_level"`
	TopicCategory   string     `json:"topic_category"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// Store persists interactions, progress and lessons in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.setupSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to setup schema: %w", err)
	}

	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) setupSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS student_interactions (
			id BIGSERIAL PRIMARY KEY,
			student_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			tutor_type TEXT NOT NULL,
			satisfaction_rating INT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS student_progress (
			id BIGSERIAL PRIMARY KEY,
			student_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			completion_score DOUBLE PRECISION NOT NULL,
			time_spent INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS lesson_content (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			difficulty_level TEXT NOT NULL,
			topic_category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_student ON student_interactions (student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_student ON student_progress (student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_category ON lesson_content (topic_category)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RecordInteraction(ctx context.Context, in Interaction) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO student_interactions (student_id, question, answer, tutor_type, satisfaction_rating)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		in.StudentID, in.Question, in.Answer, in.TutorType, in.SatisfactionRating,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record interaction: %w", err)
	}
	return id, nil
}

func (s *Store) RecordProgress(ctx context.Context, p Progress) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO student_progress (student_id, topic, completion_score, time_spent)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		p.StudentID, p.Topic, p.CompletionScore, p.TimeSpent,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record progress: %w", err)
	}
	return id, nil
}

func (s *Store) ProgressForStudent(ctx context.Context, studentID string) ([]Progress, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, student_id, topic, completion_score, time_spent, created_at
		 FROM student_progress WHERE student_id = $1 ORDER BY created_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Progress
	for rows.Next() {
		var p Progress
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Topic, &p.CompletionScore, &p.TimeSpent, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) AddLesson(ctx context.Context, l Lesson) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO lesson_content (title, content, difficulty_level, topic_category)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		l.Title, l.Content, l.DifficultyLevel, l.TopicCategory,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to add lesson: %w", err)
	}
	return id, nil
}

// LessonsByCategory lists lessons, optionally filtered by category and
// difficulty. Empty filters match everything.
func (s *Store) LessonsByCategory(ctx context.Context, category, difficulty string) ([]Lesson, error) {
	query := `SELECT id, title, content, difficulty_level, topic_category, created_at
		 FROM lesson_content`
	var args []any
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(` WHERE topic_category = $%d`, len(args))
	}
	if difficulty != "" {
		args = append(args, difficulty)
		if len(args) == 1 {
			query += fmt.Sprintf(` WHERE difficulty_level = $%d`, len(args))
		} else {
			query += fmt.Sprintf(` AND difficulty_level = $%d`, len(args))
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Content, &l.DifficultyLevel, &l.TopicCategory, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
