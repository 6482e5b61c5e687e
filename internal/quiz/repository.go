package quiz

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Joshuahobby/mindarena/internal/models"
)

// Repository loads the question pool from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

// ListQuestions fetches every question. Called once at startup to build
// the in-memory bank; the engine never goes back to the database.
func (r *Repository) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, text, options, correct_option, category, difficulty, time_limit_seconds
        FROM questions
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Options, &q.CorrectOption, &q.Category, &q.Difficulty, &q.TimeLimitSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}

	return questions, nil
}
