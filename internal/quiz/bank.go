package quiz

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Joshuahobby/mindarena/internal/models"
)

// ErrEmptyBank is returned when a bank is constructed with no questions.
var ErrEmptyBank = errors.New("question bank is empty")

// Bank holds the immutable question pool loaded at startup. Sampling is
// safe for concurrent use; the pool itself is never mutated.
type Bank struct {
	questions []models.Question
}

// NewBank validates every question and builds the bank. Each question
// must carry exactly four options and a correct index into them.
func NewBank(questions []models.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i, q.ID, err)
		}
	}
	pool := make([]models.Question, len(questions))
	copy(pool, questions)
	return &Bank{questions: pool}, nil
}

func validateQuestion(q models.Question) error {
	if q.Text == "" {
		return errors.New("empty question text")
	}
	if len(q.Options) != models.OptionCount {
		return fmt.Errorf("expected %d options, got %d", models.OptionCount, len(q.Options))
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return fmt.Errorf("correct option %d out of range", q.CorrectOption)
	}
	if q.TimeLimitSeconds <= 0 {
		return fmt.Errorf("non-positive time limit %d", q.TimeLimitSeconds)
	}
	return nil
}

// Len returns the total number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Sample draws up to count questions uniformly at random without
// replacement. An empty category means no filtering. When count exceeds
// the filtered pool the whole pool is returned.
func (b *Bank) Sample(count int, category string) []models.Question {
	if count <= 0 {
		return nil
	}

	pool := make([]models.Question, 0, len(b.questions))
	for _, q := range b.questions {
		if category != "" && q.Category != category {
			continue
		}
		pool = append(pool, q)
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}
