package quiz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Joshuahobby/mindarena/internal/models"
)

// questionYAML mirrors the on-disk question layout.
type questionYAML struct {
	ID               string   `yaml:"id"`
	Text             string   `yaml:"text"`
	Options          []string `yaml:"options"`
	CorrectOption    int      `yaml:"correct_option"`
	Category         string   `yaml:"category"`
	Difficulty       string   `yaml:"difficulty"`
	TimeLimitSeconds int      `yaml:"time_limit_seconds"`
}

type questionFile struct {
	Questions []questionYAML `yaml:"questions"`
}

// LoadFile reads a YAML question file. Used as an alternative source to
// Postgres for local development and tests.
func LoadFile(path string) ([]models.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}

	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question file: %w", err)
	}

	questions := make([]models.Question, 0, len(file.Questions))
	for _, q := range file.Questions {
		questions = append(questions, models.Question{
			ID:               q.ID,
			Text:             q.Text,
			Options:          q.Options,
			CorrectOption:    q.CorrectOption,
			Category:         q.Category,
			Difficulty:       models.QuestionDifficulty(q.Difficulty),
			TimeLimitSeconds: q.TimeLimitSeconds,
		})
	}
	return questions, nil
}
