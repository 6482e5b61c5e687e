package models

// QuestionDifficulty defines the difficulty tier of a question.
type QuestionDifficulty string

const (
	DifficultyEasy   QuestionDifficulty = "EASY"
	DifficultyMedium QuestionDifficulty = "MEDIUM"
	DifficultyHard   QuestionDifficulty = "HARD"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Question represents a single quiz item. Questions are loaded once at
// startup and never mutated.
type Question struct {
	ID               string             `json:"id"`
	Text             string             `json:"text"`
	Options          []string           `json:"options"`
	CorrectOption    int                `json:"correct_option"`
	Category         string             `json:"category"`
	Difficulty       QuestionDifficulty `json:"difficulty"`
	TimeLimitSeconds int                `json:"time_limit_seconds"`
}
