package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Joshuahobby/mindarena/internal/dbconfig"
)

// Question matches the JSON fixture layout.
type Question struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	CorrectOption    int      `json:"correct_option"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

func main() {
	ctx := context.Background()

	path := "internal/assets/questions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal questions: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	total, inserted, skipped, errs := len(questions), 0, 0, 0
	for _, q := range questions {
		tag, err := pool.Exec(ctx, `
            INSERT INTO questions (
              id, text, options, correct_option, category, difficulty, time_limit_seconds
            ) VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (id) DO NOTHING
        `, q.ID, q.Text, q.Options, q.CorrectOption, q.Category, q.Difficulty, q.TimeLimitSeconds)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}
	fmt.Printf(
		"Questions seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)
}
