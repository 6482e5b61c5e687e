package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Joshuahobby/mindarena/internal/game/engine"
	"github.com/Joshuahobby/mindarena/internal/game/gateway"
	"github.com/Joshuahobby/mindarena/internal/game/results"
	"github.com/Joshuahobby/mindarena/internal/models"
	"github.com/Joshuahobby/mindarena/internal/quiz"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bank, err := loadQuestionBank(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load question bank")
	}
	log.Info().Int("questions", bank.Len()).Msg("question bank loaded")

	// Result publishing is optional; without NATS_URL the engine simply
	// drops finished results after notifying the players.
	var sink engine.ResultSink
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		resultCfg := results.DefaultJetStreamConfig()
		resultCfg.URL = natsURL
		publisher, err := results.NewJetStreamPublisher(resultCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create result publisher")
		}
		defer publisher.Close()
		sink = publisher
	}

	engineCfg := engine.Config{
		QuestionsPerMatch: getEnvAsInt("QUESTIONS_PER_MATCH", cfg.Game.QuestionsPerMatch),
		Category:          cfg.Game.Category,
		StartDelay:        cfg.startDelay(),
		RevealDelay:       cfg.revealDelay(),
	}
	eng := engine.NewEngine(engineCfg, bank, clockwork.NewRealClock(), sink)

	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	gateway.NewDispatcher(manager, eng)
	wsHandler := gateway.NewWebSocketHandler(manager)

	server := setupServer(wsHandler)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	log.Info().Msg("mindarena shutdown complete")
}

func loadQuestionBank(ctx context.Context, cfg *Config) (*quiz.Bank, error) {
	var questions []models.Question

	switch cfg.Questions.Source {
	case "file":
		loaded, err := quiz.LoadFile(cfg.Questions.File)
		if err != nil {
			return nil, err
		}
		questions = loaded
	default:
		pool, err := setupDatabase(ctx)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		repo := quiz.NewRepository(pool)
		loaded, err := repo.ListQuestions(ctx)
		if err != nil {
			return nil, err
		}
		questions = loaded
	}

	return quiz.NewBank(questions)
}
