package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"flashforge/internal/config"
	"flashforge/internal/database"
	"flashforge/internal/handlers"
	"flashforge/internal/security"
	"flashforge/internal/service"
	"flashforge/internal/study"
	"flashforge/internal/validation"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	if cfg.PrettyLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}
	if !cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.Environment == config.EnvProduction && os.Getenv("SECRET_KEY") == "" {
		log.Warn().Msg("SECRET_KEY is not set; sessions and CSRF tokens use a built-in key")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	templates, err := handlers.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}

	limits := validation.Limits{
		MaxTitleLength:       cfg.MaxTitleLength,
		MaxDescriptionLength: cfg.MaxDescriptionLength,
		MaxQuestionLength:    cfg.MaxQuestionLength,
		MaxAnswerLength:      cfg.MaxAnswerLength,
	}

	registry := study.NewRegistry(cfg.StudySessionTTL)
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	router := handlers.NewRouter(handlers.Deps{
		Flashcards:   service.NewFlashcardService(db, limits),
		Registry:     registry,
		Templates:    templates,
		Sessions:     security.NewSessionCodec(cfg.SecretKey, cfg.SessionDuration),
		CSRF:         security.NewCSRFGenerator(cfg.SecretKey),
		Limiter:      limiter,
		Limits:       limits,
		CardsPerPage: cfg.CardsPerPage,
		StudyEnabled: cfg.StudyModeEnabled,
		StaticPath:   cfg.StaticFilesPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background cleanup
	go limiter.RunCleanup(ctx, 5*time.Minute)
	go sweepStudySessions(ctx, registry, 10*time.Minute)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Msgf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// sweepStudySessions periodically drops idle study sessions
func sweepStudySessions(ctx context.Context, registry *study.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := registry.Sweep(); removed > 0 {
				log.Debug().Int("removed", removed).Int("live", registry.Len()).Msg("Idle study sessions swept")
			}
		}
	}
}
