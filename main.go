package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/robalobadob/synquiz/internal/auth"
	"github.com/robalobadob/synquiz/internal/config"
	"github.com/robalobadob/synquiz/internal/daily"
	"github.com/robalobadob/synquiz/internal/database"
	"github.com/robalobadob/synquiz/internal/httpserver"
	"github.com/robalobadob/synquiz/internal/repository"
	"github.com/robalobadob/synquiz/internal/service"
	"github.com/robalobadob/synquiz/internal/store"
	"github.com/robalobadob/synquiz/internal/words"
)

func main() {
	fs := config.FlagSet("synquiz")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("bad flags")
	}
	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBPath, cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	if err := words.Init(cfg.SeedFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load word bank")
	}
	wordRepo := repository.NewWordRepository(db)
	if _, err := wordRepo.Seed(ctx, words.Bank()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed word bank")
	}

	results := repository.NewResultRepository(db)
	dailyStore := daily.NewStore(db)
	quizSvc := service.New(wordRepo, results, store.NewMemoryStore(),
		service.WithDaily(dailyStore, cfg.DailySalt, cfg.DailyQuestions),
		service.WithRetention(cfg.SessionRetention(), 0),
	)
	go quizSvc.RunSweeper(ctx, time.Minute)

	srv := httpserver.New(httpserver.Deps{
		Quiz:    quizSvc,
		Users:   repository.NewUserRepository(db),
		Results: results,
		Words:   wordRepo,
		Daily:   dailyStore,
		Auth:    auth.NewManager(cfg.JWTSecret, cfg.JWTTTL(), cfg.CookieName, cfg.Production),
	}, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		AnonCookieName: cfg.AnonCookieName,
		Secure:         cfg.Production,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Int("port", cfg.Port).Str("driver", cfg.DBDriver).Msg("starting synquiz server")
	if err := srv.Start(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
