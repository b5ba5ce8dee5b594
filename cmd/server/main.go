package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/purit/auth-api/internal/config"
	"github.com/purit/auth-api/internal/graph"
	"github.com/purit/auth-api/internal/mailer"
	"github.com/purit/auth-api/internal/repository"
	"github.com/purit/auth-api/internal/server"
	"github.com/purit/auth-api/internal/token"
	"github.com/purit/auth-api/internal/usecase"
)

const tokenTTL = time.Hour

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create MongoDB client")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	db := client.Database(cfg.DBName)
	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)

	tokenService := token.NewService(cfg.JWTSecret, tokenTTL)
	sender := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.Email, cfg.Password, cfg.Email)
	authUsecase := usecase.NewAuthUsecase(userRepo, tokenService, sender, &logger)

	resolver, err := graph.NewResolver(authUsecase, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create resolver")
	}

	srv, err := server.New(cfg, resolver, tokenService, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logger.Info().Int("port", cfg.Port).Msg("server listening")
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped unexpectedly")
	}
}
