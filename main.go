package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"amplify_server/config"
	"amplify_server/logger"
	"amplify_server/matching"
	"amplify_server/middleware"
	"amplify_server/routes"
	"amplify_server/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server stopped", nil)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// AWS clients
	awsCfg, err := services.LoadAWSConfig(ctx, cfg.AWS.Region)
	if err != nil {
		return err
	}
	dynamoService := services.NewDynamoService(awsCfg, log)
	storageService := services.NewStorageService(awsCfg, cfg.AWS.S3Bucket, log)
	emailService := services.NewEmailService(awsCfg, cfg.Email.From, cfg.Email.Enabled, log)
	log.Info("AWS clients initialized", map[string]interface{}{"region": cfg.AWS.Region, "bucket": cfg.AWS.S3Bucket})

	rdb, err := services.NewRedisClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Stores
	userService := services.NewUserService(dynamoService, cfg.AWS.Tables)
	videoService := services.NewVideoService(dynamoService, cfg.AWS.Tables)
	commentService := &services.CommentService{Dynamo: dynamoService, Tables: cfg.AWS.Tables}
	likeService := &services.LikeService{Dynamo: dynamoService, Tables: cfg.AWS.Tables}

	transcriptionService := services.NewTranscriptionService(
		services.NewTranscribeClient(awsCfg), storageService, videoService, cfg.Transcription, log)

	// Application services
	contentService := &services.ContentService{
		Videos:      videoService,
		Comments:    commentService,
		Likes:       likeService,
		Users:       userService,
		Media:       storageService,
		Transcriber: transcriptionService,
		Log:         log,
	}
	authService := &services.AuthService{
		Users:      userService,
		Tokens:     services.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Resets:     services.NewResetTokenStore(rdb, cfg.Auth.ResetTokenTTL),
		Mailer:     emailService,
		Content:    contentService,
		BcryptCost: cfg.Auth.BcryptCost,
		Log:        log,
	}
	profileService := &services.ProfileService{Users: userService, Videos: videoService, Log: log}

	mode := matching.ParseMatchMode(cfg.Matching.Mode)
	engine := matching.NewEngine(
		matching.NewMatcher(matching.DefaultTaxonomy(), mode),
		matching.WithPreviewLimit(cfg.Matching.PreviewLimit),
	)
	matchService := &services.MatchService{Users: userService, Videos: videoService, Engine: engine, Log: log}
	log.Info("matching engine ready", map[string]interface{}{"mode": string(mode), "previewLimit": cfg.Matching.PreviewLimit})

	// Router
	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	auth := middleware.NewAuth(authService, log)

	routes.RegisterRoutes(r)
	routes.RegisterAuthRoutes(r, authService, auth, cfg.Email.FrontendURL, log)
	routes.RegisterUserRoutes(r, profileService, contentService, matchService, auth, log)
	routes.RegisterVideoRoutes(r, contentService, auth, cfg.Uploads, log)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Range"},
		ExposedHeaders:   []string{"Content-Range", "Accept-Ranges", "Content-Length"},
		AllowCredentials: true,
	}).Handler(r)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.AccessLog(log)(corsHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]interface{}{"port": cfg.Server.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown incomplete", nil)
	}
	if err := transcriptionService.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("transcription jobs still running at shutdown", nil)
	}
	return nil
}
