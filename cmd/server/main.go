package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gradient/internal/ai"
	"gradient/internal/api"
	"gradient/internal/config"
	"gradient/internal/db"
	"gradient/internal/enrich"
	"gradient/internal/export"
	"gradient/internal/lookup"
	"gradient/internal/mail"
	"gradient/internal/pipeline"
	"gradient/internal/reply"
	"gradient/internal/repository"
	"gradient/internal/service"
	"gradient/internal/sheets"
	"gradient/internal/util"
	"gradient/pkg/logger"
	pkgredis "gradient/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.New()
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.InitSchema(ctx, dbConn); err != nil {
		log.Fatal("schema initialization failed", zap.Error(err))
	}

	rdb := pkgredis.NewClient(cfg.Redis)
	defer rdb.Close()

	// Repositories
	userRepo := repository.NewUserRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	processedRepo := repository.NewProcessedRepository(dbConn)
	promptRepo := repository.NewPromptRepository(dbConn)
	replyCacheRepo := repository.NewReplyCacheRepository(dbConn)

	if err := promptRepo.SeedDefaults(ctx, reply.DefaultPrompts); err != nil {
		log.Fatal("failed to seed reply prompts", zap.Error(err))
	}

	// External collaborators
	aiClient := ai.NewClient(cfg.AI)
	searchClient := lookup.NewSearchClient(cfg.Search)
	pageClient := lookup.NewPageClient(cfg.Search.Timeout)
	mailClient := mail.NewClient(cfg.Mail)
	sheetClient := sheets.NewClient(cfg.Sheets)

	// Pipeline
	pool := pipeline.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, log)
	pool.Start(ctx)

	deduper := util.NewDeduper(rdb, cfg.Pipeline.DedupeTTL)
	retries := util.NewRetryCounter(rdb, 24*time.Hour)

	drafter := reply.NewDrafter(aiClient, promptRepo, log)
	replyService := service.NewReplyService(messageRepo, replyCacheRepo, drafter, log)

	engine := enrich.NewEngine(
		messageRepo,
		aiClient,
		searchClient,
		pageClient,
		pool,
		replyService,
		enrich.Config{
			SearchEnabled:    cfg.Search.Enabled,
			MaxResults:       cfg.Search.MaxResults,
			PersonMaxResults: cfg.Search.PersonMax,
			MaxToolCalls:     cfg.Search.MaxToolCalls,
			BodyPrefix:       cfg.Pipeline.BodyPrefix,
		},
		lookup.NewCache(cfg.Search.CacheTTL, cfg.Search.CacheSize),
		lookup.NewCache(cfg.Search.CacheTTL, cfg.Search.CacheSize),
		log,
	)

	ingestor := pipeline.NewIngestor(mailClient, messageRepo, processedRepo, engine, pool, deduper, retries, log)

	syncer := export.NewSyncer(ingestor, messageRepo, sheetClient, cfg.Pipeline.IngestLimit, log)
	runner := export.NewRunner(syncer, cfg.Sync.Interval, log)
	runner.Start(ctx)

	// Services, handlers, router
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)

	router := api.NewRouter(
		api.NewAuthHandler(authService),
		api.NewSyncHandler(syncer, log),
		api.NewLeadsHandler(messageRepo, log),
		api.NewReplyHandler(replyService, log),
		api.NewSettingsHandler(promptRepo, log),
		api.NewDashboardHandler(messageRepo, log),
		cfg.JWT.Secret,
		dbConn,
	)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server start failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	runner.Stop()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Warn("worker pool did not drain in time", zap.Error(err))
	}
	cancel()
}
