package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	appsvc "creditmemo/internal/app"
	"creditmemo/internal/bootstrap"
	"creditmemo/internal/pkg/pdfextract"
	"creditmemo/internal/platform/rabbitmq"
	"creditmemo/internal/repository"
	"creditmemo/internal/storage"
	"creditmemo/internal/transport/http/handler"
	"creditmemo/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.Tracing())

	logger := slog.Default().With("service", cfg.App.Name)
	maxUploadBytes := int64(cfg.Storage.MaxUploadMB) << 20
	router.MaxMultipartMemory = maxUploadBytes

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	tenantRepo := repository.NewTenantRepository(app.DB)
	documentRepo := repository.NewDocumentRepository(app.DB)
	chunkRepo := repository.NewChunkRepository(app.DB)
	portfolioRepo := repository.NewPortfolioRepository(app.DB)
	memoRepo := repository.NewMemoRepository(app.DB)
	objectStore := storage.NewS3ObjectStore(app.S3)

	authService := appsvc.NewAuthService(
		userRepo,
		tenantRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	documentService := appsvc.NewDocumentService(documentRepo, objectStore, cfg.Storage.Bucket, maxUploadBytes, logger)
	ingestService := appsvc.NewIngestService(
		documentRepo,
		objectStore,
		pdfextract.New(),
		app.LLM,
		chunkRepo,
		appsvc.IngestConfig{
			ChunkMaxChars: cfg.RAG.ChunkMaxChars,
			BatchSize:     cfg.RAG.EmbeddingBatchSize,
			Dimensions:    cfg.LLM.EmbeddingDimensions,
			Atomic:        cfg.RAG.AtomicReingest,
		},
		logger,
	)
	retrievalService := appsvc.NewRetrievalService(
		app.LLM,
		app.LLM,
		chunkRepo,
		appsvc.RetrievalConfig{
			SystemPrompt: cfg.LLM.SystemPrompt,
			MatchCount:   cfg.RAG.MatchCount,
			Dimensions:   cfg.LLM.EmbeddingDimensions,
		},
		logger,
	)
	portfolioService := appsvc.NewPortfolioService(portfolioRepo)
	memoService := appsvc.NewMemoService(
		memoRepo,
		rabbitmq.NewMemoPublisher(app.MQConn, cfg.RabbitMQ.MemoPersistQueue),
		app.MemoHistory,
	)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService, ingestService, maxUploadBytes)
	ragHandler := handler.NewRAGHandler(retrievalService)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService)
	memoHandler := handler.NewMemoHandler(memoService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(cfg.Auth.JWTSecret), authHandler.Me)

	tenant := v1.Group("")
	tenant.Use(middleware.AuthJWT(cfg.Auth.JWTSecret), middleware.ResolveTenant(authService))

	tenant.POST("/docs/upload", documentHandler.Upload)
	tenant.GET("/docs", documentHandler.List)
	tenant.POST("/docs/ingest", documentHandler.Ingest)

	tenant.POST("/rag/search", ragHandler.Search)
	tenant.POST("/generate", ragHandler.Generate)

	tenant.GET("/portfolio", portfolioHandler.List)
	tenant.POST("/portfolio", portfolioHandler.Create)
	tenant.DELETE("/portfolio/:id", portfolioHandler.Delete)

	tenant.POST("/memos", memoHandler.Save)
	tenant.GET("/memos/history", memoHandler.History)

	return router
}
