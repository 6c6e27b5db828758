package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"findocgpt/internal/ai"
	"findocgpt/internal/config"
	"findocgpt/internal/logger"
	"findocgpt/internal/telemetry"
	"findocgpt/middleware"
	"findocgpt/routes"
	"findocgpt/services"
)

func main() {
	ingestPDFDir := flag.String("ingest-pdf-dir", "", "ingest all PDFs from this directory before serving")
	ingestJSONL := flag.String("ingest-jsonl", "", "ingest this JSONL evidence file before serving")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("findocgpt")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("context cache disabled", "error", err)
		redisClient = nil
	}

	gemini, err := ai.NewGeminiClient(cfg)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer gemini.Close()

	vectorStore := services.NewVectorStore(db)
	ragService := services.NewRAGService(vectorStore, gemini, redisClient, cfg.RetrievalTopK)
	ingestor := services.NewIngestor(vectorStore, gemini, cfg.MaxChunkSize, cfg.ChunkOverlap)
	financeBench := services.NewFinanceBenchService(db, services.SyntheticDataProvider{},
		time.Duration(cfg.CacheFreshnessHours)*time.Hour)
	chatbot := services.NewChatBot(gemini, gemini, services.NewKPIExtractor(),
		ragService, financeBench, services.NewForecaster())
	chatLog := services.NewChatLogStore(db)

	// Bootstrap ingestion is an out-of-band batch job: sequential, with
	// per-file isolation inside the ingestor.
	if *ingestPDFDir != "" {
		n, err := ingestor.IngestPDFDirectory(context.Background(), *ingestPDFDir)
		if err != nil {
			logger.Error("PDF directory ingestion failed", "dir", *ingestPDFDir, "error", err)
		} else {
			logger.Info("PDF ingestion complete", "dir", *ingestPDFDir, "chunks", n)
		}
	}
	if *ingestJSONL != "" {
		n, err := ingestor.IngestJSONL(context.Background(), *ingestJSONL)
		if err != nil {
			logger.Error("JSONL ingestion failed", "file", *ingestJSONL, "error", err)
		} else {
			logger.Info("JSONL ingestion complete", "file", *ingestJSONL, "chunks", n)
		}
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupChatRoutes(router, chatbot, chatLog)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}
