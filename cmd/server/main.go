package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/k-telecom/pdf-parser/api"
	"github.com/k-telecom/pdf-parser/api/handler"
	"github.com/k-telecom/pdf-parser/api/middleware"
	appconfig "github.com/k-telecom/pdf-parser/config"
	"github.com/k-telecom/pdf-parser/internal/cache"
	"github.com/k-telecom/pdf-parser/internal/confidence"
	"github.com/k-telecom/pdf-parser/internal/database"
	"github.com/k-telecom/pdf-parser/internal/document"
	"github.com/k-telecom/pdf-parser/internal/extract"
	"github.com/k-telecom/pdf-parser/internal/ocr"
	"github.com/k-telecom/pdf-parser/internal/repository"
	"github.com/k-telecom/pdf-parser/internal/services"
	"github.com/k-telecom/pdf-parser/pkg/storage"
	"github.com/k-telecom/pdf-parser/pkg/taskqueue"
)

func main() {
	var (
		configFile  = flag.String("config", "", "path to config file")
		mode        = flag.String("mode", "release", "run mode (debug/release)")
		weightsFile = flag.String("weights", "", "path to trained weight table, overrides config")
	)
	flag.Parse()

	// .env is optional, local development convenience
	_ = godotenv.Load()

	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *weightsFile != "" {
		cfg.Extract.WeightsFile = *weightsFile
	}

	gin.SetMode(*mode)

	logger := setupLogger(cfg.Log)
	logger.Info("Starting invoice extraction service...")

	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	extractor, err := setupExtractor(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize extractor: %v", err)
	}

	var ocrClient ocr.Client
	if cfg.OCR.Enable {
		ocrClient = ocr.NewHTTPClient(ocr.NewConfig(
			ocr.WithBaseURL(cfg.OCR.BaseURL),
			ocr.WithLanguage(cfg.OCR.Language),
			ocr.WithTimeout(cfg.OCR.Timeout),
			ocr.WithRetry(cfg.OCR.MaxRetries, cfg.OCR.RetryDelay),
		), logger)
		logger.WithField("base_url", cfg.OCR.BaseURL).Info("OCR sidecar enabled")
	}

	parserFactory := document.NewFactory(ocrClient)

	invoiceOptions := []services.InvoiceOption{
		services.WithLogger(logger),
		services.WithWorkers(cfg.Extract.BatchWorkers),
		services.WithTimeout(time.Duration(cfg.Extract.TimeoutSeconds) * time.Second),
	}
	if cfg.Cache.Enable {
		cacheService, err := setupCache(cfg)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
		invoiceOptions = append(invoiceOptions,
			services.WithCache(cacheService, time.Duration(cfg.Cache.TTL)*time.Second))
	}

	invoiceService := services.NewInvoiceService(parserFactory, extractor, invoiceOptions...)
	jobRepo := repository.NewJobRepository()

	var queue taskqueue.Queue
	var worker taskqueue.Worker
	if cfg.Queue.Enable {
		queue, worker, err = setupTaskQueue(cfg, jobRepo, fileStorage, invoiceService, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		if worker != nil {
			go func() {
				if err := worker.Start(); err != nil {
					logger.Fatalf("Worker stopped: %v", err)
				}
			}()
			defer worker.Stop()
		}
	}

	jobService := services.NewJobService(jobRepo, fileStorage, queue, logger)

	r := api.SetupRouter(
		handler.NewProcessHandler(invoiceService),
		handler.NewJobHandler(jobService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // batch extraction holds the request open
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configures the shared logger, with file rotation when a
// log file is set.
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupDatabase initializes the job database.
func setupDatabase(cfg *appconfig.Config, logger *logrus.Logger) error {
	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN
	return database.Setup(dbConfig, logger)
}

// setupStorage creates the document store.
func setupStorage(cfg *appconfig.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
	default:
		if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %v", err)
		}
		return storage.NewLocalStorage(storage.LocalConfig{
			Path: cfg.Storage.Path,
		})
	}
}

// setupExtractor builds the field extraction pipeline.
func setupExtractor(cfg *appconfig.Config, logger *logrus.Logger) (*extract.Extractor, error) {
	opts := []extract.Option{
		extract.WithLogger(logger),
		extract.WithWeightedRanking(cfg.Extract.WeightedRanking),
		extract.WithMinTextLength(cfg.Extract.MinTextLength),
	}

	if cfg.Extract.WeightsFile != "" {
		table, err := extract.LoadWeightTable(cfg.Extract.WeightsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load weight table: %w", err)
		}
		opts = append(opts, extract.WithWeightTable(table))
		logger.WithFields(logrus.Fields{
			"file":    cfg.Extract.WeightsFile,
			"version": table.Version,
		}).Info("Loaded trained weight table")
	}

	if cfg.Confidence.Enable {
		scorer := confidence.NewHTTPClient(confidence.NewConfig(
			confidence.WithBaseURL(cfg.Confidence.BaseURL),
			confidence.WithTimeout(cfg.Confidence.Timeout),
			confidence.WithRetry(cfg.Confidence.MaxRetries, cfg.Confidence.RetryDelay),
			confidence.WithMaxTextLen(cfg.Confidence.MaxTextLen),
		), logger)
		opts = append(opts, extract.WithConfidenceScorer(scorer))
		logger.WithField("base_url", cfg.Confidence.BaseURL).Info("Confidence classifier enabled")
	}

	return extract.New(opts...), nil
}

// setupCache creates the extraction result cache.
func setupCache(cfg *appconfig.Config) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:            cfg.Cache.Type,
		DefaultTTL:      time.Duration(cfg.Cache.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}
	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}
	return cache.NewCache(cacheConfig)
}

// setupTaskQueue creates the queue plus the in-process worker that
// executes extraction jobs.
func setupTaskQueue(
	cfg *appconfig.Config,
	repo repository.JobRepository,
	store storage.Storage,
	invoiceService *services.InvoiceService,
	logger *logrus.Logger,
) (taskqueue.Queue, taskqueue.Worker, error) {
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		RedisDB:       cfg.Queue.RedisDB,
		Concurrency:   cfg.Queue.Concurrency,
		RetryLimit:    cfg.Queue.RetryLimit,
		RetryDelay:    time.Duration(cfg.Queue.RetryDelay) * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"type":        cfg.Queue.Type,
		"redis_addr":  cfg.Queue.RedisAddr,
		"concurrency": cfg.Queue.Concurrency,
	}).Info("Setting up task queue")

	queue, err := taskqueue.NewQueue(cfg.Queue.Type, queueConfig)
	if err != nil {
		return nil, nil, err
	}

	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		return queue, nil, nil
	}

	worker := taskqueue.NewRedisWorker(redisQueue, queueConfig)
	extractHandler := services.NewExtractHandler(repo, store, invoiceService, logger)
	for _, taskType := range extractHandler.GetTaskTypes() {
		worker.RegisterHandler(taskType, extractHandler)
	}

	return queue, worker, nil
}
