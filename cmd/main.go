package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gradebook/internal/config"
	"gradebook/internal/database"
	"gradebook/internal/handler"
	"gradebook/internal/inference"
	"gradebook/internal/service"
	"gradebook/pkg/logger"
	"gradebook/pkg/metrics"

	"github.com/gorilla/handlers"
)

// HTTP server timeout constants.
const (
	readTimeout       = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	// writeSlack is added to the inference timeout so a slow answer can
	// still be written.
	writeSlack = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> .env -> optional YAML file -> GRADEBOOK_* env
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal(ctx, "failed to open database", logger.String("driver", cfg.DBDriver), logger.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(ctx, "failed to access database handle", logger.Error(err))
	}
	defer sqlDB.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal(ctx, "failed to create uploads directory", logger.String("dir", cfg.UploadDir), logger.Error(err))
	}

	studentService := service.NewStudentService(db)
	subjectService := service.NewSubjectService(db)
	gradeService := service.NewGradeService(db)
	uploadService := service.NewUploadService(db, log)

	inferenceClient := inference.NewClient(inference.ClientConfig{
		URL:     cfg.InferenceURL,
		Model:   cfg.InferenceModel,
		Timeout: cfg.InferenceTimeout(),
		Options: inference.Options{
			Temperature:   cfg.InferenceTemperature,
			TopK:          cfg.InferenceTopK,
			TopP:          cfg.InferenceTopP,
			RepeatPenalty: cfg.InferenceRepeatPenalty,
			NumPredict:    cfg.InferenceNumPredict,
		},
		Logger: log,
	})
	summaryService := service.NewSummaryService(studentService, subjectService, gradeService, inferenceClient, log)

	progressHandler := handler.NewProgressHandler(uploadService, log)
	router := handler.NewRouter(handler.Handlers{
		Students: handler.NewStudentHandler(studentService, log),
		Subjects: handler.NewSubjectHandler(subjectService, log),
		Grades:   handler.NewGradeHandler(gradeService, log),
		Summary:  handler.NewSummaryHandler(summaryService, log),
		Upload:   handler.NewUploadHandler(uploadService, cfg.UploadDir, cfg.MaxUploadBytes(), log),
		Progress: progressHandler,
		Health:   handler.NewHealthHandler(sqlDB, log),
		Metrics:  metrics.Handler(),
		Logger:   log,
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Origins()),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", handler.RequestIDHeader}),
		handlers.ExposedHeaders([]string{handler.RequestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(panicLogger{log: log.Named("recovery")}),
		handlers.PrintRecoveryStack(true),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           recovery(cors(router)),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.InferenceTimeout() + writeSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	srv.RegisterOnShutdown(progressHandler.Close)

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("db_driver", cfg.DBDriver),
			logger.String("inference_model", cfg.InferenceModel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// panicLogger routes recovered panics into the structured log.
type panicLogger struct {
	log logger.Logger
}

func (p panicLogger) Println(v ...interface{}) {
	p.log.Error(context.Background(), "recovered from panic", logger.String("panic", fmt.Sprint(v...)))
}
