package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsai/document-orchestrator/internal/bootstrap"
	"github.com/opsai/document-orchestrator/internal/config"
	"github.com/opsai/document-orchestrator/internal/observability/logging"
	"github.com/opsai/document-orchestrator/internal/observability/metrics"
)

const analyzeTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux(workerMetrics),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, documentID string) error {
		analyzeCtx, cancel := context.WithTimeout(handlerCtx, analyzeTimeout)
		defer cancel()

		if doc, err := app.Docs.GetByID(analyzeCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(doc.UploadedAt))
		}

		workerMetrics.StartDocument()
		start := time.Now()
		result, err := app.AnalyzeUC.Analyze(analyzeCtx, documentID, "")
		workerMetrics.FinishDocument("worker", time.Since(start), err)

		if err != nil {
			logger.Error("document_analyze_failed", "document_id", documentID, "error", err)
			return err
		}
		logger.Info("document_analyzed",
			"document_id", documentID,
			"category_id", result.CategoryID,
			"confidence", result.Confidence,
			"warnings", len(result.Warnings),
		)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
