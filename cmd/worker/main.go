package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medassure/claims-backoffice/internal/bootstrap"
	"github.com/medassure/claims-backoffice/internal/config"
	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/observability/logging"
	"github.com/medassure/claims-backoffice/internal/observability/metrics"
)

// workerCaller is the identity queued regenerations run under. The api
// verifies the requesting assessor before publishing.
var workerCaller = domain.Caller{
	UserID: "report-worker",
	Role:   domain.RoleClaimAssessor,
}

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReportRequested(ctx, func(handlerCtx context.Context, claimID string) error {
		generateCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		workerMetrics.StartRun()
		start := time.Now()
		_, genErr := app.Generator.Generate(generateCtx, workerCaller, claimID)
		workerMetrics.FinishRun("worker", time.Since(start), genErr)

		if genErr != nil {
			slog.Error("report generation failed", "claim_id", claimID, "error", genErr)
			return genErr
		}
		slog.Info("report generated", "claim_id", claimID, "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
