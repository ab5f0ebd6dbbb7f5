package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"worth-it/internal/analytics"
	"worth-it/internal/common/camunda"
	"worth-it/internal/common/config"
	"worth-it/internal/common/database"
	"worth-it/internal/common/logger"
	"worth-it/internal/common/metrics"
	"worth-it/internal/common/observability"
	"worth-it/internal/history"
	"worth-it/pkg/registry"

	cs "worth-it/internal/workers/scoring/compute-savings"
	evg "worth-it/internal/workers/scoring/evaluate-goal"

	clh "worth-it/internal/workers/history/clear-history"
	lsh "worth-it/internal/workers/history/list-history"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worth-it worker",
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Backend),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	tp := observability.NewTracerProvider(log)
	defer observability.ShutdownTracer(tp)

	ctx := context.Background()

	// --- Storage backend with retry ---
	var (
		kv      database.KV
		closeKV func() error
	)
	err = retryWithBackoff(func() error {
		var err error
		kv, closeKV, err = database.Open(ctx, cfg)
		return err
	}, 10, 2*time.Second, zapLog, "Storage backend connection")
	if err != nil {
		zapLog.Fatal("storage backend failed after retries", zap.Error(err))
	}
	defer closeKV()

	store := history.NewStore(kv, log)
	sink := buildSink(cfg, log, obs)

	// --- Zeebe client, topology checked with backoff ---
	zeebeCfg := camunda.ConfigFrom(cfg.Camunda)
	zeebeCfg.RetryConfig = &camunda.RetryConfig{
		MaxRetries: 9,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
	zeebe, err := camunda.NewClientWithConfig(zeebeCfg)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	reg := registry.Default()
	for taskType := range cfg.Workers {
		if _, ok := reg.Find(taskType); !ok {
			zapLog.Warn("configured worker is not in the activity registry", zap.String("taskType", taskType))
		}
	}

	savingsCfg := cs.LoadConfig()
	savingsCfg.Timeout = handlerTimeout(reg, cs.TaskType, savingsCfg.Timeout)
	evaluateCfg := evg.LoadConfig()
	evaluateCfg.Timeout = handlerTimeout(reg, evg.TaskType, evaluateCfg.Timeout)
	listCfg := lsh.LoadConfig()
	listCfg.Timeout = handlerTimeout(reg, lsh.TaskType, listCfg.Timeout)
	clearCfg := clh.LoadConfig()
	clearCfg.Timeout = handlerTimeout(reg, clh.TaskType, clearCfg.Timeout)

	handlers := map[string]camunda.JobHandler{
		cs.TaskType: cs.NewHandler(savingsCfg, log),
		evg.TaskType: evg.NewHandler(evaluateCfg, store, sink, log),
		lsh.TaskType: lsh.NewHandler(listCfg, store, log),
		clh.TaskType: clh.NewHandler(clearCfg, store, sink, log),
	}

	var workers []*camunda.CamundaWorker
	for _, taskType := range reg.TaskTypes() {
		handler, ok := handlers[taskType]
		if !ok {
			continue
		}
		w := camunda.NewWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, log)
		if w != nil {
			workers = append(workers, w)
		}
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Server.MetricsAddress, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("worth-it worker stopped gracefully")
}

// buildSink combines the analytics sinks enabled in config.
func buildSink(cfg *config.Config, log logger.Logger, obs *observability.Observability) analytics.Sink {
	var sinks []analytics.Sink
	if cfg.Analytics.LogEvents {
		sinks = append(sinks, analytics.NewLogSink(log))
	}
	if cfg.Analytics.Prometheus {
		sinks = append(sinks, metrics.NewPrometheusSink(prometheus.DefaultRegisterer))
	}
	if cfg.Analytics.OTel {
		sinks = append(sinks, obs)
	}
	if len(sinks) == 0 {
		return analytics.Noop()
	}
	return analytics.Multi(sinks...)
}

// handlerTimeout returns the registry timeout for taskType, or fallback when
// the activity has none.
func handlerTimeout(reg *registry.ActivityRegistry, taskType string, fallback time.Duration) time.Duration {
	a, ok := reg.Find(taskType)
	if !ok {
		return fallback
	}
	d, err := a.TimeoutDuration()
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
