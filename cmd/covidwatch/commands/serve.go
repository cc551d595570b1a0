package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/internal/api"
	"github.com/wonny/covidwatch/internal/api/handlers"
	"github.com/wonny/covidwatch/internal/scheduler"
	"github.com/wonny/covidwatch/internal/scheduler/jobs"
	"github.com/wonny/covidwatch/internal/stream"
	"github.com/wonny/covidwatch/internal/tracker"
	"github.com/wonny/covidwatch/pkg/config"
	"github.com/wonny/covidwatch/pkg/logger"
	"github.com/wonny/covidwatch/pkg/metrics"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버와 스케줄러를 시작합니다.

이 명령어는:
- 시작 시 disease.sh 데이터를 한 번 갱신
- 매시간 갱신 (covid_refresh), 5분마다 캐시 정리 (cache_cleanup)
- 갱신 이벤트를 /ws 로 푸시

Endpoints:
  GET  /                          - HTML dashboard
  GET  /health                    - Health check
  GET  /metrics                   - Prometheus metrics
  GET  /ws                        - Refresh events (websocket)
  GET  /api/countries
  GET  /api/global
  GET  /api/country/{name}
  GET  /api/historical/{name}?days=30
  GET  /api/vaccine/{name}
  GET  /api/compare?countries=USA,India
  GET  /api/risk-assessment/{name}
  GET  /api/export/csv/{name}

Example:
  go run ./cmd/covidwatch serve
  go run ./cmd/covidwatch serve --port 8080`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default: config port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	PrintHeader(out, "covidwatch API Server")

	// 1. Load config
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if servePort != "" {
		cfg.Port = servePort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 2. Metrics
	m := metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled))

	// 3. Tracker (redis, snapshots, upstream)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	b, err := openBackend(ctx, cfg, log, m)
	cancel()
	if err != nil {
		return err
	}
	defer b.Close()

	// 4. Websocket hub fed by refresh events
	hub := stream.NewHub(log, m)
	defer hub.Close()

	b.svc.OnRefresh(func(ev tracker.RefreshEvent) {
		hub.Broadcast(stream.Event{
			Type:      ev.Type,
			Updated:   ev.Updated,
			Countries: ev.Countries,
		})
	})

	// 5. Scheduler
	sched := newScheduler(cfg, log)
	refreshJob := jobs.NewRefreshJob(b.svc, cfg.Scheduler.RefreshSchedule, log)
	cleanupJob := jobs.NewCacheCleanupJob(b.svc, cfg.Scheduler.CleanupSchedule, log).
		WithRetention(cfg.Storage.Retention)

	for _, job := range []scheduler.Job{refreshJob, cleanupJob} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// 시작 시 1회 갱신
	if err := sched.RunJob(refreshJob.Name()); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}

	// 6. Router and server
	router := api.NewRouter(api.Routes{
		Covid:     handlers.NewCovidHandler(b.svc, log),
		Dashboard: handlers.NewDashboardHandler(b.svc, log),
		Jobs:      handlers.NewJobsHandler(sched),
		Stream:    hub,
		Metrics:   m,
	}, log)
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	PrintSuccess(out, fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	fmt.Fprintln(out, "\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Fprintf(out, "  - %s\n", name)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// newScheduler builds the job scheduler with the configured retry policy
func newScheduler(cfg *config.Config, log *logger.Logger) *scheduler.Scheduler {
	return scheduler.New(log, scheduler.WithRetry(cfg.Scheduler.MaxRetries, cfg.Scheduler.RetryDelay))
}
