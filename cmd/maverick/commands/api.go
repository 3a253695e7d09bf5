package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/maverick/backend/internal/api"
	"github.com/wonny/maverick/backend/internal/api/handlers"
	"github.com/wonny/maverick/backend/internal/scheduler"
	"github.com/wonny/maverick/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 리스크 계산 엔드포인트 제공
- 감시 포트폴리오 스케줄 실행 (--watch)

Endpoints:
  GET  /health
  GET  /api/risk/scenarios
  GET  /api/risk/watch
  POST /api/risk/{var,beta,volatility,stress,diversification,sectors,summary,analyze}
  POST /api/risk/correlation/{pairwise,matrix,rolling,multi-period}

Example:
  go run ./cmd/maverick api
  go run ./cmd/maverick api --port 8080 --watch`,
	RunE: runAPIServer,
}

var (
	apiPort  string
	apiWatch bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiWatch, "watch", false, "감시 포트폴리오를 스케줄에 따라 분석")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), "=== Maverick Risk API Server ===")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	rdb, err := redis.New(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	var routerOpts []api.RouterOption
	if a.db != nil {
		routerOpts = append(routerOpts, api.WithHealthCheck("database", a.db))
	}
	if rdb.Enabled() {
		routerOpts = append(routerOpts, api.WithHealthCheck("redis", rdb))
	}

	// Rate limiter: redis 활성 시 인스턴스 공유, 아니면 프로세스 내
	var limiter api.Limiter
	switch {
	case a.cfg.API.RateLimit <= 0:
		// 제한 없음
	case rdb.Enabled():
		limiter = api.NewRedisLimiter(rdb, a.cfg.API.RateLimit, a.cfg.API.RateWindow)
	default:
		limiter = api.NewLocalLimiter(a.cfg.API.RateLimit, a.cfg.API.RateWindow)
	}

	// Optional watch job
	var watch handlers.WatchReporter
	if apiWatch {
		job := a.watchJob()
		sched := scheduler.New(a.log,
			scheduler.WithRetries(a.cfg.Scheduler.MaxRetries, a.cfg.Scheduler.RetryDelay))
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("schedule watch job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		watch = job
	}

	riskHandler := handlers.NewRiskHandler(a.analyzer, a.source, watch, a.log)
	router := api.NewRouter(riskHandler, limiter, a.log, routerOpts...)
	server := api.New(a.cfg, a.log, router)

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "\nPress Ctrl+C to stop")

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(runCtx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
