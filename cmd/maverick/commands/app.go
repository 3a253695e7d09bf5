package commands

import (
	"context"
	"fmt"

	"github.com/wonny/maverick/backend/internal/alert"
	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/marketdata"
	"github.com/wonny/maverick/backend/internal/portfolio"
	"github.com/wonny/maverick/backend/internal/riskconfig"
	"github.com/wonny/maverick/backend/internal/scheduler/jobs"
	"github.com/wonny/maverick/backend/pkg/config"
	"github.com/wonny/maverick/backend/pkg/database"
	"github.com/wonny/maverick/backend/pkg/logger"
)

// app 커맨드 공용 의존성
// ⭐ SSOT: 설정 → 엔진/데이터 소스 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	riskCfg  *riskconfig.Config
	analyzer *portfolio.Analyzer
	monitor  *alert.Monitor
	source   contracts.ReturnSource
	db       *database.DB
}

// newApp 설정 로드 후 엔진 조립
// withSource: 수익률 데이터 소스 연결 여부 (postgres면 DB 연결)
func newApp(ctx context.Context, withSource bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if riskConfigPath != "" {
		cfg.Risk.ConfigPath = riskConfigPath
	}

	log := logger.New(cfg)

	riskCfg, err := riskconfig.LoadOrDefault(cfg.Risk.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load risk config: %w", err)
	}
	if cfg.Scheduler.WatchSchedule != "" {
		riskCfg.Watch.Schedule = cfg.Scheduler.WatchSchedule
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		riskCfg: riskCfg,
		source:  marketdata.NewMemorySource(),
	}

	if withSource && cfg.UsesPostgres() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.source = marketdata.NewPostgresSource(db.Pool)
		log.Info("Connected to database")
	}

	// 기본 벤치마크: 없으면 beta/summary 요청에 benchmark_returns 필수
	var opts []portfolio.Option
	if withSource {
		ticker := riskCfg.Beta.DefaultBenchmarkTicker
		bench, err := portfolio.LoadDefaultBenchmark(ctx, a.source, ticker, riskCfg.Correlation.DefaultPeriodDays)
		switch {
		case err != nil:
			log.WithError(err).WithField("ticker", ticker).Warn("Default benchmark unavailable")
		case bench != nil:
			opts = append(opts, portfolio.WithDefaultBenchmark(bench))
			log.WithFields(map[string]interface{}{
				"ticker":  ticker,
				"returns": len(bench),
			}).Info("Default benchmark loaded")
		}
	}

	analyzer, err := portfolio.NewAnalyzer(riskCfg, cfg.Risk.Workers, log, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build analyzer: %w", err)
	}
	monitor, err := alert.NewMonitorFromConfig(riskCfg.Alerts, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build alert monitor: %w", err)
	}
	a.analyzer = analyzer
	a.monitor = monitor

	log.WithFields(map[string]interface{}{
		"config_id":   riskCfg.Meta.ConfigID,
		"config_hash": analyzer.ConfigHash(),
		"data_source": cfg.Risk.DataSource,
	}).Debug("Risk engine initialized")

	return a, nil
}

// watchJob 감시 작업 생성
func (a *app) watchJob() *jobs.RiskWatchJob {
	return jobs.NewRiskWatchJob(a.riskCfg.Watch, a.analyzer, a.monitor, a.source, a.log)
}

// Close 외부 연결 정리
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
