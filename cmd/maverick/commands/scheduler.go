package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/maverick/backend/internal/scheduler"
	"github.com/wonny/maverick/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "리스크 감시 스케줄러",
	Long: `감시 포트폴리오(risk config의 watch 섹션)를 cron 스케줄에 따라 분석합니다.

이 명령어는:
- 수익률/섹터 로드 (DATA_SOURCE)
- 전체 리스크 분석
- 한도 알림 평가 (alerts.mode: shadow/enforce/off)

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/maverick scheduler
  go run ./cmd/maverick scheduler --once`,
	RunE: runScheduler,
}

var schedulerOnce bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerOnce, "once", false, "감시 작업을 1회 실행 후 종료")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Maverick Risk Scheduler ===")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	job := a.watchJob()
	sched := scheduler.New(a.log,
		scheduler.WithRetries(a.cfg.Scheduler.MaxRetries, a.cfg.Scheduler.RetryDelay))
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("schedule watch job: %w", err)
	}

	if schedulerOnce {
		result, err := sched.RunJob(ctx, job.Name())
		if err != nil {
			return err
		}
		if !result.Success {
			printError(out, fmt.Sprintf("%s failed after %d attempts: %s", result.JobName, result.Attempts, result.Error))
			return fmt.Errorf("job %s failed", result.JobName)
		}
		printWatchReport(out, job)
		return nil
	}

	sched.Start()

	next, _ := sched.NextRun(job.Name())
	printSuccess(out, "Scheduler started successfully")
	printKeyValue(out, "Job", job.Name(), 8)
	printKeyValue(out, "Schedule", job.Schedule(), 8)
	printKeyValue(out, "Next run", next.Format("2006-01-02 15:04:05"), 8)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	<-quit

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()

	for name, stat := range sched.GetJobStats() {
		printKeyValue(out, name, fmt.Sprintf("%d runs, %.1f%% success", stat.TotalRuns, stat.SuccessRate*100), 12)
	}
	return nil
}

// printWatchReport 감시 결과 요약 출력
func printWatchReport(out io.Writer, job *jobs.RiskWatchJob) {
	last, ok := job.LastReport()
	if !ok {
		return
	}
	report := last.Report

	printSuccess(out, "Risk watch completed")
	printKeyValue(out, "Run ID", report.RunID, 16)
	printKeyValue(out, "Positions", fmt.Sprintf("%d", len(report.Weights)), 16)
	if report.Risk != nil {
		printKeyValue(out, "Risk score", fmt.Sprintf("%.1f (%s)", report.Risk.RiskScore, report.Risk.RiskLevel), 16)
	}
	if v, ok := report.VaRMetrics(); ok {
		printKeyValue(out, "VaR 95/99", fmt.Sprintf("%.2f%% / %.2f%%", v.VaR95*100, v.VaR99*100), 16)
	}
	if report.Diversification != nil {
		printKeyValue(out, "Diversification", fmt.Sprintf("%.1f (%s)", report.Diversification.Score, report.Diversification.Level), 16)
	}
	for _, missing := range last.MissingPrices {
		printWarning(out, "No return data for "+missing)
	}
	for _, w := range report.Warnings {
		printWarning(out, w)
	}
	for _, al := range last.Alerts.Alerts {
		printWarning(out, fmt.Sprintf("[%s] %s", al.Severity, al.Message))
	}
}
