package scheduler

import (
	"context"
	"slices"
	"time"
)

// historyLimit 작업별 보관 실행 결과 수
const historyLimit = 100

// Job cron으로 실행되는 작업
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run 1회 실행 (실패 시 스케줄러가 재시도)
	Run(ctx context.Context) error

	// Schedule 초 단위 cron 표현식
	// 예: "0 30 16 * * 1-5" (평일 16:30), "@hourly"
	Schedule() string
}

// JobResult 실행 1회 결과 (재시도 포함)
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory 최근 historyLimit건 실행 결과 (오래된 순)
type JobHistory struct {
	Results []JobResult
}

// Add 결과 추가 (한도 초과 시 가장 오래된 결과 제거)
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - historyLimit; over > 0 {
		h.Results = slices.Delete(h.Results, 0, over)
	}
}

// Latest 최근 n건 복사본
func (h *JobHistory) Latest(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}
	return slices.Clone(h.Results[len(h.Results)-n:])
}

// Failures 실패 결과만
func (h *JobHistory) Failures() []JobResult {
	return slices.DeleteFunc(slices.Clone(h.Results), func(r JobResult) bool {
		return r.Success
	})
}

// SuccessRate 성공 비율 (0.0 - 1.0, 기록 없으면 0)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	failed := len(h.Failures())
	return float64(len(h.Results)-failed) / float64(len(h.Results))
}

// Stats 이력 집계
func (h *JobHistory) Stats(name, schedule string) JobStats {
	failed := len(h.Failures())
	st := JobStats{
		JobName:      name,
		Schedule:     schedule,
		TotalRuns:    len(h.Results),
		SuccessCount: len(h.Results) - failed,
		FailureCount: failed,
		SuccessRate:  h.SuccessRate(),
	}

	for i, r := range slices.Backward(h.Results) {
		if i == len(h.Results)-1 {
			st.LastRun = &r.StartTime
		}
		switch {
		case r.Success && st.LastSuccess == nil:
			st.LastSuccess = &r.StartTime
		case !r.Success && st.LastFailure == nil:
			st.LastFailure = &r.StartTime
		}
	}
	return st
}

// JobStats 작업별 실행 통계
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
