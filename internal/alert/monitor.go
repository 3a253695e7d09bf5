package alert

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/portfolio"
	"github.com/wonny/maverick/backend/internal/riskconfig"
	"github.com/wonny/maverick/backend/pkg/logger"
)

// =============================================================================
// Monitor - 리포트 한도 감시
// =============================================================================

// Mode 모니터 동작 모드
type Mode string

const (
	ModeShadow  Mode = "shadow"  // 로깅만, passed=true 유지
	ModeEnforce Mode = "enforce" // 알림 발생 시 passed=false
	ModeOff     Mode = "off"     // 비활성화
)

// ParseMode 문자열 → Mode (빈 문자열은 shadow)
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeShadow, nil
	case ModeShadow, ModeEnforce, ModeOff:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown alert mode %q", contracts.ErrInvalidInput, s)
	}
}

// Severity 알림 심각도
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// CriticalOverrun 한도 대비 초과율이 이 값보다 크면 critical
const CriticalOverrun = 0.5

// Alert 코드
const (
	CodeVaR95           = "VAR_95_LIMIT"
	CodeVaR99           = "VAR_99_LIMIT"
	CodeVolatility      = "VOLATILITY_LIMIT"
	CodeBeta            = "BETA_LIMIT"
	CodeSingleExposure  = "SINGLE_EXPOSURE_LIMIT"
	CodeDiversification = "DIVERSIFICATION_FLOOR"
	CodeRiskScore       = "RISK_SCORE_LIMIT"
)

// Limits 감시 한도 (0 = 해당 항목 비활성)
// 손실/변동성/베타는 크기(절대값) 기준
type Limits struct {
	MaxVaR95                float64 `json:"max_var_95"`
	MaxVaR99                float64 `json:"max_var_99"`
	MaxAnnualVolatility     float64 `json:"max_annual_volatility"`
	MaxBeta                 float64 `json:"max_beta"`
	MaxSinglePosition       float64 `json:"max_single_position"`
	MinDiversificationScore float64 `json:"min_diversification_score"`
	MaxRiskScore            float64 `json:"max_risk_score"`
}

// LimitsFromConfig 리스크 설정의 한도 변환
func LimitsFromConfig(l riskconfig.AlertLimits) Limits {
	return Limits{
		MaxVaR95:                l.MaxVaR95,
		MaxVaR99:                l.MaxVaR99,
		MaxAnnualVolatility:     l.MaxAnnualVolatility,
		MaxBeta:                 l.MaxBeta,
		MaxSinglePosition:       l.MaxSinglePosition,
		MinDiversificationScore: l.MinDiversificationScore,
		MaxRiskScore:            l.MaxRiskScore,
	}
}

// Alert 한도 위반
type Alert struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Value    float64  `json:"value"`
	Limit    float64  `json:"limit"`
	Severity Severity `json:"severity"`
}

// Result 평가 결과
type Result struct {
	Passed     bool      `json:"passed"`
	Mode       Mode      `json:"mode"`
	WouldBlock bool      `json:"would_block"` // shadow 모드에서 enforce였다면 실패했을지
	Alerts     []Alert   `json:"alerts"`
	Message    string    `json:"message"`
	RunID      string    `json:"run_id,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Critical critical 알림 존재 여부
func (r *Result) Critical() bool {
	for _, a := range r.Alerts {
		if a.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Monitor 리포트 한도 감시
// ⭐ SSOT: 리스크 한도 판정은 여기서만
type Monitor struct {
	mu     sync.RWMutex
	mode   Mode
	limits Limits
	logger *logger.Logger
}

// NewMonitor 새 모니터 생성
func NewMonitor(mode Mode, limits Limits, log *logger.Logger) *Monitor {
	log = logger.OrNop(log)
	return &Monitor{
		mode:   mode,
		limits: limits,
		logger: log.WithComponent("alert"),
	}
}

// NewMonitorFromConfig 리스크 설정으로 모니터 생성
func NewMonitorFromConfig(cfg riskconfig.AlertConfig, log *logger.Logger) (*Monitor, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	return NewMonitor(mode, LimitsFromConfig(cfg.Limits), log), nil
}

// Evaluate 리포트를 한도와 비교
// 알림 순서: VaR95, VaR99, 변동성, 베타, 단일 종목, 분산 점수, 리스크 점수
func (m *Monitor) Evaluate(report *portfolio.AnalysisReport) *Result {
	mode := m.Mode()
	result := &Result{
		Mode:      mode,
		Alerts:    []Alert{},
		CheckedAt: time.Now().UTC(),
	}
	if report != nil {
		result.RunID = report.RunID
	}

	if mode == ModeOff {
		result.Passed = true
		result.Message = "Alert monitor is disabled"
		return result
	}
	if report == nil {
		result.Passed = true
		result.Message = "No report to evaluate"
		return result
	}

	result.Alerts = m.check(report)
	if len(result.Alerts) == 0 {
		result.Passed = true
		result.Message = "All risk limits satisfied"
		return result
	}

	result.WouldBlock = true
	result.Message = buildMessage(result.Alerts)
	switch mode {
	case ModeEnforce:
		result.Passed = false
		m.logAlerts(result, "ENFORCE: risk limits breached")
	default:
		result.Passed = true
		m.logAlerts(result, "SHADOW: risk limits would have been breached")
	}
	return result
}

// check 리포트의 각 지표를 한도와 비교
func (m *Monitor) check(report *portfolio.AnalysisReport) []Alert {
	limits := m.Limits()
	var alerts []Alert

	if v, ok := report.VaRMetrics(); ok {
		alerts = appendMax(alerts, CodeVaR95, "95% VaR", math.Abs(v.VaR95), limits.MaxVaR95, true)
		alerts = appendMax(alerts, CodeVaR99, "99% VaR", math.Abs(v.VaR99), limits.MaxVaR99, true)
	}
	if vol, ok := report.AnnualVolatility(); ok {
		alerts = appendMax(alerts, CodeVolatility, "Annualized volatility", vol, limits.MaxAnnualVolatility, true)
	}
	if report.Risk != nil {
		alerts = appendMax(alerts, CodeBeta, "Portfolio beta", math.Abs(report.Risk.Beta.Beta), limits.MaxBeta, false)
	}
	if report.MaxPositionTicker != "" {
		label := fmt.Sprintf("Position %s weight", report.MaxPositionTicker)
		alerts = appendMax(alerts, CodeSingleExposure, label, report.MaxPositionWeight, limits.MaxSinglePosition, true)
	}
	if report.Diversification != nil && limits.MinDiversificationScore > 0 {
		score, floor := report.Diversification.Score, limits.MinDiversificationScore
		if score < floor {
			severity := SeverityWarning
			if score < floor*(1-CriticalOverrun) {
				severity = SeverityCritical
			}
			alerts = append(alerts, Alert{
				Code:     CodeDiversification,
				Message:  fmt.Sprintf("Diversification score %.1f below floor %.1f", score, floor),
				Value:    score,
				Limit:    floor,
				Severity: severity,
			})
		}
	}
	if report.Risk != nil {
		alerts = appendMax(alerts, CodeRiskScore, "Risk score", report.Risk.RiskScore, limits.MaxRiskScore, false)
	}
	return alerts
}

// appendMax 상한 한도 위반 시 알림 추가 (limit <= 0 이면 비활성)
func appendMax(alerts []Alert, code, label string, value, limit float64, percent bool) []Alert {
	if limit <= 0 || value <= limit {
		return alerts
	}
	severity := SeverityWarning
	if value > limit*(1+CriticalOverrun) {
		severity = SeverityCritical
	}
	msg := fmt.Sprintf("%s %.2f exceeds limit %.2f", label, value, limit)
	if percent {
		msg = fmt.Sprintf("%s %.2f%% exceeds limit %.2f%%", label, value*100, limit*100)
	}
	return append(alerts, Alert{
		Code:     code,
		Message:  msg,
		Value:    value,
		Limit:    limit,
		Severity: severity,
	})
}

// buildMessage 알림 요약 메시지
func buildMessage(alerts []Alert) string {
	codes := make([]string, len(alerts))
	for i, a := range alerts {
		codes[i] = a.Code
	}
	return fmt.Sprintf("Risk limit alerts (%d): %s", len(alerts), strings.Join(codes, ", "))
}

// logAlerts 알림 상세 로깅
func (m *Monitor) logAlerts(result *Result, msg string) {
	fields := map[string]interface{}{
		"mode":        string(result.Mode),
		"alert_count": len(result.Alerts),
		"critical":    result.Critical(),
	}
	for i, a := range result.Alerts {
		fields[fmt.Sprintf("alert_%d_code", i)] = a.Code
		fields[fmt.Sprintf("alert_%d_value", i)] = a.Value
		fields[fmt.Sprintf("alert_%d_limit", i)] = a.Limit
		fields[fmt.Sprintf("alert_%d_severity", i)] = string(a.Severity)
	}

	log := m.logger.WithRunID(result.RunID).WithFields(fields)
	if result.Mode == ModeEnforce {
		log.Error(msg)
		return
	}
	log.Warn(msg)
}

// =============================================================================
// Mode Management
// =============================================================================

// SetMode 모드 변경
func (m *Monitor) SetMode(mode Mode) {
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
	m.logger.WithField("mode", string(mode)).Info("Alert monitor mode changed")
}

// Mode 현재 모드
func (m *Monitor) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Limits 현재 한도
func (m *Monitor) Limits() Limits {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limits
}

// IsEnabled 활성화 여부
func (m *Monitor) IsEnabled() bool {
	return m.Mode() != ModeOff
}
