package riskconfig

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// 단일 종목 포트폴리오가 항상 very_poor(<20)가 되도록 하는 하한
const (
	minFullCreditPositions = 6
	overThreshold          = 0.20
)

var validMethods = map[string]bool{"historical": true, "parametric": true, "monte_carlo": true}

var validModes = map[string]bool{"shadow": true, "enforce": true, "off": true}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Correlation ===
	if cfg.Correlation.DefaultPeriodDays < 2 {
		return ValidationError{"correlation.default_period_days", "must be >= 2"}
	}
	if len(cfg.Correlation.Periods) == 0 {
		return ValidationError{"correlation.periods", "must not be empty"}
	}
	for _, p := range cfg.Correlation.Periods {
		if p < 2 {
			return ValidationError{"correlation.periods", fmt.Sprintf("period %d must be >= 2", p)}
		}
	}
	if cfg.Correlation.Workers <= 0 {
		return ValidationError{"correlation.workers", "must be > 0"}
	}
	if lo, hi := cfg.Correlation.LowThreshold, cfg.Correlation.HighThreshold; !(lo > 0 && lo < hi && hi <= 1) {
		return ValidationError{"correlation.low_threshold", "must satisfy 0 < low_threshold < high_threshold <= 1"}
	}
	if b := cfg.Correlation.Strength; !(b.Weak > 0 && b.Weak < b.Moderate && b.Moderate < b.Strong &&
		b.Strong < b.VeryStrong && b.VeryStrong <= 1) {
		return ValidationError{"correlation.strength", "bands must be increasing: 0 < weak < moderate < strong < very_strong <= 1"}
	}

	// === VaR ===
	if !validMethods[cfg.VaR.DefaultMethod] {
		return ValidationError{"var.default_method", "must be one of historical, parametric, monte_carlo"}
	}
	if cfg.VaR.MinSamples < 2 {
		return ValidationError{"var.min_samples", "must be >= 2"}
	}
	if cfg.VaR.MonteCarlo.Simulations <= 0 {
		return ValidationError{"var.monte_carlo.simulations", "must be > 0"}
	}
	if cfg.VaR.MonteCarlo.HoldingDays < 1 {
		return ValidationError{"var.monte_carlo.holding_days", "must be >= 1"}
	}

	// === Beta ===
	if t := cfg.Beta.DefaultBenchmarkTicker; t != strings.TrimSpace(t) {
		return ValidationError{"beta.default_benchmark_ticker", "must not have surrounding whitespace"}
	}

	// === Stress ===
	if cfg.Stress.RecoveryMatchBand < 0 {
		return ValidationError{"stress.recovery_match_band", "must be >= 0"}
	}
	seen := make(map[string]bool)
	for i, s := range cfg.Stress.Scenarios {
		field := fmt.Sprintf("stress.scenarios[%d]", i)
		if s.ID == "" {
			return ValidationError{field + ".id", "required"}
		}
		if seen[s.ID] {
			return ValidationError{field + ".id", fmt.Sprintf("duplicate id %q", s.ID)}
		}
		seen[s.ID] = true
		if s.MarketReturn >= 0 || s.MarketReturn < -1 {
			return ValidationError{field + ".market_return", "must be in [-1, 0)"}
		}
		if s.RecoveryDays != nil && *s.RecoveryDays < 0 {
			return ValidationError{field + ".recovery_days", "must be >= 0"}
		}
	}

	// === Diversification ===
	d := cfg.Diversification
	if err := validateNonNegative("diversification.weights", d.Weights.Position, d.Weights.Sector,
		d.Weights.Correlation, d.Weights.Concentration); err != nil {
		return err
	}
	if err := validateWeightsSum(d.Weights.Sum(), 1.0, 1e-6); err != nil {
		return ValidationError{"diversification.weights", err.Error()}
	}
	if d.FullCreditPositions < minFullCreditPositions {
		return ValidationError{"diversification.full_credit_positions",
			fmt.Sprintf("must be >= %d", minFullCreditPositions)}
	}
	// 단일 종목(비중 100%)의 집중도 점수는 0이어야 함
	if d.OverPenaltyScale*(1-overThreshold) < 100 {
		return ValidationError{"diversification.over_penalty_scale",
			fmt.Sprintf("must be >= %.0f", 100/(1-overThreshold))}
	}
	if d.MissingSectorPenalty < 0 {
		return ValidationError{"diversification.missing_sector_penalty", "must be >= 0"}
	}
	if d.RecommendationThreshold < 0 || d.RecommendationThreshold > 100 {
		return ValidationError{"diversification.recommendation_threshold", "must be in [0, 100]"}
	}

	// === Sectors ===
	if len(cfg.Sectors.Benchmark) == 0 {
		return ValidationError{"sectors.benchmark", "must not be empty"}
	}
	if err := validateTable("sectors.benchmark", cfg.Sectors.Benchmark); err != nil {
		return err
	}
	canonical := make(map[string]string, len(cfg.Sectors.Benchmark)+len(cfg.Sectors.Aliases))
	for sector := range cfg.Sectors.Benchmark {
		canonical[strings.ToLower(sector)] = sector
	}
	for _, alias := range slices.Sorted(maps.Keys(cfg.Sectors.Aliases)) {
		target := cfg.Sectors.Aliases[alias]
		if _, ok := cfg.Sectors.Benchmark[target]; !ok {
			return ValidationError{"sectors.aliases." + alias, fmt.Sprintf("target %q is not a benchmark sector", target)}
		}
		canonical[strings.ToLower(strings.TrimSpace(alias))] = target
	}
	if len(cfg.Sectors.Profiles) == 0 {
		return ValidationError{"sectors.profiles", "must not be empty"}
	}
	profileNames := make(map[string]string, len(cfg.Sectors.Profiles))
	for _, name := range slices.Sorted(maps.Keys(cfg.Sectors.Profiles)) {
		field := "sectors.profiles." + name
		lower := strings.ToLower(name)
		if prev, ok := profileNames[lower]; ok {
			return ValidationError{field, fmt.Sprintf("duplicates profile %q (names are case-insensitive)", prev)}
		}
		profileNames[lower] = name

		table := cfg.Sectors.Profiles[name]
		if err := validateTable(field, table); err != nil {
			return err
		}
		seenSectors := make(map[string]string, len(table))
		for _, key := range slices.Sorted(maps.Keys(table)) {
			sector, ok := canonical[strings.ToLower(strings.TrimSpace(key))]
			if !ok {
				return ValidationError{field + "." + key, "unknown sector (not in benchmark or aliases)"}
			}
			if prev, ok := seenSectors[sector]; ok {
				return ValidationError{field + "." + key, fmt.Sprintf("same sector as %q", prev)}
			}
			seenSectors[sector] = key
		}
	}

	// === Risk score ===
	w := cfg.RiskScore.Weights
	if err := validateNonNegative("risk_score.weights", w.Volatility, w.Beta, w.VaR, w.Stress); err != nil {
		return err
	}
	if err := validateWeightsSum(w.Sum(), 1.0, 1e-6); err != nil {
		return ValidationError{"risk_score.weights", err.Error()}
	}
	c := cfg.RiskScore.Caps
	if c.AnnualVolatility <= 0 || c.Beta <= 0 || c.VaR95 <= 0 || c.StressLoss <= 0 {
		return ValidationError{"risk_score.caps", "all caps must be > 0"}
	}

	// === Alerts ===
	if !validModes[cfg.Alerts.Mode] {
		return ValidationError{"alerts.mode", "must be one of shadow, enforce, off"}
	}

	// === Watch ===
	if cfg.Watch.Schedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cfg.Watch.Schedule); err != nil {
			return ValidationError{"watch.schedule", err.Error()}
		}
	}
	if cfg.Watch.VaRMethod != "" && !validMethods[cfg.Watch.VaRMethod] {
		return ValidationError{"watch.var_method", "must be one of historical, parametric, monte_carlo"}
	}
	if p := strings.ToLower(strings.TrimSpace(cfg.Watch.TargetProfile)); p != "" {
		if _, ok := profileNames[p]; !ok {
			return ValidationError{"watch.target_profile", fmt.Sprintf("unknown profile %q", cfg.Watch.TargetProfile)}
		}
	}
	for i, p := range cfg.Watch.Positions {
		if p.Ticker == "" {
			return ValidationError{fmt.Sprintf("watch.positions[%d].ticker", i), "required"}
		}
		if p.MarketValue < 0 {
			return ValidationError{fmt.Sprintf("watch.positions[%d].market_value", i), "must be >= 0"}
		}
	}

	return nil
}

func validateWeightsSum(sum, expected, tolerance float64) error {
	if math.Abs(sum-expected) > tolerance {
		return fmt.Errorf("must sum to %.2f, got %.6f", expected, sum)
	}
	return nil
}

func validateNonNegative(field string, values ...float64) error {
	for _, v := range values {
		if v < 0 {
			return ValidationError{field, "weights must be >= 0"}
		}
	}
	return nil
}

// validateTable 섹터 비중 테이블: 각 값 [0,1], 합 = 1.0 (±0.5pp)
func validateTable(field string, table map[string]float64) error {
	sum := 0.0
	for sector, v := range table {
		if v < 0 || v > 1 {
			return ValidationError{field + "." + sector, "must be in [0, 1]"}
		}
		sum += v
	}
	if err := validateWeightsSum(sum, 1.0, 0.005); err != nil {
		return ValidationError{field, err.Error()}
	}
	return nil
}
