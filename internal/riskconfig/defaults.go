package riskconfig

// Default 내장 기본 설정
// SSOT: config/risk/default.yaml 과 동일한 값 유지
func Default() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "maverick_risk_default",
			Version:  "1.0.0",
		},
		Correlation: CorrelationConfig{
			DefaultPeriodDays: 252,
			Periods:           []int{30, 90, 180, 252},
			Workers:           8,
			HighThreshold:     0.7,
			LowThreshold:      0.3,
			Strength: StrengthBands{
				VeryStrong: 0.8,
				Strong:     0.6,
				Moderate:   0.4,
				Weak:       0.2,
			},
		},
		VaR: VaRConfig{
			DefaultMethod: "historical",
			MinSamples:    20,
			MonteCarlo: MonteCarloConfig{
				Simulations: 10000,
				HoldingDays: 1,
				Seed:        0,
			},
		},
		Beta: BetaConfig{
			DefaultBenchmarkTicker: "SPY",
		},
		Stress: StressConfig{
			RecoveryMatchBand: 0.05,
			Scenarios:         defaultScenarios(),
		},
		Diversification: DiversificationConfig{
			Weights: SubScoreWeights{
				Position:      0.30,
				Sector:        0.25,
				Correlation:   0.25,
				Concentration: 0.20,
			},
			FullCreditPositions:     20,
			OverPenaltyScale:        200,
			MissingSectorPenalty:    5,
			RecommendationThreshold: 60,
		},
		Sectors: SectorConfig{
			Benchmark: defaultBenchmark(),
			Aliases:   defaultAliases(),
			Profiles:  defaultProfiles(),
		},
		RiskScore: RiskScoreConfig{
			Weights: RiskScoreWeights{
				Volatility: 0.35,
				Beta:       0.25,
				VaR:        0.25,
				Stress:     0.15,
			},
			Caps: RiskScoreCaps{
				AnnualVolatility: 0.40,
				Beta:             2.0,
				VaR95:            0.05,
				StressLoss:       0.50,
			},
		},
		Alerts: AlertConfig{
			Mode: "shadow",
			Limits: AlertLimits{
				MaxVaR95:                0.03,
				MaxVaR99:                0.05,
				MaxAnnualVolatility:     0.30,
				MaxBeta:                 1.5,
				MaxSinglePosition:       0.20,
				MinDiversificationScore: 40,
				MaxRiskScore:            70,
			},
		},
		Watch: WatchConfig{
			Schedule:        "0 30 16 * * 1-5",
			PeriodDays:      252,
			BenchmarkTicker: "SPY",
			VaRMethod:       "historical",
			TargetProfile:   "balanced",
		},
	}
}

func intPtr(v int) *int {
	return &v
}

// defaultScenarios 과거 폭락 구간 (S&P 500 고점→저점, 거래일 기준)
func defaultScenarios() []Scenario {
	return []Scenario{
		{
			ID:           "financial_crisis_2008",
			Name:         "2008 Financial Crisis",
			Description:  "Global credit crisis, Oct 2007 peak to Mar 2009 trough",
			MarketReturn: -0.57,
			DurationDays: 355,
			RecoveryDays: intPtr(1000),
		},
		{
			ID:           "dotcom_bust_2000",
			Name:         "Dot-com Bust",
			Description:  "Technology bubble collapse, Mar 2000 to Oct 2002",
			MarketReturn: -0.49,
			DurationDays: 650,
			RecoveryDays: intPtr(1150),
		},
		{
			ID:           "covid_crash_2020",
			Name:         "COVID-19 Crash",
			Description:  "Pandemic sell-off, Feb 2020 to Mar 2020",
			MarketReturn: -0.34,
			DurationDays: 23,
			RecoveryDays: intPtr(104),
		},
		{
			ID:           "bear_market",
			Name:         "Generic Bear Market",
			Description:  "Hypothetical prolonged 30% decline",
			MarketReturn: -0.30,
			DurationDays: 280,
		},
		{
			ID:           "rate_hike_2022",
			Name:         "2022 Rate Hike Cycle",
			Description:  "Inflation-driven tightening, Jan 2022 to Oct 2022",
			MarketReturn: -0.25,
			DurationDays: 195,
			RecoveryDays: intPtr(310),
		},
		{
			ID:           "black_monday_1987",
			Name:         "Black Monday",
			Description:  "Single-day crash of Oct 19, 1987",
			MarketReturn: -0.22,
			DurationDays: 1,
			RecoveryDays: intPtr(400),
		},
		{
			ID:           "mild_correction",
			Name:         "Market Correction",
			Description:  "Typical 10% pullback",
			MarketReturn: -0.10,
			DurationDays: 20,
			RecoveryDays: intPtr(60),
		},
	}
}

// defaultBenchmark S&P 500 섹터 비중 (trailing, 합 = 1.0)
func defaultBenchmark() map[string]float64 {
	return map[string]float64{
		"Technology":             0.315,
		"Financial Services":     0.130,
		"Healthcare":             0.120,
		"Consumer Cyclical":      0.100,
		"Communication Services": 0.090,
		"Industrials":            0.080,
		"Consumer Defensive":     0.060,
		"Energy":                 0.035,
		"Utilities":              0.025,
		"Basic Materials":        0.023,
		"Real Estate":            0.022,
	}
}

// defaultAliases GICS 공식 명칭 등 → 내부 표준 섹터명
func defaultAliases() map[string]string {
	return map[string]string{
		"Information Technology": "Technology",
		"Tech":                   "Technology",
		"Health Care":            "Healthcare",
		"Financials":             "Financial Services",
		"Financial":              "Financial Services",
		"Consumer Discretionary": "Consumer Cyclical",
		"Consumer Staples":       "Consumer Defensive",
		"Communication":          "Communication Services",
		"Telecommunication":      "Communication Services",
		"Materials":              "Basic Materials",
		"Industrial":             "Industrials",
		"Utility":                "Utilities",
	}
}

// defaultProfiles 투자 성향별 목표 섹터 비중 (각 합 = 1.0)
func defaultProfiles() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"balanced": {
			"Technology":             0.25,
			"Healthcare":             0.13,
			"Financial Services":     0.13,
			"Consumer Cyclical":      0.10,
			"Industrials":            0.10,
			"Communication Services": 0.08,
			"Consumer Defensive":     0.08,
			"Energy":                 0.04,
			"Utilities":              0.03,
			"Real Estate":            0.03,
			"Basic Materials":        0.03,
		},
		"aggressive": {
			"Technology":             0.35,
			"Consumer Cyclical":      0.14,
			"Communication Services": 0.12,
			"Financial Services":     0.12,
			"Healthcare":             0.10,
			"Industrials":            0.08,
			"Energy":                 0.03,
			"Basic Materials":        0.02,
			"Consumer Defensive":     0.02,
			"Utilities":              0.01,
			"Real Estate":            0.01,
		},
		"defensive": {
			"Healthcare":             0.18,
			"Consumer Defensive":     0.15,
			"Technology":             0.15,
			"Financial Services":     0.12,
			"Utilities":              0.10,
			"Industrials":            0.08,
			"Communication Services": 0.06,
			"Real Estate":            0.06,
			"Energy":                 0.04,
			"Consumer Cyclical":      0.04,
			"Basic Materials":        0.02,
		},
	}
}
