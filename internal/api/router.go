package api

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/maverick/backend/internal/api/handlers"
	"github.com/wonny/maverick/backend/pkg/logger"
)

// HealthChecker /health 에서 확인하는 외부 의존성 (database, redis)
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterOption NewRouter 선택 설정
type RouterOption func(*routerOptions)

type routerOptions struct {
	checks map[string]HealthChecker
}

// WithHealthCheck /health 에 의존성 추가
func WithHealthCheck(name string, c HealthChecker) RouterOption {
	return func(o *routerOptions) {
		o.checks[name] = c
	}
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
// limiter가 nil이면 레이트 리밋 생략
func NewRouter(riskHandler *handlers.RiskHandler, limiter Limiter, log *logger.Logger, opts ...RouterOption) http.Handler {
	o := routerOptions{checks: make(map[string]HealthChecker)}
	for _, opt := range opts {
		opt(&o)
	}

	log = logger.OrNop(log).WithComponent("http")

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(o.checks)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		api.Use(rateLimitMiddleware(limiter, log))
	}

	// Risk endpoints
	rk := api.PathPrefix("/risk").Subrouter()
	rk.HandleFunc("/scenarios", riskHandler.GetScenarios).Methods("GET")
	rk.HandleFunc("/watch", riskHandler.GetWatch).Methods("GET")
	rk.HandleFunc("/var", riskHandler.CalculateVaR).Methods("POST")
	rk.HandleFunc("/beta", riskHandler.CalculateBeta).Methods("POST")
	rk.HandleFunc("/volatility", riskHandler.AnalyzeVolatility).Methods("POST")
	rk.HandleFunc("/stress", riskHandler.RunStress).Methods("POST")
	rk.HandleFunc("/diversification", riskHandler.ScoreDiversification).Methods("POST")
	rk.HandleFunc("/sectors", riskHandler.AnalyzeSectors).Methods("POST")
	rk.HandleFunc("/summary", riskHandler.Summarize).Methods("POST")
	rk.HandleFunc("/analyze", riskHandler.Analyze).Methods("POST")

	// Correlation endpoints
	corr := rk.PathPrefix("/correlation").Subrouter()
	corr.HandleFunc("/pairwise", riskHandler.PairwiseCorrelation).Methods("POST")
	corr.HandleFunc("/matrix", riskHandler.CorrelationMatrix).Methods("POST")
	corr.HandleFunc("/rolling", riskHandler.RollingCorrelation).Methods("POST")
	corr.HandleFunc("/multi-period", riskHandler.MultiPeriodCorrelation).Methods("POST")

	// Apply middleware (등록 순서대로 바깥쪽)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler 의존성 하나라도 실패하면 503 "degraded"
func healthCheckHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		deps := make(map[string]string, len(checks))
		for _, name := range slices.Sorted(maps.Keys(checks)) {
			if err := checks[name].Ping(ctx); err != nil {
				deps[name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]interface{}{
			"status":  status,
			"service": "maverick-risk-api",
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	}
}
