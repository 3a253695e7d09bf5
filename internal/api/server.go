package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/maverick/backend/pkg/config"
	"github.com/wonny/maverick/backend/pkg/logger"
)

const (
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server 리스크 API HTTP 서버
// ⭐ SSOT: 타임아웃/종료 정책은 이 파일에서만
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// New 요청 단위 타임아웃을 씌운 서버 생성 (계산이 RequestTimeout을 넘으면 503)
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	timeout := cfg.API.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	shutdown := cfg.API.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = defaultShutdownTimeout
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           http.TimeoutHandler(router, timeout, `{"error":"request timeout"}`),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      timeout + 5*time.Second,
			IdleTimeout:       60 * time.Second,
		},
		shutdownTimeout: shutdown,
		logger:          logger.OrNop(log).WithComponent("api"),
	}
}

// Run ctx가 취소될 때까지 서비스 후 graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve 주어진 listener로 서비스 (테스트에서 임의 포트 사용)
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.WithField("addr", ln.Addr().String()).Info("API server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}
