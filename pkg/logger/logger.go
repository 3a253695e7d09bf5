package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/maverick/backend/pkg/config"
)

// 분석 실행 추적용 필드 이름
// ⭐ 계약: 대시보드 로그 쿼리가 의존
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldRequestID = "request_id"
)

// Logger zerolog 래퍼
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// New stdout 로거
func New(cfg *config.Config) *Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter w로 출력하는 로거
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
// 레벨은 인스턴스 단위 (전역 레벨 변경 없음)
func NewWithWriter(cfg *config.Config, w io.Writer) *Logger {
	switch strings.ToLower(cfg.LogFormat) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zlog := zerolog.New(w).
		Level(parseLogLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("env", cfg.Env).
		Logger()

	return &Logger{zlog: zlog}
}

// Nop 모든 출력을 버리는 로거 (테스트, 라이브러리 기본값)
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// OrNop l이 nil이면 Nop
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

func parseLogLevel(levelStr string) zerolog.Level {
	switch s := strings.ToLower(strings.TrimSpace(levelStr)); s {
	case "warning":
		return zerolog.WarnLevel
	case "", "trace", "disabled":
		return zerolog.InfoLevel
	default:
		level, err := zerolog.ParseLevel(s)
		if err != nil {
			return zerolog.InfoLevel
		}
		return level
	}
}

// Level 최소 출력 레벨
func (l *Logger) Level() zerolog.Level {
	return l.zlog.GetLevel()
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.zlog.Error().Msg(msg)
}

// WithField 필드 1개 추가
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields 필드 여러 개 추가
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithComponent 컴포넌트 태그 (portfolio, api, scheduler, alert ...)
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldComponent, name).Logger()}
}

// WithRunID 분석 실행 ID 태그 (리포트/알림/로그 연결)
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldRunID, runID).Logger()}
}

// WithRequestID HTTP 요청 ID 태그
func (l *Logger) WithRequestID(id string) *Logger {
	if id == "" {
		return l
	}
	return &Logger{zlog: l.zlog.With().Str(FieldRequestID, id).Logger()}
}

// WithError error 필드 추가
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}
