package contracts

import "errors"

// =============================================================================
// Error Taxonomy
// =============================================================================

// 계산기 오류 분류
// ⭐ SSOT: 모든 계산기는 이 sentinel 에러를 %w 로 감싸서 반환
// 호출자는 errors.Is 로 분기 (기본값으로 덮어쓰지 않음)
var (
	// ErrInvalidInput 계약 위반 입력 (티커 2개 미만, 음수 금액, 빈 포지션 등)
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData 통계 계산에 필요한 관측치 부족
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateInput 수학적으로 정의되지 않는 결과 (분산 0 벤치마크 등)
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrNonFinite NaN/Inf 전파 (결함으로 취급)
	ErrNonFinite = errors.New("non-finite value")
)
