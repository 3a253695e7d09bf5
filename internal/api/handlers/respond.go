package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// maxBodyBytes 요청 본문 상한 (수익률 시계열 포함)
const maxBodyBytes = 8 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// StatusFor 에러 종류 → HTTP 상태
// ⭐ 계약: 입력 위반 400, 데이터 부족/퇴화 입력 422, 그 외(ErrNonFinite 포함) 500
func StatusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrInsufficientData), errors.Is(err, contracts.ErrDegenerateInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondErr 도메인 에러 응답 (500은 내부 메시지 숨김)
func (h *RiskHandler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Risk request failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

// decode JSON 본문 → v (알 수 없는 필드 거부)
func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", contracts.ErrInvalidInput, err)
	}
	return nil
}
