package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pkg/logging"
)

// 错误码
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeSchemaInvalid   = "SCHEMA_INVALID"
	CodeTimeout         = "TIMEOUT"
	CodeInternal        = "INTERNAL_ERROR"
)

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("marshal response failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("write response failed")
	}
}

// writeError 把错误映射为 HTTP 状态与错误码。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, r, status, errorBody{Error: apiError{
		Code:      code,
		Message:   msg,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}})
}

func classify(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr), core.IsInvalidInput(err):
		return http.StatusBadRequest, CodeValidation
	case core.IsDataUnavailable(err):
		return http.StatusNotFound, CodeDataUnavailable
	case core.IsSchemaInvalid(err):
		return http.StatusUnprocessableEntity, CodeSchemaInvalid
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
