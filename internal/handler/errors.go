package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"cryptodash/internal/logic"
	"cryptodash/internal/types"
	"cryptodash/pkg/poller"
)

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeStatus(w, r, statusOf(err), err)
}

func writeStatus(w http.ResponseWriter, r *http.Request, code int, err error) {
	httpx.WriteJsonCtx(r.Context(), w, code, types.ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, logic.ErrFocusAbsent):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrEmptyID):
		return http.StatusBadRequest
	case errors.Is(err, poller.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// Upstream market data failures.
		return http.StatusBadGateway
	}
}
