package gateway

import (
	"net/http"
	"time"

	"github.com/af-corp/textguard/internal/httputil"
	"github.com/af-corp/textguard/internal/notice"
	"github.com/af-corp/textguard/internal/types"
)

// Moderate handles POST /v1/moderate
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req types.ModerateRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}

	start := time.Now()
	v := h.engines.Load().Filter(req.Text)
	if h.metrics != nil {
		h.metrics.RecordModeration("http", v, time.Since(start))
	}

	resp := types.ModerateResponse{RequestID: reqID, Accepted: v.Accepted}
	if v.Accepted {
		resp.Text = v.Text
	} else {
		resp.Category = string(v.Category)
		resp.Label = v.Category.Label()
		resp.Detail = v.Detail
		resp.Notice = notice.For(v)
	}
	httputil.WriteJSON(w, reqID, http.StatusOK, resp)
}

// Report handles POST /v1/moderate/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req types.ModerateRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}
	httputil.WriteJSON(w, reqID, http.StatusOK, h.engines.Load().Report(req.Text))
}

// Clarity handles POST /v1/moderate/clarity
func (h *Handler) Clarity(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req types.ModerateRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}
	httputil.WriteJSON(w, reqID, http.StatusOK, types.ClarityResponse{
		RequestID: reqID,
		Unclear:   h.engines.Load().IsUnclear(req.Text),
	})
}
