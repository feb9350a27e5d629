package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/af-corp/textguard/internal/assistant"
	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/filter"
	"github.com/af-corp/textguard/internal/httputil"
	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/notice"
	"github.com/af-corp/textguard/internal/ratelimit"
	"github.com/af-corp/textguard/internal/session"
	"github.com/af-corp/textguard/internal/telemetry"
	"github.com/af-corp/textguard/internal/types"
)

// Completer produces assistant replies for a conversation.
type Completer interface {
	Complete(ctx context.Context, history []types.Message) (*types.Completion, error)
}

// RateLimiter decides whether a user may send another message.
type RateLimiter interface {
	Allow(ctx context.Context, userID string) ratelimit.LimitResult
}

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	cfg         func() *config.Config
	engines     *moderation.Holder
	filterChain *filter.Chain
	limiter     RateLimiter
	sessions    session.Store
	assistant   Completer
	metrics     *telemetry.Metrics
}

// Deps groups the collaborators of a Handler. Metrics may be nil.
type Deps struct {
	Config      func() *config.Config
	Engines     *moderation.Holder
	FilterChain *filter.Chain
	Limiter     RateLimiter
	Sessions    session.Store
	Assistant   Completer
	Metrics     *telemetry.Metrics
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		cfg:         d.Config,
		engines:     d.Engines,
		filterChain: d.FilterChain,
		limiter:     d.Limiter,
		sessions:    d.Sessions,
		assistant:   d.Assistant,
		metrics:     d.Metrics,
	}
}

// decode reads a JSON body bounded by server.max_body_bytes.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	limit := h.cfg().Server.MaxBodyBytes
	if limit <= 0 {
		limit = 64 << 10
	}
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v)
}

// Chat handles POST /v1/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	ctx := r.Context()

	var req types.ChatRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}
	if req.UserID == "" {
		httputil.WriteBadRequestError(w, reqID, "user_id is required")
		return
	}
	req.RequestID = reqID
	req.ReceivedAt = time.Now()

	if lim := h.limiter.Allow(ctx, req.UserID); !lim.Allowed {
		w.Header().Set("Retry-After", retryAfterSeconds(lim.RetryAfter))
		httputil.WriteRateLimitError(w, reqID, notice.Throttled)
		return
	}

	results, blocked := h.filterChain.Run(ctx, &req)
	for _, fr := range results {
		if fr.Action != filter.ActionPass && h.metrics != nil {
			h.metrics.RecordFilterAction(fr.FilterName, string(fr.Action))
		}
	}
	if blocked != nil {
		slog.Warn("message blocked",
			"request_id", reqID,
			"user_id", req.UserID,
			"filter", blocked.FilterName,
			"category", blocked.Category,
			"detail", blocked.Message,
		)
		if blocked.Category != "" {
			httputil.WriteContentBlockedError(w, reqID, blocked.Category, notice.Blocked(moderation.Category(blocked.Category)))
			return
		}
		httputil.WritePolicyDeniedError(w, reqID, blocked.Message)
		return
	}

	resp := types.ChatResponse{RequestID: reqID, FilterActions: filter.Summary(results)}

	if req.Unclear {
		resp.Reply = notice.Unclear
		resp.NeedsClarity = true
		httputil.WriteJSON(w, reqID, http.StatusOK, resp)
		return
	}

	if err := h.sessions.Append(ctx, req.UserID, types.RoleUser, req.Text); err != nil {
		slog.Error("failed to store message", "request_id", reqID, "error", err)
		httputil.WriteInternalError(w, reqID, "Failed to store conversation")
		return
	}
	history, err := h.sessions.History(ctx, req.UserID, h.cfg().Context.HistorySize)
	if err != nil {
		slog.Error("failed to read history", "request_id", reqID, "error", err)
		httputil.WriteInternalError(w, reqID, "Failed to read conversation")
		return
	}

	start := time.Now()
	completion, err := h.assistant.Complete(ctx, history)
	if err != nil {
		h.recordAssistant(err, start)
		slog.Error("assistant request failed", "request_id", reqID, "user_id", req.UserID, "error", err)
		httputil.WriteServiceUnavailableError(w, reqID, notice.Unavailable)
		return
	}

	resp.Model = completion.Model
	resp.Usage = completion.Usage

	if assistant.IsConfused(completion.Content) {
		h.recordAssistantResult("confused", start)
		resp.Reply = notice.Confused
		resp.NeedsClarity = true
		httputil.WriteJSON(w, reqID, http.StatusOK, resp)
		return
	}
	h.recordAssistantResult("ok", start)

	if err := h.sessions.Append(ctx, req.UserID, types.RoleAssistant, completion.Content); err != nil {
		slog.Warn("failed to store reply", "request_id", reqID, "error", err)
	}

	slog.Info("chat completed",
		"request_id", reqID,
		"user_id", req.UserID,
		"model", completion.Model,
		"total_tokens", completion.Usage.TotalTokens,
		"duration_ms", time.Since(req.ReceivedAt).Milliseconds(),
	)

	resp.Reply = completion.Content
	httputil.WriteJSON(w, reqID, http.StatusOK, resp)
}

func (h *Handler) recordAssistant(err error, start time.Time) {
	switch {
	case errors.Is(err, assistant.ErrCircuitOpen):
		h.recordAssistantResult("circuit_open", start)
	case errors.Is(err, assistant.ErrNotConfigured):
		h.recordAssistantResult("not_configured", start)
	default:
		h.recordAssistantResult("error", start)
	}
}

func (h *Handler) recordAssistantResult(result string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordAssistant(result, time.Since(start))
	}
}

// Reset handles POST /v1/chat/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req types.ResetRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}
	if req.UserID == "" {
		httputil.WriteBadRequestError(w, reqID, "user_id is required")
		return
	}
	if err := h.sessions.Reset(r.Context(), req.UserID); err != nil {
		slog.Error("failed to reset context", "request_id", reqID, "error", err)
		httputil.WriteInternalError(w, reqID, "Failed to reset conversation")
		return
	}
	slog.Info("context reset", "request_id", reqID, "user_id", req.UserID)
	httputil.WriteJSON(w, reqID, http.StatusOK, types.ChatResponse{RequestID: reqID, Reply: notice.Reset})
}

// retryAfterSeconds renders d as whole seconds, rounded up and at least 1.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}
