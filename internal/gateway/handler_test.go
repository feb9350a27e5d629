package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/af-corp/textguard/internal/assistant"
	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/filter"
	"github.com/af-corp/textguard/internal/filter/content"
	"github.com/af-corp/textguard/internal/httputil"
	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/notice"
	"github.com/af-corp/textguard/internal/ratelimit"
	"github.com/af-corp/textguard/internal/session"
	"github.com/af-corp/textguard/internal/telemetry"
	"github.com/af-corp/textguard/internal/types"
)

type fakeCompleter struct {
	reply string
	err   error
	seen  [][]types.Message
}

func (f *fakeCompleter) Complete(_ context.Context, history []types.Message) (*types.Completion, error) {
	f.seen = append(f.seen, history)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Completion{Model: "deepseek-chat", Content: f.reply, Usage: types.Usage{TotalTokens: 3}}, nil
}

type fakeLimiter struct {
	allowed bool
	retry   time.Duration
}

func (f fakeLimiter) Allow(context.Context, string) ratelimit.LimitResult {
	retry := f.retry
	if retry == 0 {
		retry = 30 * time.Second
	}
	return ratelimit.LimitResult{Allowed: f.allowed, RetryAfter: retry}
}

type denyAll struct{}

func (denyAll) Name() string  { return "policy" }
func (denyAll) Enabled() bool { return true }
func (denyAll) ScanRequest(context.Context, *types.ChatRequest) filter.Result {
	return filter.Result{Action: filter.ActionBlock, FilterName: "policy", Message: "Request denied by policy: closed"}
}

type fixture struct {
	router    http.Handler
	completer *fakeCompleter
	sessions  *session.MemoryStore
}

func newFixture(t *testing.T, limiter RateLimiter, extra ...filter.Filter) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	metrics := telemetry.NewMetricsWith(prometheus.NewRegistry())
	engines := moderation.NewHolder(moderation.New(nil))

	filters := append([]filter.Filter{content.New(engines, func() bool { return true }, metrics)}, extra...)
	sessions := session.NewMemoryStore(func() config.ContextConfig { return cfg.Context })
	completer := &fakeCompleter{reply: "Горутины планируются рантаймом Go."}

	h := NewHandler(Deps{
		Config:      func() *config.Config { return cfg },
		Engines:     engines,
		FilterChain: filter.NewChain(filters...),
		Limiter:     limiter,
		Sessions:    sessions,
		Assistant:   completer,
		Metrics:     metrics,
	})
	return &fixture{router: NewRouter(h, metrics, "test"), completer: completer, sessions: sessions}
}

func (f *fixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestModerate(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})

	w := f.post(t, "/v1/moderate", types.ModerateRequest{Text: "Привет, как дела?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var ok types.ModerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.True(t, ok.Accepted)
	assert.Equal(t, "Привет, как дела?", ok.Text)

	w = f.post(t, "/v1/moderate", types.ModerateRequest{Text: "пиши мне на spam@mail.ru"})
	var rej types.ModerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rej))
	assert.False(t, rej.Accepted)
	assert.Equal(t, "links_contacts", rej.Category)
	assert.Equal(t, "ссылки/контакты", rej.Label)
	assert.Equal(t, notice.Blocked(moderation.CategoryLinksContacts), rej.Notice)
}

func TestModerate_BadJSON(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/moderate", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportAndClarity(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})

	w := f.post(t, "/v1/moderate/report", types.ModerateRequest{Text: "visit https://example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	var rep moderation.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.False(t, rep.Verdict.Accepted)
	assert.Equal(t, moderation.CategoryLinksContacts, rep.Verdict.Category)

	w = f.post(t, "/v1/moderate/clarity", types.ModerateRequest{Text: "что"})
	var cl types.ClarityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cl))
	assert.True(t, cl.Unclear)
}

func TestChat_Flow(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})

	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u1", Text: "Расскажи, как устроен планировщик горутин"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Горутины планируются рантаймом Go.", resp.Reply)
	assert.False(t, resp.NeedsClarity)
	assert.Equal(t, 3, resp.Usage.TotalTokens)

	hist, err := f.sessions.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, types.RoleUser, hist[0].Role)
	assert.Equal(t, types.RoleAssistant, hist[1].Role)

	w = f.post(t, "/v1/chat/reset", types.ResetRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	hist, _ = f.sessions.History(context.Background(), "u1", 0)
	assert.Empty(t, hist)
}

func TestChat_Blocked(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})

	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u1", Text: "This is a shit message"})
	require.Equal(t, http.StatusUnavailableForLegalReasons, w.Code)

	var apiErr httputil.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, "profanity", apiErr.Error.Param)
	assert.Equal(t, notice.Blocked(moderation.CategoryProfanity), apiErr.Error.Message)
	assert.Empty(t, f.completer.seen)
}

func TestChat_PolicyDenied(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true}, denyAll{})
	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u1", Text: "Расскажи про каналы"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.completer.seen)
}

func TestChat_Unclear(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})

	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u1", Text: "что"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NeedsClarity)
	assert.Equal(t, notice.Unclear, resp.Reply)
	assert.Empty(t, f.completer.seen)
}

func TestChat_ConfusedReply(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})
	f.completer.reply = "Уточните, пожалуйста, что именно вас интересует."

	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u2", Text: "Расскажи про каналы в Go"})
	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NeedsClarity)
	assert.Equal(t, notice.Confused, resp.Reply)

	hist, _ := f.sessions.History(context.Background(), "u2", 0)
	assert.Len(t, hist, 1, "confused replies are not stored")
}

func TestChat_AssistantUnavailable(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})
	f.completer.err = assistant.ErrCircuitOpen

	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u1", Text: "Расскажи про каналы в Go"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestChat_RateLimited(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: false})

	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u1", Text: "Расскажи про каналы в Go"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestChat_RateLimitedSubSecond(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: false, retry: 200 * time.Millisecond})

	w := f.post(t, "/v1/chat", types.ChatRequest{UserID: "u1", Text: "Расскажи про каналы в Go"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "1"},
		{200 * time.Millisecond, "1"},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
		{30 * time.Second, "30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfterSeconds(tt.in), tt.in.String())
	}
}

func TestChat_RequiresUser(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})
	w := f.post(t, "/v1/chat", types.ChatRequest{Text: "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var st HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "test", st.Version)
	assert.NotEmpty(t, st.Rules)
}

func TestRequestID_Propagated(t *testing.T) {
	f := newFixture(t, fakeLimiter{allowed: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/moderate/clarity", bytes.NewBufferString(`{"text":"привет"}`))
	req.Header.Set("X-Request-ID", "req_fixed")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, "req_fixed", w.Header().Get("X-Request-ID"))
	var cl types.ClarityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cl))
	assert.Equal(t, "req_fixed", cl.RequestID)
}
