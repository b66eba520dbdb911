package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"textpredict/internal/session"
	"textpredict/internal/tensor"
	"textpredict/pkg/types"
)

type mockService struct {
	mu        sync.Mutex
	snap      session.Snapshot
	predicts  int
	onPredict func(ctx context.Context, s *session.Snapshot)
}

func (m *mockService) Snapshot() session.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *mockService) SetInput(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Input, m.snap.InputSet = text, true
}

func (m *mockService) Predict(ctx context.Context) {
	m.mu.Lock()
	m.predicts++
	fn := m.onPredict
	snap := m.snap
	m.mu.Unlock()
	if fn != nil {
		fn(ctx, &snap)
	}
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()
}

func (m *mockService) Ready() bool { return m.Snapshot().PredictorReady }

func readySnapshot(input string) session.Snapshot {
	return session.Snapshot{
		Runtime:        session.RuntimeStatus{Ready: true, Backend: "cpu"},
		PredictorReady: true,
		Input:          input,
		InputSet:       input != "",
	}
}

func mustTensor(t *testing.T, shape []int, vals ...float32) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.FromFloat32(shape, vals)
	if err != nil {
		t.Fatalf("tensor: %v", err)
	}
	return tt
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%q)", err, w.Body.String())
	}
	return v
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{snap: readySnapshot("hi")}
	w := do(t, NewMux(svc), http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	body := decode[types.StatusResponse](t, w)
	if !body.RuntimeReady || body.Backend != "cpu" || !body.ModelReady || body.PredictionReady || !body.CanPredict {
		t.Fatalf("unexpected body: %+v", body)
	}
	want := []string{"Runtime : ready", "Backend: cpu", "Model: ready", "Prediction: not ready"}
	if strings.Join(body.Lines, "|") != strings.Join(want, "|") {
		t.Fatalf("lines=%q", body.Lines)
	}
}

func TestStatusHandler_Initial(t *testing.T) {
	w := do(t, NewMux(&mockService{}), http.MethodGet, "/status", "")
	body := decode[types.StatusResponse](t, w)
	if body.RuntimeReady || body.ModelReady || body.CanPredict || body.Backend != "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Lines[1] != "Backend: not ready" {
		t.Fatalf("backend line=%q", body.Lines[1])
	}
}

func TestInput_RoundTrip(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)

	got := decode[types.InputResponse](t, do(t, r, http.MethodGet, "/input", ""))
	if got.Set || got.Text != "" {
		t.Fatalf("initial input: %+v", got)
	}

	w := do(t, r, http.MethodPut, "/input", `{"text":"hello world"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got = decode[types.InputResponse](t, w)
	if !got.Set || got.Text != "hello world" {
		t.Fatalf("after put: %+v", got)
	}

	// Setting the empty string is a valid update.
	got = decode[types.InputResponse](t, do(t, r, http.MethodPut, "/input", `{"text":""}`))
	if !got.Set || got.Text != "" {
		t.Fatalf("after clear: %+v", got)
	}
	if svc.predicts != 0 {
		t.Fatalf("input must not trigger predictions")
	}
}

func TestInput_BadRequests(t *testing.T) {
	r := NewMux(&mockService{})
	cases := []struct {
		name        string
		contentType string
		body        string
		want        int
	}{
		{"wrong content type", "text/plain", `{"text":"x"}`, http.StatusUnsupportedMediaType},
		{"missing content type", "", `{"text":"x"}`, http.StatusUnsupportedMediaType},
		{"invalid json", "application/json", `{`, http.StatusBadRequest},
		{"missing text", "application/json", `{}`, http.StatusBadRequest},
		{"null text", "application/json", `{"text":null}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/input", strings.NewReader(c.body))
			if c.contentType != "" {
				req.Header.Set("Content-Type", c.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != c.want {
				t.Fatalf("status=%d want=%d", w.Code, c.want)
			}
			e := decode[types.ErrorResponse](t, w)
			if e.Code != c.want || e.Error == "" {
				t.Fatalf("error body: %+v", e)
			}
		})
	}
}

func TestInput_BodyTooLarge(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := do(t, NewMux(&mockService{}), http.MethodPut, "/input", `{"text":"`+strings.Repeat("a", 64)+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestPredict_Success(t *testing.T) {
	svc := &mockService{snap: readySnapshot("hello world")}
	svc.onPredict = func(_ context.Context, s *session.Snapshot) {
		s.Result = mustTensor(t, []int{1, 1}, 0.5)
		s.ResultReady = true
	}
	w := do(t, NewMux(svc), http.MethodPost, "/predict", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := decode[types.ResultResponse](t, w)
	if !body.ResultReady || body.Result == nil || *body.Result != "Tensor\n    [[0.5]]" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if len(body.Shape) != 2 || body.Shape[0] != 1 || body.Shape[1] != 1 {
		t.Fatalf("shape=%v", body.Shape)
	}
}

func TestPredict_FailureKeepsStaleResult(t *testing.T) {
	snap := readySnapshot("x")
	snap.Result = mustTensor(t, []int{1}, 7)
	snap.ResultReady = true
	svc := &mockService{snap: snap}
	svc.onPredict = func(_ context.Context, s *session.Snapshot) { s.ResultReady = false }

	w := do(t, NewMux(svc), http.MethodPost, "/predict", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := decode[types.ResultResponse](t, w)
	if body.ResultReady {
		t.Fatalf("result must be flagged stale")
	}
	if body.Result == nil || *body.Result != "Tensor\n    [7]" {
		t.Fatalf("stale result lost: %+v", body)
	}
}

func TestPredict_PreconditionSkipReturnsState(t *testing.T) {
	cases := []struct {
		name string
		snap session.Snapshot
	}{
		{"no model", session.Snapshot{Input: "x", InputSet: true}},
		{"empty input", readySnapshot("")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := &mockService{snap: c.snap}
			w := do(t, NewMux(svc), http.MethodPost, "/predict", "")
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d", w.Code)
			}
			body := decode[types.ResultResponse](t, w)
			if body.ResultReady || body.Result != nil {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestPredict_Timeout(t *testing.T) {
	SetPredictTimeout(20 * time.Millisecond)
	defer SetPredictTimeout(0)
	svc := &mockService{snap: readySnapshot("slow")}
	svc.onPredict = func(ctx context.Context, _ *session.Snapshot) { <-ctx.Done() }
	w := do(t, NewMux(svc), http.MethodPost, "/predict", "")
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestPredict_BaseContextCanceled(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	SetBaseContext(base)
	defer SetBaseContext(nil)
	svc := &mockService{snap: readySnapshot("x")}
	svc.onPredict = func(ctx context.Context, _ *session.Snapshot) {
		cancel()
		<-ctx.Done()
	}
	w := do(t, NewMux(svc), http.MethodPost, "/predict", "")
	// nothing is written once the server is shutting down
	if w.Body.Len() != 0 {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestResult_NeverPredicted(t *testing.T) {
	w := do(t, NewMux(&mockService{snap: readySnapshot("x")}), http.MethodGet, "/result", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"result":null`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	w := do(t, NewMux(&mockService{}), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	w := do(t, NewMux(&mockService{snap: readySnapshot("")}), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	w := do(t, NewMux(&mockService{}), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestNosniffHeader(t *testing.T) {
	w := do(t, NewMux(&mockService{}), http.MethodGet, "/healthz", "")
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q", got)
	}
}

func TestCORS_OptIn(t *testing.T) {
	SetCORSOptions(true, []string{"http://example.test"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	r := NewMux(&mockService{})

	req := httptest.NewRequest(http.MethodOptions, "/input", nil)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.test" {
		t.Fatalf("Allow-Origin=%q", got)
	}
}

func TestCORS_DisabledByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.test")
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Allow-Origin=%q", got)
	}
}
