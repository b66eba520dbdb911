package e2e

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"textpredict/internal/backend"
	"textpredict/internal/bundle"
	"textpredict/internal/bundle/bundletest"
	"textpredict/internal/tensor"
)

const stubBackend = "e2e-stub"

var sentinel, _ = tensor.FromFloat32([]int{1, 3}, []float32{0.125, 0.5, 0.875})

// stubRuntime only serves bundles with exactly two shards, and its predictor
// answers the sentinel for ["test"] and nil for anything else.
type stubRuntime struct{}

func (stubRuntime) Initialize(context.Context) (string, error) { return "stub", nil }

func (stubRuntime) LoadModel(_ context.Context, b *bundle.Bundle) (backend.Predictor, error) {
	if b.ShardCount() != 2 {
		return nil, errShards
	}
	return stubPredictor{}, nil
}

func (stubRuntime) MakeTensor(values ...any) (*tensor.Tensor, error) { return tensor.New1D(values...) }

type stubPredictor struct{}

func (stubPredictor) Predict(_ context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	if s := in.Strings(); len(s) == 1 && s[0] == "test" {
		return sentinel, nil
	}
	return nil, nil
}

var errShards = errors.New("stub runtime wants two shards")

func init() {
	backend.Register(stubBackend, func(backend.Options) backend.Runtime { return stubRuntime{} })
}

func TestE2E_SentinelScenario(t *testing.T) {
	srv, app := newServer(t, stubBackend, bundletest.MapFS(bundletest.Topology, 2))

	st := getStatus(t, srv.URL)
	if st.RuntimeReady || st.ModelReady || st.CanPredict {
		t.Fatalf("status before mount: %+v", st)
	}
	if resp, _ := httpDo(t, http.MethodGet, srv.URL+"/readyz", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before mount: %d", resp.StatusCode)
	}

	mount(t, app)
	putInput(t, srv.URL, "test")
	res := postPredict(t, srv.URL)
	if !res.ResultReady || res.Result == nil || *res.Result != sentinel.String() {
		t.Fatalf("result: %+v", res)
	}

	st = getStatus(t, srv.URL)
	want := []string{"Runtime : ready", "Backend: stub", "Model: ready", "Prediction: ready"}
	if strings.Join(st.Lines, "|") != strings.Join(want, "|") {
		t.Fatalf("lines=%q", st.Lines)
	}
	if resp, _ := httpDo(t, http.MethodGet, srv.URL+"/readyz", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz after mount: %d", resp.StatusCode)
	}

	// An empty prediction keeps the sentinel but with presentation not ready.
	putInput(t, srv.URL, "other")
	res = postPredict(t, srv.URL)
	if res.ResultReady {
		t.Fatal("nil result must leave prediction not ready")
	}
	if res.Result == nil || *res.Result != sentinel.String() {
		t.Fatalf("previous result lost: %+v", res)
	}
}

func TestE2E_HelloWorldCPU(t *testing.T) {
	srv, app := newServer(t, backend.CPU, bundletest.SentimentBundle(2))
	mount(t, app)

	st := getStatus(t, srv.URL)
	if !st.RuntimeReady || st.Backend != backend.CPU || !st.ModelReady {
		t.Fatalf("status after mount: %+v", st)
	}
	if st.CanPredict {
		t.Fatal("cannot predict without input")
	}

	putInput(t, srv.URL, "hello world")
	res := postPredict(t, srv.URL)
	if !res.ResultReady || res.Result == nil {
		t.Fatalf("result: %+v", res)
	}
	if *res.Result != "Tensor\n    [[1]]" {
		t.Fatalf("result=%q", *res.Result)
	}

	resp, body := httpDo(t, http.MethodGet, srv.URL+"/result", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"result_ready":true`) {
		t.Fatalf("/result: %d %s", resp.StatusCode, body)
	}
}

func TestE2E_MissingShardLeavesModelNotReady(t *testing.T) {
	fsys := bundletest.MapFS(bundletest.Topology, 2)
	delete(fsys, "group1-shard2of2.bin")
	srv, app := newServer(t, stubBackend, fsys)
	mount(t, app)

	st := getStatus(t, srv.URL)
	if !st.RuntimeReady || st.ModelReady {
		t.Fatalf("status: %+v", st)
	}
	putInput(t, srv.URL, "test")
	res := postPredict(t, srv.URL)
	if res.ResultReady || res.Result != nil {
		t.Fatalf("predict without model must be a no-op: %+v", res)
	}
}

func TestE2E_MetricsExposed(t *testing.T) {
	srv, app := newServer(t, stubBackend, bundletest.MapFS(bundletest.Topology, 2))
	mount(t, app)
	putInput(t, srv.URL, "test")
	postPredict(t, srv.URL)

	resp, body := httpDo(t, http.MethodGet, srv.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics: %d", resp.StatusCode)
	}
	for _, name := range []string{
		"textpredict_http_requests_total",
		"textpredict_session_predictions_total",
		"textpredict_session_model_ready",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics missing %s", name)
		}
	}
}
