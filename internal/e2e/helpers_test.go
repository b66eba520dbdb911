package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"textpredict/internal/backend"
	"textpredict/internal/bundle/bundletest"
	"textpredict/internal/httpapi"
	"textpredict/internal/session"
	"textpredict/pkg/types"
)

// newServer writes fsys to a temp dir, builds a session over the named
// backend and serves it. The session is not mounted.
func newServer(t *testing.T, backendName string, fsys fstest.MapFS) (*httptest.Server, *session.App) {
	t.Helper()
	dir := t.TempDir()
	bundletest.WriteDir(t, dir, fsys)
	rt, err := backend.New(backendName, backend.Options{})
	if err != nil {
		t.Fatalf("backend %s: %v", backendName, err)
	}
	app := session.New(session.Config{Runtime: rt, BundleDir: dir})
	t.Cleanup(func() { _ = app.Close() })
	srv := httptest.NewServer(httpapi.NewMux(app))
	t.Cleanup(srv.Close)
	return srv, app
}

func mount(t *testing.T, app *session.App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.Mount(ctx)
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func getStatus(t *testing.T, base string) types.StatusResponse {
	t.Helper()
	resp, body := httpDo(t, http.MethodGet, base+"/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/status: %d %s", resp.StatusCode, body)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return st
}

func putInput(t *testing.T, base, text string) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"text": text})
	resp, body := httpDo(t, http.MethodPut, base+"/input", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /input: %d %s", resp.StatusCode, body)
	}
}

func postPredict(t *testing.T, base string) types.ResultResponse {
	t.Helper()
	resp, body := httpDo(t, http.MethodPost, base+"/predict", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /predict: %d %s", resp.StatusCode, body)
	}
	var r types.ResultResponse
	if err := json.Unmarshal(body, &r); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return r
}
