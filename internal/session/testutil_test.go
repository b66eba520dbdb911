package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"textpredict/internal/backend"
	"textpredict/internal/bundle"
	"textpredict/internal/bundle/bundletest"
	"textpredict/internal/tensor"
)

// fakeRuntime is an in-memory runtime. LoadModel checks the bundle it is
// handed really was read from shards.
type fakeRuntime struct {
	name      string
	initErr   error
	initDelay time.Duration
	loadErr   error
	predictor backend.Predictor
	// initPanic and loadPanic, when set, are raised by the matching call
	initPanic any
	loadPanic any

	initCalls atomic.Int32
	loadCalls atomic.Int32
	initDone  atomic.Bool
	// loadSawInit records whether Initialize had returned when LoadModel began
	loadSawInit atomic.Bool
	shards      atomic.Int32
}

func (f *fakeRuntime) Initialize(ctx context.Context) (string, error) {
	f.initCalls.Add(1)
	if f.initDelay > 0 {
		time.Sleep(f.initDelay)
	}
	defer f.initDone.Store(true)
	if f.initPanic != nil {
		panic(f.initPanic)
	}
	if f.initErr != nil {
		return "", f.initErr
	}
	if f.name == "" {
		return "fake", nil
	}
	return f.name, nil
}

func (f *fakeRuntime) LoadModel(ctx context.Context, b *bundle.Bundle) (backend.Predictor, error) {
	f.loadCalls.Add(1)
	f.loadSawInit.Store(f.initDone.Load())
	f.shards.Store(int32(b.ShardCount()))
	if f.loadPanic != nil {
		panic(f.loadPanic)
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.predictor, nil
}

func (f *fakeRuntime) MakeTensor(values ...any) (*tensor.Tensor, error) {
	return tensor.New1D(values...)
}

// funcPredictor adapts a function to backend.Predictor.
type funcPredictor func(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error)

func (f funcPredictor) Predict(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	return f(ctx, in)
}

// echoPredictor returns a one-element float tensor whose value is the input
// length, so results can be traced back to the text that produced them.
func echoPredictor() funcPredictor {
	return func(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
		return tensor.FromFloat32([]int{1, 1}, []float32{float32(len(in.Strings()[0]))})
	}
}

// gatedPredictor blocks each call until the test releases its input.
type gatedPredictor struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
	values  map[string]float32
	closed  atomic.Bool
}

func newGatedPredictor(values map[string]float32) *gatedPredictor {
	g := &gatedPredictor{gates: map[string]chan struct{}{}, started: make(chan string, 8), values: values}
	for k := range values {
		g.gates[k] = make(chan struct{})
	}
	return g
}

func (g *gatedPredictor) Predict(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	text := in.Strings()[0]
	g.mu.Lock()
	gate, ok := g.gates[text]
	g.mu.Unlock()
	if !ok {
		return nil, errors.New("unexpected input " + text)
	}
	g.started <- text
	<-gate
	return tensor.FromFloat32([]int{1, 1}, []float32{g.values[text]})
}

func (g *gatedPredictor) release(text string) { close(g.gates[text]) }

func (g *gatedPredictor) waitStarted(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		if got != want {
			t.Fatalf("started %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("predict for %q never started", want)
	}
}

func (g *gatedPredictor) Close() error {
	g.closed.Store(true)
	return nil
}

func twoShardFS() fstest.MapFS {
	return bundletest.MapFS(bundletest.Topology, 2,
		bundletest.Weight{Name: "w", Shape: []int{2}, Values: []float32{1, 2}},
	)
}

// newTestApp builds an App over rt with a 2-shard bundle and a memory publisher.
func newTestApp(rt backend.Runtime) (*App, *MemoryPublisher) {
	pub := NewMemoryPublisher()
	return New(Config{Runtime: rt, BundleFS: twoShardFS(), Publisher: pub}), pub
}

// mountedApp returns an App whose predictor is p, already mounted.
func mountedApp(t *testing.T, p backend.Predictor) (*App, *MemoryPublisher) {
	t.Helper()
	a, pub := newTestApp(&fakeRuntime{predictor: p})
	a.Mount(testCtx(t))
	if !a.Snapshot().PredictorReady {
		t.Fatalf("predictor not ready after mount")
	}
	return a, pub
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func countEvents(pub *MemoryPublisher, name string) int {
	n := 0
	for _, got := range pub.Names() {
		if got == name {
			n++
		}
	}
	return n
}
