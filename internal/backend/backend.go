// Package backend provides the numerical runtimes a session can run on.
//
// A Runtime is initialized once, then loads a model bundle into a Predictor.
// Backends register themselves by name; New looks them up. The cpu backend is
// always compiled in. The llama backend needs `-tags=llama`; without the tag it
// is still listed but fails to initialize with a dependency-unavailable error.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"textpredict/internal/bundle"
	"textpredict/internal/tensor"
)

// Runtime is the capability surface the session needs from an ML runtime.
type Runtime interface {
	// Initialize prepares the runtime and returns the active backend name.
	Initialize(ctx context.Context) (string, error)
	// LoadModel assembles a bundle into a ready-to-use Predictor.
	LoadModel(ctx context.Context, b *bundle.Bundle) (Predictor, error)
	// MakeTensor builds a one-dimensional input tensor.
	MakeTensor(values ...any) (*tensor.Tensor, error)
}

// Predictor is a loaded model. A nil tensor with a nil error means the model
// produced nothing for the input.
type Predictor interface {
	Predict(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error)
}

// Options carries backend tunables. Backends ignore fields they do not use.
type Options struct {
	LlamaCtx     int
	LlamaThreads int
}

// Factory constructs an uninitialized Runtime.
type Factory func(Options) Runtime

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register makes a backend available under name. Registering the same name
// twice panics.
func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("backend: %q registered twice", name))
	}
	registry[name] = f
}

// New returns an uninitialized runtime for the named backend.
func New(name string, opts Options) (Runtime, error) {
	regMu.RLock()
	f, ok := registry[name]
	regMu.RUnlock()
	if !ok {
		return nil, unknownBackendError{name: name}
	}
	return f(opts), nil
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
