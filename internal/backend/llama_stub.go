//go:build !llama

package backend

import (
	"context"

	"textpredict/internal/bundle"
	"textpredict/internal/tensor"
)

// llamaBuilt indicates this binary was compiled without llama support.
const llamaBuilt = false

// llamaStub is registered so the backend shows up in listings; it never
// becomes ready.
type llamaStub struct{}

func newLlamaRuntime(Options) Runtime { return llamaStub{} }

func (llamaStub) Initialize(context.Context) (string, error) {
	return "", ErrDependencyUnavailable("llama backend not built (rebuild with -tags=llama)")
}

func (llamaStub) LoadModel(context.Context, *bundle.Bundle) (Predictor, error) {
	return nil, ErrNotReady
}

func (llamaStub) MakeTensor(values ...any) (*tensor.Tensor, error) {
	return tensor.New1D(values...)
}
