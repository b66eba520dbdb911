package backend

import (
	"context"
	"fmt"
	"sync/atomic"

	"textpredict/internal/bundle"
	"textpredict/internal/tensor"
)

// CPU is the name of the pure-Go backend.
const CPU = "cpu"

func init() {
	Register(CPU, func(Options) Runtime { return &cpuRuntime{} })
}

// cpuRuntime runs small Sequential text models in plain Go.
type cpuRuntime struct {
	ready atomic.Bool
}

func (r *cpuRuntime) Initialize(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.ready.Store(true)
	return CPU, nil
}

func (r *cpuRuntime) LoadModel(ctx context.Context, b *bundle.Bundle) (Predictor, error) {
	if !r.ready.Load() {
		return nil, ErrNotReady
	}
	if b == nil {
		return nil, fmt.Errorf("cpu: nil bundle")
	}
	if b.Format() == bundle.FormatGGUF {
		return nil, fmt.Errorf("cpu: %s bundles need the llama backend", bundle.FormatGGUF)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	specs, err := decodeSequential(b.Topology())
	if err != nil {
		return nil, fmt.Errorf("cpu: %w", err)
	}
	weights, err := b.Weights()
	if err != nil {
		return nil, fmt.Errorf("cpu: %w", err)
	}
	m, err := buildModel(specs, weights)
	if err != nil {
		return nil, fmt.Errorf("cpu: %w", err)
	}
	return m, nil
}

func (r *cpuRuntime) MakeTensor(values ...any) (*tensor.Tensor, error) {
	return tensor.New1D(values...)
}
