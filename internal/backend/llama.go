//go:build llama

package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	llama "github.com/go-skynet/go-llama.cpp"

	"textpredict/internal/bundle"
	"textpredict/internal/tensor"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

// llamaRuntime loads split GGUF bundles in-process and predicts embeddings.
type llamaRuntime struct {
	ctxSize int
	threads int
	ready   atomic.Bool
}

func newLlamaRuntime(opts Options) Runtime {
	return &llamaRuntime{ctxSize: zn(opts.LlamaCtx, 512), threads: zn(opts.LlamaThreads, 4)}
}

func (r *llamaRuntime) Initialize(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.ready.Store(true)
	return LlamaBackendName, nil
}

func (r *llamaRuntime) LoadModel(ctx context.Context, b *bundle.Bundle) (Predictor, error) {
	if !r.ready.Load() {
		return nil, ErrNotReady
	}
	if b == nil || b.Format() != bundle.FormatGGUF {
		return nil, fmt.Errorf("llama: bundle format must be %q", bundle.FormatGGUF)
	}
	if b.Root() == "" {
		return nil, errors.New("llama: bundle must be loaded from a directory on disk")
	}
	paths := b.ShardPaths()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// llama.cpp follows split GGUF files from the first shard
	m, err := llama.New(paths[0], llama.SetContext(r.ctxSize), llama.EnableEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("llama: load %s: %w", paths[0], err)
	}
	return &llamaPredictor{model: m, threads: r.threads}, nil
}

func (r *llamaRuntime) MakeTensor(values ...any) (*tensor.Tensor, error) {
	return tensor.New1D(values...)
}

// llamaPredictor owns the loaded model. llama.cpp contexts are not safe for
// concurrent use, so calls are serialized.
type llamaPredictor struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

func (p *llamaPredictor) Predict(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	if in == nil || in.DType() != tensor.String {
		return nil, errors.New("llama: input must be a string tensor")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil, errors.New("llama: model closed")
	}
	var out []float32
	dim := 0
	texts := in.Strings()
	for _, s := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := p.model.Embeddings(s, llama.SetThreads(p.threads))
		if err != nil {
			return nil, fmt.Errorf("llama: embeddings: %w", err)
		}
		dim = len(emb)
		out = append(out, emb...)
	}
	return tensor.FromFloat32([]int{len(texts), dim}, out)
}

func (p *llamaPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model != nil {
		p.model.Free()
		p.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
