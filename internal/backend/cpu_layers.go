package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"textpredict/internal/tensor"
)

type layerSpec struct {
	ClassName string          `json:"class_name"`
	Config    json.RawMessage `json:"config"`
}

type layerConfig struct {
	Name       string `json:"name"`
	InputDim   int    `json:"input_dim"`
	OutputDim  int    `json:"output_dim"`
	Units      int    `json:"units"`
	Activation string `json:"activation"`
	UseBias    *bool  `json:"use_bias"`
}

// decodeSequential accepts either a bare Sequential graph or one wrapped in
// {"model_config": ...} as written by the layers-model converter.
func decodeSequential(raw json.RawMessage) ([]layerSpec, error) {
	var wrapped struct {
		ModelConfig json.RawMessage `json:"model_config"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if len(wrapped.ModelConfig) > 0 {
		raw = wrapped.ModelConfig
	}
	var top struct {
		ClassName string `json:"class_name"`
		Config    struct {
			Layers []layerSpec `json:"layers"`
		} `json:"config"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if top.ClassName != "Sequential" {
		return nil, fmt.Errorf("unsupported model class %q", top.ClassName)
	}
	if len(top.Config.Layers) == 0 {
		return nil, errors.New("topology has no layers")
	}
	return top.Config.Layers, nil
}

// seq is one batch item: a sequence of feature vectors.
type seq [][]float32

type layer interface {
	forward(x seq) (seq, error)
}

type cpuModel struct {
	embed  *embedding
	layers []layer
}

func buildModel(specs []layerSpec, weights map[string]*tensor.Tensor) (*cpuModel, error) {
	m := &cpuModel{}
	for i, s := range specs {
		var cfg layerConfig
		if len(s.Config) > 0 {
			if err := json.Unmarshal(s.Config, &cfg); err != nil {
				return nil, fmt.Errorf("layer %d (%s): %w", i, s.ClassName, err)
			}
		}
		switch s.ClassName {
		case "InputLayer", "Dropout":
			// identity at inference time
		case "Embedding":
			if i != firstComputeLayer(specs) {
				return nil, fmt.Errorf("layer %d: Embedding must be the first layer", i)
			}
			w, err := lookupWeight(weights, cfg.Name, "embeddings")
			if err != nil {
				return nil, err
			}
			sh := w.Shape()
			if len(sh) != 2 || (cfg.InputDim > 0 && sh[0] != cfg.InputDim) {
				return nil, fmt.Errorf("layer %s: embeddings shape %v does not match input_dim %d", cfg.Name, sh, cfg.InputDim)
			}
			if sh[0] == 0 || sh[1] == 0 {
				return nil, fmt.Errorf("layer %s: embeddings shape %v has an empty dimension", cfg.Name, sh)
			}
			m.embed = &embedding{rows: sh[0], dim: sh[1], table: w.Float32s()}
		case "GlobalAveragePooling1D":
			m.layers = append(m.layers, pooling{})
		case "Dense":
			d, err := newDense(cfg, weights)
			if err != nil {
				return nil, err
			}
			m.layers = append(m.layers, d)
		default:
			return nil, fmt.Errorf("layer %d: unsupported layer class %q", i, s.ClassName)
		}
	}
	return m, nil
}

func firstComputeLayer(specs []layerSpec) int {
	for i, s := range specs {
		if s.ClassName != "InputLayer" {
			return i
		}
	}
	return -1
}

// lookupWeight finds layer/param, allowing a model-name prefix such as
// "sequential/dense/kernel".
func lookupWeight(weights map[string]*tensor.Tensor, layerName, param string) (*tensor.Tensor, error) {
	key := layerName + "/" + param
	if w, ok := weights[key]; ok {
		return w, nil
	}
	for name, w := range weights {
		if strings.HasSuffix(name, "/"+key) {
			return w, nil
		}
	}
	return nil, fmt.Errorf("missing weight %s", key)
}

// Predict runs every element of a 1-D input through the model and returns a
// [batch, units] tensor.
func (m *cpuModel) Predict(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	if in == nil {
		return nil, errors.New("cpu: nil input tensor")
	}
	if len(in.Shape()) != 1 {
		return nil, fmt.Errorf("cpu: want a 1-D input, got shape %v", in.Shape())
	}
	items, err := m.inputs(in)
	if err != nil {
		return nil, err
	}
	var out []float32
	units := -1
	for _, x := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, l := range m.layers {
			if x, err = l.forward(x); err != nil {
				return nil, fmt.Errorf("cpu: %w", err)
			}
		}
		if len(x) != 1 {
			return nil, fmt.Errorf("cpu: model output has %d steps per item, want 1 (missing pooling?)", len(x))
		}
		if units >= 0 && len(x[0]) != units {
			return nil, errors.New("cpu: ragged output")
		}
		units = len(x[0])
		out = append(out, x[0]...)
	}
	return tensor.FromFloat32([]int{len(items), units}, out)
}

func (m *cpuModel) inputs(in *tensor.Tensor) ([]seq, error) {
	if m.embed != nil {
		if in.DType() == tensor.String {
			strs := in.Strings()
			items := make([]seq, len(strs))
			for i, s := range strs {
				items[i] = m.embed.lookupText(s)
			}
			return items, nil
		}
		vals := in.Float32s()
		idx := make([]int, len(vals))
		for i, v := range vals {
			idx[i] = int(v)
		}
		x, err := m.embed.lookup(idx)
		if err != nil {
			return nil, err
		}
		// numeric input to an embedding is one token sequence
		return []seq{x}, nil
	}
	if in.DType() == tensor.String {
		return nil, errors.New("cpu: model has no embedding layer for text input")
	}
	vals := in.Float32s()
	items := make([]seq, len(vals))
	for i, v := range vals {
		items[i] = seq{{v}}
	}
	return items, nil
}

type embedding struct {
	rows, dim int
	table     []float32
}

// lookupText maps lower-cased whitespace tokens onto rows by FNV-1a hash.
func (e *embedding) lookupText(s string) seq {
	toks := strings.Fields(strings.ToLower(s))
	x := make(seq, len(toks))
	for i, tok := range toks {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		x[i] = e.row(int(h.Sum32() % uint32(e.rows)))
	}
	return x
}

func (e *embedding) lookup(idx []int) (seq, error) {
	x := make(seq, len(idx))
	for i, r := range idx {
		if r < 0 || r >= e.rows {
			return nil, fmt.Errorf("cpu: embedding index %d out of range [0,%d)", r, e.rows)
		}
		x[i] = e.row(r)
	}
	return x, nil
}

func (e *embedding) row(r int) []float32 {
	return append([]float32(nil), e.table[r*e.dim:(r+1)*e.dim]...)
}

// pooling averages a sequence into one step. An empty sequence pools to nil,
// which a following Dense layer treats as zeros.
type pooling struct{}

func (pooling) forward(x seq) (seq, error) {
	if len(x) == 0 {
		return seq{nil}, nil
	}
	dim := len(x[0])
	avg := make([]float32, dim)
	for _, v := range x {
		for j := range avg {
			avg[j] += v[j]
		}
	}
	for j := range avg {
		avg[j] /= float32(len(x))
	}
	return seq{avg}, nil
}

type dense struct {
	name       string
	in, units  int
	kernel     []float32
	bias       []float32
	activation func([]float32)
}

func newDense(cfg layerConfig, weights map[string]*tensor.Tensor) (*dense, error) {
	k, err := lookupWeight(weights, cfg.Name, "kernel")
	if err != nil {
		return nil, err
	}
	sh := k.Shape()
	if len(sh) != 2 || (cfg.Units > 0 && sh[1] != cfg.Units) {
		return nil, fmt.Errorf("layer %s: kernel shape %v does not match units %d", cfg.Name, sh, cfg.Units)
	}
	act, err := activationFunc(cfg.Activation)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", cfg.Name, err)
	}
	d := &dense{name: cfg.Name, in: sh[0], units: sh[1], kernel: k.Float32s(), activation: act}
	if cfg.UseBias == nil || *cfg.UseBias {
		b, err := lookupWeight(weights, cfg.Name, "bias")
		if err != nil {
			return nil, err
		}
		if b.Size() != d.units {
			return nil, fmt.Errorf("layer %s: bias has %d values, want %d", cfg.Name, b.Size(), d.units)
		}
		d.bias = b.Float32s()
	}
	return d, nil
}

func (d *dense) forward(x seq) (seq, error) {
	out := make(seq, len(x))
	for s, v := range x {
		if v != nil && len(v) != d.in {
			return nil, fmt.Errorf("layer %s: input width %d, want %d", d.name, len(v), d.in)
		}
		y := make([]float32, d.units)
		for u := 0; u < d.units; u++ {
			var acc float32
			for i, xi := range v {
				acc += xi * d.kernel[i*d.units+u]
			}
			if d.bias != nil {
				acc += d.bias[u]
			}
			y[u] = acc
		}
		d.activation(y)
		out[s] = y
	}
	return out, nil
}

func activationFunc(name string) (func([]float32), error) {
	switch name {
	case "", "linear":
		return func([]float32) {}, nil
	case "relu":
		return func(v []float32) {
			for i := range v {
				if v[i] < 0 {
					v[i] = 0
				}
			}
		}, nil
	case "sigmoid":
		return func(v []float32) {
			for i := range v {
				v[i] = float32(1 / (1 + math.Exp(-float64(v[i]))))
			}
		}, nil
	case "tanh":
		return func(v []float32) {
			for i := range v {
				v[i] = float32(math.Tanh(float64(v[i])))
			}
		}, nil
	case "softmax":
		return func(v []float32) {
			if len(v) == 0 {
				return
			}
			hi := v[0]
			for _, x := range v[1:] {
				hi = max(hi, x)
			}
			var sum float64
			for i := range v {
				e := math.Exp(float64(v[i] - hi))
				v[i] = float32(e)
				sum += e
			}
			for i := range v {
				v[i] = float32(float64(v[i]) / sum)
			}
		}, nil
	default:
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
}
