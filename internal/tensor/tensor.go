// Package tensor holds the runtime's native numeric container.
//
// A Tensor is immutable once built. Accessors return copies so callers can
// never reach into a tensor shared between a predictor and the session.
package tensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DType identifies the element type of a tensor.
type DType string

const (
	Float32 DType = "float32"
	Int32   DType = "int32"
	String  DType = "string"
)

// Tensor is a dense, row-major n-dimensional value.
type Tensor struct {
	shape []int
	dtype DType
	nums  []float32
	strs  []string
}

// ErrEmpty is returned when a tensor would have no elements.
var ErrEmpty = errors.New("tensor: no values")

// New1D builds a one-dimensional tensor from the given values. All strings
// yield a string tensor; all numbers yield a float32 tensor.
func New1D(values ...any) (*Tensor, error) {
	if len(values) == 0 {
		return nil, ErrEmpty
	}
	if _, ok := values[0].(string); ok {
		strs := make([]string, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("tensor: mixed element kinds at index %d (%T)", i, v)
			}
			strs[i] = s
		}
		return &Tensor{shape: []int{len(strs)}, dtype: String, strs: strs}, nil
	}
	nums := make([]float32, len(values))
	for i, v := range values {
		f, err := toFloat32(v)
		if err != nil {
			return nil, fmt.Errorf("tensor: index %d: %w", i, err)
		}
		nums[i] = f
	}
	return &Tensor{shape: []int{len(nums)}, dtype: Float32, nums: nums}, nil
}

// FromFloat32 builds a float32 tensor. The product of shape must equal len(data).
func FromFloat32(shape []int, data []float32) (*Tensor, error) {
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("tensor: shape %v wants %d values, got %d", shape, n, len(data))
	}
	return &Tensor{
		shape: append([]int(nil), shape...),
		dtype: Float32,
		nums:  append([]float32(nil), data...),
	}, nil
}

func toFloat32(v any) (float32, error) {
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	case int:
		return float32(n), nil
	case int8:
		return float32(n), nil
	case int16:
		return float32(n), nil
	case int32:
		return float32(n), nil
	case int64:
		return float32(n), nil
	case uint:
		return float32(n), nil
	case uint8:
		return float32(n), nil
	case uint16:
		return float32(n), nil
	case uint32:
		return float32(n), nil
	case uint64:
		return float32(n), nil
	default:
		return 0, fmt.Errorf("unsupported element kind %T", v)
	}
}

func numElements(shape []int) (int, error) {
	if len(shape) == 0 {
		return 1, nil
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("tensor: negative dimension in shape %v", shape)
		}
		n *= d
	}
	return n, nil
}

func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

func (t *Tensor) DType() DType { return t.dtype }

// Size is the number of elements.
func (t *Tensor) Size() int {
	if t.dtype == String {
		return len(t.strs)
	}
	return len(t.nums)
}

// Strings returns the elements of a string tensor, or nil for numeric tensors.
func (t *Tensor) Strings() []string {
	if t.dtype != String {
		return nil
	}
	return append([]string(nil), t.strs...)
}

// Float32s returns the elements of a numeric tensor, or nil for string tensors.
func (t *Tensor) Float32s() []float32 {
	if t.dtype == String {
		return nil
	}
	return append([]float32(nil), t.nums...)
}

// String renders the tensor as
//
//	Tensor
//	    [[0.25, 0.75]]
//
// which is the representation shown in the result region.
func (t *Tensor) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("Tensor\n    ")
	if len(t.shape) == 0 {
		b.WriteString(t.elem(0))
		return b.String()
	}
	off := 0
	t.writeDim(&b, 0, &off)
	return b.String()
}

func (t *Tensor) writeDim(b *strings.Builder, dim int, off *int) {
	b.WriteByte('[')
	for i := 0; i < t.shape[dim]; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if dim == len(t.shape)-1 {
			b.WriteString(t.elem(*off))
			*off++
			continue
		}
		t.writeDim(b, dim+1, off)
	}
	b.WriteByte(']')
}

func (t *Tensor) elem(i int) string {
	if t.dtype == String {
		return strconv.Quote(t.strs[i])
	}
	return strconv.FormatFloat(float64(t.nums[i]), 'g', 7, 32)
}
