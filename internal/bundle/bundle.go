// Package bundle reads a sharded model resource bundle: one JSON manifest
// describing the model plus the binary weight shards it lists.
//
// The manifest follows the layers-model converter layout:
//
//	{
//	  "format": "layers-model",
//	  "modelTopology": {...},
//	  "weightsManifest": [
//	    {"paths": ["group1-shard1of2.bin", "group1-shard2of2.bin"],
//	     "weights": [{"name": "dense/kernel", "shape": [4, 1], "dtype": "float32"}]}
//	  ]
//	}
//
// Shard paths are resolved relative to the manifest's directory.
package bundle

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"textpredict/internal/tensor"
)

// DefaultManifest is the manifest file name used when none is configured.
const DefaultManifest = "model.json"

// FormatGGUF marks a bundle whose shards are split GGUF files. Their bytes are
// not read into memory; Load only checks that every shard exists.
const FormatGGUF = "gguf"

// Manifest is the decoded structural description.
type Manifest struct {
	Format          string          `json:"format"`
	GeneratedBy     string          `json:"generatedBy,omitempty"`
	ConvertedBy     string          `json:"convertedBy,omitempty"`
	ModelTopology   json.RawMessage `json:"modelTopology"`
	WeightsManifest []WeightGroup   `json:"weightsManifest"`
}

// WeightGroup is one set of shards whose concatenated bytes hold Weights in order.
type WeightGroup struct {
	Paths   []string     `json:"paths"`
	Weights []WeightSpec `json:"weights"`
}

// WeightSpec names one tensor inside a group.
type WeightSpec struct {
	Name         string          `json:"name"`
	Shape        []int           `json:"shape"`
	DType        string          `json:"dtype"`
	Quantization json.RawMessage `json:"quantization,omitempty"`
}

// Bundle is a fully read model bundle. It is never partially constructed:
// Load either returns every shard or an error.
type Bundle struct {
	// root is the on-disk directory fsys was opened from, when known
	root         string
	manifestPath string
	manifest     Manifest
	// shards[g][i] is the i-th shard of group g
	shards [][][]byte
}

var shardName = regexp.MustCompile(`shard(\d+)of(\d+)\.bin$`)

// Load reads the manifest at manifestPath from fsys and every shard it lists.
func Load(ctx context.Context, fsys fs.FS, manifestPath string) (*Bundle, error) {
	if manifestPath == "" {
		manifestPath = DefaultManifest
	}
	raw, err := fs.ReadFile(fsys, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	base := path.Dir(manifestPath)
	b := &Bundle{manifestPath: manifestPath, manifest: m, shards: make([][][]byte, len(m.WeightsManifest))}
	for g, grp := range m.WeightsManifest {
		for i, p := range grp.Paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := checkShardName(p, i, len(grp.Paths)); err != nil {
				return nil, err
			}
			if m.Format == FormatGGUF {
				if _, err := fs.Stat(fsys, path.Join(base, p)); err != nil {
					return nil, fmt.Errorf("stat shard %s: %w", p, err)
				}
				b.shards[g] = append(b.shards[g], nil)
				continue
			}
			data, err := fs.ReadFile(fsys, path.Join(base, p))
			if err != nil {
				return nil, fmt.Errorf("read shard %s: %w", p, err)
			}
			b.shards[g] = append(b.shards[g], data)
		}
		if len(grp.Weights) == 0 {
			continue
		}
		if want, got := grp.byteLen(), b.groupLen(g); want >= 0 && want != got {
			return nil, fmt.Errorf("weight group %d: shards hold %d bytes, weights need %d", g, got, want)
		}
	}
	return b, nil
}

// LoadDir is Load over an OS directory. A leading '~' in dir is expanded.
func LoadDir(ctx context.Context, dir, manifestPath string) (*Bundle, error) {
	abs, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}
	b, err := Load(ctx, os.DirFS(abs), manifestPath)
	if err != nil {
		return nil, err
	}
	b.root = abs
	return b, nil
}

// ParseManifest decodes and validates a manifest without touching shards.
func ParseManifest(raw []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	if t := strings.TrimSpace(string(m.ModelTopology)); t == "" || t == "null" {
		return m, fmt.Errorf("manifest has no modelTopology")
	}
	shards := 0
	for _, g := range m.WeightsManifest {
		shards += len(g.Paths)
		for _, w := range g.Weights {
			if err := checkShape(w.Shape); err != nil {
				return m, fmt.Errorf("weight %s: %w", w.Name, err)
			}
		}
	}
	if shards == 0 {
		return m, fmt.Errorf("manifest lists no weight shards")
	}
	return m, nil
}

// checkShardName verifies a conventional groupK-shardIofN.bin name agrees with
// its position. Names that do not follow the convention are accepted as-is.
func checkShardName(p string, idx, count int) error {
	sm := shardName.FindStringSubmatch(p)
	if sm == nil {
		return nil
	}
	i, _ := strconv.Atoi(sm[1])
	n, _ := strconv.Atoi(sm[2])
	if i != idx+1 || n != count {
		return fmt.Errorf("shard %s: expected shard %dof%d", p, idx+1, count)
	}
	return nil
}

// byteLen returns the total bytes required by the group's weights, or -1 when
// any weight has a dtype whose width is unknown.
func (g WeightGroup) byteLen() int {
	total := 0
	for _, w := range g.Weights {
		width := dtypeWidth(w.DType)
		if width < 0 || len(w.Quantization) > 0 {
			return -1
		}
		total += width * elements(w.Shape)
	}
	return total
}

func (b *Bundle) groupLen(g int) int {
	n := 0
	for _, s := range b.shards[g] {
		n += len(s)
	}
	return n
}

func dtypeWidth(dt string) int {
	switch dt {
	case "float32", "int32", "":
		return 4
	default:
		return -1
	}
}

// checkShape rejects negative dimensions and shapes whose byte size at the
// widest supported dtype would overflow an int.
func checkShape(shape []int) error {
	n := 4
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", shape)
		}
		if d > 0 && n > math.MaxInt/d {
			return fmt.Errorf("shape %v is too large", shape)
		}
		n *= d
	}
	return nil
}

// elements assumes shape already passed checkShape.
func elements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Manifest returns the decoded manifest.
func (b *Bundle) Manifest() Manifest { return b.manifest }

// ManifestPath is the path the bundle was loaded from.
func (b *Bundle) ManifestPath() string { return b.manifestPath }

// Format is the manifest's declared format, e.g. "layers-model".
func (b *Bundle) Format() string { return b.manifest.Format }

// Topology is the raw, undecoded model topology.
func (b *Bundle) Topology() json.RawMessage { return b.manifest.ModelTopology }

// ShardCount is the number of shards across all weight groups.
func (b *Bundle) ShardCount() int {
	n := 0
	for _, g := range b.shards {
		n += len(g)
	}
	return n
}

// Root is the on-disk directory the bundle was loaded from, or "" when it
// came from an arbitrary fs.FS.
func (b *Bundle) Root() string { return b.root }

// ShardPaths returns every shard path resolved against the manifest directory.
// When the bundle came from LoadDir the paths are absolute OS paths.
func (b *Bundle) ShardPaths() []string {
	base := path.Dir(b.manifestPath)
	var out []string
	for _, g := range b.manifest.WeightsManifest {
		for _, p := range g.Paths {
			rel := path.Join(base, p)
			if b.root != "" {
				rel = filepath.Join(b.root, filepath.FromSlash(rel))
			}
			out = append(out, rel)
		}
	}
	return out
}

// Size is the total number of shard bytes.
func (b *Bundle) Size() int64 {
	var n int64
	for g := range b.shards {
		n += int64(b.groupLen(g))
	}
	return n
}

// Weights decodes every weight tensor, keyed by name.
func (b *Bundle) Weights() (map[string]*tensor.Tensor, error) {
	out := make(map[string]*tensor.Tensor)
	for g, grp := range b.manifest.WeightsManifest {
		buf := make([]byte, 0, b.groupLen(g))
		for _, s := range b.shards[g] {
			buf = append(buf, s...)
		}
		off := 0
		for _, w := range grp.Weights {
			if len(w.Quantization) > 0 {
				return nil, fmt.Errorf("weight %s: quantized weights are not supported", w.Name)
			}
			if dtypeWidth(w.DType) < 0 {
				return nil, fmt.Errorf("weight %s: unsupported dtype %q", w.Name, w.DType)
			}
			n := elements(w.Shape)
			end := off + 4*n
			if end > len(buf) {
				return nil, fmt.Errorf("weight %s: shard data truncated", w.Name)
			}
			vals := make([]float32, n)
			for i := range vals {
				bits := binary.LittleEndian.Uint32(buf[off+4*i:])
				if w.DType == "int32" {
					vals[i] = float32(int32(bits))
				} else {
					vals[i] = math.Float32frombits(bits)
				}
			}
			t, err := tensor.FromFloat32(w.Shape, vals)
			if err != nil {
				return nil, fmt.Errorf("weight %s: %w", w.Name, err)
			}
			out[w.Name] = t
			off = end
		}
	}
	return out, nil
}
