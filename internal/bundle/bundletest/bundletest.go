// Package bundletest builds small in-memory model bundles for tests.
package bundletest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

// Weight is one named float32 tensor to pack into the shards.
type Weight struct {
	Name   string
	Shape  []int
	Values []float32
}

// Topology is a minimal stand-in layer graph for runtimes that do not read it.
const Topology = `{"class_name":"Sequential","config":{"name":"stub","layers":[]}}`

// MapFS packs weights little-endian into shards equally sized files named
// group1-shardIofN.bin and writes a model.json manifest next to them.
func MapFS(topology string, shards int, weights ...Weight) fstest.MapFS {
	if shards < 1 {
		shards = 1
	}
	var buf []byte
	specs := make([]map[string]any, 0, len(weights))
	for _, w := range weights {
		for _, v := range w.Values {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
		specs = append(specs, map[string]any{"name": w.Name, "shape": w.Shape, "dtype": "float32"})
	}
	fsys := fstest.MapFS{}
	paths := make([]string, shards)
	per := (len(buf) + shards - 1) / shards
	for i := 0; i < shards; i++ {
		name := fmt.Sprintf("group1-shard%dof%d.bin", i+1, shards)
		lo, hi := min(i*per, len(buf)), min((i+1)*per, len(buf))
		fsys[name] = &fstest.MapFile{Data: append([]byte(nil), buf[lo:hi]...)}
		paths[i] = name
	}
	manifest := map[string]any{
		"format":        "layers-model",
		"generatedBy":   "bundletest",
		"convertedBy":   "bundletest",
		"modelTopology": json.RawMessage(topology),
		"weightsManifest": []map[string]any{
			{"paths": paths, "weights": specs},
		},
	}
	raw, err := json.Marshal(manifest)
	if err != nil {
		panic(err)
	}
	fsys["model.json"] = &fstest.MapFile{Data: raw}
	return fsys
}

// WriteDir copies every file of fsys into dir.
func WriteDir(t testing.TB, dir string, fsys fstest.MapFS) {
	t.Helper()
	for name, f := range fsys {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// SentimentTopology is a Sequential Embedding -> GlobalAveragePooling1D ->
// Dense graph usable by the cpu runtime.
func SentimentTopology(vocab, dim, units int, activation string) string {
	return fmt.Sprintf(`{"class_name":"Sequential","config":{"name":"sentiment","layers":[
{"class_name":"Embedding","config":{"name":"embedding","input_dim":%d,"output_dim":%d}},
{"class_name":"GlobalAveragePooling1D","config":{"name":"pool"}},
{"class_name":"Dropout","config":{"name":"dropout","rate":0.1}},
{"class_name":"Dense","config":{"name":"dense","units":%d,"activation":%q,"use_bias":true}}]}}`,
		vocab, dim, units, activation)
}

// SentimentBundle returns a 2-shard bundle for SentimentTopology(4, 2, 1, "linear")
// whose embedding rows are constant so every input maps to the same output:
// mean row (1, 1) times kernel (0.5, 0.25) plus bias 0.25 = 1.
func SentimentBundle(shards int) fstest.MapFS {
	return MapFS(SentimentTopology(4, 2, 1, "linear"), shards,
		Weight{Name: "embedding/embeddings", Shape: []int{4, 2}, Values: []float32{1, 1, 1, 1, 1, 1, 1, 1}},
		Weight{Name: "dense/kernel", Shape: []int{2, 1}, Values: []float32{0.5, 0.25}},
		Weight{Name: "dense/bias", Shape: []int{1}, Values: []float32{0.25}},
	)
}
