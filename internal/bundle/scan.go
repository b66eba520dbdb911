package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"textpredict/internal/common/fsutil"
)

// Entry describes a bundle manifest found on disk.
type Entry struct {
	// ID is the manifest path relative to the scanned directory.
	ID         string `json:"id"`
	Path       string `json:"path"`
	Format     string `json:"format"`
	ShardCount int    `json:"shard_count"`
	// Missing lists shards named by the manifest but absent on disk.
	Missing []string `json:"missing,omitempty"`
}

// Scan looks for bundle manifests in dir and one level of subdirectories.
// JSON files without a weights manifest are ignored.
func Scan(dir string) ([]Entry, error) {
	abs, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}
	var candidates []string
	top, err := filepath.Glob(filepath.Join(abs, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	nested, err := filepath.Glob(filepath.Join(abs, "*", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	candidates = append(candidates, top...)
	candidates = append(candidates, nested...)
	sort.Strings(candidates)

	var out []Entry
	for _, p := range candidates {
		raw, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		m, err := ParseManifest(raw)
		if err != nil {
			continue
		}
		rel, _ := filepath.Rel(abs, p)
		e := Entry{ID: filepath.ToSlash(rel), Path: p, Format: m.Format}
		for _, g := range m.WeightsManifest {
			for _, s := range g.Paths {
				e.ShardCount++
				sp := filepath.Join(filepath.Dir(p), filepath.FromSlash(s))
				if !fsutil.PathExists(sp) {
					e.Missing = append(e.Missing, s)
				}
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Complete reports whether every shard of the entry is present.
func (e Entry) Complete() bool { return len(e.Missing) == 0 }

func resolveDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	abs, err := fsutil.AbsDir(dir)
	if err != nil {
		return "", fmt.Errorf("model dir: %w", err)
	}
	return abs, nil
}
