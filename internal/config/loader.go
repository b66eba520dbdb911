package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"textpredict/internal/backend"
	"textpredict/internal/bundle"
)

// Defaults applied by ApplyDefaults when the corresponding field is unset.
const (
	DefaultModelDir  = "./model"
	DefaultAddr      = "127.0.0.1:8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Config holds runtime parameters for every command.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	ModelDir  string `json:"model_dir" yaml:"model_dir" toml:"model_dir"`
	Manifest  string `json:"manifest" yaml:"manifest" toml:"manifest"`
	Backend   string `json:"backend" yaml:"backend" toml:"backend"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
	// LogFile receives logs in the interactive screen; "" picks a cache-dir file.
	LogFile string `json:"log_file" yaml:"log_file" toml:"log_file"`

	// Headless HTTP surface
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// PredictTimeout bounds POST /predict; 0 disables the bound.
	PredictTimeout Duration `json:"predict_timeout" yaml:"predict_timeout" toml:"predict_timeout"`
	MaxBodyBytes   int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled    bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins    []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// llama.cpp backend
	LlamaCtx     int `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads int `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := decodeTOML(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// tomlDurationKeys are the top-level keys holding a Duration.
var tomlDurationKeys = []string{"predict_timeout"}

// decodeTOML decodes b into cfg. go-toml only hands text values to
// UnmarshalText, so numeric durations are rewritten to "<n>s" strings first.
func decodeTOML(b []byte, cfg *Config) error {
	var raw map[string]any
	if err := toml.Unmarshal(b, &raw); err != nil {
		return err
	}
	rewritten := false
	for _, k := range tomlDurationKeys {
		var secs float64
		switch v := raw[k].(type) {
		case int64:
			secs = float64(v)
		case float64:
			secs = v
		default:
			continue
		}
		raw[k] = time.Duration(secs * float64(time.Second)).String()
		rewritten = true
	}
	if rewritten {
		var err error
		if b, err = toml.Marshal(raw); err != nil {
			return err
		}
	}
	return toml.Unmarshal(b, cfg)
}

// ApplyDefaults fills unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.ModelDir == "" {
		c.ModelDir = DefaultModelDir
	}
	if c.Manifest == "" {
		c.Manifest = bundle.DefaultManifest
	}
	if c.Backend == "" {
		c.Backend = backend.CPU
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
}

// BackendOptions maps the config onto backend tunables.
func (c Config) BackendOptions() backend.Options {
	return backend.Options{LlamaCtx: c.LlamaCtx, LlamaThreads: c.LlamaThreads}
}

// Duration is a time.Duration that decodes from strings like "30s" in every
// supported format, or from a bare number of seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) set(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalText(b []byte) error { return d.set(string(b)) }

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var secs float64
	if err := json.Unmarshal(b, &secs); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	return d.set(s)
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var secs float64
	if err := n.Decode(&secs); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return d.set(n.Value)
}
