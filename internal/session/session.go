package session

import (
	"errors"
	"io"
	"io/fs"
	"sync"

	"github.com/rs/zerolog"

	"textpredict/internal/backend"
	"textpredict/internal/bundle"
	"textpredict/internal/tensor"
)

// Config wires an App to its collaborators.
type Config struct {
	Runtime backend.Runtime
	// BundleDir is an on-disk bundle directory. When set it takes precedence
	// over BundleFS and lets backends see real shard paths.
	BundleDir string
	BundleFS  fs.FS
	// ManifestPath defaults to bundle.DefaultManifest.
	ManifestPath string
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Publisher defaults to dropping events.
	Publisher EventPublisher
}

// step tracks a lifecycle step that runs at most once.
type step struct {
	started bool
	done    chan struct{}
	err     error
}

// App is the application state of one session.
type App struct {
	rt       backend.Runtime
	dir      string
	fsys     fs.FS
	manifest string
	log      zerolog.Logger
	pub      EventPublisher

	mu          sync.Mutex
	status      RuntimeStatus
	predictor   backend.Predictor
	text        string
	textSet     bool
	result      *tensor.Tensor
	resultReady bool

	boot step
	load step
}

// New constructs an App. Nothing runs until Mount (or Bootstrap/LoadModel).
func New(cfg Config) *App {
	a := &App{
		rt:       cfg.Runtime,
		dir:      cfg.BundleDir,
		fsys:     cfg.BundleFS,
		manifest: cfg.ManifestPath,
		log:      zerolog.Nop(),
		pub:      cfg.Publisher,
	}
	if a.manifest == "" {
		a.manifest = bundle.DefaultManifest
	}
	if cfg.Logger != nil {
		a.log = *cfg.Logger
	}
	if a.pub == nil {
		a.pub = noopPublisher{}
	}
	return a
}

// SetInput replaces the held text. No trimming or validation is applied.
func (a *App) SetInput(text string) {
	a.mu.Lock()
	changed := !a.textSet || a.text != text
	a.text = text
	a.textSet = true
	a.mu.Unlock()
	if changed {
		a.pub.Publish(Event{Name: EventInputChanged})
	}
}

// Input returns the held text and whether SetInput was ever called.
func (a *App) Input() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text, a.textSet
}

// Ready reports whether a predictor is loaded.
func (a *App) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.predictor != nil
}

// Snapshot returns a consistent view of the session state.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Runtime:        a.status,
		PredictorReady: a.predictor != nil,
		Input:          a.text,
		InputSet:       a.textSet,
		ResultReady:    a.resultReady,
		Result:         a.result,
	}
}

// Close releases the predictor if it holds native resources. The session is
// not usable for prediction afterwards.
func (a *App) Close() error {
	a.mu.Lock()
	p := a.predictor
	a.predictor = nil
	a.mu.Unlock()
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var errNoRuntime = errors.New("session has no runtime configured")
