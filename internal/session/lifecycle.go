package session

import (
	"context"
	"fmt"
	"time"

	"textpredict/internal/backend"
	"textpredict/internal/bundle"
)

// begin marks s as started and returns true, or returns false with the
// channel to wait on when another caller already started it.
func (a *App) begin(s *step) (bool, chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s.started {
		return false, s.done
	}
	s.started = true
	s.done = make(chan struct{})
	return true, nil
}

func wait(ctx context.Context, s *step, done chan struct{}) error {
	select {
	case <-done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bootstrap initializes the runtime exactly once. Later calls return the
// first outcome. On failure the runtime stays not ready for the session.
func (a *App) Bootstrap(ctx context.Context) error {
	first, done := a.begin(&a.boot)
	if !first {
		return wait(ctx, &a.boot, done)
	}

	name, err := a.initialize(ctx)

	a.mu.Lock()
	if err == nil {
		a.status = RuntimeStatus{Ready: true, Backend: name}
	}
	a.boot.err = err
	close(a.boot.done)
	a.mu.Unlock()

	if err != nil {
		a.log.Error().Err(err).Msg("runtime initialization failed")
		a.pub.Publish(Event{Name: EventRuntimeFailed, Fields: map[string]any{"error": err.Error()}})
		return err
	}
	runtimeReady.Set(1)
	a.log.Info().Str("backend", name).Msg("runtime ready")
	a.pub.Publish(Event{Name: EventRuntimeReady, Fields: map[string]any{"backend": name}})
	return nil
}

// LoadModel reads the bundle and assembles the predictor. It runs at most
// once per session; calling it before the runtime is ready returns an error
// and does not use up that one attempt.
func (a *App) LoadModel(ctx context.Context) error {
	a.mu.Lock()
	ready := a.status.Ready
	a.mu.Unlock()
	if !ready {
		return fmt.Errorf("load model: %w", backend.ErrNotReady)
	}

	first, done := a.begin(&a.load)
	if !first {
		return wait(ctx, &a.load, done)
	}

	start := time.Now()
	p, err := a.loadPredictor(ctx)
	modelLoadDuration.Observe(time.Since(start).Seconds())

	a.mu.Lock()
	if err == nil {
		a.predictor = p
	}
	a.load.err = err
	close(a.load.done)
	a.mu.Unlock()

	if err != nil {
		a.log.Error().Err(err).Str("manifest", a.manifest).Msg("model load failed")
		a.pub.Publish(Event{Name: EventModelFailed, Fields: map[string]any{"error": err.Error()}})
		return err
	}
	modelReady.Set(1)
	a.log.Info().Str("manifest", a.manifest).Dur("dur", time.Since(start)).Msg("model ready")
	a.pub.Publish(Event{Name: EventModelReady, Fields: map[string]any{"manifest": a.manifest}})
	return nil
}

func (a *App) initialize(ctx context.Context) (name string, err error) {
	if a.rt == nil {
		return "", errNoRuntime
	}
	defer func() {
		if r := recover(); r != nil {
			name, err = "", fmt.Errorf("runtime panic: %v", r)
		}
	}()
	return a.rt.Initialize(ctx)
}

// loadPredictor reads the bundle and hands it to the runtime. A panic in
// either is returned as the load error.
func (a *App) loadPredictor(ctx context.Context) (p backend.Predictor, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("model load panic: %v", r)
		}
	}()
	var b *bundle.Bundle
	switch {
	case a.dir != "":
		b, err = bundle.LoadDir(ctx, a.dir, a.manifest)
	case a.fsys != nil:
		b, err = bundle.Load(ctx, a.fsys, a.manifest)
	default:
		err = fmt.Errorf("no model bundle configured")
	}
	if err != nil {
		return nil, err
	}
	a.log.Debug().Int("shards", b.ShardCount()).Int64("bytes", b.Size()).Str("format", b.Format()).Msg("bundle read")
	p, err = a.rt.LoadModel(ctx, b)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("runtime returned no predictor")
	}
	return p, nil
}

// Mount brings the session up: the runtime first, then the model once the
// runtime is ready. The model is never loaded if initialization failed.
// Failures are logged and left visible only through Snapshot.
func (a *App) Mount(ctx context.Context) {
	if err := a.Bootstrap(ctx); err != nil {
		return
	}
	_ = a.LoadModel(ctx)
}
