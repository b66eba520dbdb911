package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"textpredict/internal/backend"
	"textpredict/internal/tensor"
)

// Predict runs the held text through the predictor.
//
// Without a predictor or with empty text it returns immediately and changes
// nothing. Otherwise it clears ResultReady, builds a one-element input tensor
// and waits for the model. A non-nil result replaces Result and sets
// ResultReady together; a nil result leaves both untouched. Errors and panics
// are logged and swallowed, and Result keeps whatever an earlier call stored.
//
// No lock is held while the model runs. Concurrent calls are not ordered:
// the last one to finish wins.
func (a *App) Predict(ctx context.Context) {
	a.mu.Lock()
	p, text := a.predictor, a.text
	if p == nil || text == "" {
		a.mu.Unlock()
		predictions.WithLabelValues(outcomeSkipped).Inc()
		return
	}
	a.resultReady = false
	a.mu.Unlock()

	id := uuid.NewString()
	log := a.log.With().Str("attempt", id).Logger()
	a.pub.Publish(Event{Name: EventPredictStarted, Attempt: id})

	start := time.Now()
	res, err := a.run(ctx, p, text)
	predictDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		predictions.WithLabelValues(outcomeError).Inc()
		log.Error().Err(err).Msg("prediction failed")
		a.pub.Publish(Event{Name: EventPredictFailed, Attempt: id, Fields: map[string]any{"error": err.Error()}})
	case res == nil:
		predictions.WithLabelValues(outcomeEmpty).Inc()
		log.Debug().Msg("prediction produced no result")
		a.pub.Publish(Event{Name: EventPredictEmpty, Attempt: id})
	default:
		a.mu.Lock()
		a.result = res
		a.resultReady = true
		a.mu.Unlock()
		predictions.WithLabelValues(outcomeSuccess).Inc()
		log.Debug().Ints("shape", res.Shape()).Dur("dur", time.Since(start)).Msg("prediction ready")
		a.pub.Publish(Event{Name: EventPredictSucceeded, Attempt: id})
	}
}

// run wraps the text and calls the predictor, turning panics into errors.
func (a *App) run(ctx context.Context, p backend.Predictor, text string) (res *tensor.Tensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("predictor panic: %v", r)
		}
	}()
	in, err := a.rt.MakeTensor(text)
	if err != nil {
		return nil, fmt.Errorf("make input tensor: %w", err)
	}
	return p.Predict(ctx, in)
}
