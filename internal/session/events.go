package session

// Event names published by App.
const (
	EventRuntimeReady     = "runtime_ready"
	EventRuntimeFailed    = "runtime_failed"
	EventModelReady       = "model_ready"
	EventModelFailed      = "model_failed"
	EventInputChanged     = "input_changed"
	EventPredictStarted   = "predict_started"
	EventPredictSucceeded = "predict_succeeded"
	EventPredictEmpty     = "predict_empty"
	EventPredictFailed    = "predict_failed"
)

// Event is a session lifecycle event: a name, the predict attempt it belongs
// to (if any) and optional fields.
type Event struct {
	Name    string
	Attempt string
	Fields  map[string]any
}

// EventPublisher receives events from the session. Implementations must be
// non-blocking and must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
