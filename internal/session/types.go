package session

import "textpredict/internal/tensor"

// RuntimeStatus is set once when the runtime reports readiness.
type RuntimeStatus struct {
	Ready   bool
	Backend string
}

// Snapshot is a read-only projection of the session state. The readiness
// flags are derived from the stored fields, never stored on their own.
type Snapshot struct {
	Runtime        RuntimeStatus
	PredictorReady bool
	Input          string
	// InputSet is false until the first SetInput; "" after SetInput("") is set.
	InputSet    bool
	ResultReady bool
	// Result may be stale after a failed attempt; see ResultReady.
	Result *tensor.Tensor
}

// InputValid reports whether the held text is non-empty.
func (s Snapshot) InputValid() bool { return s.Input != "" }

// CanPredict reports whether the trigger should be enabled.
func (s Snapshot) CanPredict() bool { return s.PredictorReady && s.InputValid() }

// ResultText is the external representation of the result, or "" when no
// prediction ever succeeded.
func (s Snapshot) ResultText() string {
	if s.Result == nil {
		return ""
	}
	return s.Result.String()
}

// Indicator renders a readiness flag the way every surface displays it.
func Indicator(ok bool) string {
	if ok {
		return "ready"
	}
	return "not ready"
}

// BackendLabel is the backend name, or "not ready" before initialization.
func (s Snapshot) BackendLabel() string {
	if s.Runtime.Backend == "" {
		return "not ready"
	}
	return s.Runtime.Backend
}

// StatusItem is one status indicator. Label carries its own separator so
// Label+Value is the displayed line.
type StatusItem struct {
	Label string
	Value string
	OK    bool
}

// Status returns the four status indicators in display order.
func (s Snapshot) Status() []StatusItem {
	return []StatusItem{
		{Label: "Runtime : ", Value: Indicator(s.Runtime.Ready), OK: s.Runtime.Ready},
		{Label: "Backend: ", Value: s.BackendLabel(), OK: s.Runtime.Backend != ""},
		{Label: "Model: ", Value: Indicator(s.PredictorReady), OK: s.PredictorReady},
		{Label: "Prediction: ", Value: Indicator(s.ResultReady), OK: s.ResultReady},
	}
}

// StatusLines are the status indicators rendered as plain text.
func (s Snapshot) StatusLines() []string {
	items := s.Status()
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.Label + it.Value
	}
	return lines
}
