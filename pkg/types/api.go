package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Whether the numerical runtime finished initializing.
	// example: true
	RuntimeReady bool `json:"runtime_ready" example:"true"`
	// Active compute backend, empty until the runtime is ready.
	// example: cpu
	Backend string `json:"backend" example:"cpu"`
	// Whether the model bundle loaded into a predictor.
	// example: true
	ModelReady bool `json:"model_ready" example:"true"`
	// Whether the held result comes from the latest successful prediction.
	// example: false
	PredictionReady bool `json:"prediction_ready" example:"false"`
	// Whether POST /predict would run (model ready and input non-empty).
	// example: true
	CanPredict bool `json:"can_predict" example:"true"`
	// Human-readable status lines, in display order.
	Lines []string `json:"lines"`
}

// InputRequest is the body of PUT /input.
type InputRequest struct {
	// Raw text to hold. Required; may be the empty string.
	// example: hello world
	Text *string `json:"text" example:"hello world"`
}

// InputResponse is returned by GET and PUT /input.
type InputResponse struct {
	// The held text.
	// example: hello world
	Text string `json:"text" example:"hello world"`
	// False until the input was set at least once.
	// example: true
	Set bool `json:"set" example:"true"`
}

// ResultResponse is returned by POST /predict and GET /result.
type ResultResponse struct {
	// True only while Result reflects the latest successful prediction.
	// example: true
	ResultReady bool `json:"result_ready" example:"true"`
	// String form of the last prediction, or null if none ever succeeded.
	// May be stale when result_ready is false.
	// example: Tensor\n    [[0.731]]
	Result *string `json:"result"`
	// Shape of the result tensor.
	Shape []int `json:"shape,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
