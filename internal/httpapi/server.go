// Package httpapi exposes a prediction session over HTTP/JSON: the same
// status, input, trigger and result the terminal UI shows, for headless use.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"textpredict/internal/session"
	"textpredict/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *session.App satisfies it.
type Service interface {
	Snapshot() session.Snapshot
	SetInput(text string)
	Predict(ctx context.Context)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(corsOptions()))
	}

	h := &handlers{svc: svc}
	r.Get("/status", h.status)
	r.Get("/input", h.getInput)
	r.Put("/input", h.putInput)
	r.Post("/predict", h.predict)
	r.Get("/result", h.result)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func corsOptions() cors.Options {
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
	}
	return cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		MaxAge:         300,
	}
}

type handlers struct {
	svc Service
}

// status godoc
// @Summary      Session status
// @Description  Readiness of runtime, model and prediction plus the rendered status lines.
// @Tags         session
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	s := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, types.StatusResponse{
		RuntimeReady:    s.Runtime.Ready,
		Backend:         s.Runtime.Backend,
		ModelReady:      s.PredictorReady,
		PredictionReady: s.ResultReady,
		CanPredict:      s.CanPredict(),
		Lines:           s.StatusLines(),
	})
}

// getInput godoc
// @Summary      Current input text
// @Tags         session
// @Produce      json
// @Success      200  {object}  types.InputResponse
// @Router       /input [get]
func (h *handlers) getInput(w http.ResponseWriter, r *http.Request) {
	s := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, types.InputResponse{Text: s.Input, Set: s.InputSet})
}

// putInput godoc
// @Summary      Replace the input text
// @Description  Equivalent to typing into the text field. Does not trigger a prediction.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      types.InputRequest  true  "New input"
// @Success      200   {object}  types.InputResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      415   {object}  types.ErrorResponse
// @Router       /input [put]
func (h *handlers) putInput(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// size errors are reported as plain 400 as well
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == nil {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	h.svc.SetInput(*req.Text)
	s := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, types.InputResponse{Text: s.Input, Set: s.InputSet})
}

// predict godoc
// @Summary      Run a prediction on the held input
// @Description  Blocks until the model resolves. Without a model or with empty input nothing runs.
// @Description  A failed attempt still answers 200 with result_ready=false and the previous result.
// @Tags         session
// @Produce      json
// @Success      200  {object}  types.ResultResponse
// @Failure      504  {object}  types.ErrorResponse
// @Router       /predict [post]
func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if predictTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, predictTimeout)
		defer tcancel()
	}
	start := time.Now()
	h.svc.Predict(ctx)
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		return
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		writeJSONError(w, http.StatusGatewayTimeout, "prediction timed out after "+time.Since(start).Round(time.Millisecond).String())
		return
	}
	writeJSON(w, http.StatusOK, resultResponse(h.svc.Snapshot()))
}

// result godoc
// @Summary      Last prediction result
// @Tags         session
// @Produce      json
// @Success      200  {object}  types.ResultResponse
// @Router       /result [get]
func (h *handlers) result(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, resultResponse(h.svc.Snapshot()))
}

func resultResponse(s session.Snapshot) types.ResultResponse {
	out := types.ResultResponse{ResultReady: s.ResultReady}
	if s.Result != nil {
		txt := s.Result.String()
		out.Result = &txt
		out.Shape = s.Result.Shape()
	}
	return out
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}
