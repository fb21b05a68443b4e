package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-payoff-go/internal/logging"
	"github.com/cloud-ru/loan-payoff-go/internal/tools"
)

const maxBodyBytes = 1 << 20

// Server exposes the tool registry over HTTP.
type Server struct {
	registry *tools.Registry
	limiter  *RateLimiter
	logger   *zap.Logger
}

// NewServer wires the registry behind the rate limiter. limiter may be nil.
func NewServer(registry *tools.Registry, limiter *RateLimiter, logger *zap.Logger) *Server {
	return &Server{
		registry: registry,
		limiter:  limiter,
		logger:   logging.OrNop(logger),
	}
}

// Handler returns the routed handler with request-id and access-log middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var call http.Handler = http.HandlerFunc(s.CallTool)
	if s.limiter != nil {
		call = RateLimitMiddleware(s.limiter, call)
	}

	mux.Handle("POST /tools/{name}", call)
	mux.HandleFunc("GET /tools", s.ListTools)
	mux.HandleFunc("GET /healthz", s.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return RequestIDMiddleware(AccessLogMiddleware(s.logger, mux))
}

// CallTool decodes a JSON object of parameters and runs the named tool.
func (s *Server) CallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	params := map[string]interface{}{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.registry.Call(r.Context(), name, params)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("tool call failed",
				zap.String("op", "httpapi.CallTool"),
				zap.String("tool", name),
				zap.String("request_id", RequestID(r.Context())),
				zap.Error(err),
			)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListTools returns the registered tools.
func (s *Server) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
