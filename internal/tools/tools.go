package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-payoff-go/internal/cache"
	"github.com/cloud-ru/loan-payoff-go/internal/config"
	"github.com/cloud-ru/loan-payoff-go/internal/logging"
	"github.com/cloud-ru/loan-payoff-go/internal/metrics"
	"github.com/cloud-ru/loan-payoff-go/internal/service"
	"github.com/cloud-ru/loan-payoff-go/internal/tracing"
)

// ToolHandler handles one tool call.
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

var (
	// ErrUnknownTool is returned for a tool name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidParams wraps every parameter decoding or validation failure.
	ErrInvalidParams = errors.New("invalid parameters")
)

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type tool struct {
	info    ToolInfo
	handler ToolHandler
}

// Registry holds every tool by name.
type Registry struct {
	tools map[string]tool
}

// Deps are the collaborators shared by all tools.
type Deps struct {
	Config   *config.Config
	Tracer   trace.Tracer // defaults to tracing.Tracer
	Analyzer *service.Analyzer
	Cache    cache.Cache // optional
	Logger   *zap.Logger
}

// runner carries the shared collaborators into each handler.
type runner struct {
	cfg      *config.Config
	tracer   trace.Tracer
	analyzer *service.Analyzer
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewRegistry builds the registry with every tool wired to deps.
func NewRegistry(deps Deps) *Registry {
	r := &runner{
		cfg:      deps.Config,
		tracer:   deps.Tracer,
		analyzer: deps.Analyzer,
		cache:    deps.Cache,
		ttl:      deps.Config.CacheTTL,
		logger:   logging.OrNop(deps.Logger),
	}
	if r.tracer == nil {
		r.tracer = tracing.Tracer
	}
	if r.analyzer == nil {
		r.analyzer = service.NewAnalyzer(deps.Config, deps.Logger)
	}

	reg := &Registry{tools: make(map[string]tool)}
	reg.add("amortize", "Amortize one loan with an optional fixed extra payment", amortizeHandler(r))
	reg.add("revolving_payoff", "Months and cost of paying only the minimum on a revolving balance", revolvingPayoffHandler(r))
	reg.add("simulate_payoff", "Cascading avalanche/snowball payoff of a loan set with a monthly budget", simulatePayoffHandler(r))
	reg.add("analyze_refinance", "Per-loan verdict on refinancing at a candidate rate", analyzeRefinanceHandler(r))
	reg.add("loan_tiles", "Minimum, extra-payment, refinance and combined views of one loan in a scenario", loanTilesHandler(r))
	reg.add("summary_totals", "Portfolio totals across tile sets", summaryTotalsHandler(r))
	reg.add("analyze_scenario", "Full four-way analysis of a scenario, or of several scenarios merged", analyzeScenarioHandler(r))
	reg.add("compare_strategies", "Avalanche and snowball side by side", compareStrategiesHandler(r))
	reg.add("advance_month", "Apply one scheduled payment to every term loan", advanceMonthHandler(r))
	reg.add("merge_scenarios", "Merge scenarios into one read-only portfolio", mergeScenariosHandler(r))
	return reg
}

func (reg *Registry) add(name, description string, h ToolHandler) {
	reg.tools[name] = tool{info: ToolInfo{Name: name, Description: description}, handler: h}
}

// Call runs the named tool.
func (reg *Registry) Call(ctx context.Context, name string, params map[string]interface{}) (interface{}, error) {
	t, ok := reg.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.handler(ctx, params)
}

// List returns the registered tools sorted by name.
func (reg *Registry) List() []ToolInfo {
	out := make([]ToolInfo, 0, len(reg.tools))
	for _, t := range reg.tools {
		out = append(out, t.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// decodeParams maps loosely typed params onto a request struct. Unknown keys are rejected.
func decodeParams(params map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// handle wraps a calculation with the span, metrics, validation and cache
// steps every tool goes through.
func handle[Req any, Res any](
	r *runner,
	toolName string,
	validate func(*Req) error,
	calc func(context.Context, Req) (Res, error),
) ToolHandler {
	fail := func(span trace.Span, status, errType string, err error) error {
		span.SetAttributes(attribute.String("error", status))
		metrics.ToolCalls.WithLabelValues(toolName, status).Inc()
		metrics.CalculationErrors.WithLabelValues(toolName, errType).Inc()
		metrics.APICalls.WithLabelValues("http", toolName, "error").Inc()
		r.logger.Warn("tool call failed",
			zap.String("op", "tools."+toolName),
			zap.String("status", status),
			zap.Error(err),
		)
		return err
	}

	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		ctx, span := r.tracer.Start(ctx, toolName)
		defer span.End()

		metrics.APICalls.WithLabelValues("http", toolName, "started").Inc()

		var req Req
		if err := decodeParams(params, &req); err != nil {
			return nil, fail(span, "validation_error", "validation", fmt.Errorf("%w: %v", ErrInvalidParams, err))
		}
		if validate != nil {
			if err := validate(&req); err != nil {
				return nil, fail(span, "validation_error", "validation", fmt.Errorf("%w: %v", ErrInvalidParams, err))
			}
		}

		key := ""
		if r.cache != nil {
			if payload, err := json.Marshal(req); err == nil {
				// Payoff dates count from the current month.
				payload = append(payload, r.analyzer.Now().Format("2006-01")...)
				key = cache.Key(toolName, payload)
				if res, ok := lookup[Res](ctx, r, toolName, key); ok {
					span.SetAttributes(attribute.Bool("success", true), attribute.Bool("cache_hit", true))
					metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()
					metrics.APICalls.WithLabelValues("http", toolName, "success").Inc()
					return res, nil
				}
			}
		}

		res, err := calc(ctx, req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidScenario) {
				return nil, fail(span, "validation_error", "validation", fmt.Errorf("%w: %v", ErrInvalidParams, err))
			}
			return nil, fail(span, "error", "calculation", fmt.Errorf("calculation failed: %w", err))
		}

		if key != "" {
			store(ctx, r, toolName, key, res)
		}

		span.SetAttributes(attribute.Bool("success", true))
		metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()
		metrics.APICalls.WithLabelValues("http", toolName, "success").Inc()
		return res, nil
	}
}

func lookup[Res any](ctx context.Context, r *runner, toolName, key string) (Res, bool) {
	var res Res
	raw, hit, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache lookup failed", zap.String("op", "tools.lookup"), zap.String("tool", toolName), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(toolName, "error").Inc()
		return res, false
	}
	if !hit {
		metrics.CacheLookups.WithLabelValues(toolName, "miss").Inc()
		return res, false
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		metrics.CacheLookups.WithLabelValues(toolName, "error").Inc()
		return res, false
	}
	metrics.CacheLookups.WithLabelValues(toolName, "hit").Inc()
	return res, true
}

func store(ctx context.Context, r *runner, toolName, key string, res interface{}) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		r.logger.Warn("cache store failed", zap.String("op", "tools.store"), zap.String("tool", toolName), zap.Error(err))
	}
}
