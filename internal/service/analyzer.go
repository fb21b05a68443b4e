package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloud-ru/loan-payoff-go/internal/calculations"
	"github.com/cloud-ru/loan-payoff-go/internal/config"
	"github.com/cloud-ru/loan-payoff-go/internal/logging"
	"github.com/cloud-ru/loan-payoff-go/internal/metrics"
	"github.com/cloud-ru/loan-payoff-go/internal/tracing"
	"github.com/cloud-ru/loan-payoff-go/internal/validators"
	"github.com/cloud-ru/loan-payoff-go/pkg/utils"
)

// ErrInvalidScenario wraps every input validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// PayoffDates are the calendar months in which the slowest loan of each tile
// kind is retired. Empty when a balance is never retired.
type PayoffDates struct {
	Minimum       string `json:"minimum"`
	ExtraPayments string `json:"extra_payments"`
	Refinance     string `json:"refinance"`
	Combined      string `json:"combined"`
}

// ScenarioAnalysis is the full four-way analysis of one scenario.
type ScenarioAnalysis struct {
	ScenarioID   string                           `json:"scenario_id"`
	Name         string                           `json:"name"`
	Strategy     calculations.Strategy            `json:"strategy"`
	Budget       float64                          `json:"budget"`
	MinimumTotal float64                          `json:"minimum_total"`
	Feasible     bool                             `json:"feasible"`
	Tiles        []calculations.TileSet           `json:"tiles"`
	Totals       calculations.PortfolioTotals     `json:"totals"`
	Summary      calculations.PortfolioSummary    `json:"summary"`
	Refinance    []calculations.RefinanceAnalysis `json:"refinance"`
	PayoffDates  PayoffDates                      `json:"payoff_dates"`
}

// Analyzer runs the minimum, extra-payment, refinance and combined analyses
// of a scenario and reconciles them into tiles and totals.
type Analyzer struct {
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

func NewAnalyzer(cfg *config.Config, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// WithClock replaces the clock payoff dates are counted from.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Now is the analyzer's current time.
func (a *Analyzer) Now() time.Time {
	return a.now()
}

// Policy is the revolving minimum-payment policy in effect.
func (a *Analyzer) Policy() calculations.MinimumPolicy {
	return a.cfg.Policy
}

// Prepare sanitises and validates a scenario.
func (a *Analyzer) Prepare(sc calculations.Scenario) (calculations.Scenario, error) {
	sc = validators.SanitizeScenario(sc)
	if err := validators.CheckScenario(a.cfg, sc); err != nil {
		return sc, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return sc, nil
}

// AnalyzeScenario runs the four independent analyses concurrently and builds
// tile sets, portfolio totals and the summary from their results.
func (a *Analyzer) AnalyzeScenario(ctx context.Context, sc calculations.Scenario, strategy calculations.Strategy) (*ScenarioAnalysis, error) {
	ctx, span := tracing.Tracer.Start(ctx, "analyze_scenario")
	defer span.End()

	sc, err := a.Prepare(sc)
	if err != nil {
		span.SetAttributes(attribute.String("error", "validation_error"))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("scenario_id", sc.ID),
		attribute.Int("loans", len(sc.Loans)),
		attribute.Float64("budget", sc.TotalBudget),
		attribute.String("strategy", string(strategy)),
	)

	policy := a.cfg.Policy
	loans := sc.Loans

	var (
		full      calculations.Simulation
		combined  calculations.Simulation
		refi      []calculations.RefinanceAnalysis
		baselines = make([]calculations.AmortizationResult, len(loans))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		full = calculations.Simulate(loans, sc.TotalBudget, strategy, policy)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		refi = calculations.AnalyzeRefinance(loans, sc.RefinanceRate, policy)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		combined = calculations.Simulate(calculations.RefinancedLoans(loans, sc.RefinanceRate), sc.TotalBudget, strategy, policy)
		return nil
	})
	g.Go(func() error {
		for i, l := range loans {
			if err := gctx.Err(); err != nil {
				return err
			}
			baselines[i] = calculations.AmortizeWithPolicy(l, 0, policy)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.SetAttributes(attribute.String("error", "cancelled"))
		return nil, fmt.Errorf("analyze scenario %s: %w", sc.ID, err)
	}

	metrics.SimulationMonths.WithLabelValues(string(strategy)).Observe(float64(full.Months))

	res := &ScenarioAnalysis{
		ScenarioID:   sc.ID,
		Name:         sc.Name,
		Strategy:     strategy,
		Budget:       sc.TotalBudget,
		MinimumTotal: full.MinimumTotal,
		Feasible:     full.Feasible,
		Refinance:    refi,
		Tiles:        make([]calculations.TileSet, 0, len(loans)),
	}

	for i, l := range loans {
		in := calculations.TileInput{
			Loan:               l,
			TotalBudget:        sc.TotalBudget,
			RefinanceRate:      sc.RefinanceRate,
			Refinance:          &refi[i],
			AllLoans:           loans,
			FullSimulation:     &full,
			CombinedSimulation: &combined,
			Strategy:           strategy,
			Policy:             policy,
		}
		if p, ok := full.Find(l.Key()); ok {
			in.Payoff = &p
		}
		if p, ok := combined.Find(l.Key()); ok {
			in.Combined = &p
		}
		res.Tiles = append(res.Tiles, calculations.CalculateLoanTileValues(in))
	}

	res.Totals = calculations.CalculateSummaryTotals(res.Tiles)
	res.Summary = calculations.SummarizePortfolio(loans, baselines, full, refi, &combined, policy)
	res.PayoffDates = a.payoffDates(res.Totals)

	a.logger.Debug("scenario analysed",
		zap.String("op", "service.AnalyzeScenario"),
		zap.String("scenario_id", sc.ID),
		zap.Int("loans", len(loans)),
		zap.Bool("feasible", full.Feasible),
		zap.Int("months", full.Months),
	)
	return res, nil
}

// AnalyzeAll merges every scenario into one portfolio and analyses it.
// Each merged loan uses its own scenario's refinance rate.
func (a *Analyzer) AnalyzeAll(ctx context.Context, scenarios []calculations.Scenario, strategy calculations.Strategy) (*ScenarioAnalysis, error) {
	return a.AnalyzeScenario(ctx, calculations.MergeScenarios(scenarios), strategy)
}

func (a *Analyzer) payoffDates(t calculations.PortfolioTotals) PayoffDates {
	start := a.now()
	label := func(tt calculations.TileTotals) string {
		if tt.NeverPaysOff {
			return ""
		}
		return utils.PayoffLabel(start, tt.MaxMonths)
	}
	return PayoffDates{
		Minimum:       label(t.Minimum),
		ExtraPayments: label(t.ExtraPayments),
		Refinance:     label(t.Refinance),
		Combined:      label(t.Combined),
	}
}
