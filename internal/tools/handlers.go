package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloud-ru/loan-payoff-go/internal/calculations"
	"github.com/cloud-ru/loan-payoff-go/internal/service"
	"github.com/cloud-ru/loan-payoff-go/internal/validators"
)

type amortizeRequest struct {
	Loan            calculations.Loan `json:"loan"`
	ExtraPayment    float64           `json:"extra_payment"`
	IncludeSchedule bool              `json:"include_schedule"`
}

// amortizeHandler amortizes one loan, with or without a fixed extra payment.
func amortizeHandler(r *runner) ToolHandler {
	return handle(r, "amortize",
		func(req *amortizeRequest) error {
			req.Loan = validators.SanitizeLoan(req.Loan)
			if err := validators.CheckLoan(r.cfg, req.Loan); err != nil {
				return err
			}
			return validators.CheckBudget(r.cfg, req.ExtraPayment)
		},
		func(_ context.Context, req amortizeRequest) (calculations.AmortizationResult, error) {
			res := calculations.AmortizeWithPolicy(req.Loan, req.ExtraPayment, r.analyzer.Policy())
			if !req.IncludeSchedule {
				res.Schedule = nil
			}
			return res, nil
		},
	)
}

type revolvingRequest struct {
	Balance float64 `json:"balance"`
	Rate    float64 `json:"rate"`
}

// revolvingPayoffHandler reports how long minimum payments take to clear a card balance.
func revolvingPayoffHandler(r *runner) ToolHandler {
	return handle(r, "revolving_payoff",
		func(req *revolvingRequest) error {
			if err := validators.CheckPrincipal(r.cfg, req.Balance); err != nil {
				return err
			}
			return validators.CheckRate(r.cfg, req.Rate)
		},
		func(_ context.Context, req revolvingRequest) (calculations.RevolvingResult, error) {
			return calculations.RevolvingPayoff(req.Balance, req.Rate, r.analyzer.Policy()), nil
		},
	)
}

type simulateRequest struct {
	Loans         []calculations.Loan `json:"loans"`
	TotalBudget   float64             `json:"total_budget"`
	Strategy      string              `json:"strategy"`
	IncludeLedger bool                `json:"include_ledger"`
}

// simulatePayoffHandler runs the month-by-month cascading payoff.
func simulatePayoffHandler(r *runner) ToolHandler {
	return handle(r, "simulate_payoff",
		func(req *simulateRequest) error {
			req.Loans = sanitizeLoans(req.Loans)
			req.Strategy = string(calculations.ParseStrategy(req.Strategy))
			if err := validators.CheckBudget(r.cfg, req.TotalBudget); err != nil {
				return err
			}
			return validators.CheckLoans(r.cfg, req.Loans)
		},
		func(ctx context.Context, req simulateRequest) (calculations.Simulation, error) {
			if err := ctx.Err(); err != nil {
				return calculations.Simulation{}, err
			}
			sim := calculations.Simulate(req.Loans, req.TotalBudget, calculations.Strategy(req.Strategy), r.analyzer.Policy())
			if !req.IncludeLedger {
				for i := range sim.Loans {
					sim.Loans[i].Ledger = nil
				}
			}
			return sim, nil
		},
	)
}

type refinanceRequest struct {
	Loans         []calculations.Loan `json:"loans"`
	RefinanceRate float64             `json:"refinance_rate"`
}

// analyzeRefinanceHandler returns a refinance verdict for every loan.
func analyzeRefinanceHandler(r *runner) ToolHandler {
	return handle(r, "analyze_refinance",
		func(req *refinanceRequest) error {
			req.Loans = sanitizeLoans(req.Loans)
			if err := validators.CheckRefinanceRate(r.cfg, req.RefinanceRate); err != nil {
				return err
			}
			return validators.CheckLoans(r.cfg, req.Loans)
		},
		func(_ context.Context, req refinanceRequest) ([]calculations.RefinanceAnalysis, error) {
			return calculations.AnalyzeRefinance(req.Loans, req.RefinanceRate, r.analyzer.Policy()), nil
		},
	)
}

type loanTilesRequest struct {
	Scenario calculations.Scenario `json:"scenario"`
	LoanID   string                `json:"loan_id"`
	Strategy string                `json:"strategy"`
}

var errLoanNotFound = errors.New("loan not found in scenario")

// loanTilesHandler returns the tile set of a single loan within its scenario.
func loanTilesHandler(r *runner) ToolHandler {
	return handle(r, "loan_tiles",
		func(req *loanTilesRequest) error {
			req.Strategy = string(calculations.ParseStrategy(req.Strategy))
			for _, l := range req.Scenario.Loans {
				if l.ID == req.LoanID {
					return nil
				}
			}
			return fmt.Errorf("%w: %q", errLoanNotFound, req.LoanID)
		},
		func(ctx context.Context, req loanTilesRequest) (calculations.TileSet, error) {
			res, err := r.analyzer.AnalyzeScenario(ctx, req.Scenario, calculations.Strategy(req.Strategy))
			if err != nil {
				return calculations.TileSet{}, err
			}
			for _, ts := range res.Tiles {
				if ts.Loan.ID == req.LoanID {
					return ts, nil
				}
			}
			return calculations.TileSet{}, fmt.Errorf("%w: %q", errLoanNotFound, req.LoanID)
		},
	)
}

type summaryTotalsRequest struct {
	Tiles []calculations.TileSet `json:"tiles"`
}

// summaryTotalsHandler aggregates tile sets into portfolio totals.
func summaryTotalsHandler(r *runner) ToolHandler {
	return handle(r, "summary_totals",
		func(req *summaryTotalsRequest) error {
			if len(req.Tiles) > r.cfg.MaxLoans {
				return fmt.Errorf("too many tile sets: %d (max %d)", len(req.Tiles), r.cfg.MaxLoans)
			}
			return nil
		},
		func(_ context.Context, req summaryTotalsRequest) (calculations.PortfolioTotals, error) {
			return calculations.CalculateSummaryTotals(req.Tiles), nil
		},
	)
}

type analyzeScenarioRequest struct {
	Scenario  *calculations.Scenario  `json:"scenario,omitempty"`
	Scenarios []calculations.Scenario `json:"scenarios,omitempty"`
	Strategy  string                  `json:"strategy"`
}

// analyzeScenarioHandler runs the full analysis of one scenario, or of
// several scenarios merged into the ALL portfolio.
func analyzeScenarioHandler(r *runner) ToolHandler {
	return handle(r, "analyze_scenario",
		func(req *analyzeScenarioRequest) error {
			req.Strategy = string(calculations.ParseStrategy(req.Strategy))
			if (req.Scenario == nil) == (len(req.Scenarios) == 0) {
				return errors.New("exactly one of scenario or scenarios is required")
			}
			return nil
		},
		func(ctx context.Context, req analyzeScenarioRequest) (service.ScenarioAnalysis, error) {
			strategy := calculations.Strategy(req.Strategy)
			var (
				res *service.ScenarioAnalysis
				err error
			)
			if req.Scenario != nil {
				res, err = r.analyzer.AnalyzeScenario(ctx, *req.Scenario, strategy)
			} else {
				res, err = r.analyzer.AnalyzeAll(ctx, req.Scenarios, strategy)
			}
			if err != nil {
				return service.ScenarioAnalysis{}, err
			}
			return *res, nil
		},
	)
}

type compareRequest struct {
	Loans       []calculations.Loan `json:"loans"`
	TotalBudget float64             `json:"total_budget"`
}

// compareStrategiesHandler simulates avalanche and snowball on the same loans.
func compareStrategiesHandler(r *runner) ToolHandler {
	return handle(r, "compare_strategies",
		func(req *compareRequest) error {
			req.Loans = sanitizeLoans(req.Loans)
			if err := validators.CheckBudget(r.cfg, req.TotalBudget); err != nil {
				return err
			}
			return validators.CheckLoans(r.cfg, req.Loans)
		},
		func(_ context.Context, req compareRequest) (calculations.StrategyComparison, error) {
			return calculations.CompareStrategies(req.Loans, req.TotalBudget, r.analyzer.Policy()), nil
		},
	)
}

type advanceRequest struct {
	Loans []calculations.Loan `json:"loans"`
}

// advanceMonthHandler applies one scheduled payment to each term loan.
func advanceMonthHandler(r *runner) ToolHandler {
	return handle(r, "advance_month",
		func(req *advanceRequest) error {
			req.Loans = sanitizeLoans(req.Loans)
			return validators.CheckLoans(r.cfg, req.Loans)
		},
		func(_ context.Context, req advanceRequest) ([]calculations.Loan, error) {
			return calculations.AdvanceOneMonth(req.Loans), nil
		},
	)
}

type mergeRequest struct {
	Scenarios []calculations.Scenario `json:"scenarios"`
}

// mergeScenariosHandler flattens scenarios into the ALL portfolio.
func mergeScenariosHandler(r *runner) ToolHandler {
	return handle(r, "merge_scenarios",
		func(req *mergeRequest) error {
			if len(req.Scenarios) == 0 {
				return errors.New("scenarios must not be empty")
			}
			for i, sc := range req.Scenarios {
				req.Scenarios[i] = validators.SanitizeScenario(sc)
			}
			return nil
		},
		func(_ context.Context, req mergeRequest) (calculations.Scenario, error) {
			merged := calculations.MergeScenarios(req.Scenarios)
			if err := validators.CheckLoans(r.cfg, merged.Loans); err != nil {
				return calculations.Scenario{}, fmt.Errorf("%w: %v", service.ErrInvalidScenario, err)
			}
			return merged, nil
		},
	)
}

func sanitizeLoans(loans []calculations.Loan) []calculations.Loan {
	out := make([]calculations.Loan, len(loans))
	for i, l := range loans {
		out[i] = validators.SanitizeLoan(l)
	}
	return out
}
