package calculations

import (
	"fmt"
	"math"

	"github.com/cloud-ru/loan-payoff-go/pkg/utils"
)

const (
	AllScenarioID   = "ALL_SCENARIO"
	AllScenarioName = "ALL"
)

// MergeScenarios builds the read-only portfolio of every loan in every
// scenario. Each loan keeps its own ID and points back at its scenario, whose
// refinance rate it uses. Budgets are summed; an existing merged scenario is skipped.
func MergeScenarios(scenarios []Scenario) Scenario {
	all := Scenario{ID: AllScenarioID, Name: AllScenarioName}
	for _, sc := range scenarios {
		if sc.ID == AllScenarioID {
			continue
		}
		name := sc.Name
		if name == "" {
			name = "Unknown"
		}
		for _, l := range sc.Loans {
			if l.ID == "" {
				continue
			}
			merged := l
			if merged.Name == "" {
				merged.Name = "Unknown Loan"
			}
			merged.Name = fmt.Sprintf("[%s] %s", name, merged.Name)
			merged.Source = &LoanSource{
				ScenarioID:    sc.ID,
				ScenarioName:  name,
				RefinanceRate: sc.RefinanceRate,
			}
			all.Loans = append(all.Loans, merged)
		}
		if sc.TotalBudget > 0 {
			all.TotalBudget += sc.TotalBudget
		}
	}
	return all
}

// AdvanceOneMonth applies one scheduled payment to every term loan: the
// principal portion comes off the balance (rounded to cents) and the term
// shrinks by one. Revolving, zero-rate and retired loans are returned as is.
func AdvanceOneMonth(loans []Loan) []Loan {
	out := make([]Loan, len(loans))
	for i, l := range loans {
		out[i] = l
		if l.Term <= 0 || l.Principal <= 0 || l.Rate == 0 {
			continue
		}
		interest := l.Principal * monthlyRate(l.Rate)
		principal := MonthlyPayment(l.Principal, l.Rate, l.Term) - interest
		out[i].Term = l.Term - 1
		out[i].Principal = utils.Round2(math.Max(0, l.Principal-principal))
		if out[i].Term == 0 {
			// The final payment retires the loan; Term 0 would otherwise read as revolving.
			out[i].Principal = 0
		}
	}
	return out
}

// StrategySummary condenses one simulation run.
type StrategySummary struct {
	Strategy           Strategy `json:"strategy"`
	TotalInterest      float64  `json:"total_interest"`
	TotalInterestSaved float64  `json:"total_interest_saved"`
	MaxMonths          int      `json:"max_months"`
	MonthsSaved        int      `json:"months_saved"`
	NeverPaysOff       bool     `json:"never_pays_off,omitempty"`
}

// Summarize totals interest across loans and compares the slowest loan
// against its minimum-only payoff.
func (s Simulation) Summarize() StrategySummary {
	sum := StrategySummary{Strategy: s.Strategy}
	originalMax := 0
	for _, p := range s.Loans {
		sum.TotalInterest += p.Schedule.TotalInterest
		sum.TotalInterestSaved += p.Schedule.InterestSaved
		if p.NeverPaysOff {
			sum.NeverPaysOff = true
		}
		if p.Schedule.PayoffMonths > sum.MaxMonths {
			sum.MaxMonths = p.Schedule.PayoffMonths
		}
		if orig := p.Schedule.PayoffMonths + p.Schedule.MonthsSaved; orig > originalMax {
			originalMax = orig
		}
	}
	sum.MonthsSaved = originalMax - sum.MaxMonths
	return sum
}

// StrategyComparison puts avalanche and snowball side by side.
type StrategyComparison struct {
	Avalanche          StrategySummary `json:"avalanche"`
	Snowball           StrategySummary `json:"snowball"`
	Better             Strategy        `json:"better"`
	InterestDifference float64         `json:"interest_difference"`
	MonthsDifference   int             `json:"months_difference"`
}

// CompareStrategies runs both strategies on the same loans and budget. The
// better one pays less interest; on a tie the one that finishes sooner wins,
// then avalanche.
func CompareStrategies(loans []Loan, budget float64, policy MinimumPolicy) StrategyComparison {
	av := Simulate(loans, budget, Avalanche, policy).Summarize()
	sb := Simulate(loans, budget, Snowball, policy).Summarize()

	cmp := StrategyComparison{
		Avalanche:          av,
		Snowball:           sb,
		Better:             Avalanche,
		InterestDifference: sb.TotalInterest - av.TotalInterest,
		MonthsDifference:   sb.MaxMonths - av.MaxMonths,
	}
	switch {
	case av.NeverPaysOff && !sb.NeverPaysOff:
		cmp.Better = Snowball
	case !av.NeverPaysOff && sb.NeverPaysOff:
		cmp.Better = Avalanche
	case utils.Round2(sb.TotalInterest) < utils.Round2(av.TotalInterest):
		cmp.Better = Snowball
	case utils.Round2(sb.TotalInterest) == utils.Round2(av.TotalInterest) && sb.MaxMonths < av.MaxMonths:
		cmp.Better = Snowball
	}
	return cmp
}

// PortfolioSummary is the scenario-level view of all four analyses.
type PortfolioSummary struct {
	TotalPrincipal      float64 `json:"total_principal"`
	MinimumPaymentTotal float64 `json:"minimum_payment_total"`

	MinimumTotalInterest float64 `json:"minimum_total_interest"`
	MinimumMaxMonths     int     `json:"minimum_max_months"`

	ExtraPaymentTotalInterest float64 `json:"extra_payment_total_interest"`
	ExtraPaymentMaxMonths     int     `json:"extra_payment_max_months"`
	ExtraPaymentInterestSaved float64 `json:"extra_payment_interest_saved"`
	ExtraPaymentMonthsSaved   int     `json:"extra_payment_months_saved"`

	RefinanceTotalSavings    float64 `json:"refinance_total_savings"`
	HasRecommendedRefinances bool    `json:"has_recommended_refinances"`

	CombinedTotalInterest float64 `json:"combined_total_interest"`
	CombinedMaxMonths     int     `json:"combined_max_months"`
	CombinedInterestSaved float64 `json:"combined_interest_saved"`
	CombinedMonthsSaved   int     `json:"combined_months_saved"`
}

// SummarizePortfolio builds the portfolio summary from the results of the
// extra-payment, refinance and combined analyses of loans. baselines are the
// zero-extra amortizations of loans, in the same order.
func SummarizePortfolio(loans []Loan, baselines []AmortizationResult, extra Simulation, refi []RefinanceAnalysis, combined *Simulation, policy MinimumPolicy) PortfolioSummary {
	var s PortfolioSummary
	for i, l := range loans {
		s.TotalPrincipal += math.Max(0, l.Principal)
		s.MinimumPaymentTotal += RequiredPayment(l, policy)
		if i < len(baselines) {
			s.MinimumTotalInterest += baselines[i].TotalInterest
			if baselines[i].PayoffMonths > s.MinimumMaxMonths {
				s.MinimumMaxMonths = baselines[i].PayoffMonths
			}
		}
	}

	ex := extra.Summarize()
	s.ExtraPaymentTotalInterest = ex.TotalInterest
	s.ExtraPaymentMaxMonths = ex.MaxMonths
	s.ExtraPaymentInterestSaved = s.MinimumTotalInterest - ex.TotalInterest
	s.ExtraPaymentMonthsSaved = s.MinimumMaxMonths - ex.MaxMonths

	for _, r := range refi {
		s.RefinanceTotalSavings += r.Savings
		if r.ShouldRefinance {
			s.HasRecommendedRefinances = true
		}
	}

	if combined != nil && combined.Feasible && len(combined.Loans) > 0 {
		cb := combined.Summarize()
		s.CombinedTotalInterest = cb.TotalInterest
		s.CombinedMaxMonths = cb.MaxMonths
		s.CombinedInterestSaved = s.MinimumTotalInterest - cb.TotalInterest
		s.CombinedMonthsSaved = s.MinimumMaxMonths - cb.MaxMonths
	}
	return s
}
