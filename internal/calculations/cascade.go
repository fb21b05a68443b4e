package calculations

import (
	"math"
	"sort"
	"strings"
)

// MaxSimulationMonths bounds the cascading simulation (100 years).
const MaxSimulationMonths = 1200

// Strategy decides which active loan receives the surplus budget.
type Strategy string

const (
	Avalanche Strategy = "avalanche" // highest rate first
	Snowball  Strategy = "snowball"  // smallest current balance first
)

// ParseStrategy maps user input to a strategy; anything unknown is avalanche.
func ParseStrategy(s string) Strategy {
	if Strategy(strings.ToLower(strings.TrimSpace(s))) == Snowball {
		return Snowball
	}
	return Avalanche
}

// simLoan is the mutable per-run mirror of a loan.
type simLoan struct {
	loan        Loan
	balance     float64
	required    float64
	interest    float64
	payoffMonth int
	ledger      []LedgerEntry
}

// minimumFor returns this month's required payment for the simulated loan.
// Term loans keep their original annuity payment; revolving debt is
// re-evaluated against the current balance and never exceeds what clears it.
func (s *simLoan) minimumFor(policy MinimumPolicy) float64 {
	if s.loan.IsRevolving() {
		payoff := s.balance * (1 + monthlyRate(s.loan.Rate))
		return math.Min(RevolvingMinimum(s.balance, s.loan.Rate, policy), payoff)
	}
	return s.required
}

// RequiredPayment is the first-month minimum of a loan: the annuity payment
// for term loans, the policy minimum for revolving debt.
func RequiredPayment(loan Loan, policy MinimumPolicy) float64 {
	if loan.Principal <= 0 {
		return 0
	}
	if loan.IsRevolving() {
		return RevolvingMinimum(loan.Principal, loan.Rate, policy)
	}
	return MonthlyPayment(loan.Principal, loan.Rate, loan.Term)
}

// MinimumTotal is the budget needed to cover every loan's minimum payment.
func MinimumTotal(loans []Loan, policy MinimumPolicy) float64 {
	total := 0.0
	for _, l := range loans {
		total += RequiredPayment(l, policy)
	}
	return total
}

// rank orders the active loans for this month. The sort is stable so ties
// keep input order.
func rank(active []*simLoan, strategy Strategy) {
	switch strategy {
	case Snowball:
		sort.SliceStable(active, func(i, j int) bool {
			return active[i].balance < active[j].balance
		})
	default:
		sort.SliceStable(active, func(i, j int) bool {
			return active[i].loan.Rate > active[j].loan.Rate
		})
	}
}

// Simulate pays down loans month by month with a fixed total budget. Every
// month the active loans are re-ranked by strategy and the whole surplus over
// the minimums goes to the single top-ranked loan.
//
// If the budget does not cover the minimums, each loan's minimum-only
// amortization is returned instead and Feasible is false.
func Simulate(loans []Loan, totalBudget float64, strategy Strategy, policy MinimumPolicy) Simulation {
	sim := Simulation{
		Strategy:     strategy,
		Budget:       totalBudget,
		MinimumTotal: MinimumTotal(loans, policy),
		Loans:        make([]LoanPayoff, 0, len(loans)),
	}
	if len(loans) == 0 {
		sim.Feasible = true
		return sim
	}

	baselines := make([]AmortizationResult, len(loans))
	for i, l := range loans {
		baselines[i] = AmortizeWithPolicy(l, 0, policy)
	}

	if totalBudget < sim.MinimumTotal {
		for i, l := range loans {
			sim.Loans = append(sim.Loans, LoanPayoff{
				Key:             l.Key(),
				ID:              l.ID,
				Name:            l.Name,
				RequiredPayment: RequiredPayment(l, policy),
				Schedule: PayoffSchedule{
					PayoffMonths:  baselines[i].PayoffMonths,
					TotalInterest: baselines[i].TotalInterest,
				},
				NeverPaysOff: baselines[i].NeverPaysOff,
			})
		}
		return sim
	}
	sim.Feasible = true

	state := make([]*simLoan, len(loans))
	for i, l := range loans {
		state[i] = &simLoan{
			loan:     l,
			balance:  math.Max(0, l.Principal),
			required: RequiredPayment(l, policy),
		}
	}

	month := 0
	for month < MaxSimulationMonths {
		active := make([]*simLoan, 0, len(state))
		for _, s := range state {
			if s.balance > 0 {
				active = append(active, s)
			}
		}
		if len(active) == 0 {
			break
		}
		month++

		rank(active, strategy)
		focus := active[0]

		minimums := 0.0
		for _, s := range active {
			minimums += s.minimumFor(policy)
		}
		extraBudget := math.Max(0, totalBudget-minimums)

		for _, s := range state {
			if s.balance <= 0 {
				s.ledger = append(s.ledger, LedgerEntry{Month: month})
				continue
			}

			interest := s.balance * monthlyRate(s.loan.Rate)
			principal := math.Max(0, math.Min(s.minimumFor(policy)-interest, s.balance))

			extra := 0.0
			if s == focus && extraBudget > 0 {
				extra = math.Max(0, math.Min(extraBudget, s.balance-principal))
				extraBudget -= extra
				principal += extra
			}

			s.balance = math.Max(0, s.balance-principal)
			if s.balance <= paidOffTolerance {
				s.balance = 0
			}
			s.interest += interest

			s.ledger = append(s.ledger, LedgerEntry{
				Month:     month,
				Payment:   interest + principal,
				Principal: principal,
				Interest:  interest,
				Extra:     extra,
				Balance:   s.balance,
			})

			if s.balance == 0 && s.payoffMonth == 0 {
				s.payoffMonth = month
			}
		}
	}
	sim.Months = month

	for i, s := range state {
		base := baselines[i]
		p := LoanPayoff{
			Key:             s.loan.Key(),
			ID:              s.loan.ID,
			Name:            s.loan.Name,
			RequiredPayment: s.required,
			Schedule: PayoffSchedule{
				PayoffMonths:  s.payoffMonth,
				TotalInterest: s.interest,
			},
			Ledger:       s.ledger,
			NeverPaysOff: s.balance > 0,
		}
		if len(s.ledger) > 0 {
			p.ExtraPayment = s.ledger[0].Extra
		}
		if !p.NeverPaysOff && !base.NeverPaysOff {
			p.Schedule.MonthsSaved = base.PayoffMonths - s.payoffMonth
			p.Schedule.InterestSaved = base.TotalInterest - s.interest
		}
		sim.Loans = append(sim.Loans, p)
	}
	return sim
}
