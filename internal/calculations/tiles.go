package calculations

import (
	"math"
	"sort"
)

// TileInput carries everything needed to build the four tiles of one loan.
// Payoff and Combined are this loan's entries from the extra-payment and the
// refinanced simulations; FullSimulation and CombinedSimulation are those
// simulations in full and are used to estimate the steady extra payment.
// When FullSimulation is nil, AllLoans is simulated with Strategy instead.
type TileInput struct {
	Loan               Loan
	TotalBudget        float64
	RefinanceRate      float64
	Payoff             *LoanPayoff
	Refinance          *RefinanceAnalysis
	Combined           *LoanPayoff
	AllLoans           []Loan
	FullSimulation     *Simulation
	CombinedSimulation *Simulation
	Strategy           Strategy
	Policy             MinimumPolicy
}

// CalculateLoanTileValues builds the minimum, extra-payment, refinance and
// combined views of a single loan. Only the minimum tile is always present.
func CalculateLoanTileValues(in TileInput) TileSet {
	loan := in.Loan
	rate := EffectiveRefinanceRate(loan, in.RefinanceRate)

	show := TileVisibility{Minimum: true}
	show.ExtraPayments = in.TotalBudget > 0 && in.Payoff != nil
	show.Refinance = refinanceBeneficial(loan.Rate, rate) && in.Refinance != nil && in.Refinance.ShouldRefinance
	// Fees can push refinanced minimums past a budget that covers the originals.
	combinedFeasible := in.CombinedSimulation == nil || in.CombinedSimulation.Feasible
	show.Combined = in.Combined != nil && combinedFeasible && show.ExtraPayments && show.Refinance

	set := TileSet{
		Loan:    loan,
		Show:    show,
		Minimum: minimumTile(loan, in.Policy),
	}

	fullSim := in.FullSimulation
	if show.ExtraPayments && fullSim == nil && len(in.AllLoans) > 0 {
		sim := Simulate(in.AllLoans, in.TotalBudget, in.Strategy, in.Policy)
		fullSim = &sim
	}

	if show.ExtraPayments {
		t := simulatedTile(*in.Payoff, loan.Principal, set.Minimum, fullSim, in.TotalBudget)
		set.ExtraPayments = &t
	}
	if show.Refinance {
		t := refinanceTile(loan, rate, set.Minimum, in.Policy)
		set.Refinance = &t
	}
	if show.Combined {
		t := simulatedTile(*in.Combined, loan.Principal+RefinanceCost(loan), set.Minimum, in.CombinedSimulation, in.TotalBudget)
		t.NewRate = rate
		t.TransactionCost = RefinanceCost(loan)
		set.Combined = &t
	}
	return set
}

func minimumTile(loan Loan, policy MinimumPolicy) Tile {
	if loan.Principal <= 0 {
		return Tile{}
	}
	if loan.IsRevolving() {
		r := RevolvingPayoff(loan.Principal, loan.Rate, policy)
		return Tile{
			TotalPaid:      r.TotalPaid,
			TotalInterest:  r.TotalInterest,
			PayoffMonths:   r.Months,
			MonthlyPayment: r.FirstPayment,
			NeverPaysOff:   r.NeverPaysOff,
		}
	}
	payment := MonthlyPayment(loan.Principal, loan.Rate, loan.Term)
	total := payment * float64(loan.Term)
	return Tile{
		TotalPaid:      total,
		TotalInterest:  math.Max(0, total-loan.Principal),
		PayoffMonths:   loan.Term,
		MonthlyPayment: payment,
	}
}

// simulatedTile turns a simulated payoff into a tile. principal is the amount
// actually financed, which includes any refinance costs.
func simulatedTile(p LoanPayoff, principal float64, minimum Tile, sim *Simulation, budget float64) Tile {
	extra := p.ExtraPayment
	if sim != nil {
		extra = EstimateSteadyExtra(p.Key, sim, budget)
	}
	t := Tile{
		TotalPaid:      principal + p.Schedule.TotalInterest,
		TotalInterest:  p.Schedule.TotalInterest,
		PayoffMonths:   p.Schedule.PayoffMonths,
		MonthlyPayment: p.RequiredPayment + extra,
		ExtraPayment:   extra,
		NeverPaysOff:   p.NeverPaysOff,
	}
	withSavings(&t, minimum)
	return t
}

func refinanceTile(loan Loan, rate float64, minimum Tile, policy MinimumPolicy) Tile {
	cost := RefinanceCost(loan)
	financed := loan.Principal + cost
	t := Tile{NewRate: rate, TransactionCost: cost}

	if loan.IsRevolving() {
		r := RevolvingPayoff(financed, rate, policy)
		t.TotalPaid = r.TotalPaid
		t.TotalInterest = r.TotalInterest
		t.PayoffMonths = r.Months
		t.MonthlyPayment = r.FirstPayment
		t.NeverPaysOff = r.NeverPaysOff
		withSavings(&t, minimum)
		return t
	}

	payment := MonthlyPayment(financed, rate, loan.Term)
	t.TotalPaid = payment * float64(loan.Term)
	t.TotalInterest = math.Max(0, t.TotalPaid-financed)
	t.PayoffMonths = loan.Term
	t.MonthlyPayment = payment
	t.InterestSaved = minimum.TotalInterest - t.TotalInterest
	return t
}

// withSavings fills the deltas against the minimum tile. Savings against a
// balance that is never retired are left at zero.
func withSavings(t *Tile, minimum Tile) {
	if t.NeverPaysOff || minimum.NeverPaysOff {
		return
	}
	t.InterestSaved = minimum.TotalInterest - t.TotalInterest
	t.MonthsSaved = minimum.PayoffMonths - t.PayoffMonths
}

// payoffOrder is the sort key for a simulated loan: its payoff month, with
// already retired loans first and never-retired loans last.
func payoffOrder(p LoanPayoff) int {
	switch {
	case p.NeverPaysOff:
		return math.MaxInt
	case p.Schedule.PayoffMonths == 0 && p.RequiredPayment > 0:
		return math.MaxInt
	default:
		return p.Schedule.PayoffMonths
	}
}

// EstimateSteadyExtra estimates the extra payment a loan receives once it is
// in focus. Loans are ordered by payoff month; the estimate is the budget left
// after the minimums of every loan still active at or after this loan's
// position. A non-zero first-month allocation is returned as is. The result
// never lets minimum plus extra exceed the budget.
func EstimateSteadyExtra(key LoanKey, sim *Simulation, budget float64) float64 {
	if sim == nil || !sim.Feasible || budget <= 0 {
		return 0
	}
	self, ok := sim.Find(key)
	if !ok {
		return 0
	}
	headroom := math.Max(0, budget-self.RequiredPayment)
	if self.ExtraPayment > 0 {
		return math.Min(self.ExtraPayment, headroom)
	}
	if self.Schedule.PayoffMonths == 0 && !self.NeverPaysOff {
		return 0
	}

	order := make([]LoanPayoff, len(sim.Loans))
	copy(order, sim.Loans)
	sort.SliceStable(order, func(i, j int) bool {
		return payoffOrder(order[i]) < payoffOrder(order[j])
	})

	pos := 0
	for i, p := range order {
		if p.Key == key {
			pos = i
			break
		}
	}
	remaining := 0.0
	for _, p := range order[pos:] {
		remaining += p.RequiredPayment
	}
	return math.Min(math.Max(0, budget-remaining), headroom)
}

// LedgerSteadyExtra reads the steady extra payment straight from the
// simulation ledger: the largest extra allocated before the payoff month,
// or in the payoff month itself when the loan is retired in its first month
// of focus.
func LedgerSteadyExtra(p LoanPayoff) float64 {
	last := p.Schedule.PayoffMonths
	if p.NeverPaysOff || last == 0 {
		last = math.MaxInt
	}
	steady, final := 0.0, 0.0
	for _, e := range p.Ledger {
		switch {
		case e.Month < last:
			steady = math.Max(steady, e.Extra)
		case e.Month == last:
			final = e.Extra
		}
	}
	if steady == 0 {
		return final
	}
	return steady
}

// CalculateSummaryTotals aggregates tile sets into portfolio totals. Missing
// tiles fall back: extra and refinance to minimum, combined to extra and then
// minimum. Months are the slowest loan per tile kind.
func CalculateSummaryTotals(sets []TileSet) PortfolioTotals {
	var totals PortfolioTotals
	for _, s := range sets {
		minimum := s.Minimum
		extra := orTile(s.ExtraPayments, minimum)
		refi := orTile(s.Refinance, minimum)
		combined := orTile(s.Combined, extra)

		addTile(&totals.Minimum, minimum)
		addTile(&totals.ExtraPayments, extra)
		addTile(&totals.Refinance, refi)
		addTile(&totals.Combined, combined)
	}
	return totals
}

func orTile(t *Tile, fallback Tile) Tile {
	if t == nil {
		return fallback
	}
	return *t
}

func addTile(tt *TileTotals, t Tile) {
	tt.TotalPaid += t.TotalPaid
	tt.TotalInterest += t.TotalInterest
	if t.PayoffMonths > tt.MaxMonths {
		tt.MaxMonths = t.PayoffMonths
	}
	if t.NeverPaysOff {
		tt.NeverPaysOff = true
	}
}
