package calculations

import "math"

const (
	// BalanceTransferFeePercent is charged on revolving balances moved to a new card.
	BalanceTransferFeePercent = 0.03
	// MinBalanceTransferFee is the floor of the transfer fee.
	MinBalanceTransferFee = 5.0

	// LargeLoanThreshold switches term loans to the lower closing-cost percentage.
	LargeLoanThreshold      = 100000.0
	ClosingCostPercent      = 0.02
	LargeLoanClosingPercent = 0.015
)

// EffectiveRefinanceRate returns the candidate rate that applies to loan.
// Loans merged from another scenario carry that scenario's rate.
func EffectiveRefinanceRate(loan Loan, rate float64) float64 {
	if loan.Source != nil {
		return loan.Source.RefinanceRate
	}
	return rate
}

// RefinanceCost is the transaction cost of refinancing loan: a balance
// transfer fee for revolving debt, closing costs for term loans.
func RefinanceCost(loan Loan) float64 {
	if loan.Principal <= 0 {
		return 0
	}
	if loan.IsRevolving() {
		return math.Max(loan.Principal*BalanceTransferFeePercent, MinBalanceTransferFee)
	}
	if loan.Principal < LargeLoanThreshold {
		return loan.Principal * ClosingCostPercent
	}
	return loan.Principal * LargeLoanClosingPercent
}

// refinanceBeneficial reports whether moving from current to candidate lowers the rate.
// A non-positive candidate means no rate was offered.
func refinanceBeneficial(current, candidate float64) bool {
	return candidate > 0 && candidate < current
}

// RefinancedLoans returns copies of loans as they would look after
// refinancing: re-rated and with transaction costs rolled into the principal.
// Loans that would not benefit are returned unchanged. The input is not modified.
func RefinancedLoans(loans []Loan, rate float64) []Loan {
	out := make([]Loan, len(loans))
	for i, l := range loans {
		out[i] = l
		newRate := EffectiveRefinanceRate(l, rate)
		if l.Principal <= 0 || !refinanceBeneficial(l.Rate, newRate) {
			continue
		}
		out[i].Principal = l.Principal + RefinanceCost(l)
		out[i].Rate = newRate
	}
	return out
}

// AnalyzeRefinance decides per loan whether the candidate rate pays off.
// Term loans compare payment × term at both rates over the same term;
// revolving debt compares minimum-payment totals at both rates.
func AnalyzeRefinance(loans []Loan, candidateRate float64, policy MinimumPolicy) []RefinanceAnalysis {
	out := make([]RefinanceAnalysis, 0, len(loans))
	for _, l := range loans {
		out = append(out, analyzeLoanRefinance(l, EffectiveRefinanceRate(l, candidateRate), policy))
	}
	return out
}

func analyzeLoanRefinance(loan Loan, newRate float64, policy MinimumPolicy) RefinanceAnalysis {
	current := RequiredPayment(loan, policy)
	res := RefinanceAnalysis{
		Key:            loan.Key(),
		ID:             loan.ID,
		CurrentPayment: current,
		NewPayment:     current,
	}
	// A 0% candidate is a real offer here; only the tiles treat 0 as unset.
	if loan.Principal <= 0 || newRate < 0 || newRate >= loan.Rate {
		return res
	}

	if loan.IsRevolving() {
		before := RevolvingPayoff(loan.Principal, loan.Rate, policy)
		after := RevolvingPayoff(loan.Principal, newRate, policy)
		res.NewPayment = after.FirstPayment
		if before.NeverPaysOff && !after.NeverPaysOff {
			// Any finite payoff beats a balance that is never retired.
			res.Savings = math.Max(0, before.TotalPaid-after.TotalPaid)
			res.ShouldRefinance = true
			return res
		}
		if after.NeverPaysOff {
			return res
		}
		res.Savings = before.TotalPaid - after.TotalPaid
		res.ShouldRefinance = res.Savings > 0
		return res
	}

	res.NewPayment = MonthlyPayment(loan.Principal, newRate, loan.Term)
	term := float64(loan.Term)
	res.Savings = current*term - res.NewPayment*term
	res.ShouldRefinance = res.Savings > 0
	return res
}
