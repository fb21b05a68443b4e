package calculations

import "math"

const (
	// MaxRevolvingMonths bounds the minimum-payment loop (50 years).
	MaxRevolvingMonths = 600
	// RevolvingBalanceTolerance is the balance treated as retired.
	RevolvingBalanceTolerance = 0.01
)

// MinimumMethod selects how a revolving minimum payment is derived.
type MinimumMethod string

const (
	// MethodPercentOfBalance pays max(balance × Percent, Floor).
	MethodPercentOfBalance MinimumMethod = "percent_of_balance"
	// MethodInterestPlusPrincipal pays max(balance × Percent, interest + InterestPlus, Floor).
	MethodInterestPlusPrincipal MinimumMethod = "interest_plus_principal"
)

// MinimumPolicy describes a card issuer's minimum-payment rule.
type MinimumPolicy struct {
	Method       MinimumMethod `json:"method" yaml:"method"`
	Percent      float64       `json:"percent" yaml:"percent"`             // fraction of balance, 0.025 = 2.5%
	InterestPlus float64       `json:"interest_plus" yaml:"interest_plus"` // principal added to interest
	Floor        float64       `json:"floor" yaml:"floor"`                 // absolute minimum
}

// DefaultMinimumPolicy is 2.5% of balance, interest + $10, at least $25.
func DefaultMinimumPolicy() MinimumPolicy {
	return MinimumPolicy{
		Method:       MethodInterestPlusPrincipal,
		Percent:      0.025,
		InterestPlus: 10,
		Floor:        25,
	}
}

// RevolvingMinimum returns the minimum payment due this month for balance.
// The result is not capped at the balance.
func RevolvingMinimum(balance, annualRatePercent float64, policy MinimumPolicy) float64 {
	if balance <= 0 {
		return 0
	}
	interest := balance * monthlyRate(annualRatePercent)
	minimum := math.Max(balance*policy.Percent, policy.Floor)
	if policy.Method == MethodInterestPlusPrincipal {
		minimum = math.Max(minimum, interest+policy.InterestPlus)
	}
	return minimum
}

// RevolvingPayoff simulates paying only the minimum on a revolving balance.
// The minimum is recomputed against the current balance every month.
func RevolvingPayoff(balance, annualRatePercent float64, policy MinimumPolicy) RevolvingResult {
	if balance <= 0 {
		return RevolvingResult{}
	}
	sched := revolvingSchedule(balance, annualRatePercent, policy, 0)
	return RevolvingResult{
		Months:        sched.PayoffMonths,
		TotalPaid:     sched.TotalPaid,
		TotalInterest: sched.TotalInterest,
		FirstPayment:  sched.MonthlyPayment,
		NeverPaysOff:  sched.NeverPaysOff,
	}
}
