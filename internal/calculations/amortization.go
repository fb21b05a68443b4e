package calculations

import (
	"math"
)

// paidOffTolerance absorbs floating-point residue left after the final payment.
const paidOffTolerance = 1e-6

func monthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 100.0 / 12.0
}

// MonthlyPayment returns the fixed annuity payment that retires principal in
// term months. A 0% loan pays principal/term; non-positive principal or term
// yields 0.
func MonthlyPayment(principal, annualRatePercent float64, term int) float64 {
	if principal <= 0 || term <= 0 {
		return 0
	}
	r := monthlyRate(annualRatePercent)
	if r == 0 {
		return principal / float64(term)
	}
	growth := math.Pow(1+r, float64(term))
	return principal * r * growth / (growth - 1)
}

// TimeToPayoff returns the number of months a fixed payment needs to retire
// principal. ok is false when the payment never covers the interest.
func TimeToPayoff(principal, annualRatePercent, payment float64) (months int, ok bool) {
	if principal <= 0 {
		return 0, true
	}
	if payment <= 0 {
		return 0, false
	}
	if annualRatePercent == 0 {
		return ceilMonths(principal / payment), true
	}
	r := monthlyRate(annualRatePercent)
	if payment <= principal*r {
		return 0, false
	}
	n := math.Log(payment/(payment-principal*r)) / math.Log(1+r)
	return ceilMonths(n), true
}

func ceilMonths(x float64) int {
	return int(math.Ceil(x - 1e-9))
}

// Amortize pays off a single loan with an optional fixed extra payment, using
// the default revolving minimum policy for credit-card debt.
func Amortize(loan Loan, extra float64) AmortizationResult {
	return AmortizeWithPolicy(loan, extra, DefaultMinimumPolicy())
}

// AmortizeWithPolicy is Amortize with an explicit revolving minimum policy.
// Savings are measured against the same loan with no extra payment.
func AmortizeWithPolicy(loan Loan, extra float64, policy MinimumPolicy) AmortizationResult {
	if loan.Principal <= 0 {
		return AmortizationResult{}
	}
	extra = math.Max(0, extra)
	res := amortizeSchedule(loan, extra, policy)
	if extra == 0 {
		return res
	}
	return applyBaseline(res, amortizeSchedule(loan, 0, policy))
}

// AmortizeWithBaseline is AmortizeWithPolicy for callers that already hold the
// zero-extra baseline of the same loan.
func AmortizeWithBaseline(loan Loan, extra float64, baseline AmortizationResult, policy MinimumPolicy) AmortizationResult {
	if loan.Principal <= 0 {
		return AmortizationResult{}
	}
	extra = math.Max(0, extra)
	res := amortizeSchedule(loan, extra, policy)
	if extra == 0 {
		return res
	}
	return applyBaseline(res, baseline)
}

func applyBaseline(res, baseline AmortizationResult) AmortizationResult {
	if baseline.NeverPaysOff || res.NeverPaysOff {
		return res
	}
	res.InterestSaved = baseline.TotalInterest - res.TotalInterest
	res.MonthsSaved = baseline.PayoffMonths - res.PayoffMonths
	return res
}

func amortizeSchedule(loan Loan, extra float64, policy MinimumPolicy) AmortizationResult {
	if loan.IsRevolving() {
		return revolvingSchedule(loan.Principal, loan.Rate, policy, extra)
	}

	P := loan.Principal
	n := loan.Term
	required := MonthlyPayment(P, loan.Rate, n)

	if loan.Rate == 0 {
		return zeroRateSchedule(P, required+extra, required)
	}

	r := monthlyRate(loan.Rate)
	balance := P
	cumI := 0.0
	months := 0
	schedule := make([]ScheduleEntry, 0, n)

	for balance > paidOffTolerance && months < 2*n {
		months++
		interest := balance * r
		principal := required - interest
		payment := required

		// Negative amortization guard.
		if principal < 0 {
			principal = 0
			payment = interest
		}

		principal += extra
		payment += extra

		if principal >= balance-paidOffTolerance {
			principal = balance
			payment = balance + interest
		}

		balance -= principal
		cumI += interest

		schedule = append(schedule, ScheduleEntry{
			Month:              months,
			Payment:            payment,
			Principal:          principal,
			Interest:           interest,
			Balance:            balance,
			CumulativeInterest: cumI,
		})
	}

	return AmortizationResult{
		MonthlyPayment: required,
		PayoffMonths:   months,
		TotalInterest:  cumI,
		TotalPaid:      P + cumI,
		NeverPaysOff:   balance > paidOffTolerance,
		Schedule:       schedule,
	}
}

func zeroRateSchedule(principal, payment, required float64) AmortizationResult {
	months := ceilMonths(principal / payment)
	schedule := make([]ScheduleEntry, 0, months)
	balance := principal
	for m := 1; m <= months && balance > 0; m++ {
		pay := math.Min(payment, balance)
		balance = math.Max(0, balance-pay)
		schedule = append(schedule, ScheduleEntry{
			Month:     m,
			Payment:   pay,
			Principal: pay,
			Balance:   balance,
		})
	}
	return AmortizationResult{
		MonthlyPayment: required,
		PayoffMonths:   months,
		TotalPaid:      principal,
		Schedule:       schedule,
	}
}

// revolvingSchedule is the minimum-payment engine with an optional fixed
// amount paid on top of each month's minimum.
func revolvingSchedule(balance, annualRatePercent float64, policy MinimumPolicy, extra float64) AmortizationResult {
	P := balance
	r := monthlyRate(annualRatePercent)
	res := AmortizationResult{MonthlyPayment: RevolvingMinimum(balance, annualRatePercent, policy)}

	cumI := 0.0
	paid := 0.0
	months := 0
	for balance > RevolvingBalanceTolerance {
		if months >= MaxRevolvingMonths {
			res.NeverPaysOff = true
			break
		}
		interest := balance * r
		payment := math.Min(RevolvingMinimum(balance, annualRatePercent, policy)+extra, balance+interest)
		principal := payment - interest
		if principal <= 0 {
			res.NeverPaysOff = true
			break
		}
		months++
		balance -= principal
		cumI += interest
		paid += payment
		res.Schedule = append(res.Schedule, ScheduleEntry{
			Month:              months,
			Payment:            payment,
			Principal:          principal,
			Interest:           interest,
			Balance:            math.Max(0, balance),
			CumulativeInterest: cumI,
		})
	}

	res.TotalInterest = cumI
	if res.NeverPaysOff {
		// Only what was actually paid over the horizon; the principal is never retired.
		res.TotalPaid = paid
		return res
	}
	res.TotalPaid = P + cumI
	res.PayoffMonths = months
	return res
}
