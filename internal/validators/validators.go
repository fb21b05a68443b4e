package validators

import (
	"fmt"
	"strings"

	"github.com/cloud-ru/loan-payoff-go/internal/calculations"
	"github.com/cloud-ru/loan-payoff-go/internal/config"
	"github.com/cloud-ru/loan-payoff-go/pkg/utils"
)

// ValidatePositiveNumber checks that value is finite and within [minInclusive; maxInclusive].
func ValidatePositiveNumber(name string, value float64, minInclusive, maxInclusive float64) error {
	if !utils.IsFinite(value) {
		return fmt.Errorf("%s: value is not a finite number", name)
	}
	if value < minInclusive {
		return fmt.Errorf("%s: value must be >= %g", name, minInclusive)
	}
	if value > maxInclusive {
		return fmt.Errorf("%s: value is too large (>%g)", name, maxInclusive)
	}
	return nil
}

// ValidateIntRange checks that value is within [minInclusive; maxInclusive].
func ValidateIntRange(name string, value int, minInclusive, maxInclusive int) error {
	if value < minInclusive || value > maxInclusive {
		return fmt.Errorf("%s: value must be in range [%d; %d]", name, minInclusive, maxInclusive)
	}
	return nil
}

// CheckPrincipal validates a loan balance. Zero is a retired loan.
func CheckPrincipal(cfg *config.Config, principal float64) error {
	return ValidatePositiveNumber("principal", principal, 0, cfg.MaxPrincipal)
}

// CheckRate validates an annual rate in percent.
func CheckRate(cfg *config.Config, rate float64) error {
	return ValidatePositiveNumber("rate", rate, 0, cfg.MaxRate)
}

// CheckTerm validates a term in months; 0 marks revolving debt.
func CheckTerm(cfg *config.Config, term int) error {
	return ValidateIntRange("term", term, 0, cfg.MaxTermMonths)
}

// CheckBudget validates a monthly budget.
func CheckBudget(cfg *config.Config, budget float64) error {
	return ValidatePositiveNumber("total_budget", budget, 0, cfg.MaxBudget)
}

// CheckRefinanceRate validates a candidate refinance rate; 0 means none offered.
func CheckRefinanceRate(cfg *config.Config, rate float64) error {
	return ValidatePositiveNumber("refinance_rate", rate, 0, cfg.MaxRate)
}

// CheckLoan validates every field of a single loan.
func CheckLoan(cfg *config.Config, loan calculations.Loan) error {
	if strings.TrimSpace(loan.ID) == "" {
		return fmt.Errorf("id: loan id is required")
	}
	if err := CheckPrincipal(cfg, loan.Principal); err != nil {
		return fmt.Errorf("loan %s: %w", loan.ID, err)
	}
	if err := CheckRate(cfg, loan.Rate); err != nil {
		return fmt.Errorf("loan %s: %w", loan.ID, err)
	}
	if err := CheckTerm(cfg, loan.Term); err != nil {
		return fmt.Errorf("loan %s: %w", loan.ID, err)
	}
	if loan.Source != nil {
		if err := CheckRefinanceRate(cfg, loan.Source.RefinanceRate); err != nil {
			return fmt.Errorf("loan %s: %w", loan.ID, err)
		}
	}
	return nil
}

// CheckLoans validates a loan set: its size, each loan and key uniqueness.
func CheckLoans(cfg *config.Config, loans []calculations.Loan) error {
	if len(loans) > cfg.MaxLoans {
		return fmt.Errorf("loans: too many loans (%d > %d)", len(loans), cfg.MaxLoans)
	}
	seen := make(map[calculations.LoanKey]struct{}, len(loans))
	for _, l := range loans {
		if err := CheckLoan(cfg, l); err != nil {
			return err
		}
		if _, dup := seen[l.Key()]; dup {
			return fmt.Errorf("loans: duplicate loan id %q", l.ID)
		}
		seen[l.Key()] = struct{}{}
	}
	return nil
}

// CheckScenario validates a scenario with its loans.
func CheckScenario(cfg *config.Config, sc calculations.Scenario) error {
	if err := CheckBudget(cfg, sc.TotalBudget); err != nil {
		return err
	}
	if err := CheckRefinanceRate(cfg, sc.RefinanceRate); err != nil {
		return err
	}
	return CheckLoans(cfg, sc.Loans)
}

// SanitizeLoan replaces non-finite numbers with 0 and trims text fields.
func SanitizeLoan(loan calculations.Loan) calculations.Loan {
	loan.ID = strings.TrimSpace(loan.ID)
	loan.Name = strings.TrimSpace(loan.Name)
	loan.Principal = utils.OrZero(loan.Principal)
	loan.Rate = utils.OrZero(loan.Rate)
	loan.ExtraPayment = utils.OrZero(loan.ExtraPayment)
	if loan.Source != nil {
		src := *loan.Source
		src.RefinanceRate = utils.OrZero(src.RefinanceRate)
		loan.Source = &src
	}
	return loan
}

// SanitizeScenario applies SanitizeLoan to every loan and cleans the scenario numbers.
func SanitizeScenario(sc calculations.Scenario) calculations.Scenario {
	sc.TotalBudget = utils.OrZero(sc.TotalBudget)
	sc.RefinanceRate = utils.OrZero(sc.RefinanceRate)
	loans := make([]calculations.Loan, len(sc.Loans))
	for i, l := range sc.Loans {
		loans[i] = SanitizeLoan(l)
	}
	sc.Loans = loans
	return sc
}
