package calculations

import (
	"testing"
)

func TestMergeScenarios(t *testing.T) {
	scenarios := []Scenario{
		{
			ID: "home", Name: "Home", TotalBudget: 1200, RefinanceRate: 5,
			Loans: []Loan{{ID: "1", Name: "Mortgage", Principal: 200000, Rate: 6.5, Term: 360}},
		},
		{
			ID: "cards", Name: "", TotalBudget: 300, RefinanceRate: 12,
			Loans: []Loan{
				{ID: "1", Name: "Visa", Principal: 4000, Rate: 24, Term: 0},
				{ID: "", Name: "broken", Principal: 10},
			},
		},
		{ID: AllScenarioID, Name: AllScenarioName, TotalBudget: 999, Loans: []Loan{{ID: "x", Principal: 1}}},
	}

	all := MergeScenarios(scenarios)

	if all.ID != AllScenarioID || all.RefinanceRate != 0 {
		t.Errorf("unexpected header %+v", all)
	}
	if all.TotalBudget != 1500 {
		t.Errorf("budget = %f, want 1500", all.TotalBudget)
	}
	if len(all.Loans) != 2 {
		t.Fatalf("expected 2 loans, got %d", len(all.Loans))
	}
	if all.Loans[0].Key() == all.Loans[1].Key() {
		t.Error("loans with equal IDs from different scenarios must have distinct keys")
	}
	if all.Loans[0].Name != "[Home] Mortgage" || all.Loans[1].Name != "[Unknown] Visa" {
		t.Errorf("unexpected names %q, %q", all.Loans[0].Name, all.Loans[1].Name)
	}
	if got := EffectiveRefinanceRate(all.Loans[1], all.RefinanceRate); got != 12 {
		t.Errorf("card refinance rate = %f, want 12", got)
	}
	if scenarios[0].Loans[0].Source != nil {
		t.Error("source scenario was modified")
	}
}

func TestAdvanceOneMonth(t *testing.T) {
	tests := []struct {
		name          string
		loan          Loan
		wantPrincipal float64
		wantTerm      int
	}{
		{
			name:          "term loan",
			loan:          Loan{ID: "1", Principal: 10000, Rate: 5, Term: 120},
			wantPrincipal: 9935.6, // 10000 - (106.07 - 41.67)
			wantTerm:      119,
		},
		{
			name:          "last payment",
			loan:          Loan{ID: "1", Principal: 500, Rate: 6, Term: 1},
			wantPrincipal: 0,
			wantTerm:      0,
		},
		{
			name:          "card unchanged",
			loan:          Loan{ID: "cc", Principal: 3000, Rate: 20, Term: 0},
			wantPrincipal: 3000,
			wantTerm:      0,
		},
		{
			name:          "zero rate unchanged",
			loan:          Loan{ID: "z", Principal: 1200, Rate: 0, Term: 12},
			wantPrincipal: 1200,
			wantTerm:      12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdvanceOneMonth([]Loan{tt.loan})[0]
			if !approx(got.Principal, tt.wantPrincipal, 0.01) {
				t.Errorf("principal = %f, want %f", got.Principal, tt.wantPrincipal)
			}
			if got.Term != tt.wantTerm {
				t.Errorf("term = %d, want %d", got.Term, tt.wantTerm)
			}
		})
	}
}

func TestCompareStrategies(t *testing.T) {
	policy := DefaultMinimumPolicy()
	loans := []Loan{
		{ID: "small", Principal: 1000, Rate: 5, Term: 24},
		{ID: "large", Principal: 5000, Rate: 20, Term: 60},
	}
	cmp := CompareStrategies(loans, MinimumTotal(loans, policy)+200, policy)

	if cmp.Better != Avalanche {
		t.Errorf("better = %s, want avalanche", cmp.Better)
	}
	if cmp.InterestDifference <= 0 {
		t.Errorf("interest difference = %f, want positive", cmp.InterestDifference)
	}
	if cmp.Avalanche.Strategy != Avalanche || cmp.Snowball.Strategy != Snowball {
		t.Errorf("strategies mislabelled: %+v", cmp)
	}
	if cmp.Avalanche.MonthsSaved <= 0 {
		t.Errorf("expected months saved, got %d", cmp.Avalanche.MonthsSaved)
	}
}

func TestSummarizePortfolio(t *testing.T) {
	policy := DefaultMinimumPolicy()
	loans := []Loan{
		{ID: "car", Principal: 20000, Rate: 9, Term: 60},
		{ID: "student", Principal: 12000, Rate: 4.5, Term: 120},
	}
	budget := MinimumTotal(loans, policy) + 250
	baselines := []AmortizationResult{Amortize(loans[0], 0), Amortize(loans[1], 0)}
	extra := Simulate(loans, budget, Avalanche, policy)
	refi := AnalyzeRefinance(loans, 6, policy)
	combined := Simulate(RefinancedLoans(loans, 6), budget, Avalanche, policy)

	s := SummarizePortfolio(loans, baselines, extra, refi, &combined, policy)

	if s.TotalPrincipal != 32000 {
		t.Errorf("total principal = %f", s.TotalPrincipal)
	}
	if s.MinimumMaxMonths != 120 {
		t.Errorf("minimum max months = %d", s.MinimumMaxMonths)
	}
	if s.ExtraPaymentInterestSaved <= 0 || s.ExtraPaymentMonthsSaved <= 0 {
		t.Errorf("expected extra-payment savings, got %+v", s)
	}
	if !s.HasRecommendedRefinances || s.RefinanceTotalSavings <= 0 {
		t.Errorf("expected car refinance to be recommended, got %+v", s)
	}
	if s.CombinedTotalInterest >= s.MinimumTotalInterest {
		t.Errorf("combined interest %f not below minimum %f", s.CombinedTotalInterest, s.MinimumTotalInterest)
	}
}

func TestSummarizePortfolioInfeasibleCombined(t *testing.T) {
	policy := DefaultMinimumPolicy()
	loans := []Loan{{ID: "loan", Principal: 10000, Rate: 5, Term: 120}}
	baselines := []AmortizationResult{Amortize(loans[0], 0)}
	extra := Simulate(loans, 107, Avalanche, policy)
	refi := AnalyzeRefinance(loans, 4.99, policy)
	combined := Simulate(RefinancedLoans(loans, 4.99), 107, Avalanche, policy)
	if combined.Feasible {
		t.Fatal("closing costs should make the combined run infeasible")
	}

	s := SummarizePortfolio(loans, baselines, extra, refi, &combined, policy)

	if s.CombinedTotalInterest != 0 || s.CombinedInterestSaved != 0 || s.CombinedMaxMonths != 0 {
		t.Errorf("infeasible combined run should not be summarised, got %+v", s)
	}
}
