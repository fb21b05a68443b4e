package calculations

import (
	"reflect"
	"testing"
)

func TestRefinanceCost(t *testing.T) {
	tests := []struct {
		name string
		loan Loan
		want float64
	}{
		{name: "card transfer fee", loan: Loan{Principal: 1000, Rate: 22, Term: 0}, want: 30},
		{name: "card fee floor", loan: Loan{Principal: 100, Rate: 22, Term: 0}, want: 5},
		{name: "small loan closing costs", loan: Loan{Principal: 50000, Rate: 7, Term: 60}, want: 1000},
		{name: "threshold uses lower percentage", loan: Loan{Principal: 100000, Rate: 7, Term: 360}, want: 1500},
		{name: "mortgage closing costs", loan: Loan{Principal: 150000, Rate: 7, Term: 360}, want: 2250},
		{name: "nothing owed", loan: Loan{Principal: 0, Rate: 7, Term: 360}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RefinanceCost(tt.loan); !approx(got, tt.want, 1e-9) {
				t.Errorf("RefinanceCost() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAnalyzeRefinance(t *testing.T) {
	policy := DefaultMinimumPolicy()

	tests := []struct {
		name         string
		loan         Loan
		rate         float64
		checkSummary func(*testing.T, RefinanceAnalysis)
	}{
		{
			name: "same rate is not beneficial",
			loan: Loan{ID: "car", Principal: 20000, Rate: 8, Term: 60},
			rate: 8,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if r.ShouldRefinance || r.Savings != 0 {
					t.Errorf("expected no refinance, got %+v", r)
				}
				if r.CurrentPayment != r.NewPayment {
					t.Errorf("payments differ: %f vs %f", r.CurrentPayment, r.NewPayment)
				}
			},
		},
		{
			name: "higher rate is not beneficial",
			loan: Loan{ID: "car", Principal: 20000, Rate: 8, Term: 60},
			rate: 9.5,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if r.ShouldRefinance || r.Savings != 0 {
					t.Errorf("expected no refinance, got %+v", r)
				}
			},
		},
		{
			name: "higher rate on a card is not beneficial",
			loan: Loan{ID: "cc", Principal: 3000, Rate: 18, Term: 0},
			rate: 24,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if r.ShouldRefinance || r.Savings != 0 {
					t.Errorf("expected no refinance, got %+v", r)
				}
			},
		},
		{
			name: "lower rate on a term loan",
			loan: Loan{ID: "car", Principal: 20000, Rate: 8, Term: 60},
			rate: 5,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if !r.ShouldRefinance {
					t.Fatal("expected refinance")
				}
				if r.NewPayment >= r.CurrentPayment {
					t.Errorf("new payment %f not below %f", r.NewPayment, r.CurrentPayment)
				}
				want := (r.CurrentPayment - r.NewPayment) * 60
				if !approx(r.Savings, want, 1e-6) {
					t.Errorf("savings = %f, want %f", r.Savings, want)
				}
			},
		},
		{
			name: "lower rate on a card",
			loan: Loan{ID: "cc", Principal: 5000, Rate: 24, Term: 0},
			rate: 12,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if !r.ShouldRefinance || r.Savings <= 0 {
					t.Errorf("expected positive savings, got %+v", r)
				}
			},
		},
		{
			name: "source scenario rate wins",
			loan: Loan{ID: "car", Principal: 20000, Rate: 8, Term: 60, Source: &LoanSource{ScenarioID: "s1", RefinanceRate: 4}},
			rate: 0,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if !r.ShouldRefinance {
					t.Fatal("expected refinance at the source rate")
				}
				if r.Key != (LoanKey{ScenarioID: "s1", LoanID: "car"}) {
					t.Errorf("unexpected key %+v", r.Key)
				}
			},
		},
		{
			name: "zero rate on a term loan",
			loan: Loan{ID: "car", Principal: 10000, Rate: 5, Term: 120},
			rate: 0,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if !r.ShouldRefinance {
					t.Fatalf("expected refinance at 0%%, got %+v", r)
				}
				if !approx(r.NewPayment, 10000.0/120, 1e-9) {
					t.Errorf("new payment = %f, want %f", r.NewPayment, 10000.0/120)
				}
				want := MonthlyPayment(10000, 5, 120)*120 - 10000
				if !approx(r.Savings, want, 1e-6) || r.Savings <= 0 {
					t.Errorf("savings = %f, want %f", r.Savings, want)
				}
			},
		},
		{
			name: "zero rate on a card",
			loan: Loan{ID: "cc", Principal: 3000, Rate: 20, Term: 0},
			rate: 0,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if !r.ShouldRefinance || r.Savings <= 0 {
					t.Errorf("expected positive savings at 0%%, got %+v", r)
				}
			},
		},
		{
			name: "zero rate on an interest-free loan",
			loan: Loan{ID: "laptop", Principal: 1200, Rate: 0, Term: 12},
			rate: 0,
			checkSummary: func(t *testing.T, r RefinanceAnalysis) {
				if r.ShouldRefinance || r.Savings != 0 {
					t.Errorf("expected no refinance, got %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeRefinance([]Loan{tt.loan}, tt.rate, policy)
			if len(got) != 1 {
				t.Fatalf("expected one result, got %d", len(got))
			}
			tt.checkSummary(t, got[0])
		})
	}
}

func TestRefinancedLoans(t *testing.T) {
	loans := []Loan{
		{ID: "car", Principal: 20000, Rate: 8, Term: 60},
		{ID: "cc", Principal: 1000, Rate: 22, Term: 0},
		{ID: "cheap", Principal: 9000, Rate: 3, Term: 48},
	}
	orig := make([]Loan, len(loans))
	copy(orig, loans)

	got := RefinancedLoans(loans, 6)

	if !reflect.DeepEqual(loans, orig) {
		t.Fatal("input loans were modified")
	}
	if !approx(got[0].Principal, 20400, 1e-9) || got[0].Rate != 6 {
		t.Errorf("car: got %+v", got[0])
	}
	if !approx(got[1].Principal, 1030, 1e-9) || got[1].Rate != 6 {
		t.Errorf("card: got %+v", got[1])
	}
	if got[2] != loans[2] {
		t.Errorf("cheap loan should be unchanged, got %+v", got[2])
	}
}
