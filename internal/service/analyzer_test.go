package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloud-ru/loan-payoff-go/internal/calculations"
	"github.com/cloud-ru/loan-payoff-go/internal/config"
	"github.com/cloud-ru/loan-payoff-go/pkg/utils"
)

func testAnalyzer() *Analyzer {
	a := NewAnalyzer(&config.Config{
		MaxPrincipal:  1e9,
		MaxRate:       100,
		MaxTermMonths: 600,
		MaxBudget:     1e8,
		MaxLoans:      50,
		Policy:        calculations.DefaultMinimumPolicy(),
	}, nil)
	a.now = func() time.Time { return time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC) }
	return a
}

func householdScenario() calculations.Scenario {
	return calculations.Scenario{
		ID:            "household",
		Name:          "Household",
		TotalBudget:   1200,
		RefinanceRate: 5,
		Loans: []calculations.Loan{
			{ID: "car", Name: "Car", Principal: 18000, Rate: 8.5, Term: 60},
			{ID: "card", Name: "Visa", Principal: 4500, Rate: 24.99, Term: 0},
			{ID: "student", Name: "Student", Principal: 22000, Rate: 4.5, Term: 120},
		},
	}
}

func TestAnalyzeScenario(t *testing.T) {
	a := testAnalyzer()

	res, err := a.AnalyzeScenario(context.Background(), householdScenario(), calculations.Avalanche)
	if err != nil {
		t.Fatalf("AnalyzeScenario() error = %v", err)
	}

	if !res.Feasible {
		t.Fatal("expected feasible budget")
	}
	if len(res.Tiles) != 3 || len(res.Refinance) != 3 {
		t.Fatalf("expected 3 tiles and 3 refinance results, got %d/%d", len(res.Tiles), len(res.Refinance))
	}
	if res.Totals.ExtraPayments.TotalInterest >= res.Totals.Minimum.TotalInterest {
		t.Errorf("extra payments should save interest: %f vs %f",
			res.Totals.ExtraPayments.TotalInterest, res.Totals.Minimum.TotalInterest)
	}
	slowest := 0
	for _, ts := range res.Tiles {
		if ts.Minimum.PayoffMonths > slowest {
			slowest = ts.Minimum.PayoffMonths
		}
	}
	if res.Totals.Minimum.MaxMonths != slowest || slowest < 120 {
		t.Errorf("minimum max months = %d, want %d", res.Totals.Minimum.MaxMonths, slowest)
	}
	if want := utils.PayoffLabel(a.now(), slowest); res.PayoffDates.Minimum != want {
		t.Errorf("minimum payoff date = %q, want %q", res.PayoffDates.Minimum, want)
	}
	student := res.Tiles[2]
	if student.Show.Refinance {
		t.Error("student loan is already below the refinance rate")
	}
	car := res.Tiles[0]
	if !car.Show.Combined {
		t.Fatalf("car should show the combined tile, got %+v", car.Show)
	}
	if car.Combined.TotalInterest > car.Minimum.TotalInterest {
		t.Errorf("combined interest %f above minimum %f", car.Combined.TotalInterest, car.Minimum.TotalInterest)
	}
}

func TestAnalyzeScenarioIdempotent(t *testing.T) {
	a := testAnalyzer()
	first, err := a.AnalyzeScenario(context.Background(), householdScenario(), calculations.Snowball)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.AnalyzeScenario(context.Background(), householdScenario(), calculations.Snowball)
	if err != nil {
		t.Fatal(err)
	}
	if first.Totals != second.Totals || first.Summary != second.Summary {
		t.Error("repeated analyses differ")
	}
}

func TestAnalyzeScenarioErrors(t *testing.T) {
	a := testAnalyzer()

	tests := []struct {
		name    string
		ctx     func() context.Context
		mutate  func(*calculations.Scenario)
		wantErr error
	}{
		{
			name:    "negative rate",
			ctx:     context.Background,
			mutate:  func(sc *calculations.Scenario) { sc.Loans[0].Rate = -1 },
			wantErr: ErrInvalidScenario,
		},
		{
			name:    "duplicate loan ids",
			ctx:     context.Background,
			mutate:  func(sc *calculations.Scenario) { sc.Loans[1].ID = "car" },
			wantErr: ErrInvalidScenario,
		},
		{
			name: "cancelled",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			mutate:  func(*calculations.Scenario) {},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := householdScenario()
			tt.mutate(&sc)
			_, err := a.AnalyzeScenario(tt.ctx(), sc, calculations.Avalanche)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AnalyzeScenario() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalyzeAll(t *testing.T) {
	a := testAnalyzer()
	other := calculations.Scenario{
		ID:            "second",
		Name:          "Second",
		TotalBudget:   300,
		RefinanceRate: 12,
		Loans:         []calculations.Loan{{ID: "car", Name: "Old car", Principal: 6000, Rate: 14, Term: 36}},
	}

	res, err := a.AnalyzeAll(context.Background(), []calculations.Scenario{householdScenario(), other}, calculations.Avalanche)
	if err != nil {
		t.Fatalf("AnalyzeAll() error = %v", err)
	}
	if res.ScenarioID != calculations.AllScenarioID || res.Budget != 1500 {
		t.Errorf("unexpected header %s / %f", res.ScenarioID, res.Budget)
	}
	if len(res.Tiles) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(res.Tiles))
	}
	oldCar := res.Tiles[3]
	if oldCar.Refinance == nil || oldCar.Refinance.NewRate != 12 {
		t.Errorf("old car should refinance at its scenario rate, got %+v", oldCar.Refinance)
	}
}
