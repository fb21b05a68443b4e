package calculations

// LoanSource links a loan merged into a portfolio back to the scenario it came from.
type LoanSource struct {
	ScenarioID    string  `json:"scenario_id" yaml:"scenario_id"`
	ScenarioName  string  `json:"scenario_name" yaml:"scenario_name"`
	RefinanceRate float64 `json:"refinance_rate" yaml:"refinance_rate"`
}

// Loan is a single debt as seen by the engine. Term == 0 marks revolving
// (credit-card) debt without a fixed schedule.
type Loan struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Principal    float64     `json:"principal" yaml:"principal"`
	Rate         float64     `json:"rate" yaml:"rate"`
	Term         int         `json:"term" yaml:"term"`
	ExtraPayment float64     `json:"extra_payment,omitempty" yaml:"extra_payment,omitempty"`
	Source       *LoanSource `json:"source,omitempty" yaml:"source,omitempty"`
}

// LoanKey identifies a loan across scenarios without string concatenation.
type LoanKey struct {
	ScenarioID string `json:"scenario_id,omitempty"`
	LoanID     string `json:"loan_id"`
}

// Key returns the composite identity of the loan.
func (l Loan) Key() LoanKey {
	k := LoanKey{LoanID: l.ID}
	if l.Source != nil {
		k.ScenarioID = l.Source.ScenarioID
	}
	return k
}

// IsRevolving reports whether the loan is credit-card style debt.
func (l Loan) IsRevolving() bool {
	return l.Term == 0
}

// Scenario is a named loan set with its budget and candidate refinance rate.
type Scenario struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Loans         []Loan  `json:"loans" yaml:"loans"`
	TotalBudget   float64 `json:"total_budget" yaml:"total_budget"`
	RefinanceRate float64 `json:"refinance_rate" yaml:"refinance_rate"`
}

// ScheduleEntry is one month of an amortization schedule.
type ScheduleEntry struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	Balance            float64 `json:"balance"`
	CumulativeInterest float64 `json:"cumulative_interest"`
}

// AmortizationResult summarises paying off a single loan.
type AmortizationResult struct {
	MonthlyPayment float64         `json:"monthly_payment"`
	PayoffMonths   int             `json:"payoff_months"`
	TotalInterest  float64         `json:"total_interest"`
	TotalPaid      float64         `json:"total_paid"`
	InterestSaved  float64         `json:"interest_saved"`
	MonthsSaved    int             `json:"months_saved"`
	NeverPaysOff   bool            `json:"never_pays_off,omitempty"`
	Schedule       []ScheduleEntry `json:"schedule,omitempty"`
}

// RevolvingResult summarises paying only the minimum on revolving debt.
// When NeverPaysOff is set, Months is 0 and the totals cover only the
// simulated horizon.
type RevolvingResult struct {
	Months        int     `json:"months"`
	TotalPaid     float64 `json:"total_paid"`
	TotalInterest float64 `json:"total_interest"`
	FirstPayment  float64 `json:"first_payment"`
	NeverPaysOff  bool    `json:"never_pays_off,omitempty"`
}

// LedgerEntry records what one loan received in one simulated month.
type LedgerEntry struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Extra     float64 `json:"extra"`
	Balance   float64 `json:"balance"`
}

// PayoffSchedule is the simulated outcome for one loan.
type PayoffSchedule struct {
	PayoffMonths  int     `json:"payoff_months"`
	TotalInterest float64 `json:"total_interest"`
	MonthsSaved   int     `json:"months_saved"`
	InterestSaved float64 `json:"interest_saved"`
}

// LoanPayoff is the per-loan result of a cascading simulation. ExtraPayment is
// the amount allocated in the first simulated month only.
type LoanPayoff struct {
	Key             LoanKey        `json:"key"`
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	RequiredPayment float64        `json:"required_payment"`
	ExtraPayment    float64        `json:"extra_payment"`
	Schedule        PayoffSchedule `json:"schedule"`
	Ledger          []LedgerEntry  `json:"ledger,omitempty"`
	NeverPaysOff    bool           `json:"never_pays_off,omitempty"`
}

// Simulation is the output of Simulate.
type Simulation struct {
	Strategy     Strategy     `json:"strategy"`
	Budget       float64      `json:"budget"`
	MinimumTotal float64      `json:"minimum_total"`
	Feasible     bool         `json:"feasible"`
	Months       int          `json:"months"`
	Loans        []LoanPayoff `json:"loans"`
}

// Find returns the payoff for key, if present.
func (s *Simulation) Find(key LoanKey) (LoanPayoff, bool) {
	if s == nil {
		return LoanPayoff{}, false
	}
	for _, p := range s.Loans {
		if p.Key == key {
			return p, true
		}
	}
	return LoanPayoff{}, false
}

// RefinanceAnalysis is the per-loan refinance verdict.
type RefinanceAnalysis struct {
	Key             LoanKey `json:"key"`
	ID              string  `json:"id"`
	ShouldRefinance bool    `json:"should_refinance"`
	Savings         float64 `json:"savings"`
	CurrentPayment  float64 `json:"current_payment"`
	NewPayment      float64 `json:"new_payment"`
}

// Tile is one what-if view of a loan.
type Tile struct {
	TotalPaid       float64 `json:"total_paid"`
	TotalInterest   float64 `json:"total_interest"`
	PayoffMonths    int     `json:"payoff_months"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	ExtraPayment    float64 `json:"extra_payment,omitempty"`
	InterestSaved   float64 `json:"interest_saved,omitempty"`
	MonthsSaved     int     `json:"months_saved,omitempty"`
	NewRate         float64 `json:"new_rate,omitempty"`
	TransactionCost float64 `json:"transaction_cost,omitempty"`
	NeverPaysOff    bool    `json:"never_pays_off,omitempty"`
}

// TileVisibility says which optional tiles apply to a loan.
type TileVisibility struct {
	Minimum       bool `json:"minimum"`
	ExtraPayments bool `json:"extra_payments"`
	Refinance     bool `json:"refinance"`
	Combined      bool `json:"combined"`
}

// TileSet holds the four views of one loan.
type TileSet struct {
	Loan          Loan           `json:"loan"`
	Show          TileVisibility `json:"show"`
	Minimum       Tile           `json:"minimum"`
	ExtraPayments *Tile          `json:"extra_payments,omitempty"`
	Refinance     *Tile          `json:"refinance,omitempty"`
	Combined      *Tile          `json:"combined,omitempty"`
}

// TileTotals aggregates one tile kind across a portfolio.
type TileTotals struct {
	TotalPaid     float64 `json:"total_paid"`
	TotalInterest float64 `json:"total_interest"`
	MaxMonths     int     `json:"max_months"`
	NeverPaysOff  bool    `json:"never_pays_off,omitempty"`
}

// PortfolioTotals aggregates all tile kinds across a portfolio.
type PortfolioTotals struct {
	Minimum       TileTotals `json:"minimum"`
	ExtraPayments TileTotals `json:"extra_payments"`
	Refinance     TileTotals `json:"refinance"`
	Combined      TileTotals `json:"combined"`
}
