package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloud-ru/loan-payoff-go/internal/calculations"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("POLICY_FILE", "")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.Policy != calculations.DefaultMinimumPolicy() {
		t.Errorf("Policy = %+v, want default", cfg.Policy)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_LOANS", "5")
	t.Setenv("RATE_WINDOW", "30s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 9090 || cfg.MaxLoans != 5 || cfg.RateWindow != 30*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadPolicy(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      calculations.MinimumPolicy
		wantError bool
	}{
		{
			name: "percent of balance",
			content: `minimum_payment:
  method: percent_of_balance
  percent: 0.02
  floor: 35
`,
			want: calculations.MinimumPolicy{
				Method:       calculations.MethodPercentOfBalance,
				Percent:      0.02,
				InterestPlus: 10,
				Floor:        35,
			},
		},
		{
			name:    "empty file keeps defaults",
			content: "",
			want:    calculations.DefaultMinimumPolicy(),
		},
		{
			name: "unknown method",
			content: `minimum_payment:
  method: whatever
`,
			wantError: true,
		},
		{
			name: "percent out of range",
			content: `minimum_payment:
  percent: 2.5
`,
			wantError: true,
		},
		{
			name:      "invalid yaml",
			content:   "minimum_payment: [",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "policy.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			got, err := LoadPolicy(path)
			if (err != nil) != tt.wantError {
				t.Fatalf("LoadPolicy() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("LoadPolicy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigBadPolicyFile(t *testing.T) {
	t.Setenv("POLICY_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for missing policy file")
	}
}

func TestLoadScenarios(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantIDs   []string
		wantError bool
	}{
		{
			name: "two scenarios",
			content: `scenarios:
  - id: home
    name: Home
    total_budget: 1500
    refinance_rate: 6
    loans:
      - {id: mortgage, name: Mortgage, principal: 250000, rate: 6.5, term: 360}
      - {id: card, name: Visa, principal: 4000, rate: 22.9, term: 0}
  - name: Side
    total_budget: 200
    loans:
      - {id: laptop, principal: 1200, rate: 0, term: 12}
`,
			wantIDs: []string{"home", "scenario-2"},
		},
		{
			name:      "no scenarios",
			content:   "scenarios: []\n",
			wantError: true,
		},
		{
			name:      "invalid yaml",
			content:   "scenarios: {",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenarios.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			got, err := LoadScenarios(path)
			if (err != nil) != tt.wantError {
				t.Fatalf("LoadScenarios() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				return
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d scenarios, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("scenario %d id = %q, want %q", i, got[i].ID, id)
				}
			}
			if tt.name == "two scenarios" && got[0].Loans[1].Term != 0 {
				t.Errorf("card should be revolving, got term %d", got[0].Loans[1].Term)
			}
		})
	}
}
