package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cloud-ru/loan-payoff-go/internal/calculations"
)

// Config holds the server configuration.
type Config struct {
	Port            int
	LogLevel        string
	OTELEndpoint    string
	OTELServiceName string

	RedisAddr string
	CacheTTL  time.Duration

	// RateLimit is the number of tool calls per client per RateWindow.
	RateLimit  int
	RateWindow time.Duration

	MaxPrincipal  float64
	MaxRate       float64
	MaxTermMonths int
	MaxBudget     float64
	MaxLoans      int

	PolicyFile string
	Policy     calculations.MinimumPolicy
}

// policyFile is the on-disk shape of POLICY_FILE.
type policyFile struct {
	MinimumPayment calculations.MinimumPolicy `yaml:"minimum_payment"`
}

// LoadConfig reads the configuration from the environment (and .env, if present).
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("PORT", 8000),
		LogLevel:        getEnvString("LOG_LEVEL", "INFO"),
		OTELEndpoint:    getEnvString("OTEL_ENDPOINT", ""),
		OTELServiceName: getEnvString("OTEL_SERVICE_NAME", "loan-payoff-server"),
		RedisAddr:       getEnvString("REDIS_ADDR", ""),
		CacheTTL:        getEnvDuration("CACHE_TTL", 10*time.Minute),
		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		RateWindow:      getEnvDuration("RATE_WINDOW", time.Minute),
		MaxPrincipal:    getEnvFloat("MAX_PRINCIPAL", 1e9),
		MaxRate:         getEnvFloat("MAX_RATE", 100),
		MaxTermMonths:   getEnvInt("MAX_TERM_MONTHS", 600),
		MaxBudget:       getEnvFloat("MAX_BUDGET", 1e8),
		MaxLoans:        getEnvInt("MAX_LOANS", 100),
		PolicyFile:      getEnvString("POLICY_FILE", ""),
		Policy:          calculations.DefaultMinimumPolicy(),
	}

	if cfg.PolicyFile != "" {
		policy, err := LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.Policy = policy
	}

	return cfg, nil
}

// LoadPolicy reads a minimum-payment policy from a YAML file. Fields left out
// of the file keep their default values.
func LoadPolicy(filename string) (calculations.MinimumPolicy, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return calculations.MinimumPolicy{}, fmt.Errorf("read policy file: %w", err)
	}

	pf := policyFile{MinimumPayment: calculations.DefaultMinimumPolicy()}
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return calculations.MinimumPolicy{}, fmt.Errorf("parse policy file %s: %w", filename, err)
	}

	p := pf.MinimumPayment
	switch p.Method {
	case calculations.MethodPercentOfBalance, calculations.MethodInterestPlusPrincipal:
	default:
		return calculations.MinimumPolicy{}, fmt.Errorf("policy file %s: unknown method %q", filename, p.Method)
	}
	if p.Percent < 0 || p.Percent > 1 || p.Floor < 0 || p.InterestPlus < 0 {
		return calculations.MinimumPolicy{}, fmt.Errorf("policy file %s: values out of range", filename)
	}
	return p, nil
}

// scenarioFile is the on-disk shape of a scenario set.
type scenarioFile struct {
	Scenarios []calculations.Scenario `yaml:"scenarios"`
}

// LoadScenarios reads scenarios from a YAML file with a top-level scenarios list.
func LoadScenarios(filename string) ([]calculations.Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var sf scenarioFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", filename, err)
	}
	if len(sf.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario file %s: no scenarios", filename)
	}
	for i := range sf.Scenarios {
		if sf.Scenarios[i].ID == "" {
			sf.Scenarios[i].ID = fmt.Sprintf("scenario-%d", i+1)
		}
	}
	return sf.Scenarios, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
