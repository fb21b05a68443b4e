package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-payoff-go/internal/cache"
	"github.com/cloud-ru/loan-payoff-go/internal/calculations"
	"github.com/cloud-ru/loan-payoff-go/internal/config"
	"github.com/cloud-ru/loan-payoff-go/internal/httpapi"
	"github.com/cloud-ru/loan-payoff-go/internal/logging"
	"github.com/cloud-ru/loan-payoff-go/internal/service"
	"github.com/cloud-ru/loan-payoff-go/internal/tools"
	"github.com/cloud-ru/loan-payoff-go/internal/tracing"
	"github.com/cloud-ru/loan-payoff-go/pkg/utils"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "payoff",
		Usage: "Debt payoff planner: amortization, avalanche/snowball cascades and refinance analysis",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP tool server",
				Action: serve,
			},
			{
				Name:      "analyze",
				Usage:     "Analyze scenarios from a YAML file",
				ArgsUsage: "<scenarios.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Value: string(calculations.Avalanche), Usage: "avalanche or snowball"},
					&cli.BoolFlag{Name: "all", Usage: "merge every scenario into one portfolio"},
					&cli.BoolFlag{Name: "json", Usage: "print the full analysis as JSON"},
				},
				Action: analyze,
			},
		},
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := tracing.InitTracing(cfg.OTELServiceName, cfg.OTELEndpoint, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	resultCache, closeCache := buildCache(c.Context, cfg, logger)
	defer closeCache()

	registry := tools.NewRegistry(tools.Deps{
		Config:   cfg,
		Tracer:   tracing.Tracer,
		Analyzer: service.NewAnalyzer(cfg, logger),
		Cache:    resultCache,
		Logger:   logger,
	})

	rateLimiter := httpapi.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      httpapi.NewServer(registry, rateLimiter, logger).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// buildCache connects to Redis when configured and falls back to memory
// when it is not set or unreachable.
func buildCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(), func() {}
	}

	rc := cache.NewRedisCache(cfg.RedisAddr)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rc.Close()
		return cache.NewMemoryCache(), func() {}
	}
	logger.Info("result cache on redis", zap.String("addr", cfg.RedisAddr))
	return rc, func() { _ = rc.Close() }
}

func analyze(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: payoff analyze [--strategy avalanche|snowball] [--all] [--json] <scenarios.yaml>", 2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	scenarios, err := config.LoadScenarios(c.Args().First())
	if err != nil {
		return err
	}

	analyzer := service.NewAnalyzer(cfg, logger)
	strategy := calculations.ParseStrategy(c.String("strategy"))

	var results []*service.ScenarioAnalysis
	if c.Bool("all") {
		res, err := analyzer.AnalyzeAll(c.Context, scenarios, strategy)
		if err != nil {
			return err
		}
		results = append(results, res)
	} else {
		for _, sc := range scenarios {
			res, err := analyzer.AnalyzeScenario(c.Context, sc, strategy)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, res := range results {
		printAnalysis(c.App.Writer, res)
	}
	return nil
}

func printAnalysis(out io.Writer, res *service.ScenarioAnalysis) {
	fmt.Fprintf(out, "%s (%s), budget %s, minimums %s\n",
		res.Name, res.Strategy, utils.FormatCurrency(res.Budget), utils.FormatCurrency(res.MinimumTotal))
	if !res.Feasible {
		fmt.Fprintln(out, "  budget does not cover the minimum payments; showing minimums only")
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOAN\tBALANCE\tRATE\tMIN MONTHS\tMIN INTEREST\tEXTRA MONTHS\tEXTRA INTEREST\tREFINANCE")
	for _, ts := range res.Tiles {
		extraMonths, extraInterest := "-", "-"
		if ts.ExtraPayments != nil {
			extraMonths = months(*ts.ExtraPayments)
			extraInterest = utils.FormatCurrency(ts.ExtraPayments.TotalInterest)
		}
		refi := "-"
		if ts.Refinance != nil {
			refi = fmt.Sprintf("%.2f%% saves %s", ts.Refinance.NewRate, utils.FormatCurrency(ts.Refinance.InterestSaved))
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%s\t%s\t%s\t%s\t%s\n",
			ts.Loan.Name,
			utils.FormatCurrency(ts.Loan.Principal),
			ts.Loan.Rate,
			months(ts.Minimum),
			utils.FormatCurrency(ts.Minimum.TotalInterest),
			extraMonths,
			extraInterest,
			refi,
		)
	}
	_ = tw.Flush()

	t := res.Totals
	fmt.Fprintf(out, "  debt free: minimum %s, extra %s, refinance %s, combined %s\n",
		orNever(res.PayoffDates.Minimum),
		orNever(res.PayoffDates.ExtraPayments),
		orNever(res.PayoffDates.Refinance),
		orNever(res.PayoffDates.Combined),
	)
	fmt.Fprintf(out, "  total interest: minimum %s, extra %s, refinance %s, combined %s\n\n",
		utils.FormatCurrency(t.Minimum.TotalInterest),
		utils.FormatCurrency(t.ExtraPayments.TotalInterest),
		utils.FormatCurrency(t.Refinance.TotalInterest),
		utils.FormatCurrency(t.Combined.TotalInterest),
	)
}

func months(t calculations.Tile) string {
	if t.NeverPaysOff {
		return "never"
	}
	return strconv.Itoa(t.PayoffMonths)
}

func orNever(label string) string {
	if label == "" {
		return "never"
	}
	return label
}
