// TradeGauge — options contract risk scoring.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Phainsworth/tradegauge-site/api"
	"github.com/Phainsworth/tradegauge-site/internal/advisor"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/scoring"
	"github.com/Phainsworth/tradegauge-site/internal/config"
	"github.com/Phainsworth/tradegauge-site/internal/datasource"
	"github.com/Phainsworth/tradegauge-site/internal/engine"
	"github.com/Phainsworth/tradegauge-site/internal/logger"
	"github.com/Phainsworth/tradegauge-site/internal/report"
	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tradegauge",
	Short: "TradeGauge — options contract risk scoring",
	Long: `TradeGauge scores single options contracts on a 0-10 risk scale,
blending a deterministic rule score with an LLM advisory read, and
surfaces the drivers, event danger windows, and expiry scenarios
behind the number.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		logger.Init(level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(expirationsCmd)
	rootCmd.AddCommand(strikesCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildEngine wires the data aggregator, the advisory client and the
// scoring engine from the loaded config.
func buildEngine() (*engine.Engine, *datasource.Aggregator) {
	agg := datasource.NewAggregator(datasource.Config{
		FinnhubAPIKey: cfg.Providers.FinnhubAPIKey,
		PolygonAPIKey: cfg.Providers.PolygonAPIKey,
		TradierToken:  cfg.Providers.TradierToken,
		FredAPIKey:    cfg.Providers.FredAPIKey,
	})

	var provider advisor.Provider
	if cfg.Advisor.Enabled && cfg.Advisor.OpenAIKey != "" {
		opts := []advisor.ClientOption{}
		if cfg.Advisor.BaseURL != "" {
			opts = append(opts, advisor.WithBaseURL(cfg.Advisor.BaseURL))
		}
		if cfg.Advisor.Model != "" {
			opts = append(opts, advisor.WithModel(cfg.Advisor.Model))
		}
		client, err := advisor.NewClient(cfg.Advisor.OpenAIKey, opts...)
		if err == nil {
			provider = client
		}
	}

	opts := engine.DefaultOptions()
	if cfg.Scoring.CalibrationScale != 0 {
		opts.Calibration = scoring.Calibration{
			Scale: cfg.Scoring.CalibrationScale,
			Bias:  cfg.Scoring.CalibrationBias,
		}
	}
	if cfg.Scoring.MaxDrivers > 0 {
		opts.MaxDrivers = cfg.Scoring.MaxDrivers
	}
	if cfg.Scoring.PaidRefMultiple > 0 {
		opts.PriceNorm.RefMultiple = cfg.Scoring.PaidRefMultiple
	}
	if cfg.Strikes.EachSide > 0 {
		opts.Strikes.EachSide = cfg.Strikes.EachSide
	}
	if cfg.Events.HorizonDays > 0 {
		opts.EventHorizonDays = cfg.Events.HorizonDays
	}
	if cfg.Events.HeadlineLimit > 0 {
		opts.HeadlineLimit = cfg.Events.HeadlineLimit
	}

	eng := engine.New(agg, provider, opts, logger.GetLogger("engine"))
	return eng, agg
}

func parseKindArg(raw string) (models.OptionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CALL", "C":
		return models.Call, nil
	case "PUT", "P":
		return models.Put, nil
	default:
		return "", fmt.Errorf("kind must be CALL or PUT, got %q", raw)
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TradeGauge %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Score an options contract",
	Long: `Run a full contract review: quote, derived metrics, rule score,
advisory opinion and the blended 0-10 risk score.

Examples:
  tradegauge analyze AAPL --kind call --strike 190 --expiry 2026-09-18
  tradegauge analyze TSLA --kind put --strike 200 --paid 4.35 --owns`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kindRaw, _ := cmd.Flags().GetString("kind")
		kind, err := parseKindArg(kindRaw)
		if err != nil {
			return err
		}
		strike, _ := cmd.Flags().GetFloat64("strike")
		if strike <= 0 {
			return fmt.Errorf("--strike must be positive")
		}
		expiry, _ := cmd.Flags().GetString("expiry")
		paid, _ := cmd.Flags().GetString("paid")
		owns, _ := cmd.Flags().GetBool("owns")

		eng, _ := buildEngine()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		rep, err := eng.Analyze(ctx, engine.AnalyzeRequest{
			Ticker:       args[0],
			Kind:         kind,
			Strike:       strike,
			Expiry:       expiry,
			PricePaid:    paid,
			OwnsPosition: owns,
		})
		if err != nil {
			return err
		}

		if markdown, _ := cmd.Flags().GetBool("markdown"); markdown {
			fmt.Print(report.Render(rep, report.FormatMarkdown))
		} else {
			printReport(rep)
		}

		if chartPath, _ := cmd.Flags().GetString("chart"); chartPath != "" {
			name := fmt.Sprintf("%s %s %.0f", rep.Contract.Ticker, rep.Contract.Kind, rep.Contract.Strike)
			svg := report.PayoffChart(rep.Scenarios, name, report.ChartConfig{})
			if err := os.WriteFile(chartPath, []byte(svg), 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Printf("📈 Payoff chart written to %s\n", chartPath)
		}

		if token, err := eng.ShareToken(); err == nil {
			fmt.Printf("🔗 Share token: %s\n", token)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("kind", "", "contract kind: call or put (required)")
	analyzeCmd.Flags().Float64("strike", 0, "strike price (required)")
	analyzeCmd.Flags().String("expiry", "", "expiration date YYYY-MM-DD (default: nearest)")
	analyzeCmd.Flags().String("paid", "", "price paid per contract")
	analyzeCmd.Flags().Bool("owns", false, "you hold the position (vs. prospecting)")
	analyzeCmd.Flags().Bool("markdown", false, "emit the review as shareable Markdown")
	analyzeCmd.Flags().String("chart", "", "write an SVG payoff chart to this path")
	_ = analyzeCmd.MarkFlagRequired("kind")
	_ = analyzeCmd.MarkFlagRequired("strike")
}

func printReport(r *engine.Report) {
	c := r.Contract
	fmt.Printf("\n%s %s $%.2f exp %s (%dd)\n", c.Ticker, c.Kind, c.Strike, c.Expiry, c.DTE)
	fmt.Println(strings.Repeat("─", 44))

	fmt.Printf("  Risk Score:  %.1f / 10  (%s)\n", r.Score.Score, r.Score.Bucket)
	if r.ProbITM != nil {
		fmt.Printf("  Prob ITM:    %d%%\n", *r.ProbITM)
	}
	if r.Derived.Breakeven != nil {
		fmt.Printf("  Breakeven:   $%.2f\n", *r.Derived.Breakeven)
	}
	if r.PnLPct != nil {
		fmt.Printf("  Open P/L:    %+.1f%%\n", *r.PnLPct)
	}

	if len(r.Score.Drivers) > 0 {
		fmt.Println("\n  Drivers:")
		for _, d := range r.Score.Drivers {
			fmt.Printf("    • %s\n", d)
		}
	}

	if r.Opinion != nil && r.Opinion.Headline != "" {
		fmt.Printf("\n  Advisory: %s\n", r.Opinion.Headline)
	}
	if r.Plan != nil && r.Plan.Plan != "" {
		fmt.Printf("\n  Plan: %s\n", r.Plan.Plan)
	}
	if r.Routes != nil {
		fmt.Println("\n  Routes:")
		fmt.Printf("    Aggressive:   %s\n", r.Routes.Routes.Aggressive.Action)
		fmt.Printf("    Middle:       %s\n", r.Routes.Routes.Middle.Action)
		fmt.Printf("    Conservative: %s\n", r.Routes.Routes.Conservative.Action)
		fmt.Printf("    Pick: %s — %s\n", r.Routes.Pick.Route, r.Routes.Pick.Reason)
	}

	if len(r.DangerWindows) > 0 {
		fmt.Println("\n  Danger Windows:")
		for _, w := range r.DangerWindows {
			fmt.Printf("    day %+d to %+d  %s\n", w.Start, w.End, w.Label)
		}
	}

	fmt.Println()
}

// --- Expirations Command ---

var expirationsCmd = &cobra.Command{
	Use:   "expirations [ticker]",
	Short: "List available expiration dates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _ := buildEngine()
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		expirations, err := eng.Expirations(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		for _, e := range expirations {
			fmt.Println(e)
		}
		return nil
	},
}

// --- Strikes Command ---

var strikesCmd = &cobra.Command{
	Use:   "strikes [ticker]",
	Short: "Show the strike window near the money",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expiry, _ := cmd.Flags().GetString("expiry")
		if expiry == "" {
			return fmt.Errorf("--expiry is required")
		}
		kindRaw, _ := cmd.Flags().GetString("kind")
		kind, err := parseKindArg(kindRaw)
		if err != nil {
			return err
		}

		eng, _ := buildEngine()
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		strikes, err := eng.StrikeView(ctx, strings.ToUpper(args[0]), expiry, kind, nil, nil)
		if err != nil {
			return err
		}
		for _, s := range strikes {
			fmt.Printf("%.2f\n", s)
		}
		return nil
	},
}

func init() {
	strikesCmd.Flags().String("expiry", "", "expiration date YYYY-MM-DD (required)")
	strikesCmd.Flags().String("kind", "call", "contract kind: call or put")
}

// --- Events Command ---

var eventsCmd = &cobra.Command{
	Use:   "events [ticker]",
	Short: "Show upcoming earnings, macro events and danger windows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _ := buildEngine()
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		evctx, windows, err := eng.EventOutlook(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}

		if evctx.Earnings != nil {
			fmt.Printf("📅 Earnings: %s (%s)\n", evctx.Earnings.Date, evctx.Earnings.When)
		}
		if len(evctx.Macro) > 0 {
			fmt.Println("📊 Macro:")
			for _, m := range evctx.Macro {
				fmt.Printf("   %s  %-38s %s\n", m.Date, m.Title, m.Risk)
			}
		}
		if len(windows) > 0 {
			fmt.Println("⚠️  Danger Windows:")
			for _, w := range windows {
				fmt.Printf("   day %+d to %+d  %s\n", w.Start, w.End, w.Label)
			}
		}
		return nil
	},
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ticker symbols",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _ := buildEngine()
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		symbols, err := eng.Search(ctx, args[0])
		if err != nil {
			return err
		}
		for _, s := range symbols {
			fmt.Printf("%-8s %s\n", s.Ticker, s.Name)
		}
		return nil
	},
}

// --- Share Command ---

var shareCmd = &cobra.Command{
	Use:   "share [token]",
	Short: "Decode a share token into its trade inputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := engine.DecodeTradeState(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s $%.2f exp %s", state.Ticker, state.Kind, state.Strike, state.Expiry)
		if state.PricePaid != "" {
			fmt.Printf(" paid %s", state.PricePaid)
		}
		if state.Owns {
			fmt.Print(" (held)")
		}
		fmt.Println()
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, agg := buildEngine()
		srv := api.NewServer(cfg, eng, agg.ProviderStatus, version, logger.GetLogger("api"))

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting TradeGauge API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  TradeGauge — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Advisor:     %s (enabled: %v)\n", cfg.Advisor.Model, cfg.Advisor.Enabled)
		fmt.Printf("    Calibration: scale %.2f, bias %.2f\n", cfg.Scoring.CalibrationScale, cfg.Scoring.CalibrationBias)
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println()
		fmt.Println("  Providers:")
		_, agg := buildEngine()
		for name, ok := range agg.ProviderStatus() {
			mark := "❌"
			if ok {
				mark = "✅"
			}
			fmt.Printf("    %-10s %s\n", name, mark)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
