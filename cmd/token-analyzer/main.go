// Package main provides the token-analyzer CLI: an interactive prompt that
// reports supply, authorities and risk of SPL tokens, plus an inspect
// subcommand for a single mint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"solana-token-analyzer/internal/analyzer"
	"solana-token-analyzer/internal/cli"
	"solana-token-analyzer/internal/config"
	"solana-token-analyzer/internal/observability"
	"solana-token-analyzer/internal/report"
	"solana-token-analyzer/internal/solana"
)

// flags holds command-line overrides of the environment configuration.
type flags struct {
	rpcURL         string
	rateLimitDelay time.Duration
	timeout        time.Duration
	logFile        string
	metricsAddr    string
	holders        bool
	activity       bool
	dump           bool
	holderLimit    int
	activityLimit  int
	noColor        bool
}

// app is the wired set of components for one process.
type app struct {
	cfg     *config.Config
	session *cli.Session
	logger  *log.Logger
	metrics *observability.Metrics
	closeFn func()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		// Second signal exits immediately
		<-sigCh
		os.Exit(130)
	}()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "token-analyzer",
		Short:         "Analyze SPL token supply, authorities and risk",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, f, stdout, stderr)
			if err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return err
			}
			defer a.closeFn()
			return a.session.Run(cmd.Context(), stdin)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.rpcURL, "rpc-url", "", "primary RPC endpoint (overrides RPC_URL)")
	pf.DurationVar(&f.rateLimitDelay, "rate-limit-delay", 0, "delay before every endpoint attempt (overrides RATE_LIMIT_DELAY)")
	pf.DurationVar(&f.timeout, "timeout", 0, "per-request timeout (overrides TIMEOUT)")
	pf.StringVar(&f.logFile, "log-file", "", "log file path, empty string disables (overrides LOG_FILE)")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides METRICS_ADDR)")
	pf.BoolVar(&f.holders, "holders", false, "list the largest holders")
	pf.BoolVar(&f.activity, "activity", false, "list recent transactions")
	pf.BoolVar(&f.dump, "dump", false, "dump the raw metadata structure")
	pf.IntVar(&f.holderLimit, "holder-limit", 0, "number of holders to list (overrides HOLDER_LIMIT)")
	pf.IntVar(&f.activityLimit, "activity-limit", 0, "number of transactions to list (overrides ACTIVITY_LIMIT)")
	pf.BoolVar(&f.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newInspectCmd(f, stdout, stderr))
	return root
}

func newInspectCmd(f *flags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <mint>",
		Short: "Analyze a single token and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f, stdout, stderr)
			if err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return err
			}
			defer a.closeFn()

			if err := a.session.AnalyzeOnce(cmd.Context(), args[0]); err != nil {
				report.NewPrinter(stdout).Error(err)
				return err
			}
			return nil
		},
	}
}

// newApp loads configuration, applies flag overrides and wires the components.
func newApp(cmd *cobra.Command, f *flags, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	report.SetColor(!f.noColor && isTerminal(stdout))

	logWriter := stderr
	var logFile *os.File
	if cfg.LogFile != "" {
		logFile, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logWriter = io.MultiWriter(stderr, logFile)
	}

	metrics := observability.NewMetrics("")

	client := solana.NewClient(cfg.RPCURL,
		solana.WithBackups(cfg.BackupRPCs),
		solana.WithTimeout(cfg.Timeout),
		solana.WithRateLimitDelay(cfg.RateLimitDelay),
		solana.WithLogger(log.New(logWriter, "[rpc] ", log.LstdFlags)),
		solana.WithMetrics(metrics),
	)
	an := analyzer.New(client, analyzer.WithLogger(log.New(logWriter, "[analyzer] ", log.LstdFlags)))

	logger := log.New(logWriter, "[token-analyzer] ", log.LstdFlags)
	session := cli.NewSession(an, stdout, logger, metrics, cli.Options{
		Holders:       f.holders,
		Activity:      f.activity,
		Dump:          f.dump,
		HolderLimit:   cfg.HolderLimit,
		ActivityLimit: cfg.ActivityLimit,
	})

	a := &app{
		cfg:     cfg,
		session: session,
		logger:  logger,
		metrics: metrics,
	}

	stopMetrics := a.startMetricsServer()
	a.closeFn = func() {
		stopMetrics()
		if logFile != nil {
			logFile.Close()
		}
	}

	logger.Printf("primary RPC endpoint %s, %d backups", cfg.RPCURL, len(cfg.BackupRPCs))
	return a, nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("rpc-url") {
		cfg.RPCURL = f.rpcURL
	}
	if changed("rate-limit-delay") {
		cfg.RateLimitDelay = f.rateLimitDelay
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if changed("holder-limit") {
		cfg.HolderLimit = f.holderLimit
	}
	if changed("activity-limit") {
		cfg.ActivityLimit = f.activityLimit
	}
}

// startMetricsServer serves /metrics and /health when MetricsAddr is set.
// The returned func shuts the server down.
func (a *app) startMetricsServer() func() {
	if a.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", a.metrics.Handler())

	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
	go func() {
		a.logger.Printf("Starting metrics server on %s", a.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Printf("WARN: metrics server error: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
