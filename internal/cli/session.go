// Package cli runs analysis cycles, either once or as an interactive loop.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"solana-token-analyzer/internal/analyzer"
	"solana-token-analyzer/internal/domain"
	"solana-token-analyzer/internal/observability"
	"solana-token-analyzer/internal/report"
)

// Prompt is printed before each address is read.
const Prompt = "\nEnter Solana token address (or 'quit' to exit): "

// Options selects the optional report sections.
type Options struct {
	Holders       bool
	Activity      bool
	Dump          bool
	HolderLimit   int
	ActivityLimit int
}

// Session wires the analyzer to a report printer.
type Session struct {
	analyzer *analyzer.Analyzer
	printer  *report.Printer
	out      io.Writer
	logger   *log.Logger
	metrics  *observability.Metrics
	opts     Options
}

// NewSession creates a session printing to out. logger and metrics may be nil.
func NewSession(a *analyzer.Analyzer, out io.Writer, logger *log.Logger, metrics *observability.Metrics, opts Options) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		analyzer: a,
		printer:  report.NewPrinter(out),
		out:      out,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// AnalyzeOnce runs one analysis cycle for address and prints the report.
// Errors from the core metadata query are returned unprinted; failures of
// the optional sections are printed and do not fail the cycle.
func (s *Session) AnalyzeOnce(ctx context.Context, address string) error {
	cycleID := uuid.NewString()
	start := time.Now()
	s.logger.Printf("cycle %s: analyzing %s", cycleID, address)

	err := s.analyze(ctx, address)

	status := "ok"
	if err != nil {
		status = "error"
		s.logger.Printf("WARN: cycle %s failed: %v", cycleID, err)
	} else {
		s.logger.Printf("cycle %s: done in %v", cycleID, time.Since(start).Round(time.Millisecond))
	}
	s.metrics.RecordAnalysis(status, time.Since(start).Seconds())
	return err
}

func (s *Session) analyze(ctx context.Context, address string) error {
	s.printer.Header()

	meta, err := s.analyzer.GetTokenMetadata(ctx, address)
	if err != nil {
		return err
	}
	if err := s.analyzer.ApplyMetaplex(ctx, meta); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Printf("WARN: metaplex lookup for %s: %v", address, err)
	}

	s.printer.Metadata(meta)
	s.printer.Risks(analyzer.AnalyzeRisk(meta))

	if s.opts.Holders {
		if err := s.holders(ctx, meta); err != nil {
			return err
		}
	}

	if s.opts.Activity {
		activity, err := s.analyzer.RecentActivity(ctx, address, s.opts.ActivityLimit)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.printer.Error(fmt.Errorf("recent activity: %w", err))
		} else {
			s.printer.Activity(activity)
		}
	}

	if s.opts.Dump {
		fmt.Fprintln(s.out)
		s.printer.Dump(meta)
	}
	return nil
}

func (s *Session) holders(ctx context.Context, meta *domain.TokenMetadata) error {
	holders, err := s.analyzer.Holders(ctx, meta, s.opts.HolderLimit)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.printer.Error(fmt.Errorf("holders: %w", err))
		return nil
	}
	s.printer.Holders(holders)
	s.printer.Concentration(analyzer.ConcentrationRisk(holders))
	return nil
}

// Run prompts for addresses read from in until "quit", end of input, or
// ctx is done. Errors of a cycle are printed and the loop continues.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(s.out, Prompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			line = l
		}

		address := strings.TrimSpace(line)
		if strings.EqualFold(address, "quit") {
			return nil
		}
		if address == "" {
			continue
		}

		if err := s.AnalyzeOnce(ctx, address); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				fmt.Fprintln(s.out)
				return nil
			}
			s.printer.Error(err)
		}
	}
}
