// Package report renders analysis results for a terminal.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"solana-token-analyzer/internal/domain"
)

const lamportsPerSOL = 1_000_000_000

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// SetColor enables or disables ANSI colors for all printers.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// Printer writes human-readable reports to w.
type Printer struct {
	w   io.Writer
	num *message.Printer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:   w,
		num: message.NewPrinter(language.English),
	}
}

// Header prints the report banner.
func (p *Printer) Header() {
	fmt.Fprintf(p.w, "\n%s\n\n", bold("=== Solana Token Analysis ==="))
}

// Metadata prints the token fields, one per line.
func (p *Printer) Metadata(meta *domain.TokenMetadata) {
	fmt.Fprintf(p.w, "Token Address: %s\n", meta.Address)
	if meta.Name != nil {
		fmt.Fprintf(p.w, "Name: %s\n", *meta.Name)
	}
	if meta.Symbol != nil {
		fmt.Fprintf(p.w, "Symbol: %s\n", *meta.Symbol)
	}
	fmt.Fprintf(p.w, "Total Supply: %s\n", p.FormatAmount(meta.TotalSupply))
	fmt.Fprintf(p.w, "Decimals: %d\n", meta.Decimals)
	if meta.DecimalsMismatch() {
		fmt.Fprintf(p.w, "%s\n", yellow(fmt.Sprintf("Warning: mint account reports %d decimals", *meta.MintDecimals)))
	}
	fmt.Fprintf(p.w, "Mint Authority: %s\n", optional(meta.MintAuthority))
	fmt.Fprintf(p.w, "Freeze Authority: %s\n", optional(meta.FreezeAuthority))
	fmt.Fprintf(p.w, "Initialized: %t\n", meta.IsInitialized)
}

// Risks prints the authority risk assessment in key order.
func (p *Printer) Risks(risks domain.RiskAssessment) {
	p.riskList("Risk Assessment:", risks, "No authority risks found.")
}

// Concentration prints the holder concentration assessment.
func (p *Printer) Concentration(risks domain.RiskAssessment) {
	p.riskList("Holder Concentration:", risks, "No concentration risks found.")
}

func (p *Printer) riskList(title string, risks domain.RiskAssessment, none string) {
	fmt.Fprintf(p.w, "\n%s\n", bold(title))
	if len(risks) == 0 {
		fmt.Fprintf(p.w, "%s\n", green(none))
		return
	}
	for _, key := range risks.Keys() {
		fmt.Fprintf(p.w, "- %s: %s\n", key, red(risks[key]))
	}
}

// Holders prints the largest holders as a table.
func (p *Printer) Holders(holders []domain.Holder) {
	fmt.Fprintf(p.w, "\n%s\n", bold("Top Holders:"))
	if len(holders) == 0 {
		fmt.Fprintln(p.w, "No holders found.")
		return
	}

	tbl := p.table("#", "Token Account", "Owner", "Kind", "Amount", "Share")
	for i, h := range holders {
		owner := h.Owner
		if owner == "" {
			owner = "-"
		}
		tbl.AddRow(i+1, h.TokenAccount, owner, string(h.OwnerKind), p.FormatAmount(h.Amount), fmt.Sprintf("%.2f%%", h.Share*100))
	}
	tbl.Print()
}

// Activity prints recent transactions as a table.
func (p *Printer) Activity(activity []domain.Activity) {
	fmt.Fprintf(p.w, "\n%s\n", bold("Recent Activity:"))
	if len(activity) == 0 {
		fmt.Fprintln(p.w, "No recent transactions.")
		return
	}

	tbl := p.table("Signature", "Slot", "Time", "Status", "Fee (SOL)")
	for _, a := range activity {
		when := "-"
		if a.BlockTime != nil {
			when = time.Unix(*a.BlockTime, 0).UTC().Format("2006-01-02 15:04:05")
		}
		status := green("ok")
		if !a.Success {
			status = red("failed")
		}
		fee := "-"
		if a.Fee != nil {
			fee = fmt.Sprintf("%.9f", float64(*a.Fee)/lamportsPerSOL)
		}
		tbl.AddRow(shorten(a.Signature, 20), a.Slot, when, status, fee)
	}
	tbl.Print()
}

// Error prints a per-cycle error.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.w, "\n%s\n", red(fmt.Sprintf("Error: %v", err)))
}

// Dump writes a detailed debug representation of v.
func (p *Printer) Dump(v interface{}) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(p.w, v)
}

// FormatAmount formats v with thousands separators and two decimals.
func (p *Printer) FormatAmount(v float64) string {
	return p.num.Sprintf("%.2f", v)
}

func (p *Printer) table(headers ...interface{}) table.Table {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	return table.New(headers...).
		WithHeaderFormatter(headerFmt).
		WithWriter(p.w)
}

func optional(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
