package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
)

type importCmd struct {
	providerFlags
	file string
	date string
	noAI bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import holdings pasted from a broker page" }
func (*importCmd) Usage() string {
	return `ait import [-f <file>] [-d <date>]

  Imports holdings from freeform tabular text, as pasted from a broker
  or spreadsheet. Reads standard input unless -f is given. The column
  separator and header are auto-detected; rows that cannot be parsed
  are reported and skipped, never failing the whole import.

  ISIN identifiers are resolved to tickers, and rows without an
  acquisition price get the current market price when a provider is
  configured.

Usage Examples:
$ pbpaste | ait import
$ ait import -f holdings.tsv -d 2026-01-15
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	c.providerFlags.SetFlags(f)
	f.StringVar(&c.file, "f", "", "File to import. Defaults to standard input.")
	f.StringVar(&c.date, "d", "", "Acquisition date for the imported rows (YYYY-MM-DD). Defaults to today.")
	f.BoolVar(&c.noAI, "no-ai", false, "Skip the AI resolution tier.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing date:", err)
		return subcommands.ExitUsageError
	}

	var in io.Reader = os.Stdin
	if c.file != "" {
		file, err := os.Open(c.file)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		in = file
	}
	text, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading input:", err)
		return subcommands.ExitFailure
	}

	report := tracker.ParseHoldings(string(text), *currency)
	for _, warning := range report.Warnings {
		fmt.Fprintln(os.Stderr, "Warning:", warning)
	}
	for _, e := range report.Errors {
		fmt.Fprintln(os.Stderr, "Error:", e)
	}
	if report.Empty() {
		fmt.Fprintln(os.Stderr, "Error: no holding could be parsed from the input.")
		return subcommands.ExitFailure
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ledger, err := DecodeLedger(store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	registry, err := DecodeRegistry(store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	c.resolveImports(ctx, report, ledger, registry)

	// rows without an acquisition price get the current market price
	fetcher := c.NewFetcher()
	for i := range report.Positions {
		p := &report.Positions[i]
		if p.NeedsResolution || !p.NeedsCurrentPrice {
			continue
		}
		if !fetcher.Configured() {
			fmt.Fprintf(os.Stderr, "Warning: %s has no acquisition price and no provider is configured, importing at zero.\n", p.Symbol)
			continue
		}
		q := fetcher.FetchWithAlternatives(p.Symbol, p.Name)
		if !q.Success() {
			fmt.Fprintf(os.Stderr, "Warning: no current price for %s, importing at zero (%v).\n", p.Symbol, q.Err)
			continue
		}
		p.AvgPrice = tracker.M(q.Price, *currency)
	}

	// an identifier that never resolved to a ticker is excluded from the
	// import, it must not enter the ledger as an ISIN-keyed position
	imported, unresolved := 0, 0
	for _, p := range report.Positions {
		if p.NeedsResolution {
			fmt.Fprintf(os.Stderr, "Error: %s could not be resolved to a ticker, not imported.\n", p.Symbol)
			unresolved++
			continue
		}
		total := p.AvgPrice.Mul(p.Shares)
		if _, err := ledger.Add(p.Symbol, p.Shares, total, day, p.Name, p.Platform, p.AssetType); err != nil {
			fmt.Fprintln(os.Stderr, "Warning:", err)
			continue
		}
		imported++
	}

	if err := EncodeLedger(store, ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := EncodeRegistry(store, registry); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Imported %d of %d parsed holdings\n", imported, len(report.Positions))
	if unresolved > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// resolveImports resolves the ISIN-shaped symbols of the parsed rows and
// rewrites them to the found tickers before they reach the ledger.
func (c *importCmd) resolveImports(ctx context.Context, report *tracker.ImportReport, ledger *tracker.Ledger, registry *tracker.Registry) {
	var identifiers []string
	for _, p := range report.Positions {
		if p.NeedsResolution {
			identifiers = append(identifiers, p.Symbol)
		}
	}
	if len(identifiers) == 0 {
		return
	}

	held := make(map[string]bool)
	for _, symbol := range ledger.Symbols() {
		held[symbol] = true
	}

	var batch tracker.BatchResolver
	if !c.noAI {
		batch = newBatchResolver(ctx)
	}
	resolver := c.NewResolver(registry, batch)
	proposal := resolver.Propose(ctx, identifiers, held)
	choices := promptChoices(os.Stdout, bufio.NewReader(os.Stdin), proposal.Pending)
	resolved := resolver.Apply(proposal, choices)

	for i := range report.Positions {
		p := &report.Positions[i]
		candidate, ok := resolved[p.Symbol]
		if !ok {
			continue
		}
		fmt.Printf("%s -> %s\n", p.Symbol, candidate.Ticker)
		p.Symbol = candidate.Ticker
		p.NeedsResolution = false
		if p.Name == "" {
			p.Name = candidate.Name
		}
		if candidate.AssetType != "" {
			p.AssetType = candidate.AssetType
		}
	}
	for id, err := range proposal.Failed {
		fmt.Fprintf(os.Stderr, "Error: %s left unresolved: %v\n", id, err)
	}
}
