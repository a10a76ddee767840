package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
)

type refreshCmd struct {
	providerFlags
	noSnapshot bool
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "fetch current prices for all active holdings" }
func (*refreshCmd) Usage() string {
	return `ait refresh [-no-snapshot] [<symbol>...]

  Fetches the current price of every active holding (or only the given
  symbols) through the provider chain, records the prices, and saves a
  portfolio snapshot. Symbols no provider knows are retried under their
  regional exchange variants.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	c.providerFlags.SetFlags(f)
	f.BoolVar(&c.noSnapshot, "no-snapshot", false, "Do not save a snapshot after refreshing.")
}

func (c *refreshCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fetcher := c.NewFetcher()
	if !fetcher.Configured() {
		fmt.Fprintf(os.Stderr, "Error: no provider API key is set. Set %s, %s or %s.\n",
			fmp_api_key, finnhub_api_key, alphavantage_api_key)
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

	active, _ := tracker.Partition(ledger.Positions())
	names := make(map[string]string, len(active))
	held := make(map[string]bool, len(active))
	for _, p := range active {
		names[p.Symbol] = p.Name
		held[p.Symbol] = true
	}

	var symbols []string
	if f.NArg() > 0 {
		for _, arg := range f.Args() {
			if !held[arg] {
				fmt.Fprintf(os.Stderr, "Warning: %s is not an active holding, skipping.\n", arg)
				continue
			}
			symbols = append(symbols, arg)
		}
	} else {
		for _, p := range active {
			symbols = append(symbols, p.Symbol)
		}
	}
	if len(symbols) == 0 {
		fmt.Println("Nothing to refresh.")
		return subcommands.ExitSuccess
	}

	result := fetcher.RefreshAll(symbols, names)

	now := time.Now()
	var records []tracker.PriceRecord
	for _, symbol := range symbols {
		q := result.Quotes[symbol]
		if q.Success() {
			fmt.Printf("%-12s %10.2f  (%s, tier %d)\n", symbol, q.Price, q.Source, q.Tier)
			records = append(records, tracker.PriceRecord{
				Symbol: symbol,
				Price:  tracker.M(q.Price, *currency),
				At:     now,
			})
		} else {
			fmt.Printf("%-12s     failed  (%v)\n", symbol, q.Err)
		}
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No price could be fetched.")
		return subcommands.ExitFailure
	}
	if err := store.SavePriceHistory(records); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.noSnapshot {
		fmt.Printf("Refreshed %d of %d prices\n", len(records), len(symbols))
		return subcommands.ExitSuccess
	}

	// snapshots always value the whole portfolio, with the freshest price
	// known per holding
	prices, err := store.LoadLatestPrices()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	snap := tracker.BuildSnapshot(ledger.Positions(), prices, now)
	if err := store.SaveSnapshot(snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Refreshed %d of %d prices, snapshot saved at %s\n",
		len(records), len(symbols), snap.Timestamp.Format(time.RFC3339))
	return subcommands.ExitSuccess
}
