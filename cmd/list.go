package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
)

type listCmd struct {
	all bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the portfolio holdings" }
func (*listCmd) Usage() string {
	return `ait list [-all]

  Lists the active holdings with their last known prices, plus the
  invested, market value, unrealized and realized totals. -all includes
  positions whose shares were all sold.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Include inactive positions.")
}

func (c *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	prices, err := store.LoadLatestPrices()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	active, inactive := tracker.Partition(ledger.Positions())
	positions := active
	if c.all {
		positions = append(positions, inactive...)
	}
	if len(positions) == 0 {
		fmt.Println("The portfolio is empty. Use 'ait add' or 'ait import' to start.")
		return subcommands.ExitSuccess
	}

	summaries, realized := tracker.Summarize(positions, prices, ledger.TransactionLog())
	printMarkdown(holdingsMarkdown(summaries, realized))
	return subcommands.ExitSuccess
}

// holdingsMarkdown renders the holdings as a markdown table with totals.
func holdingsMarkdown(summaries []tracker.HoldingSummary, realized tracker.Money) string {
	var sb strings.Builder
	sb.WriteString("# Holdings\n\n")
	sb.WriteString("| Symbol | Name | Type | Platform | Shares | Avg Price | Invested | Price | Market Value | Unrealized |\n")
	sb.WriteString("|---|---|---|---|---:|---:|---:|---:|---:|---:|\n")

	var invested, market tracker.Money
	priced := true
	for _, s := range summaries {
		price, value, unrealized := "-", "-", "-"
		if s.HasPrice {
			price = s.CurrentPrice.String()
			value = s.MarketValue.String()
			unrealized = s.UnrealizedPnL.SignedString()
			market = market.Add(s.MarketValue)
		} else if s.Shares.IsPositive() {
			// one missing quote makes the market total unknown
			priced = false
		}
		invested = invested.Add(s.Invested)
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			s.Symbol, s.Name, s.AssetType, s.Platform, s.Shares, s.AvgPrice, s.Invested, price, value, unrealized)
	}

	fmt.Fprintf(&sb, "\nInvested: %s\n", invested)
	if priced {
		fmt.Fprintf(&sb, "\nMarket value: %s (unrealized %s)\n", market, market.Sub(invested).SignedString())
	} else {
		fmt.Fprintf(&sb, "\nMarket value: incomplete, run 'ait refresh' to fetch missing prices\n")
	}
	fmt.Fprintf(&sb, "\nRealized gains: %s\n", realized.SignedString())
	return sb.String()
}
