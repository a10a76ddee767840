package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type buyCmd struct {
	shares string
	total  string
	price  string
	date   string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy more shares of an existing position" }
func (*buyCmd) Usage() string {
	return `ait buy -shares <n> (-total <amount> | -price <per-share>) [-d <date>] <symbol>

  Records an additional purchase. The position's average price is
  recomputed as the weighted average of the old cost and the new buy.

Usage Examples:
$ ait buy -shares 50 -total 10000 AAPL
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.shares, "shares", "", "Number of shares bought.")
	f.StringVar(&c.total, "total", "", "Total amount paid.")
	f.StringVar(&c.price, "price", "", "Per-share price. Ignored when -total is set.")
	f.StringVar(&c.date, "d", "", "Purchase date (YYYY-MM-DD). Defaults to today.")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	symbol := f.Arg(0)

	if c.shares == "" {
		fmt.Fprintln(os.Stderr, "Error: -shares is required.")
		return subcommands.ExitUsageError
	}
	shares, err := parseQuantity(c.shares, "shares")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	total, err := totalAmount(c.total, c.price, shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	day, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing date:", err)
		return subcommands.ExitUsageError
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

	tx, err := ledger.Buy(symbol, shares, total, day)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(store, ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	p := ledger.Position(symbol)
	fmt.Printf("Bought %s shares of %s at %s, new average price %s, %s shares held\n",
		tx.Shares, p.Symbol, tx.Price, p.AvgPrice, p.Shares)
	return subcommands.ExitSuccess
}
