package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type sellCmd struct {
	shares string
	total  string
	price  string
	date   string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares of an existing position" }
func (*sellCmd) Usage() string {
	return `ait sell -shares <n> (-total <amount> | -price <per-share>) [-d <date>] <symbol>

  Records a sale. The realized gain is (sale price - average price) * shares;
  the average price itself never changes on a sale. Selling every share
  leaves the position inactive but keeps its history.

Usage Examples:
$ ait sell -shares 50 -price 190 AAPL
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.shares, "shares", "", "Number of shares sold.")
	f.StringVar(&c.total, "total", "", "Total amount received.")
	f.StringVar(&c.price, "price", "", "Per-share price. Ignored when -total is set.")
	f.StringVar(&c.date, "d", "", "Sale date (YYYY-MM-DD). Defaults to today.")
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tx, err := ledger.Sell(symbol, shares, total, day)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(store, ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	p := ledger.Position(symbol)
	fmt.Printf("Sold %s shares of %s at %s, realized %s\n", tx.Shares, p.Symbol, tx.Price, tx.RealizedGainLoss.SignedString())
	if !p.Active() {
		fmt.Printf("%s is now inactive, its history is kept\n", p.Symbol)
	}
	return subcommands.ExitSuccess
}
