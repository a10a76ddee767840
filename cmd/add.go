package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
	"github.com/shopspring/decimal"
)

type addCmd struct {
	shares    string
	total     string
	price     string
	date      string
	name      string
	platform  string
	assetType string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a new position to the portfolio" }
func (*addCmd) Usage() string {
	return `ait add -shares <n> (-total <amount> | -price <per-share>) [-d <date>] [-name <name>] [-platform <p>] [-type <t>] <symbol>

  Adds a new position. The average acquisition price is total/shares.
  Re-adding a symbol whose shares were all sold reactivates it with the
  new shares and price; adding a symbol with live shares is an error.

Usage Examples:
$ ait add -shares 100 -price 150 AAPL
$ ait add -shares 10 -total 4500 -platform Degiro -type ETF VWCE
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.shares, "shares", "", "Number of shares acquired.")
	f.StringVar(&c.total, "total", "", "Total amount paid for the shares.")
	f.StringVar(&c.price, "price", "", "Per-share acquisition price. Ignored when -total is set.")
	f.StringVar(&c.date, "d", "", "Acquisition date (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.name, "name", "", "Security name.")
	f.StringVar(&c.platform, "platform", "", "Broker or platform holding the position.")
	f.StringVar(&c.assetType, "type", "", "Asset type (Stock, ETF, Crypto, ...). Defaults to Stock.")
}

// parseQuantity parses a decimal flag value into a share quantity.
func parseQuantity(value, flagName string) (tracker.Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return tracker.Quantity{}, fmt.Errorf("invalid -%s value %q: %w", flagName, value, err)
	}
	return tracker.Q(d), nil
}

// parseMoney parses a decimal flag value into an amount in the app currency.
func parseMoney(value, flagName string) (tracker.Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return tracker.Money{}, fmt.Errorf("invalid -%s value %q: %w", flagName, value, err)
	}
	return tracker.M(d, *currency), nil
}

// parseDay parses an optional date flag, zero when absent.
func parseDay(value string) (tracker.Date, error) {
	if value == "" {
		return tracker.Date{}, nil
	}
	return tracker.ParseDate(value)
}

// totalAmount resolves the -total / -price pair into the total paid.
func totalAmount(total, price string, shares tracker.Quantity) (tracker.Money, error) {
	if total != "" {
		return parseMoney(total, "total")
	}
	if price != "" {
		p, err := parseMoney(price, "price")
		if err != nil {
			return tracker.Money{}, err
		}
		return p.Mul(shares), nil
	}
	return tracker.Money{}, fmt.Errorf("one of -total or -price is required")
}

func (c *addCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tx, err := ledger.Add(symbol, shares, total, day, c.name, c.platform, tracker.NormalizeAssetType(c.assetType))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(store, ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	p := ledger.Position(symbol)
	fmt.Printf("Added %s shares of %s at %s on %s\n", tx.Shares, p.Symbol, p.AvgPrice, tx.Date)
	return subcommands.ExitSuccess
}
