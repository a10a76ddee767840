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

type historyCmd struct {
	sales bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show the transaction history" }
func (*historyCmd) Usage() string {
	return `ait history [-sales] [<symbol>]

  Shows the transaction history for one symbol, or for the whole
  portfolio when no symbol is given. -sales limits the output to sales
  and their realized gains, most recent first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.sales, "sales", false, "Show only sales and their realized gains.")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	logs := ledger.TransactionLog()
	if f.NArg() > 0 {
		symbol := f.Arg(0)
		txs := ledger.Transactions(symbol)
		if txs == nil {
			fmt.Fprintf(os.Stderr, "Error: no history for %q.\n", symbol)
			return subcommands.ExitFailure
		}
		logs = map[string][]tracker.Transaction{strings.ToUpper(strings.TrimSpace(symbol)): txs}
	}

	if c.sales {
		printMarkdown(salesMarkdown(tracker.CollectSalesHistory(logs)))
		return subcommands.ExitSuccess
	}
	printMarkdown(historyMarkdown(logs, ledger.Symbols()))
	return subcommands.ExitSuccess
}

func historyMarkdown(logs map[string][]tracker.Transaction, order []string) string {
	var sb strings.Builder
	sb.WriteString("# Transactions\n\n")
	sb.WriteString("| Date | Symbol | Type | Shares | Price | Total | Realized |\n")
	sb.WriteString("|---|---|---|---:|---:|---:|---:|\n")
	for _, symbol := range order {
		for _, tx := range logs[symbol] {
			realized := "-"
			if tx.Type == tracker.TxSell {
				realized = tx.RealizedGainLoss.SignedString()
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
				tx.Date, symbol, tx.Type, tx.Shares, tx.Price, tx.TotalAmount, realized)
		}
	}
	return sb.String()
}

func salesMarkdown(sales []tracker.Sale) string {
	if len(sales) == 0 {
		return "No sales recorded.\n"
	}
	var sb strings.Builder
	sb.WriteString("# Sales\n\n")
	sb.WriteString("| Date | Symbol | Shares | Price | Cost Basis | Realized |\n")
	sb.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, s := range sales {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			s.Date, s.Symbol, s.Shares, s.Price, s.CostBasis, s.RealizedGainLoss.SignedString())
	}
	fmt.Fprintf(&sb, "\nTotal realized: %s\n", tracker.TotalRealizedPnL(sales).SignedString())
	return sb.String()
}
