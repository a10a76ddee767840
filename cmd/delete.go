package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type deleteCmd struct {
	force bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a position and its full history" }
func (*deleteCmd) Usage() string {
	return `ait delete [-f] <symbol>

  Deletes a position and every transaction recorded for it. This is
  irreversible: to keep the history, sell the shares instead. Asks for
  confirmation unless -f is given.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "f", false, "Delete without asking for confirmation.")
}

func (c *deleteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	symbol := f.Arg(0)

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

	p := ledger.Position(symbol)
	if p == nil {
		fmt.Fprintf(os.Stderr, "Error: no position %q in the portfolio.\n", symbol)
		return subcommands.ExitFailure
	}

	if !c.force {
		fmt.Printf("Delete %s (%s shares, %d transactions)? This cannot be undone. [y/N] ",
			p.Symbol, p.Shares, len(ledger.Transactions(p.Symbol)))
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted.")
			return subcommands.ExitSuccess
		}
	}

	if err := ledger.Remove(symbol); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(store, ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted %s and its history\n", p.Symbol)
	return subcommands.ExitSuccess
}
