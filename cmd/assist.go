package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
	"github.com/rcamarinha/ai-investment-tracker/agent"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI portfolio advisor.
type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI advisor" }
func (*assistCmd) Usage() string {
	return `ait assist [<question>]

  Starts an interactive session with the AI advisor over a read-only
  view of the portfolio. The advisor can discuss allocation and
  performance but cannot modify the portfolio.
`
}

func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
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
	prices, err := store.LoadLatestPrices()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	active, _ := tracker.Partition(ledger.Positions())
	summaries, realized := tracker.Summarize(active, prices, ledger.TransactionLog())
	advisor := agent.NewAdvisor(os.Stdout, os.Stdin, summaries, realized)

	render := func(md string) string {
		out, err := glamourRender(md)
		if err != nil {
			return md
		}
		return out
	}
	if err := advisor.Run(ctx, client, render, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Advisor failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
