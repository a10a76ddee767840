package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
	"github.com/rcamarinha/ai-investment-tracker/agent"
	"google.golang.org/genai"
)

type resolveCmd struct {
	providerFlags
	noAI bool
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolve ISIN identifiers to ticker symbols" }
func (*resolveCmd) Usage() string {
	return `ait resolve [-no-ai] [<identifier>...]

  Resolves ISIN-shaped identifiers to ticker symbols through the known
  registry, the market data providers, and finally one batched AI
  request. Without arguments it resolves every ISIN-keyed position in
  the portfolio and renames it to the found ticker. Ambiguous listings
  are offered as a numbered choice.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	c.providerFlags.SetFlags(f)
	f.BoolVar(&c.noAI, "no-ai", false, "Skip the AI resolution tier.")
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	held := make(map[string]bool)
	for _, symbol := range ledger.Symbols() {
		held[symbol] = true
	}

	// Without arguments, resolve the ISIN-keyed positions in the ledger.
	identifiers := f.Args()
	rename := false
	if len(identifiers) == 0 {
		rename = true
		for _, symbol := range ledger.Symbols() {
			if tracker.IsISINShaped(symbol) {
				identifiers = append(identifiers, symbol)
			}
		}
	}
	if len(identifiers) == 0 {
		fmt.Println("Nothing to resolve.")
		return subcommands.ExitSuccess
	}

	var batch tracker.BatchResolver
	if !c.noAI {
		batch = newBatchResolver(ctx)
	}
	resolver := c.NewResolver(registry, batch)
	proposal := resolver.Propose(ctx, identifiers, held)
	choices := promptChoices(os.Stdout, bufio.NewReader(os.Stdin), proposal.Pending)
	resolved := resolver.Apply(proposal, choices)

	for id, candidate := range resolved {
		fmt.Printf("%s -> %s", id, candidate.Ticker)
		if candidate.Name != "" {
			fmt.Printf(" (%s)", candidate.Name)
		}
		fmt.Println()
		if rename {
			if err := ledger.Rename(id, candidate.Ticker); err != nil {
				fmt.Fprintln(os.Stderr, "Warning:", err)
				continue
			}
			annotatePosition(ledger, candidate)
		}
	}
	for id, err := range proposal.Failed {
		fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
	}

	if err := EncodeRegistry(store, registry); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if rename {
		if err := EncodeLedger(store, ledger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if len(proposal.Failed) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// newBatchResolver returns the AI resolution tier, or nil when no Gemini
// client can be created.
func newBatchResolver(ctx context.Context) tracker.BatchResolver {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning: AI resolution disabled:", err)
		return nil
	}
	return agent.NewResolver(client)
}

// annotatePosition fills in the metadata the resolution discovered, without
// overwriting what the user already recorded.
func annotatePosition(ledger *tracker.Ledger, candidate tracker.ResolutionCandidate) {
	p := ledger.Position(candidate.Ticker)
	if p == nil {
		return
	}
	name := ""
	if p.Name == "" {
		name = candidate.Name
	}
	_ = ledger.Annotate(candidate.Ticker, name, "", candidate.AssetType)
}

// promptChoices asks the user to pick a listing for every ambiguous
// identifier. The answer is a candidate number, a manually typed ticker, or
// empty to skip.
func promptChoices(w *os.File, r *bufio.Reader, pending []tracker.Decision) map[string]tracker.Choice {
	choices := make(map[string]tracker.Choice, len(pending))
	for _, d := range pending {
		fmt.Fprintf(w, "\n%s has several listings:\n", d.Identifier)
		for i, c := range d.Candidates {
			fmt.Fprintf(w, "  %d. %-10s %s", i+1, c.Ticker, c.Name)
			if c.Exchange != "" {
				fmt.Fprintf(w, " (%s)", c.Exchange)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, "Pick a number, type a ticker, or press enter to skip: ")

		line, err := r.ReadString('\n')
		if err != nil {
			choices[d.Identifier] = tracker.Skip
			continue
		}
		answer := strings.TrimSpace(line)
		switch {
		case answer == "":
			choices[d.Identifier] = tracker.Skip
		default:
			if n, err := strconv.Atoi(answer); err == nil {
				choices[d.Identifier] = tracker.Choice{Index: n - 1}
			} else {
				choices[d.Identifier] = tracker.Choice{Index: -1, Manual: answer}
			}
		}
	}
	return choices
}
