// Package cmd implements the CLI application to track a personal portfolio.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
	"github.com/rcamarinha/ai-investment-tracker/alphavantage"
	"github.com/rcamarinha/ai-investment-tracker/finnhub"
	"github.com/rcamarinha/ai-investment-tracker/fmp"
)

// Register the subcommands.
// A main package calls Register() to declare subcommands, and Execute() runs
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "portfolio")
	c.Register(&addCmd{}, "portfolio")
	c.Register(&buyCmd{}, "portfolio")
	c.Register(&sellCmd{}, "portfolio")
	c.Register(&deleteCmd{}, "portfolio")
	c.Register(&listCmd{}, "portfolio")
	c.Register(&historyCmd{}, "portfolio")

	c.Register(&resolveCmd{}, "market data")
	c.Register(&refreshCmd{}, "market data")

	c.Register(&snapshotCmd{}, "snapshots")

	c.Register(&assistCmd{}, "assistant")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var storeDir = flag.String("store-dir", ".tracker", "Path to the folder holding the portfolio files (JSONL format)")
var currency = flag.String("currency", "USD", "Currency code used for acquisition prices")

// environment variable names for the provider API keys.
const (
	fmp_api_key          = "FMP_API_KEY"
	finnhub_api_key      = "FINNHUB_API_KEY"
	alphavantage_api_key = "ALPHAVANTAGE_API_KEY"
)

// per-provider request spacing on the free tiers.
const (
	fmpInterval          = 300 * time.Millisecond
	finnhubInterval      = 1100 * time.Millisecond
	alphavantageInterval = 12 * time.Second
)

// OpenStore opens the portfolio store folder, creating it if needed.
func OpenStore() (*tracker.FileStore, error) {
	return tracker.NewFileStore(*storeDir)
}

// DecodeLedger loads positions and transaction history from the store into
// a live ledger. An absent store is an empty ledger.
func DecodeLedger(store *tracker.FileStore) (*tracker.Ledger, error) {
	positions, err := store.LoadPositions()
	if err != nil {
		return nil, fmt.Errorf("cannot load positions: %w", err)
	}
	logs, err := store.LoadTransactions()
	if err != nil {
		return nil, fmt.Errorf("cannot load transactions: %w", err)
	}
	return tracker.LoadLedger(positions, logs), nil
}

// EncodeLedger writes the ledger's positions and transaction history back to
// the store.
func EncodeLedger(store *tracker.FileStore, ledger *tracker.Ledger) error {
	if err := store.SavePositions(ledger.Positions()); err != nil {
		return fmt.Errorf("cannot save positions: %w", err)
	}
	if err := store.SaveTransactions(ledger.TransactionLog()); err != nil {
		return fmt.Errorf("cannot save transactions: %w", err)
	}
	return nil
}

// DecodeRegistry loads the identifier-to-ticker registry from the store.
func DecodeRegistry(store *tracker.FileStore) (*tracker.Registry, error) {
	assets, err := store.LoadAssets()
	if err != nil {
		return nil, fmt.Errorf("cannot load resolved assets: %w", err)
	}
	return tracker.NewRegistry(assets...), nil
}

// EncodeRegistry writes the registry back to the store.
func EncodeRegistry(store *tracker.FileStore, registry *tracker.Registry) error {
	return store.SaveAssets(registry.Assets())
}

// providerFlags is embedded in every subcommand that talks to a market data
// provider. Each key is read from the flag first, then from the environment.
type providerFlags struct {
	fmpFlag          string
	finnhubFlag      string
	alphavantageFlag string
}

func (p *providerFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.fmpFlag, "fmp-api-key", "", "FMP API key (defaults to "+fmp_api_key+" env var)")
	f.StringVar(&p.finnhubFlag, "finnhub-api-key", "", "Finnhub API key (defaults to "+finnhub_api_key+" env var)")
	f.StringVar(&p.alphavantageFlag, "alphavantage-api-key", "", "Alpha Vantage API key (defaults to "+alphavantage_api_key+" env var)")
}

func (p *providerFlags) fmpApiKey() string {
	if p.fmpFlag == "" {
		p.fmpFlag = os.Getenv(fmp_api_key)
	}
	return p.fmpFlag
}

func (p *providerFlags) finnhubApiKey() string {
	if p.finnhubFlag == "" {
		p.finnhubFlag = os.Getenv(finnhub_api_key)
	}
	return p.finnhubFlag
}

func (p *providerFlags) alphavantageApiKey() string {
	if p.alphavantageFlag == "" {
		p.alphavantageFlag = os.Getenv(alphavantage_api_key)
	}
	return p.alphavantageFlag
}

// NewFetcher builds the tiered price fetcher from the configured keys.
// Unconfigured providers stay in the chain and are skipped at fetch time.
func (p *providerFlags) NewFetcher() *tracker.Fetcher {
	return tracker.NewFetcher(
		tracker.Tier{Provider: fmp.New(p.fmpApiKey()), Limiter: tracker.NewInterval(fmpInterval)},
		tracker.Tier{Provider: finnhub.New(p.finnhubApiKey()), Limiter: tracker.NewInterval(finnhubInterval)},
		tracker.Tier{Provider: alphavantage.New(p.alphavantageApiKey()), Limiter: tracker.NewInterval(alphavantageInterval)},
	)
}

// NewResolver builds the tiered identifier resolver on top of the registry.
// The AI tier is attached by the caller when a Gemini client is available.
func (p *providerFlags) NewResolver(registry *tracker.Registry, batch tracker.BatchResolver) *tracker.Resolver {
	return &tracker.Resolver{
		Registry:       registry,
		Profile:        fmp.New(p.fmpApiKey()),
		ProfileLimiter: tracker.NewInterval(fmpInterval),
		ISIN:           finnhub.New(p.finnhubApiKey()),
		ISINLimiter:    tracker.NewInterval(finnhubInterval),
		Batch:          batch,
	}
}

// glamourRender renders markdown for the terminal.
func glamourRender(md string) (string, error) {
	return glamour.Render(md, "auto")
}

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when rendering fails.
func printMarkdown(md string) {
	out, err := glamourRender(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
