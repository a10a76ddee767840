package tracker

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Provider outcome sentinels. Adapters wrap these so the fetch loop can
// tell a "symbol unknown here" miss from a terminal condition.
var (
	// ErrNotFound means the provider answered but does not know the symbol.
	ErrNotFound = errors.New("symbol not found")
	// ErrRateLimited means the provider refused the call for quota reasons.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrNoAPIKey means the provider has no key configured and is disabled.
	ErrNoAPIKey = errors.New("no provider API key configured")
)

// PriceQuote is the canonical outcome of one price fetch. Tier records
// which fallback level answered; it feeds diagnostics and trust indicators,
// never ledger math.
type PriceQuote struct {
	Symbol string
	Price  float64
	Source string
	Tier   int
	Err    error
}

// Success reports whether a strictly-positive price was obtained.
func (q PriceQuote) Success() bool { return q.Err == nil && q.Price > 0 }

// QuoteProvider is one ranked attempt in the price fallback chain.
type QuoteProvider interface {
	Name() string
	Configured() bool
	Quote(symbol string) (float64, error)
}

// Tier binds a provider to its rate limiter. All calls to one provider,
// whatever the pipeline, share the limiter.
type Tier struct {
	Provider QuoteProvider
	Limiter  *Interval
}

// Fetcher walks a ranked chain of quote providers sequentially,
// short-circuiting on the first strictly-positive price. Symbols are never
// fetched in parallel: the chain exists to respect the strictest provider
// rate limit, not to race it.
type Fetcher struct {
	tiers []Tier

	// altDelay separates attempts of the alternative-symbol search.
	altDelay time.Duration
	sleep    func(time.Duration) // replaced in tests
}

// NewFetcher creates a fetcher over the given tiers, in fallback order.
// Unconfigured providers are kept in place but skipped at fetch time, so
// tier numbers stay stable in diagnostics.
func NewFetcher(tiers ...Tier) *Fetcher {
	return &Fetcher{tiers: tiers, altDelay: 500 * time.Millisecond, sleep: time.Sleep}
}

// Configured reports whether at least one provider has a key.
func (f *Fetcher) Configured() bool {
	for _, t := range f.tiers {
		if t.Provider.Configured() {
			return true
		}
	}
	return false
}

// Fetch walks the tiers for one symbol. Network faults and unknown-symbol
// answers are tier misses; a rate-limit answer from the final configured
// tier is terminal for the call.
func (f *Fetcher) Fetch(symbol string) PriceQuote {
	symbol = canonicalSymbol(symbol)
	if !f.Configured() {
		return PriceQuote{Symbol: symbol, Err: ErrNoAPIKey}
	}

	var lastErr error
	for i, t := range f.tiers {
		if !t.Provider.Configured() {
			continue
		}
		t.Limiter.Wait()
		price, err := t.Provider.Quote(symbol)
		if err == nil && price > 0 {
			return PriceQuote{Symbol: symbol, Price: price, Source: t.Provider.Name(), Tier: i + 1}
		}
		if err == nil {
			err = ErrNotFound
		}
		if errors.Is(err, ErrRateLimited) {
			lastErr = fmt.Errorf("%s: %w", t.Provider.Name(), ErrRateLimited)
			continue
		}
		// Network faults count as a tier miss, not a pipeline abort.
		log.Printf("quote %s via %s: %v", symbol, t.Provider.Name(), err)
		lastErr = fmt.Errorf("%s: %w", t.Provider.Name(), err)
	}
	return PriceQuote{Symbol: symbol, Err: lastErr}
}

// FetchWithAlternatives fetches the primary symbol and, when every tier
// misses, retries with alternative spellings (exchange suffixes, curated
// aliases, name-derived tickers) one at a time through the same chain.
func (f *Fetcher) FetchWithAlternatives(symbol, name string) PriceQuote {
	quote := f.Fetch(symbol)
	if quote.Success() || errors.Is(quote.Err, ErrNoAPIKey) {
		return quote
	}
	for _, alt := range AlternativeSymbols(symbol, name) {
		f.sleep(f.altDelay)
		if altQuote := f.Fetch(alt); altQuote.Success() {
			return altQuote
		}
	}
	return quote
}

// RefreshResult accumulates a batch refresh: resolved prices by symbol plus
// the per-symbol quote metadata, successes and failures alike.
type RefreshResult struct {
	Prices map[string]float64
	Quotes map[string]PriceQuote
}

// RefreshAll fetches every symbol strictly in sequence, inserting after each
// one a delay sized to the fastest configured provider. A single symbol's
// failure never aborts the batch.
func (f *Fetcher) RefreshAll(symbols []string, names map[string]string) RefreshResult {
	result := RefreshResult{
		Prices: make(map[string]float64),
		Quotes: make(map[string]PriceQuote),
	}
	delay := f.fastestInterval()
	for i, symbol := range symbols {
		quote := f.FetchWithAlternatives(symbol, names[symbol])
		result.Quotes[symbol] = quote
		if quote.Success() {
			result.Prices[symbol] = quote.Price
		}
		if i < len(symbols)-1 {
			f.sleep(delay)
		}
	}
	return result
}

// fastestInterval returns the smallest inter-call delay among configured
// providers.
func (f *Fetcher) fastestInterval() time.Duration {
	var fastest time.Duration
	for _, t := range f.tiers {
		if !t.Provider.Configured() {
			continue
		}
		if every := t.Limiter.Every(); fastest == 0 || every < fastest {
			fastest = every
		}
	}
	return fastest
}

// regionalSuffixes are the recognized exchange suffixes tried when a bare
// symbol cannot be quoted under its plain spelling.
var regionalSuffixes = []string{
	".PA", // Euronext Paris
	".DE", // Xetra
	".F",  // Frankfurt
	".L",  // London
	".MI", // Milan
	".MC", // Madrid
	".AS", // Amsterdam
	".BR", // Brussels
	".LS", // Lisbon
	".SW", // Swiss
	".TO", // Toronto
	".HK", // Hong Kong
}

// tickerAliases maps a lowercased name keyword to conventional tickers that
// differ from the instrument's common name. Kept ordered so candidate lists
// are deterministic.
var tickerAliases = []struct {
	keyword string
	tickers []string
}{
	{"lvmh", []string{"MC.PA", "LVMUY"}},
	{"nestle", []string{"NESN.SW", "NSRGY"}},
	{"novo nordisk", []string{"NOVO-B.CO", "NVO"}},
	{"volkswagen", []string{"VOW3.DE", "VWAGY"}},
	{"santander", []string{"SAN.MC", "SAN"}},
	{"totalenergies", []string{"TTE.PA", "TTE"}},
	{"airbus", []string{"AIR.PA", "EADSY"}},
	{"siemens", []string{"SIE.DE", "SIEGY"}},
	{"allianz", []string{"ALV.DE", "ALIZY"}},
	{"unilever", []string{"ULVR.L", "UL"}},
	{"shell", []string{"SHEL.L", "SHEL"}},
	{"axa", []string{"CS.PA", "AXAHY"}},
}

// AlternativeSymbols builds the deduplicated candidate list for a symbol
// that failed on all configured tiers:
//
//  1. every regional suffix appended to a bare symbol, or the bare symbol
//     when the input already carries a suffix,
//  2. curated name-to-ticker aliases,
//  3. the first word of the instrument's name when it is 3-6 characters,
//     which catches many native-language tickers.
//
// The primary symbol itself is never in the list.
func AlternativeSymbols(symbol, name string) []string {
	symbol = canonicalSymbol(symbol)
	var candidates []string

	if dot := strings.Index(symbol, "."); dot > 0 {
		candidates = append(candidates, symbol[:dot])
	} else {
		for _, suffix := range regionalSuffixes {
			candidates = append(candidates, symbol+suffix)
		}
	}

	lowerName := strings.ToLower(name)
	for _, alias := range tickerAliases {
		if strings.Contains(lowerName, alias.keyword) {
			candidates = append(candidates, alias.tickers...)
		}
	}

	if fields := strings.Fields(name); len(fields) > 0 {
		first := strings.ToUpper(fields[0])
		if len(first) >= 3 && len(first) <= 6 {
			candidates = append(candidates, first)
		}
	}

	seen := map[string]struct{}{symbol: {}}
	out := candidates[:0]
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
