package tracker

import (
	"errors"
	"slices"
	"testing"
	"time"
)

// stubProvider answers from a fixed price table and records every symbol it
// was asked for.
type stubProvider struct {
	name       string
	configured bool
	prices     map[string]float64
	err        error
	asked      []string
}

func (s *stubProvider) Name() string     { return s.name }
func (s *stubProvider) Configured() bool { return s.configured }
func (s *stubProvider) Quote(symbol string) (float64, error) {
	s.asked = append(s.asked, symbol)
	if s.err != nil {
		return 0, s.err
	}
	if price, ok := s.prices[symbol]; ok {
		return price, nil
	}
	return 0, ErrNotFound
}

func newTestFetcher(tiers ...Tier) *Fetcher {
	f := NewFetcher(tiers...)
	f.sleep = func(time.Duration) {}
	return f
}

func tier(p QuoteProvider) Tier { return Tier{Provider: p, Limiter: nil} }

func TestFetcher_FirstTierWins(t *testing.T) {
	first := &stubProvider{name: "first", configured: true, prices: map[string]float64{"AAPL": 150}}
	second := &stubProvider{name: "second", configured: true, prices: map[string]float64{"AAPL": 151}}
	f := newTestFetcher(tier(first), tier(second))

	q := f.Fetch("AAPL")
	if !q.Success() || q.Price != 150 || q.Source != "first" || q.Tier != 1 {
		t.Errorf("quote = %+v, want 150 from first tier", q)
	}
	if len(second.asked) != 0 {
		t.Errorf("second tier was asked %v, want untouched", second.asked)
	}
}

func TestFetcher_FallsThroughMisses(t *testing.T) {
	first := &stubProvider{name: "first", configured: true}                            // knows nothing
	second := &stubProvider{name: "second", configured: true, err: errors.New("dial")} // network fault
	third := &stubProvider{name: "third", configured: true, prices: map[string]float64{"MSFT": 300}}
	f := newTestFetcher(tier(first), tier(second), tier(third))

	q := f.Fetch("MSFT")
	if !q.Success() || q.Price != 300 || q.Tier != 3 {
		t.Errorf("quote = %+v, want 300 from tier 3", q)
	}
}

func TestFetcher_TierNumbersSkipUnconfigured(t *testing.T) {
	first := &stubProvider{name: "first", configured: false}
	second := &stubProvider{name: "second", configured: true, prices: map[string]float64{"MSFT": 300}}
	f := newTestFetcher(tier(first), tier(second))

	q := f.Fetch("MSFT")
	if q.Tier != 2 {
		t.Errorf("tier = %d, want 2: unconfigured providers keep their slot", q.Tier)
	}
	if len(first.asked) != 0 {
		t.Error("unconfigured provider should never be called")
	}
}

func TestFetcher_NoKeysAtAll(t *testing.T) {
	f := newTestFetcher(tier(&stubProvider{name: "first"}))
	q := f.Fetch("AAPL")
	if !errors.Is(q.Err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", q.Err)
	}
}

func TestFetcher_RateLimitedEverywhere(t *testing.T) {
	first := &stubProvider{name: "first", configured: true, err: ErrRateLimited}
	second := &stubProvider{name: "second", configured: true, err: ErrRateLimited}
	f := newTestFetcher(tier(first), tier(second))

	q := f.Fetch("AAPL")
	if q.Success() {
		t.Fatal("rate limited everywhere should not succeed")
	}
	if !errors.Is(q.Err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", q.Err)
	}
}

func TestFetcher_ZeroPriceIsAMiss(t *testing.T) {
	first := &stubProvider{name: "first", configured: true, prices: map[string]float64{"AAPL": 0}}
	second := &stubProvider{name: "second", configured: true, prices: map[string]float64{"AAPL": 150}}
	f := newTestFetcher(tier(first), tier(second))

	q := f.Fetch("AAPL")
	if !q.Success() || q.Tier != 2 {
		t.Errorf("quote = %+v, want the zero answer skipped", q)
	}
}

func TestFetchWithAlternatives(t *testing.T) {
	p := &stubProvider{name: "p", configured: true, prices: map[string]float64{"MC.PA": 600}}
	f := newTestFetcher(tier(p))

	q := f.FetchWithAlternatives("LVMH", "LVMH Moet Hennessy")
	if !q.Success() || q.Price != 600 {
		t.Errorf("quote = %+v, want 600 via MC.PA", q)
	}
	if q.Symbol != "MC.PA" {
		t.Errorf("resolved symbol = %q, want MC.PA", q.Symbol)
	}
}

func TestRefreshAll(t *testing.T) {
	p := &stubProvider{name: "p", configured: true, prices: map[string]float64{"AAPL": 150, "MSFT": 300}}
	f := newTestFetcher(tier(p))

	result := f.RefreshAll([]string{"AAPL", "GHOST", "MSFT"}, nil)
	if len(result.Prices) != 2 {
		t.Errorf("prices = %v, want 2 entries", result.Prices)
	}
	if result.Prices["AAPL"] != 150 || result.Prices["MSFT"] != 300 {
		t.Errorf("prices = %v", result.Prices)
	}
	if q := result.Quotes["GHOST"]; q.Success() {
		t.Errorf("GHOST should have failed, got %+v", q)
	}
	if len(result.Quotes) != 3 {
		t.Errorf("quotes = %d entries, want 3, failures included", len(result.Quotes))
	}
}

func TestAlternativeSymbols(t *testing.T) {
	t.Run("bare symbol gets every regional suffix", func(t *testing.T) {
		alts := AlternativeSymbols("LVMH", "LVMH Moet Hennessy Louis Vuitton")
		for _, want := range []string{"LVMH.PA", "LVMH.DE", "LVMH.L", "MC.PA", "LVMUY"} {
			if !slices.Contains(alts, want) {
				t.Errorf("missing %s in %v", want, alts)
			}
		}
		if slices.Contains(alts, "LVMH") {
			t.Errorf("primary symbol must not be a candidate: %v", alts)
		}
	})

	t.Run("suffixed symbol strips to the bare one", func(t *testing.T) {
		alts := AlternativeSymbols("MC.PA", "")
		if !slices.Contains(alts, "MC") {
			t.Errorf("missing bare MC in %v", alts)
		}
		if slices.Contains(alts, "MC.PA.DE") {
			t.Errorf("suffixed symbol must not grow another suffix: %v", alts)
		}
	})

	t.Run("first word of the name when ticker-sized", func(t *testing.T) {
		alts := AlternativeSymbols("XXXX", "Adyen NV")
		if !slices.Contains(alts, "ADYEN") {
			t.Errorf("missing ADYEN in %v", alts)
		}
	})

	t.Run("deduplicated", func(t *testing.T) {
		alts := AlternativeSymbols("NESN.SW", "Nestle SA")
		seen := map[string]int{}
		for _, a := range alts {
			seen[a]++
			if seen[a] > 1 {
				t.Errorf("duplicate candidate %s in %v", a, alts)
			}
		}
		if slices.Contains(alts, "NESN.SW") {
			t.Errorf("primary symbol must not be a candidate: %v", alts)
		}
	})
}
