package tracker

import (
	"fmt"
	"sort"
	"strings"
)

// Asset is one record of the local asset registry: a previously-seen
// identifier (ISIN or raw code) mapped to its resolved ticker. The registry
// is the first resolution tier and short-circuits any network lookup.
type Asset struct {
	Identifier string    `json:"identifier"`
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name,omitempty"`
	AssetType  AssetType `json:"assetType,omitempty"`
	Exchange   string    `json:"exchange,omitempty"`
}

// ResolutionCandidate is one possible ticker for an input identifier, as
// produced by any resolver tier. Multiple candidates for one ISIN represent
// alternate exchange listings of the same instrument.
type ResolutionCandidate struct {
	Ticker    string
	Name      string
	AssetType AssetType
	Exchange  string
	Confident bool
}

// ValidateTicker rejects ticker values that are themselves ISIN-shaped. An
// ISIN is never an acceptable ticker, no matter which tier produced it.
func ValidateTicker(ticker string) error {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return fmt.Errorf("ticker is empty")
	}
	if IsISINShaped(t) {
		return fmt.Errorf("%q is an ISIN, not a ticker", ticker)
	}
	return nil
}

// Registry is the in-memory asset registry. It is read-through and
// write-once per resolution: a mapping, once stored, is never overwritten.
type Registry struct {
	assets       []Asset
	byIdentifier map[string]int
	tickers      map[string]struct{}
}

// NewRegistry creates a registry pre-populated with persisted assets.
func NewRegistry(assets ...Asset) *Registry {
	r := &Registry{
		byIdentifier: make(map[string]int),
		tickers:      make(map[string]struct{}),
	}
	for _, a := range assets {
		r.Put(a)
	}
	return r
}

// Lookup returns the asset for an identifier, if previously resolved.
func (r *Registry) Lookup(identifier string) (Asset, bool) {
	i, ok := r.byIdentifier[normalizeIdentifier(identifier)]
	if !ok {
		return Asset{}, false
	}
	return r.assets[i], true
}

// KnownTicker reports whether a ticker has been seen in any registry record.
func (r *Registry) KnownTicker(ticker string) bool {
	_, ok := r.tickers[canonicalSymbol(ticker)]
	return ok
}

// Put stores a resolved asset. An identifier already present is left
// untouched, so repeated resolutions of the same identifier never race.
func (r *Registry) Put(a Asset) {
	id := normalizeIdentifier(a.Identifier)
	if id == "" || a.Ticker == "" {
		return
	}
	a.Identifier = id
	a.Ticker = canonicalSymbol(a.Ticker)
	if _, exists := r.byIdentifier[id]; !exists {
		r.byIdentifier[id] = len(r.assets)
		r.assets = append(r.assets, a)
	}
	r.tickers[a.Ticker] = struct{}{}
}

// Assets returns all registry records sorted by identifier, for persistence.
func (r *Registry) Assets() []Asset {
	out := append([]Asset(nil), r.assets...)
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

func normalizeIdentifier(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
