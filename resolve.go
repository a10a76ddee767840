package tracker

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
)

// ProfileSearcher is the first network resolution tier: a provider exposing
// a profile lookup by ISIN and, optionally, free-text search.
type ProfileSearcher interface {
	Configured() bool
	ProfileByISIN(isin string) ([]ResolutionCandidate, error)
	Search(query string) ([]ResolutionCandidate, error)
}

// ISINSearcher is the second network resolution tier: a provider with a
// dedicated ISIN search endpoint.
type ISINSearcher interface {
	Configured() bool
	SearchISIN(isin string) ([]ResolutionCandidate, error)
}

// BatchResolver is the AI-assisted last tier: one natural-language request
// covering every identifier still unresolved, whatever their count.
type BatchResolver interface {
	Configured() bool
	ResolveBatch(ctx context.Context, identifiers []string) (map[string][]ResolutionCandidate, error)
}

// Decision is one identifier whose candidates need an explicit human choice.
type Decision struct {
	Identifier string
	Candidates []ResolutionCandidate
}

// Proposal is the outcome of the tiered candidate search. Identifiers land
// in exactly one of the three buckets.
type Proposal struct {
	Resolved map[string]ResolutionCandidate // auto-resolved, already persisted
	Pending  []Decision                     // awaiting an explicit choice
	Failed   map[string]error               // unresolved after all tiers
}

// Choice is the answer to one pending Decision: either the index of a
// candidate, or a manually entered ticker. A negative index with no manual
// entry skips the identifier, leaving it unresolved.
type Choice struct {
	Index  int
	Manual string
}

// Skip is the Choice that leaves an identifier unresolved.
var Skip = Choice{Index: -1}

// Resolver walks the 4-tier lookup chain for ISIN-shaped or otherwise
// unresolved identifiers: local registry, profile provider, ISIN-search
// provider, then one batched AI request. Disambiguation never blocks the
// pipeline: Propose returns the pending decisions and Apply consumes the
// choices.
type Resolver struct {
	Registry *Registry

	Profile        ProfileSearcher
	ProfileLimiter *Interval

	ISIN        ISINSearcher
	ISINLimiter *Interval

	Batch BatchResolver
}

// Propose resolves what it can and collects candidates for the rest. Each
// tier consumes only the identifiers left unresolved by the prior tiers.
// held is the set of tickers currently in the portfolio, used (together
// with the registry) for the prefer-known tie-break.
func (r *Resolver) Propose(ctx context.Context, identifiers []string, held map[string]bool) *Proposal {
	proposal := &Proposal{
		Resolved: make(map[string]ResolutionCandidate),
		Failed:   make(map[string]error),
	}

	remaining := dedupeIdentifiers(identifiers)

	// Tier 1: local registry, no network.
	rest := remaining[:0]
	for _, id := range remaining {
		if asset, ok := r.Registry.Lookup(id); ok {
			proposal.Resolved[id] = ResolutionCandidate{
				Ticker:    asset.Ticker,
				Name:      asset.Name,
				AssetType: asset.AssetType,
				Exchange:  asset.Exchange,
				Confident: true,
			}
			continue
		}
		rest = append(rest, id)
	}
	remaining = rest

	// Tier 2: profile lookup by ISIN plus free-text search candidates.
	remaining = r.networkTier(remaining, proposal, held, func(id string) ([]ResolutionCandidate, error) {
		if r.Profile == nil || !r.Profile.Configured() {
			return nil, nil
		}
		r.ProfileLimiter.Wait()
		candidates, err := r.Profile.ProfileByISIN(id)
		if err != nil {
			return nil, err
		}
		r.ProfileLimiter.Wait()
		extra, err := r.Profile.Search(id)
		if err != nil {
			// the direct profile answer stands on its own
			log.Printf("resolve %s: free-text search failed: %v", id, err)
		}
		return dedupeCandidates(append(candidates, extra...)), nil
	})

	// Tier 3: dedicated ISIN search.
	remaining = r.networkTier(remaining, proposal, held, func(id string) ([]ResolutionCandidate, error) {
		if r.ISIN == nil || !r.ISIN.Configured() {
			return nil, nil
		}
		r.ISINLimiter.Wait()
		return r.ISIN.SearchISIN(id)
	})

	// Tier 4: one batched AI request for whatever is left.
	if len(remaining) > 0 && r.Batch != nil && r.Batch.Configured() {
		byInput, err := r.Batch.ResolveBatch(ctx, remaining)
		if err != nil {
			log.Printf("resolve: AI fallback failed: %v", err)
		} else {
			rest := remaining[:0]
			for _, id := range remaining {
				candidates := rejectISINTickers(byInput[id])
				if len(candidates) == 0 {
					rest = append(rest, id)
					continue
				}
				r.settle(id, candidates, proposal, held)
			}
			remaining = rest
		}
	}

	for _, id := range remaining {
		proposal.Failed[id] = fmt.Errorf("could not resolve identifier %q to a ticker", id)
	}
	sort.Slice(proposal.Pending, func(i, j int) bool {
		return proposal.Pending[i].Identifier < proposal.Pending[j].Identifier
	})
	return proposal
}

// networkTier runs one lookup over every remaining identifier and settles
// those that produced candidates. Lookup errors leave the identifier for
// the next tier.
func (r *Resolver) networkTier(remaining []string, proposal *Proposal, held map[string]bool, lookup func(string) ([]ResolutionCandidate, error)) []string {
	rest := remaining[:0]
	for _, id := range remaining {
		candidates, err := lookup(id)
		if err != nil {
			log.Printf("resolve %s: %v", id, err)
		}
		candidates = rejectISINTickers(candidates)
		if len(candidates) == 0 {
			rest = append(rest, id)
			continue
		}
		r.settle(id, candidates, proposal, held)
	}
	return rest
}

// settle decides what to do with a non-empty candidate list: auto-select a
// single candidate, auto-select the one prior-known ticker, or queue a
// pending decision.
func (r *Resolver) settle(id string, candidates []ResolutionCandidate, proposal *Proposal, held map[string]bool) {
	if len(candidates) == 1 {
		r.accept(id, candidates[0], proposal)
		return
	}
	// Prefer a listing already tracked: exactly one known ticker among the
	// candidates avoids creating a duplicate position for an instrument we
	// already hold under a specific listing.
	var known []ResolutionCandidate
	for _, c := range candidates {
		if held[c.Ticker] || r.Registry.KnownTicker(c.Ticker) {
			known = append(known, c)
		}
	}
	if len(known) == 1 {
		r.accept(id, known[0], proposal)
		return
	}
	proposal.Pending = append(proposal.Pending, Decision{Identifier: id, Candidates: candidates})
}

// accept records a resolution and persists it into the registry so future
// imports short-circuit at tier 1.
func (r *Resolver) accept(id string, c ResolutionCandidate, proposal *Proposal) {
	c.Ticker = canonicalSymbol(c.Ticker)
	proposal.Resolved[id] = c
	r.Registry.Put(Asset{
		Identifier: id,
		Ticker:     c.Ticker,
		Name:       c.Name,
		AssetType:  c.AssetType,
		Exchange:   c.Exchange,
	})
}

// Apply consumes the choices for a proposal's pending decisions. Identifiers
// skipped or missing from choices stay unresolved and are moved to Failed.
// It returns the complete resolution map (auto-resolved plus chosen).
func (r *Resolver) Apply(proposal *Proposal, choices map[string]Choice) map[string]ResolutionCandidate {
	for _, decision := range proposal.Pending {
		choice, ok := choices[decision.Identifier]
		if !ok {
			proposal.Failed[decision.Identifier] = fmt.Errorf("no listing chosen for %q", decision.Identifier)
			continue
		}
		if manual := canonicalSymbol(choice.Manual); manual != "" {
			if err := ValidateTicker(manual); err != nil {
				proposal.Failed[decision.Identifier] = err
				continue
			}
			r.accept(decision.Identifier, ResolutionCandidate{Ticker: manual, Confident: false}, proposal)
			continue
		}
		if choice.Index < 0 || choice.Index >= len(decision.Candidates) {
			proposal.Failed[decision.Identifier] = fmt.Errorf("no listing chosen for %q", decision.Identifier)
			continue
		}
		r.accept(decision.Identifier, decision.Candidates[choice.Index], proposal)
	}
	proposal.Pending = nil
	return proposal.Resolved
}

// rejectISINTickers drops candidates whose ticker is itself ISIN-shaped.
// A model or provider echoing the input back is a resolution failure for
// that item, never an acceptable ticker.
func rejectISINTickers(candidates []ResolutionCandidate) []ResolutionCandidate {
	out := candidates[:0]
	for _, c := range candidates {
		if err := ValidateTicker(c.Ticker); err != nil {
			log.Printf("resolve: dropping candidate: %v", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func dedupeIdentifiers(identifiers []string) []string {
	seen := make(map[string]struct{}, len(identifiers))
	var out []string
	for _, id := range identifiers {
		id = normalizeIdentifier(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// dedupeCandidates keeps the first candidate seen for each ticker.
func dedupeCandidates(candidates []ResolutionCandidate) []ResolutionCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		key := strings.ToUpper(c.Ticker)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
