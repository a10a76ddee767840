package tracker

import (
	"context"
	"errors"
	"testing"
)

type stubProfile struct {
	configured bool
	byISIN     map[string][]ResolutionCandidate
	search     map[string][]ResolutionCandidate
	calls      int
}

func (s *stubProfile) Configured() bool { return s.configured }
func (s *stubProfile) ProfileByISIN(isin string) ([]ResolutionCandidate, error) {
	s.calls++
	return s.byISIN[isin], nil
}
func (s *stubProfile) Search(query string) ([]ResolutionCandidate, error) {
	return s.search[query], nil
}

type stubISIN struct {
	configured bool
	byISIN     map[string][]ResolutionCandidate
	calls      int
}

func (s *stubISIN) Configured() bool { return s.configured }
func (s *stubISIN) SearchISIN(isin string) ([]ResolutionCandidate, error) {
	s.calls++
	return s.byISIN[isin], nil
}

type stubBatch struct {
	configured bool
	byInput    map[string][]ResolutionCandidate
	err        error
	calls      int
	batches    [][]string
}

func (s *stubBatch) Configured() bool { return s.configured }
func (s *stubBatch) ResolveBatch(_ context.Context, identifiers []string) (map[string][]ResolutionCandidate, error) {
	s.calls++
	s.batches = append(s.batches, identifiers)
	if s.err != nil {
		return nil, s.err
	}
	return s.byInput, nil
}

const (
	appleISIN = "US0378331005"
	vwceISIN  = "IE00BK5BQT80"
)

func TestResolver_RegistryShortCircuits(t *testing.T) {
	registry := NewRegistry(Asset{Identifier: appleISIN, Ticker: "AAPL", Name: "Apple Inc."})
	profile := &stubProfile{configured: true}
	r := &Resolver{Registry: registry, Profile: profile}

	proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
	if got := proposal.Resolved[appleISIN].Ticker; got != "AAPL" {
		t.Errorf("resolved ticker = %q, want AAPL", got)
	}
	if profile.calls != 0 {
		t.Errorf("profile tier was called %d times for a known identifier", profile.calls)
	}
}

func TestResolver_TiersConsumeOnlyLeftovers(t *testing.T) {
	registry := NewRegistry()
	profile := &stubProfile{
		configured: true,
		byISIN:     map[string][]ResolutionCandidate{appleISIN: {{Ticker: "AAPL", Confident: true}}},
	}
	isin := &stubISIN{
		configured: true,
		byISIN:     map[string][]ResolutionCandidate{vwceISIN: {{Ticker: "VWCE.DE"}}},
	}
	batch := &stubBatch{configured: true, byInput: map[string][]ResolutionCandidate{
		"XS0000000000": {{Ticker: "MYST"}},
	}}
	r := &Resolver{Registry: registry, Profile: profile, ISIN: isin, Batch: batch}

	ids := []string{appleISIN, vwceISIN, "XS0000000000"}
	proposal := r.Propose(context.Background(), ids, nil)

	if len(proposal.Resolved) != 3 {
		t.Fatalf("resolved %d of 3: %+v, failed: %v", len(proposal.Resolved), proposal.Resolved, proposal.Failed)
	}
	if isin.calls != 2 {
		t.Errorf("ISIN tier calls = %d, want 2 (the profile tier already took one)", isin.calls)
	}
	if batch.calls != 1 {
		t.Errorf("AI tier calls = %d, want exactly 1 batched request", batch.calls)
	}
	if len(batch.batches) == 1 && len(batch.batches[0]) != 1 {
		t.Errorf("AI batch = %v, want only the one leftover", batch.batches[0])
	}

	// the successes are persisted for the next run
	if _, ok := registry.Lookup(appleISIN); !ok {
		t.Error("resolution was not persisted to the registry")
	}
}

func TestResolver_SingleBatchWhateverTheCount(t *testing.T) {
	batch := &stubBatch{configured: true, byInput: map[string][]ResolutionCandidate{}}
	r := &Resolver{Registry: NewRegistry(), Batch: batch}

	ids := []string{"XS0000000001", "XS0000000002", "XS0000000003", "XS0000000004"}
	r.Propose(context.Background(), ids, nil)
	if batch.calls != 1 {
		t.Errorf("AI tier calls = %d, want 1 for %d identifiers", batch.calls, len(ids))
	}
	if len(batch.batches[0]) != len(ids) {
		t.Errorf("batch contained %d identifiers, want %d", len(batch.batches[0]), len(ids))
	}
}

func TestResolver_PreferKnownTieBreak(t *testing.T) {
	candidates := []ResolutionCandidate{
		{Ticker: "MC.PA", Name: "LVMH (Paris)"},
		{Ticker: "LVMUY", Name: "LVMH (ADR)"},
	}
	r := &Resolver{
		Registry: NewRegistry(),
		Profile:  &stubProfile{configured: true, byISIN: map[string][]ResolutionCandidate{appleISIN: candidates}},
	}

	// holding MC.PA already: the ambiguity resolves itself
	proposal := r.Propose(context.Background(), []string{appleISIN}, map[string]bool{"MC.PA": true})
	if got := proposal.Resolved[appleISIN].Ticker; got != "MC.PA" {
		t.Errorf("resolved = %q, want the held listing MC.PA", got)
	}
	if len(proposal.Pending) != 0 {
		t.Errorf("pending = %v, want none", proposal.Pending)
	}

	// not holding either: the decision is pending
	r2 := &Resolver{
		Registry: NewRegistry(),
		Profile:  &stubProfile{configured: true, byISIN: map[string][]ResolutionCandidate{appleISIN: candidates}},
	}
	proposal = r2.Propose(context.Background(), []string{appleISIN}, nil)
	if len(proposal.Pending) != 1 {
		t.Fatalf("pending = %v, want the ambiguous identifier", proposal.Pending)
	}
	if len(proposal.Resolved) != 0 {
		t.Errorf("resolved = %v, want none", proposal.Resolved)
	}
}

func TestResolver_RejectsISINShapedTickers(t *testing.T) {
	// a provider or model echoing the ISIN back is not a resolution
	batch := &stubBatch{configured: true, byInput: map[string][]ResolutionCandidate{
		appleISIN: {{Ticker: appleISIN, Confident: true}},
	}}
	r := &Resolver{Registry: NewRegistry(), Batch: batch}

	proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
	if len(proposal.Resolved) != 0 {
		t.Errorf("resolved = %v, want the echoed ISIN rejected", proposal.Resolved)
	}
	if _, failed := proposal.Failed[appleISIN]; !failed {
		t.Error("identifier should have failed after every tier")
	}
}

func TestResolver_BatchErrorLeavesFailures(t *testing.T) {
	batch := &stubBatch{configured: true, err: errors.New("model unavailable")}
	r := &Resolver{Registry: NewRegistry(), Batch: batch}

	proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
	if _, failed := proposal.Failed[appleISIN]; !failed {
		t.Error("identifier should fail when the AI tier errors")
	}
}

func TestResolver_Apply(t *testing.T) {
	candidates := []ResolutionCandidate{
		{Ticker: "MC.PA", Name: "Paris"},
		{Ticker: "LVMUY", Name: "ADR"},
	}
	newPending := func() *Resolver {
		return &Resolver{
			Registry: NewRegistry(),
			Profile:  &stubProfile{configured: true, byISIN: map[string][]ResolutionCandidate{appleISIN: candidates}},
		}
	}

	t.Run("choice by index", func(t *testing.T) {
		r := newPending()
		proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
		resolved := r.Apply(proposal, map[string]Choice{appleISIN: {Index: 1}})
		if got := resolved[appleISIN].Ticker; got != "LVMUY" {
			t.Errorf("resolved = %q, want LVMUY", got)
		}
		if _, ok := r.Registry.Lookup(appleISIN); !ok {
			t.Error("chosen resolution was not persisted")
		}
	})

	t.Run("manual ticker", func(t *testing.T) {
		r := newPending()
		proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
		resolved := r.Apply(proposal, map[string]Choice{appleISIN: {Index: -1, Manual: "mc.pa"}})
		if got := resolved[appleISIN].Ticker; got != "MC.PA" {
			t.Errorf("resolved = %q, want canonical MC.PA", got)
		}
	})

	t.Run("manual ISIN rejected", func(t *testing.T) {
		r := newPending()
		proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
		r.Apply(proposal, map[string]Choice{appleISIN: {Index: -1, Manual: vwceISIN}})
		if _, failed := proposal.Failed[appleISIN]; !failed {
			t.Error("an ISIN-shaped manual ticker must be rejected")
		}
	})

	t.Run("skip", func(t *testing.T) {
		r := newPending()
		proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
		resolved := r.Apply(proposal, map[string]Choice{appleISIN: Skip})
		if len(resolved) != 0 {
			t.Errorf("resolved = %v, want none", resolved)
		}
		if _, failed := proposal.Failed[appleISIN]; !failed {
			t.Error("skipped identifier should be failed")
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		r := newPending()
		proposal := r.Propose(context.Background(), []string{appleISIN}, nil)
		r.Apply(proposal, map[string]Choice{appleISIN: {Index: 99}})
		if _, failed := proposal.Failed[appleISIN]; !failed {
			t.Error("out of range index should fail the identifier")
		}
	})
}

func TestResolver_DeduplicatesIdentifiers(t *testing.T) {
	profile := &stubProfile{
		configured: true,
		byISIN:     map[string][]ResolutionCandidate{appleISIN: {{Ticker: "AAPL"}}},
	}
	r := &Resolver{Registry: NewRegistry(), Profile: profile}

	r.Propose(context.Background(), []string{appleISIN, " us0378331005 ", appleISIN}, nil)
	if profile.calls != 1 {
		t.Errorf("profile calls = %d, want 1 for three spellings of one identifier", profile.calls)
	}
}
