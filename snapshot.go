package tracker

import (
	"sort"
	"time"
)

// Snapshot is an immutable point-in-time summary of aggregate portfolio
// value, created only by an explicit save action and keyed by its timestamp.
type Snapshot struct {
	Timestamp        time.Time `json:"timestamp"`
	TotalInvested    Money     `json:"-"`
	TotalMarketValue Money     `json:"-"`
	PositionCount    int       `json:"positionCount"`
	PricesAvailable  int       `json:"pricesAvailable"`
}

// BuildSnapshot derives a snapshot from the current positions and the
// latest-price map. For a position without a quote the market value falls
// back to its cost basis, so a portfolio with zero fetched prices still
// reports a sensible total equal to cost.
//
// PricesAvailable counts the distinct symbols present in the price map, not
// the subset matching current holdings; a price map retaining stale symbols
// over-counts, and that is the recorded behavior.
func BuildSnapshot(positions []Position, prices map[string]Money, timestamp time.Time) Snapshot {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	s := Snapshot{
		Timestamp:       timestamp.UTC().Truncate(time.Second),
		PositionCount:   len(positions),
		PricesAvailable: len(prices),
	}
	for _, p := range positions {
		invested := p.Invested()
		s.TotalInvested = s.TotalInvested.Add(invested)
		if price, ok := prices[p.Symbol]; ok {
			s.TotalMarketValue = s.TotalMarketValue.Add(price.Mul(p.Shares))
		} else {
			s.TotalMarketValue = s.TotalMarketValue.Add(invested)
		}
	}
	return s
}

// MergeSnapshots reconciles two snapshot series, deduplicating strictly by
// timestamp equality. On a collision the existing entry wins over the
// incoming one, which favors locally-saved data over a possibly-stale
// remote copy. The merged series is sorted ascending by timestamp, and the
// merge is idempotent.
func MergeSnapshots(existing, incoming []Snapshot) []Snapshot {
	seen := make(map[int64]struct{}, len(existing)+len(incoming))
	merged := make([]Snapshot, 0, len(existing)+len(incoming))
	for _, s := range existing {
		key := s.Timestamp.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}
	for _, s := range incoming {
		key := s.Timestamp.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}
