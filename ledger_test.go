package tracker

import (
	"testing"
)

func usd(t *testing.T, v float64) Money {
	t.Helper()
	return M(v, "USD")
}

// TestLedger_Lifecycle walks one position through its whole life: initial
// add, averaging buy, partial sale, full sale, and reactivation.
func TestLedger_Lifecycle(t *testing.T) {
	l := NewLedger()
	day := NewDate(2026, 1, 5)

	// add 100 shares at 150
	if _, err := l.Add("aapl", Q(100), usd(t, 15000), day, "Apple Inc.", "IBKR", Stock); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	p := l.Position("AAPL")
	if p == nil {
		t.Fatal("position not found after Add")
	}
	if got, want := p.AvgPrice, usd(t, 150); !got.Equal(want) {
		t.Errorf("avg price after add = %s, want %s", got, want)
	}

	// adding again while active must fail and change nothing
	if _, err := l.Add("AAPL", Q(1), usd(t, 100), day, "", "", ""); err == nil {
		t.Error("Add on an active position should fail")
	}
	if got := l.Position("AAPL").Shares; !got.Equal(Q(100)) {
		t.Errorf("shares changed by failed Add: %s", got)
	}

	// buy 50 more for 10000 -> avg = 25000/150 = 166.66..
	if _, err := l.Buy("AAPL", Q(50), usd(t, 10000), day.Add(1)); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	p = l.Position("AAPL")
	if !p.Shares.Equal(Q(150)) {
		t.Errorf("shares after buy = %s, want 150", p.Shares)
	}
	wantAvg := usd(t, 25000).Div(Q(150))
	if !p.AvgPrice.Equal(wantAvg) {
		t.Errorf("avg price after buy = %s, want %s", p.AvgPrice, wantAvg)
	}

	// sell 50 at 190 -> realized = (190 - 166.66..) * 50, avg unchanged
	tx, err := l.Sell("AAPL", Q(50), usd(t, 9500), day.Add(2))
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	wantRealized := usd(t, 190).Sub(wantAvg).Mul(Q(50))
	if !tx.RealizedGainLoss.Equal(wantRealized) {
		t.Errorf("realized = %s, want %s", tx.RealizedGainLoss, wantRealized)
	}
	if !tx.CostBasis.Equal(wantAvg) {
		t.Errorf("cost basis = %s, want %s", tx.CostBasis, wantAvg)
	}
	if got := l.Position("AAPL").AvgPrice; !got.Equal(wantAvg) {
		t.Errorf("avg price changed by sale: %s", got)
	}

	// selling more than held must fail and change nothing
	if _, err := l.Sell("AAPL", Q(500), usd(t, 1), day.Add(2)); err == nil {
		t.Error("overselling should fail")
	}
	if got := l.Position("AAPL").Shares; !got.Equal(Q(100)) {
		t.Errorf("shares changed by failed Sell: %s", got)
	}

	// sell the rest -> inactive, history kept
	if _, err := l.Sell("AAPL", Q(100), usd(t, 18000), day.Add(3)); err != nil {
		t.Fatalf("final Sell failed: %v", err)
	}
	p = l.Position("AAPL")
	if p.Active() {
		t.Error("position should be inactive after selling every share")
	}
	if got := len(l.Transactions("AAPL")); got != 4 {
		t.Errorf("transaction count = %d, want 4", got)
	}

	// re-add reactivates with the new shares and price
	if _, err := l.Add("AAPL", Q(25), usd(t, 4500), day.Add(10), "", "", ""); err != nil {
		t.Fatalf("reactivating Add failed: %v", err)
	}
	p = l.Position("AAPL")
	if !p.Shares.Equal(Q(25)) || !p.AvgPrice.Equal(usd(t, 180)) {
		t.Errorf("after reactivation shares=%s avg=%s, want 25 and 180", p.Shares, p.AvgPrice)
	}
	if p.Name != "Apple Inc." || p.Platform != "IBKR" {
		t.Errorf("reactivation lost metadata: %q %q", p.Name, p.Platform)
	}
	if got := len(l.Transactions("AAPL")); got != 5 {
		t.Errorf("history truncated by reactivation: %d transactions", got)
	}
}

func TestLedger_Validation(t *testing.T) {
	l := NewLedger()
	day := NewDate(2026, 2, 1)
	if _, err := l.Add("AAPL", Q(10), usd(t, 1500), day, "", "", ""); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	tests := []struct {
		name string
		run  func() error
	}{
		{"buy unknown symbol", func() error { _, err := l.Buy("NOPE", Q(1), usd(t, 1), day); return err }},
		{"sell unknown symbol", func() error { _, err := l.Sell("NOPE", Q(1), usd(t, 1), day); return err }},
		{"remove unknown symbol", func() error { return l.Remove("NOPE") }},
		{"add zero shares", func() error { _, err := l.Add("X", Q(0), usd(t, 1), day, "", "", ""); return err }},
		{"add negative shares", func() error { _, err := l.Add("X", Q(-1), usd(t, 1), day, "", "", ""); return err }},
		{"add empty symbol", func() error { _, err := l.Add("  ", Q(1), usd(t, 1), day, "", "", ""); return err }},
		{"add negative total", func() error { _, err := l.Add("X", Q(1), usd(t, -10), day, "", "", ""); return err }},
		{"buy negative total", func() error { _, err := l.Buy("AAPL", Q(1), usd(t, -10), day); return err }},
		{"sell negative total", func() error { _, err := l.Sell("AAPL", Q(1), usd(t, -10), day); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.run() == nil {
				t.Error("expected an error")
			}
		})
	}

	// failed mutations leave the position untouched
	p := l.Position("AAPL")
	if !p.Shares.Equal(Q(10)) || !p.AvgPrice.Equal(usd(t, 150)) {
		t.Errorf("position changed by rejected operations: %s shares at %s", p.Shares, p.AvgPrice)
	}
	if got := len(l.Transactions("AAPL")); got != 1 {
		t.Errorf("transaction log grew to %d entries, want 1", got)
	}
}

func TestLedger_SymbolCanonicalization(t *testing.T) {
	l := NewLedger()
	if _, err := l.Add(" msft ", Q(10), usd(t, 3000), Date{}, "", "", ""); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if l.Position("MSFT") == nil {
		t.Error("lowercase padded symbol should be stored canonically")
	}
	if _, err := l.Buy("Msft", Q(5), usd(t, 1500), Date{}); err != nil {
		t.Errorf("Buy with mixed case failed: %v", err)
	}
}

func TestLedger_RenameAndAnnotate(t *testing.T) {
	l := NewLedger()
	isin := "US0378331005"
	if _, err := l.Add(isin, Q(10), usd(t, 1500), Date{}, "", "Degiro", ""); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := l.Rename(isin, "AAPL"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if l.Position(isin) != nil {
		t.Error("old symbol still present after rename")
	}
	p := l.Position("AAPL")
	if p == nil {
		t.Fatal("new symbol missing after rename")
	}
	if got := len(l.Transactions("AAPL")); got != 1 {
		t.Errorf("history lost on rename: %d transactions", got)
	}

	if err := l.Annotate("AAPL", "Apple Inc.", "", ETF); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	p = l.Position("AAPL")
	if p.Name != "Apple Inc." || p.Platform != "Degiro" || p.AssetType != ETF {
		t.Errorf("annotate result: name=%q platform=%q type=%q", p.Name, p.Platform, p.AssetType)
	}

	// renaming onto an existing position must fail
	if _, err := l.Add("MSFT", Q(1), usd(t, 300), Date{}, "", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := l.Rename("AAPL", "MSFT"); err == nil {
		t.Error("rename onto an existing symbol should fail")
	}
}

func TestLedger_Remove(t *testing.T) {
	l := NewLedger()
	for _, s := range []string{"A", "B", "C"} {
		if _, err := l.Add(s, Q(1), usd(t, 100), Date{}, "", "", ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.Remove("B"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if l.Position("B") != nil || len(l.Transactions("B")) != 0 {
		t.Error("B still present after remove")
	}
	// the remaining positions must stay addressable
	for _, s := range []string{"A", "C"} {
		if l.Position(s) == nil {
			t.Errorf("%s lost after removing B", s)
		}
	}
	if _, err := l.Buy("C", Q(1), usd(t, 100), Date{}); err != nil {
		t.Errorf("Buy on reindexed position failed: %v", err)
	}
}
