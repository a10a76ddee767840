package tracker

import "testing"

func TestNormalizeAssetType(t *testing.T) {
	tests := []struct {
		label string
		want  AssetType
	}{
		{"Stock", Stock},
		{"COMMON STOCK", Stock},
		{"equity", Stock},
		{"ADR", Stock},
		{"etf", ETF},
		{"UCITS ETF", ETF},
		{"Mutual Fund", ETF},
		{"cryptocurrency", Crypto},
		{"REITs", REIT},
		{"Fixed Income", Bond},
		{"gold", Commodity},
		{"money market", Cash},
		{"misc", Other},
		{"", Stock},
		{"   ", Stock},
		{"  etf  ", ETF},
		// unrecognized labels pass through unchanged
		{"Structured Product", AssetType("Structured Product")},
	}
	for _, tc := range tests {
		if got := NormalizeAssetType(tc.label); got != tc.want {
			t.Errorf("NormalizeAssetType(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestPositionActiveAndInvested(t *testing.T) {
	p := Position{Symbol: "AAPL", Shares: Q(10), AvgPrice: M(150, "USD")}
	if !p.Active() {
		t.Error("position with shares should be active")
	}
	if got := p.Invested(); !got.Equal(M(1500, "USD")) {
		t.Errorf("Invested() = %s, want 1500", got)
	}

	closed := Position{Symbol: "MSFT", Shares: Q(0), AvgPrice: M(300, "USD")}
	if closed.Active() {
		t.Error("position with zero shares should be inactive")
	}
}

func TestPartition(t *testing.T) {
	positions := []Position{
		{Symbol: "AAPL", Shares: Q(10)},
		{Symbol: "MSFT", Shares: Q(0)},
		{Symbol: "VWCE", Shares: Q(5)},
		{Symbol: "NVDA", Shares: Q(0)},
	}
	active, inactive := Partition(positions)
	if len(active) != 2 || active[0].Symbol != "AAPL" || active[1].Symbol != "VWCE" {
		t.Errorf("active = %v, want [AAPL VWCE]", active)
	}
	if len(inactive) != 2 || inactive[0].Symbol != "MSFT" || inactive[1].Symbol != "NVDA" {
		t.Errorf("inactive = %v, want [MSFT NVDA]", inactive)
	}
}
