package tracker

import (
	"strings"
	"testing"
)

func TestDetectSeparator(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"semicolons", []string{"A;B;C"}, ";"},
		{"tab wins over comma", []string{"A\tB,C"}, "\t"},
		{"pipes", []string{"A|B|C"}, "|"},
		{"commas", []string{"A,B,C"}, ","},
		{"nothing defaults to tab", []string{"single"}, "\t"},
		{"separator past the probe window", []string{"a", "b", "c", "d", "e", "x;y"}, "\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectSeparator(tt.lines); got != tt.want {
				t.Errorf("detectSeparator(%q) = %q, want %q", tt.lines, got, tt.want)
			}
		})
	}
}

func TestParseHoldings_WithHeader(t *testing.T) {
	text := "Symbol\tName\tShares\tPrice\nAAPL\tApple Inc.\t10\t150\nMSFT\tMicrosoft\t5\t300"
	report := ParseHoldings(text, "USD")

	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if len(report.Positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(report.Positions))
	}
	p := report.Positions[0]
	if p.Symbol != "AAPL" || p.Name != "Apple Inc." {
		t.Errorf("first row = %q %q", p.Symbol, p.Name)
	}
	if !p.Shares.Equal(Q(10)) || !p.AvgPrice.Equal(M(150, "USD")) {
		t.Errorf("first row shares=%s price=%s", p.Shares, p.AvgPrice)
	}
	if p.NeedsCurrentPrice || p.NeedsResolution {
		t.Errorf("plain ticker row should need nothing: %+v", p)
	}
}

func TestParseHoldings_HeaderWithoutPrice(t *testing.T) {
	report := ParseHoldings("Ticker\tShares\nAAPL\t100", "USD")

	if len(report.Positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(report.Positions))
	}
	p := report.Positions[0]
	if !p.NeedsCurrentPrice {
		t.Error("row without price should be marked for a live quote")
	}
	if !p.AvgPrice.IsZero() {
		t.Errorf("price should be zero, got %s", p.AvgPrice)
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "No acquisition price found") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing price warning, got %v", report.Warnings)
	}
}

func TestParseHoldings_AmountDerivesPrice(t *testing.T) {
	report := ParseHoldings("Symbol;Shares;Amount\nVWCE;10;1100", "EUR")
	if len(report.Positions) != 1 {
		t.Fatalf("got %d positions, want 1: %v", len(report.Positions), report.Errors)
	}
	p := report.Positions[0]
	if !p.AvgPrice.Equal(M(110, "EUR")) {
		t.Errorf("derived price = %s, want 110", p.AvgPrice)
	}
	if p.NeedsCurrentPrice {
		t.Error("price derived from amount should not need a live quote")
	}
}

func TestParseHoldings_Positional(t *testing.T) {
	// no header: cells are classified, first number is the share count,
	// second the unit price
	report := ParseHoldings("Apple Inc.\tAAPL\t10\t150", "USD")
	if len(report.Positions) != 1 {
		t.Fatalf("got %d positions, want 1: %v", len(report.Positions), report.Errors)
	}
	p := report.Positions[0]
	if p.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", p.Symbol)
	}
	if p.Name != "Apple Inc." {
		t.Errorf("name = %q", p.Name)
	}
	if !p.Shares.Equal(Q(10)) || !p.AvgPrice.Equal(M(150, "USD")) {
		t.Errorf("shares=%s price=%s", p.Shares, p.AvgPrice)
	}
}

func TestParseHoldings_PositionalLegacyLayout(t *testing.T) {
	// eight or more columns follow the fixed export layout
	text := "Apple Inc.\tAAPL\tIBKR\tStock\t10\tx\ty\t150"
	report := ParseHoldings(text, "USD")
	if len(report.Positions) != 1 {
		t.Fatalf("got %d positions, want 1: %v", len(report.Positions), report.Errors)
	}
	p := report.Positions[0]
	if p.Platform != "IBKR" || p.AssetType != Stock {
		t.Errorf("platform=%q type=%q", p.Platform, p.AssetType)
	}
	if !p.AvgPrice.Equal(M(150, "USD")) {
		t.Errorf("price = %s, want 150", p.AvgPrice)
	}
}

func TestParseHoldings_ISINNeedsResolution(t *testing.T) {
	report := ParseHoldings("Symbol\tShares\tPrice\nUS0378331005\t10\t150", "USD")
	if len(report.Positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(report.Positions))
	}
	if !report.Positions[0].NeedsResolution {
		t.Error("ISIN-shaped symbol should be marked for resolution")
	}
}

func TestParseHoldings_BadRowsAreReportedNotFatal(t *testing.T) {
	text := "Symbol\tShares\tPrice\nAAPL\t10\t150\n\tmissing\t\nMSFT\t-5\t300"
	report := ParseHoldings(text, "USD")

	if len(report.Positions) != 1 {
		t.Errorf("got %d positions, want 1", len(report.Positions))
	}
	if len(report.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(report.Errors), report.Errors)
	}
	if report.Empty() {
		t.Error("a partially successful import is not empty")
	}
}

func TestParseHoldings_ErrorLinesMatchPastedText(t *testing.T) {
	// blank lines are skipped but error positions still refer to the
	// pasted text, here the bad row sits on line 5
	text := "Symbol\tShares\tPrice\n\nAAPL\t10\t150\n\nMSFT\t-5\t300\n"
	report := ParseHoldings(text, "USD")

	if len(report.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(report.Errors), report.Errors)
	}
	if !strings.HasPrefix(report.Errors[0], "line 5:") {
		t.Errorf("error = %q, want a line 5 prefix", report.Errors[0])
	}
}

func TestParseHoldings_Empty(t *testing.T) {
	report := ParseHoldings("  \n\t\n", "USD")
	if !report.Empty() {
		t.Error("blank input should produce an empty report")
	}
	if len(report.Errors) == 0 {
		t.Error("blank input should be reported")
	}
}

func TestIsISINShaped(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"US0378331005", true},
		{"ie00bk5bqt80", true},
		{" DE0007164600 ", true},
		{"AAPL", false},
		{"MC.PA", false},
		{"US03783310051", false}, // 13 chars
		{"U10378331005", false},  // digit in country code
	}
	for _, tt := range tests {
		if got := IsISINShaped(tt.in); got != tt.want {
			t.Errorf("IsISINShaped(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
