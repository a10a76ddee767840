package tracker

import (
	"sort"
)

// TxType is a typed string for identifying transaction kinds.
type TxType string

const (
	TxBuy  TxType = "buy"
	TxSell TxType = "sell"
)

// Transaction is an immutable append-only record of a buy or sell.
//
// For sells, CostBasis records the position's average price at the time of
// the sale, and RealizedGainLoss = (Price - CostBasis) * Shares. Aggregate
// realized P&L is always derived from the full transaction list, never
// stored as a running total.
type Transaction struct {
	Type        TxType   `json:"type"`
	Shares      Quantity `json:"shares"`
	Price       Money    `json:"-"` // per-unit fill price, see encode.go
	Date        Date     `json:"date"`
	TotalAmount Money    `json:"-"`

	// Sell only.
	CostBasis        Money `json:"-"`
	RealizedGainLoss Money `json:"-"`
}

// Sale is a sell transaction tagged with the symbol it belongs to, as
// returned by CollectSalesHistory.
type Sale struct {
	Symbol string
	Transaction
}

// CollectSalesHistory extracts all sell transactions from a per-symbol
// transaction log, tags each with its symbol, and sorts them by date
// descending (most recent sale first).
func CollectSalesHistory(bySymbol map[string][]Transaction) []Sale {
	var sales []Sale
	for symbol, txs := range bySymbol {
		for _, tx := range txs {
			if tx.Type == TxSell {
				sales = append(sales, Sale{Symbol: symbol, Transaction: tx})
			}
		}
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[j].Date.Before(sales[i].Date)
	})
	return sales
}

// TotalRealizedPnL sums the realized gain/loss over a list of sales.
// Sales with no recorded gain/loss count as zero.
func TotalRealizedPnL(sales []Sale) Money {
	var total Money
	for _, s := range sales {
		total = total.Add(s.RealizedGainLoss)
	}
	return total
}

// HoldingSummary is the read-only view of one position handed to the
// advisory consumer. The advisory feature never mutates the ledger.
type HoldingSummary struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	AssetType AssetType `json:"assetType"`
	Shares    Quantity  `json:"shares"`
	AvgPrice  Money     `json:"-"`
	Invested  Money     `json:"-"`

	// Only meaningful when HasPrice is true.
	HasPrice      bool  `json:"hasPrice"`
	CurrentPrice  Money `json:"-"`
	MarketValue   Money `json:"-"`
	UnrealizedPnL Money `json:"-"`
}

// Summarize builds the advisory view: one entry per position plus the
// realized P&L total derived from the transaction log.
func Summarize(positions []Position, prices map[string]Money, bySymbol map[string][]Transaction) ([]HoldingSummary, Money) {
	summaries := make([]HoldingSummary, 0, len(positions))
	for _, p := range positions {
		s := HoldingSummary{
			Symbol:    p.Symbol,
			Name:      p.Name,
			Platform:  p.Platform,
			AssetType: p.AssetType,
			Shares:    p.Shares,
			AvgPrice:  p.AvgPrice,
			Invested:  p.Invested(),
		}
		if price, ok := prices[p.Symbol]; ok {
			s.HasPrice = true
			s.CurrentPrice = price
			s.MarketValue = price.Mul(p.Shares)
			s.UnrealizedPnL = s.MarketValue.Sub(s.Invested)
		}
		summaries = append(summaries, s)
	}
	return summaries, TotalRealizedPnL(CollectSalesHistory(bySymbol))
}
