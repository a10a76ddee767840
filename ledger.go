package tracker

import (
	"fmt"
	"sort"
	"strings"
)

// Ledger holds the portfolio positions and the append-only transaction log
// per symbol. It is a single-writer in-process structure: all mutating
// operations validate fully before touching any state, so on a validation
// failure the ledger is left unchanged and the error is returned as a value.
//
// A mutating operation never returns both a transaction and an error.
type Ledger struct {
	positions []Position // insertion order
	index     map[string]int
	logs      map[string][]Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		index: make(map[string]int),
		logs:  make(map[string][]Transaction),
	}
}

// LoadLedger rebuilds a ledger from persisted positions and transactions.
func LoadLedger(positions []Position, logs map[string][]Transaction) *Ledger {
	l := NewLedger()
	for _, p := range positions {
		p.Symbol = canonicalSymbol(p.Symbol)
		l.index[p.Symbol] = len(l.positions)
		l.positions = append(l.positions, p)
	}
	for symbol, txs := range logs {
		l.logs[canonicalSymbol(symbol)] = append([]Transaction(nil), txs...)
	}
	return l
}

func canonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Position returns the position for a symbol, or nil if unknown.
func (l *Ledger) Position(symbol string) *Position {
	i, ok := l.index[canonicalSymbol(symbol)]
	if !ok {
		return nil
	}
	p := l.positions[i]
	return &p
}

// Positions returns a copy of all positions in insertion order.
func (l *Ledger) Positions() []Position {
	return append([]Position(nil), l.positions...)
}

// Symbols returns all symbols in the ledger, sorted.
func (l *Ledger) Symbols() []string {
	symbols := make([]string, 0, len(l.positions))
	for _, p := range l.positions {
		symbols = append(symbols, p.Symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Transactions returns a copy of the transaction log for one symbol, in
// append order.
func (l *Ledger) Transactions(symbol string) []Transaction {
	return append([]Transaction(nil), l.logs[canonicalSymbol(symbol)]...)
}

// TransactionLog returns a copy of the full per-symbol transaction log.
func (l *Ledger) TransactionLog() map[string][]Transaction {
	out := make(map[string][]Transaction, len(l.logs))
	for symbol, txs := range l.logs {
		out[symbol] = append([]Transaction(nil), txs...)
	}
	return out
}

// Add creates a new position, or reactivates an inactive one. It fails if an
// active position for the symbol already exists (use Buy instead).
//
// On reactivation shares and average price are overwritten; name, platform
// and asset type are overwritten only when provided, otherwise the prior
// values are retained. The average price is totalAmount / shares.
func (l *Ledger) Add(symbol string, shares Quantity, totalAmount Money, day Date, name, platform string, assetType AssetType) (*Transaction, error) {
	symbol = canonicalSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is missing")
	}
	if !shares.IsPositive() {
		return nil, fmt.Errorf("add %s: shares must be positive, got %s", symbol, shares)
	}
	if totalAmount.IsNegative() {
		return nil, fmt.Errorf("add %s: total amount cannot be negative, got %s", symbol, totalAmount)
	}
	if day.IsZero() {
		day = Today()
	}

	avgPrice := totalAmount.Div(shares)

	if i, ok := l.index[symbol]; ok {
		if l.positions[i].Active() {
			return nil, fmt.Errorf("position %s is already active with %s shares, use buy instead", symbol, l.positions[i].Shares)
		}
		// Reactivate the closed position.
		p := &l.positions[i]
		p.Shares = shares
		p.AvgPrice = avgPrice
		if name != "" {
			p.Name = name
		}
		if platform != "" {
			p.Platform = platform
		}
		if assetType != "" {
			p.AssetType = assetType
		}
	} else {
		if assetType == "" {
			assetType = Stock
		}
		l.index[symbol] = len(l.positions)
		l.positions = append(l.positions, Position{
			Symbol:    symbol,
			Name:      name,
			Platform:  platform,
			AssetType: assetType,
			Shares:    shares,
			AvgPrice:  avgPrice,
		})
	}

	tx := Transaction{
		Type:        TxBuy,
		Shares:      shares,
		Price:       avgPrice,
		Date:        day,
		TotalAmount: totalAmount,
	}
	l.logs[symbol] = append(l.logs[symbol], tx)
	return &tx, nil
}

// Buy adds shares to an existing position and recomputes the weighted
// average price:
//
//	avgPrice' = (oldShares*oldAvgPrice + newShares*pricePerShare) / (oldShares+newShares)
func (l *Ledger) Buy(symbol string, shares Quantity, totalAmount Money, day Date) (*Transaction, error) {
	symbol = canonicalSymbol(symbol)
	i, ok := l.index[symbol]
	if !ok {
		return nil, fmt.Errorf("cannot buy %s: position does not exist, use add first", symbol)
	}
	if !shares.IsPositive() {
		return nil, fmt.Errorf("buy %s: shares must be positive, got %s", symbol, shares)
	}
	if totalAmount.IsNegative() {
		return nil, fmt.Errorf("buy %s: total amount cannot be negative, got %s", symbol, totalAmount)
	}
	if day.IsZero() {
		day = Today()
	}

	p := &l.positions[i]
	pricePerShare := totalAmount.Div(shares)
	oldCost := p.AvgPrice.Mul(p.Shares)
	newShares := p.Shares.Add(shares)
	p.AvgPrice = oldCost.Add(totalAmount).Div(newShares)
	p.Shares = newShares

	tx := Transaction{
		Type:        TxBuy,
		Shares:      shares,
		Price:       pricePerShare,
		Date:        day,
		TotalAmount: totalAmount,
	}
	l.logs[symbol] = append(l.logs[symbol], tx)
	return &tx, nil
}

// Sell disposes shares of an existing position. The cost basis is the
// average price at the time of the sale, and is not recalculated by the
// sale: only buys move the average price. Selling every share leaves the
// position in the ledger as inactive.
func (l *Ledger) Sell(symbol string, shares Quantity, totalAmount Money, day Date) (*Transaction, error) {
	symbol = canonicalSymbol(symbol)
	i, ok := l.index[symbol]
	if !ok {
		return nil, fmt.Errorf("cannot sell %s: position does not exist", symbol)
	}
	if !shares.IsPositive() {
		return nil, fmt.Errorf("sell %s: shares must be positive, got %s", symbol, shares)
	}
	if totalAmount.IsNegative() {
		return nil, fmt.Errorf("sell %s: total amount cannot be negative, got %s", symbol, totalAmount)
	}
	p := &l.positions[i]
	if shares.GreaterThan(p.Shares) {
		return nil, fmt.Errorf("cannot sell %s shares of %s: only %s held", shares, symbol, p.Shares)
	}
	if day.IsZero() {
		day = Today()
	}

	pricePerShare := totalAmount.Div(shares)
	costBasis := p.AvgPrice
	realized := pricePerShare.Sub(costBasis).Mul(shares)
	p.Shares = p.Shares.Sub(shares)

	tx := Transaction{
		Type:             TxSell,
		Shares:           shares,
		Price:            pricePerShare,
		Date:             day,
		TotalAmount:      totalAmount,
		CostBasis:        costBasis,
		RealizedGainLoss: realized,
	}
	l.logs[symbol] = append(l.logs[symbol], tx)
	return &tx, nil
}

// Annotate updates a position's descriptive metadata. Empty values keep
// the current ones.
func (l *Ledger) Annotate(symbol, name, platform string, assetType AssetType) error {
	i, ok := l.index[canonicalSymbol(symbol)]
	if !ok {
		return fmt.Errorf("cannot annotate %s: position does not exist", symbol)
	}
	p := &l.positions[i]
	if name != "" {
		p.Name = name
	}
	if platform != "" {
		p.Platform = platform
	}
	if assetType != "" {
		p.AssetType = assetType
	}
	return nil
}

// Rename changes the symbol a position and its history are keyed by,
// typically after an ISIN-shaped identifier has been resolved to a ticker.
// The target symbol must not already be in the ledger.
func (l *Ledger) Rename(oldSymbol, newSymbol string) error {
	oldSymbol = canonicalSymbol(oldSymbol)
	newSymbol = canonicalSymbol(newSymbol)
	if newSymbol == "" {
		return fmt.Errorf("cannot rename %s: empty target symbol", oldSymbol)
	}
	if oldSymbol == newSymbol {
		return nil
	}
	i, ok := l.index[oldSymbol]
	if !ok {
		return fmt.Errorf("cannot rename %s: position does not exist", oldSymbol)
	}
	if _, exists := l.index[newSymbol]; exists {
		return fmt.Errorf("cannot rename %s to %s: position already exists", oldSymbol, newSymbol)
	}

	l.positions[i].Symbol = newSymbol
	l.index[newSymbol] = i
	delete(l.index, oldSymbol)
	if txs, ok := l.logs[oldSymbol]; ok {
		l.logs[newSymbol] = txs
		delete(l.logs, oldSymbol)
	}
	return nil
}

// Remove deletes a position and its full transaction history. This is
// irreversible; callers must confirm externally.
func (l *Ledger) Remove(symbol string) error {
	symbol = canonicalSymbol(symbol)
	i, ok := l.index[symbol]
	if !ok {
		return fmt.Errorf("cannot remove %s: position does not exist", symbol)
	}
	l.positions = append(l.positions[:i], l.positions[i+1:]...)
	delete(l.index, symbol)
	for j := i; j < len(l.positions); j++ {
		l.index[l.positions[j].Symbol] = j
	}
	delete(l.logs, symbol)
	return nil
}
