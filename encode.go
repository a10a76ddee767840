package tracker

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// this file contains the import/export format and the file-backed Store.
// The format is JSONL: human readable, single file per concern, easy to
// merge into any database later.

// PriceRecord is one persisted quote observation.
type PriceRecord struct {
	Symbol string
	Price  Money
	At     time.Time
}

// Store is the persistence collaborator consumed by the core. The core
// never embeds persistence logic; it only calls these.
type Store interface {
	SaveAssets(records []Asset) error
	LoadAssets() ([]Asset, error)
	SavePositions(positions []Position) error
	LoadPositions() ([]Position, error)
	SaveTransactions(bySymbol map[string][]Transaction) error
	LoadTransactions() (map[string][]Transaction, error)
	SaveSnapshot(snapshot Snapshot) error
	LoadSnapshots() ([]Snapshot, error)
	DeleteSnapshots(keep func(Snapshot) bool) error
	SavePriceHistory(records []PriceRecord) error
	LoadLatestPrices() (map[string]Money, error)
}

type jposition struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	AssetType AssetType `json:"assetType,omitempty"`
	Shares    Quantity  `json:"shares"`
	AvgPrice  decimal.Decimal `json:"avgPrice"`
	Currency  string    `json:"currency,omitempty"`
}

type jtransaction struct {
	Type             TxType           `json:"type"`
	Shares           Quantity         `json:"shares"`
	Price            decimal.Decimal  `json:"price"`
	Date             Date             `json:"date"`
	TotalAmount      decimal.Decimal  `json:"totalAmount"`
	CostBasis        *decimal.Decimal `json:"costBasis,omitempty"`
	RealizedGainLoss *decimal.Decimal `json:"realizedGainLoss,omitempty"`
	Currency         string           `json:"currency,omitempty"`
}

type jtxlog struct {
	Symbol       string         `json:"symbol"`
	Transactions []jtransaction `json:"transactions"`
}

type jsnapshot struct {
	Timestamp        time.Time       `json:"timestamp"`
	TotalInvested    decimal.Decimal `json:"totalInvested"`
	TotalMarketValue decimal.Decimal `json:"totalMarketValue"`
	PositionCount    int             `json:"positionCount"`
	PricesAvailable  int             `json:"pricesAvailable"`
	Currency         string          `json:"currency,omitempty"`
}

type jprice struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
	At       time.Time       `json:"at"`
}

// EncodePositions writes positions to 'w' in the import/export format, one
// JSON object per line.
func EncodePositions(w io.Writer, positions []Position) error {
	for _, p := range positions {
		jp := jposition{
			Symbol:    p.Symbol,
			Name:      p.Name,
			Platform:  p.Platform,
			AssetType: p.AssetType,
			Shares:    p.Shares,
			AvgPrice:  p.AvgPrice.Decimal(),
			Currency:  p.AvgPrice.Currency(),
		}
		if err := writeLine(w, jp); err != nil {
			return fmt.Errorf("cannot write position %q: %w", p.Symbol, err)
		}
	}
	return nil
}

// DecodePositions reads positions from 'r' in the import/export format.
func DecodePositions(r io.Reader) ([]Position, error) {
	var positions []Position
	err := scanLines(r, func(line []byte) error {
		var jp jposition
		if err := json.Unmarshal(line, &jp); err != nil {
			return err
		}
		positions = append(positions, Position{
			Symbol:    jp.Symbol,
			Name:      jp.Name,
			Platform:  jp.Platform,
			AssetType: jp.AssetType,
			Shares:    jp.Shares,
			AvgPrice:  M(jp.AvgPrice, jp.Currency),
		})
		return nil
	})
	return positions, err
}

// EncodeTransactions writes the per-symbol transaction log, one symbol per
// line, symbols sorted for a stable, diffable file.
func EncodeTransactions(w io.Writer, bySymbol map[string][]Transaction) error {
	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		jlog := jtxlog{Symbol: symbol}
		for _, tx := range bySymbol[symbol] {
			jt := jtransaction{
				Type:        tx.Type,
				Shares:      tx.Shares,
				Price:       tx.Price.Decimal(),
				Date:        tx.Date,
				TotalAmount: tx.TotalAmount.Decimal(),
				Currency:    tx.Price.Currency(),
			}
			if tx.Type == TxSell {
				cb := tx.CostBasis.Decimal()
				rg := tx.RealizedGainLoss.Decimal()
				jt.CostBasis = &cb
				jt.RealizedGainLoss = &rg
			}
			jlog.Transactions = append(jlog.Transactions, jt)
		}
		if err := writeLine(w, jlog); err != nil {
			return fmt.Errorf("cannot write transactions for %q: %w", symbol, err)
		}
	}
	return nil
}

// DecodeTransactions reads the per-symbol transaction log.
func DecodeTransactions(r io.Reader) (map[string][]Transaction, error) {
	bySymbol := make(map[string][]Transaction)
	err := scanLines(r, func(line []byte) error {
		var jlog jtxlog
		if err := json.Unmarshal(line, &jlog); err != nil {
			return err
		}
		for _, jt := range jlog.Transactions {
			tx := Transaction{
				Type:        jt.Type,
				Shares:      jt.Shares,
				Price:       M(jt.Price, jt.Currency),
				Date:        jt.Date,
				TotalAmount: M(jt.TotalAmount, jt.Currency),
			}
			if jt.CostBasis != nil {
				tx.CostBasis = M(*jt.CostBasis, jt.Currency)
			}
			if jt.RealizedGainLoss != nil {
				tx.RealizedGainLoss = M(*jt.RealizedGainLoss, jt.Currency)
			}
			bySymbol[jlog.Symbol] = append(bySymbol[jlog.Symbol], tx)
		}
		return nil
	})
	return bySymbol, err
}

// EncodeSnapshot appends one snapshot line.
func EncodeSnapshot(w io.Writer, s Snapshot) error {
	return writeLine(w, jsnapshot{
		Timestamp:        s.Timestamp,
		TotalInvested:    s.TotalInvested.Decimal(),
		TotalMarketValue: s.TotalMarketValue.Decimal(),
		PositionCount:    s.PositionCount,
		PricesAvailable:  s.PricesAvailable,
		Currency:         s.TotalInvested.Currency(),
	})
}

// DecodeSnapshots reads a snapshot series.
func DecodeSnapshots(r io.Reader) ([]Snapshot, error) {
	var snapshots []Snapshot
	err := scanLines(r, func(line []byte) error {
		var js jsnapshot
		if err := json.Unmarshal(line, &js); err != nil {
			return err
		}
		snapshots = append(snapshots, Snapshot{
			Timestamp:        js.Timestamp,
			TotalInvested:    M(js.TotalInvested, js.Currency),
			TotalMarketValue: M(js.TotalMarketValue, js.Currency),
			PositionCount:    js.PositionCount,
			PricesAvailable:  js.PricesAvailable,
		})
		return nil
	})
	return snapshots, err
}

// EncodeAssets writes the asset registry records.
func EncodeAssets(w io.Writer, assets []Asset) error {
	for _, a := range assets {
		if err := writeLine(w, a); err != nil {
			return fmt.Errorf("cannot write asset %q: %w", a.Identifier, err)
		}
	}
	return nil
}

// DecodeAssets reads the asset registry records.
func DecodeAssets(r io.Reader) ([]Asset, error) {
	var assets []Asset
	err := scanLines(r, func(line []byte) error {
		var a Asset
		if err := json.Unmarshal(line, &a); err != nil {
			return err
		}
		assets = append(assets, a)
		return nil
	})
	return assets, err
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func scanLines(r io.Reader, each func([]byte) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := each(line); err != nil {
			return fmt.Errorf("cannot parse line %q: %w", string(line), err)
		}
	}
	return scanner.Err()
}

// FileStore is the file-backed Store: one JSONL file per concern inside a
// directory.
type FileStore struct {
	Dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create store directory %q: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(name string) string { return filepath.Join(s.Dir, name) }

func (s *FileStore) rewrite(name string, write func(io.Writer) error) error {
	f, err := os.Create(s.path(name))
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FileStore) read(name string, decode func(io.Reader) error) error {
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil // an absent file is an empty collection
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return decode(f)
}

func (s *FileStore) SaveAssets(records []Asset) error {
	return s.rewrite("assets.jsonl", func(w io.Writer) error { return EncodeAssets(w, records) })
}

func (s *FileStore) LoadAssets() (assets []Asset, err error) {
	err = s.read("assets.jsonl", func(r io.Reader) error {
		assets, err = DecodeAssets(r)
		return err
	})
	return assets, err
}

func (s *FileStore) SavePositions(positions []Position) error {
	return s.rewrite("positions.jsonl", func(w io.Writer) error { return EncodePositions(w, positions) })
}

func (s *FileStore) LoadPositions() (positions []Position, err error) {
	err = s.read("positions.jsonl", func(r io.Reader) error {
		positions, err = DecodePositions(r)
		return err
	})
	return positions, err
}

func (s *FileStore) SaveTransactions(bySymbol map[string][]Transaction) error {
	return s.rewrite("transactions.jsonl", func(w io.Writer) error { return EncodeTransactions(w, bySymbol) })
}

func (s *FileStore) LoadTransactions() (bySymbol map[string][]Transaction, err error) {
	bySymbol = make(map[string][]Transaction)
	err = s.read("transactions.jsonl", func(r io.Reader) error {
		bySymbol, err = DecodeTransactions(r)
		return err
	})
	return bySymbol, err
}

// SaveSnapshot appends: snapshots are immutable once created.
func (s *FileStore) SaveSnapshot(snapshot Snapshot) error {
	f, err := os.OpenFile(s.path("snapshots.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeSnapshot(f, snapshot)
}

func (s *FileStore) LoadSnapshots() (snapshots []Snapshot, err error) {
	err = s.read("snapshots.jsonl", func(r io.Reader) error {
		snapshots, err = DecodeSnapshots(r)
		return err
	})
	return snapshots, err
}

// DeleteSnapshots rewrites the series keeping only snapshots for which
// keep returns true. Snapshots are deleted whole, never edited.
func (s *FileStore) DeleteSnapshots(keep func(Snapshot) bool) error {
	snapshots, err := s.LoadSnapshots()
	if err != nil {
		return err
	}
	return s.rewrite("snapshots.jsonl", func(w io.Writer) error {
		for _, snap := range snapshots {
			if !keep(snap) {
				continue
			}
			if err := EncodeSnapshot(w, snap); err != nil {
				return err
			}
		}
		return nil
	})
}

// SavePriceHistory appends quote observations.
func (s *FileStore) SavePriceHistory(records []PriceRecord) error {
	f, err := os.OpenFile(s.path("prices.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, rec := range records {
		jp := jprice{
			Symbol:   rec.Symbol,
			Price:    rec.Price.Decimal(),
			Currency: rec.Price.Currency(),
			At:       rec.At,
		}
		if err := writeLine(f, jp); err != nil {
			return fmt.Errorf("cannot write price for %q: %w", rec.Symbol, err)
		}
	}
	return nil
}

// LoadLatestPrices replays the price history and keeps the last observation
// per symbol.
func (s *FileStore) LoadLatestPrices() (map[string]Money, error) {
	latest := make(map[string]Money)
	err := s.read("prices.jsonl", func(r io.Reader) error {
		return scanLines(r, func(line []byte) error {
			var jp jprice
			if err := json.Unmarshal(line, &jp); err != nil {
				return err
			}
			latest[jp.Symbol] = M(jp.Price, jp.Currency)
			return nil
		})
	})
	return latest, err
}
