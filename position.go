package tracker

import "strings"

// AssetType is the canonical classification of a position.
type AssetType string

// The fixed canonical set of asset types.
const (
	Stock     AssetType = "Stock"
	ETF       AssetType = "ETF"
	Crypto    AssetType = "Crypto"
	REIT      AssetType = "REIT"
	Bond      AssetType = "Bond"
	Commodity AssetType = "Commodity"
	Cash      AssetType = "Cash"
	Other     AssetType = "Other"
)

// assetTypeAliases maps provider-specific labels (lowercased, trimmed) to the
// canonical asset types. Labels come from broker exports, provider search
// payloads and AI resolutions.
var assetTypeAliases = map[string]AssetType{
	"stock":              Stock,
	"stocks":             Stock,
	"common stock":       Stock,
	"common shares":      Stock,
	"ordinary shares":    Stock,
	"equity":             Stock,
	"equities":           Stock,
	"share":              Stock,
	"shares":             Stock,
	"aktie":              Stock,
	"aktien":             Stock,
	"accion":             Stock,
	"acciones":           Stock,
	"ação":               Stock,
	"ações":              Stock,
	"adr":                Stock,
	"etf":                ETF,
	"etfs":               ETF,
	"etp":                ETF,
	"etn":                ETF,
	"fund":               ETF,
	"funds":              ETF,
	"index fund":         ETF,
	"mutual fund":        ETF,
	"ucits":              ETF,
	"ucits etf":          ETF,
	"exchange traded fund": ETF,
	"fondo":              ETF,
	"fonds":              ETF,
	"crypto":             Crypto,
	"cryptocurrency":     Crypto,
	"cryptocurrencies":   Crypto,
	"digital currency":   Crypto,
	"coin":               Crypto,
	"token":              Crypto,
	"reit":               REIT,
	"reits":              REIT,
	"real estate":        REIT,
	"real estate investment trust": REIT,
	"bond":               Bond,
	"bonds":              Bond,
	"fixed income":       Bond,
	"treasury":           Bond,
	"government bond":    Bond,
	"corporate bond":     Bond,
	"obligation":         Bond,
	"obrigação":          Bond,
	"commodity":          Commodity,
	"commodities":        Commodity,
	"gold":               Commodity,
	"silver":             Commodity,
	"precious metal":     Commodity,
	"cash":               Cash,
	"money market":       Cash,
	"liquidity":          Cash,
	"other":              Other,
	"others":             Other,
	"misc":               Other,
}

// NormalizeAssetType maps a provider-specific label to a canonical AssetType.
// Unrecognized labels pass through unchanged; a blank label defaults to Stock.
func NormalizeAssetType(label string) AssetType {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return Stock
	}
	if canonical, ok := assetTypeAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return AssetType(trimmed)
}

// Position is one entry per symbol currently or previously held.
//
// Shares equal to zero marks the position inactive (closed) rather than
// deleting it: the transaction history is retained and the position can be
// reactivated by a later add.
type Position struct {
	Symbol    string    `json:"symbol"` // canonical ticker, uppercase, unique key
	Name      string    `json:"name,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	AssetType AssetType `json:"assetType,omitempty"`
	Shares    Quantity  `json:"shares"`
	AvgPrice  Money     `json:"-"` // persisted as avgPrice+currency, see encode.go
}

// Active reports whether the position currently holds shares.
func (p Position) Active() bool { return p.Shares.IsPositive() }

// Invested returns the cost basis of the currently held lot.
func (p Position) Invested() Money { return p.AvgPrice.Mul(p.Shares) }

// Partition splits a portfolio into active (shares > 0) and inactive
// (shares == 0) positions, preserving order.
func Partition(positions []Position) (active, inactive []Position) {
	for _, p := range positions {
		if p.Active() {
			active = append(active, p)
		} else {
			inactive = append(inactive, p)
		}
	}
	return active, inactive
}
