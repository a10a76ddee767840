package tracker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// column roles recognized in a header line.
type columnRole string

const (
	colSymbol   columnRole = "symbol"
	colShares   columnRole = "shares"
	colPrice    columnRole = "price"
	colName     columnRole = "name"
	colPlatform columnRole = "platform"
	colType     columnRole = "type"
	colAmount   columnRole = "amount" // total invested, used to derive a missing price
)

// roleAliases maps a normalized header cell to its role. Matching is
// case-insensitive and tolerant of punctuation (see normalizeHeaderCell).
var roleAliases = map[string]columnRole{
	"symbol":        colSymbol,
	"ticker":        colSymbol,
	"symbol isin":   colSymbol,
	"isin":          colSymbol,
	"code":          colSymbol,
	"security":      colSymbol,
	"shares":        colShares,
	"quantity":      colShares,
	"qty":           colShares,
	"units":         colShares,
	"anzahl":        colShares,
	"quantidade":    colShares,
	"price":         colPrice,
	"avg price":     colPrice,
	"average price": colPrice,
	"unit price":    colPrice,
	"purchase price": colPrice,
	"cost":          colPrice,
	"preis":         colPrice,
	"preco":         colPrice,
	"name":          colName,
	"description":   colName,
	"product":       colName,
	"instrument":    colName,
	"security name": colName,
	"company":       colName,
	"platform":      colPlatform,
	"broker":        colPlatform,
	"account":       colPlatform,
	"depot":         colPlatform,
	"type":          colType,
	"asset type":    colType,
	"category":      colType,
	"class":         colType,
	"amount":        colAmount,
	"total":         colAmount,
	"total amount":  colAmount,
	"total invested": colAmount,
	"invested":      colAmount,
	"value":         colAmount,
	"cost basis":    colAmount,
	"betrag":        colAmount,
}

var (
	isinShapedRE  = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{10}$`)
	tickerShapedRE = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}([.\-][A-Z0-9]{1,4})?$`)
	punctRE        = regexp.MustCompile(`[^a-z0-9]+`)
)

// IsISINShaped reports whether s looks like an ISIN: 2 letters followed by
// 10 alphanumerics.
func IsISINShaped(s string) bool {
	return isinShapedRE.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// ParsedPosition is one row accepted by the parser. A row whose symbol cell
// is ISIN-shaped still needs identifier resolution before it can be added to
// the ledger; a row without any acquisition price needs a live quote.
type ParsedPosition struct {
	Position
	NeedsCurrentPrice bool
	NeedsResolution   bool // symbol is ISIN-shaped or otherwise unresolved
}

// ImportReport is the outcome of parsing one pasted block of text. Parsing
// never fails as a whole: every problem is reported per line.
type ImportReport struct {
	Positions []ParsedPosition
	Errors    []string
	Warnings  []string
}

// Empty reports whether no row at all could be parsed. Callers treat this
// differently from a partially successful import.
func (r *ImportReport) Empty() bool { return len(r.Positions) == 0 }

// ParseHoldings splits pasted freeform text into holdings rows. The column
// separator and the header (if any) are auto-detected; prices are recorded
// in the given currency.
func ParseHoldings(text, currency string) *ImportReport {
	report := &ImportReport{}

	// lineNums keeps the 1-based position of each kept line in the pasted
	// text, so row errors point at the user's actual input.
	var lines []string
	var lineNums []int
	for n, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
			lineNums = append(lineNums, n+1)
		}
	}
	if len(lines) == 0 {
		report.Errors = append(report.Errors, "no rows found in pasted text")
		return report
	}

	sep := detectSeparator(lines)
	roles, headerLine := detectHeader(lines, sep)

	for i, line := range lines {
		if i == headerLine {
			continue
		}
		cells := splitCells(line, sep)
		var parsed *ParsedPosition
		var err error
		if roles != nil {
			parsed, err = parseWithHeader(cells, roles, currency, report)
		} else {
			parsed, err = parsePositional(cells, currency, report)
		}
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineNums[i], err))
			continue
		}
		report.Positions = append(report.Positions, *parsed)
	}
	return report
}

// detectSeparator scans the first few lines for the candidate separators in
// preference order: tab wins over semicolon, pipe, and comma even when
// several are present. Defaults to tab.
func detectSeparator(lines []string) string {
	probe := lines
	if len(probe) > 5 {
		probe = probe[:5]
	}
	for _, sep := range []string{"\t", ";", "|", ","} {
		for _, line := range probe {
			if strings.Contains(line, sep) {
				return sep
			}
		}
	}
	return "\t"
}

func splitCells(line, sep string) []string {
	cells := strings.Split(line, sep)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func normalizeHeaderCell(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	s = punctRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// detectHeader tests each of the first 3 lines for a role-mappable header.
// A header is accepted only if both the symbol and the shares roles are
// matched. It returns the role of each column index and the header's line
// index, or nil and -1 when no header is found.
func detectHeader(lines []string, sep string) (map[int]columnRole, int) {
	limit := len(lines)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		cells := splitCells(lines[i], sep)
		roles := make(map[int]columnRole)
		claimed := make(map[columnRole]bool)
		for col, cell := range cells {
			role, ok := roleAliases[normalizeHeaderCell(cell)]
			if ok && !claimed[role] {
				roles[col] = role
				claimed[role] = true
			}
		}
		if claimed[colSymbol] && claimed[colShares] {
			return roles, i
		}
	}
	return nil, -1
}

func parseWithHeader(cells []string, roles map[int]columnRole, currency string, report *ImportReport) (*ParsedPosition, error) {
	byRole := make(map[columnRole]string)
	for col, role := range roles {
		if col < len(cells) {
			byRole[role] = cells[col]
		}
	}
	return buildRow(rowCells{
		symbol:   byRole[colSymbol],
		shares:   byRole[colShares],
		price:    byRole[colPrice],
		name:     byRole[colName],
		platform: byRole[colPlatform],
		typ:      byRole[colType],
		amount:   byRole[colAmount],
	}, currency, report)
}

// parsePositional handles rows without a recognized header. Rows with at
// least 8 columns are assumed to follow the legacy fixed export layout;
// anything shorter is classified cell by cell.
func parsePositional(cells []string, currency string, report *ImportReport) (*ParsedPosition, error) {
	if len(cells) >= 8 {
		// legacy layout: name, symbol, platform, type, shares, _, _, price
		return buildRow(rowCells{
			name:     cells[0],
			symbol:   cells[1],
			platform: cells[2],
			typ:      cells[3],
			shares:   cells[4],
			price:    cells[7],
		}, currency, report)
	}

	var row rowCells
	var numbers []string
	for _, cell := range cells {
		switch classifyCell(cell) {
		case cellEmpty:
		case cellNumber:
			numbers = append(numbers, cell)
		case cellISIN, cellTicker:
			if row.symbol == "" {
				row.symbol = cell
			} else if row.name == "" {
				row.name = cell
			}
		default: // free text
			if row.name == "" {
				row.name = cell
			}
		}
	}
	// First number is the share count, second the unit price.
	if len(numbers) > 0 {
		row.shares = numbers[0]
	}
	if len(numbers) > 1 {
		row.price = numbers[1]
	}
	return buildRow(row, currency, report)
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellNumber
	cellISIN
	cellTicker
	cellText
)

func classifyCell(cell string) cellKind {
	s := strings.TrimSpace(cell)
	if s == "" {
		return cellEmpty
	}
	if _, err := ParseNumber(s); err == nil {
		return cellNumber
	}
	upper := strings.ToUpper(s)
	if isinShapedRE.MatchString(upper) {
		return cellISIN
	}
	if tickerShapedRE.MatchString(upper) {
		return cellTicker
	}
	return cellText
}

// rowCells carries the raw cell of every role for one row.
type rowCells struct {
	symbol, shares, price, name, platform, typ, amount string
}

// buildRow validates one row and turns it into a ParsedPosition. The symbol
// and a positive share count are mandatory; the price is optional and, when
// absent, derived from the total-invested amount or deferred to a live
// quote with a warning.
func buildRow(row rowCells, currency string, report *ImportReport) (*ParsedPosition, error) {
	symbol := strings.ToUpper(strings.TrimSpace(row.symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is missing")
	}

	shares, err := ParseNumber(row.shares)
	if err != nil || !shares.IsPositive() {
		return nil, fmt.Errorf("invalid share count %q for %s", row.shares, symbol)
	}

	var price decimal.Decimal
	if row.price != "" {
		if p, err := ParseNumber(row.price); err == nil {
			price = p
		}
	}
	needsPrice := false
	if !price.IsPositive() {
		price = decimal.Zero
		if row.amount != "" {
			if amount, err := ParseNumber(row.amount); err == nil && amount.IsPositive() {
				price = amount.Div(shares)
			}
		}
		if !price.IsPositive() {
			needsPrice = true
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: No acquisition price found, will use current market price", symbol))
		}
	}

	return &ParsedPosition{
		Position: Position{
			Symbol:    symbol,
			Name:      strings.TrimSpace(row.name),
			Platform:  strings.TrimSpace(row.platform),
			AssetType: NormalizeAssetType(row.typ),
			Shares:    Q(shares),
			AvgPrice:  M(price, currency),
		},
		NeedsCurrentPrice: needsPrice,
		NeedsResolution:   isinShapedRE.MatchString(symbol),
	}, nil
}
