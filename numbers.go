package tracker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric cells pasted from broker exports come in many conventions. The
// regexes below distinguish the US grouping style from the European one, so
// a comma is read as a decimal mark only when no digit-group pattern claims
// it first.
var (
	// 1,234,567.89: comma groups, dot decimal.
	usGroupedRE = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	// 1.234.567,89: dot groups, comma decimal.
	euGroupedRE = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$`)
	// 12,50: plain comma decimal, no grouping.
	commaDecimalRE = regexp.MustCompile(`^\d+,\d+$`)

	currencyMarksRE = regexp.MustCompile(`[€$£¥₣₤]|EUR|USD|GBP|CHF|JPY`)
)

// ParseNumber parses a numeric cell tolerating currency symbols, whitespace,
// and thousands separators in the US (1,234.56) and European (1.234,56 or
// 12,50) conventions.
func ParseNumber(cell string) (decimal.Decimal, error) {
	s := strings.TrimSpace(cell)
	s = currencyMarksRE.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', '\'':
			return -1 // grouping whitespace and Swiss apostrophes
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty numeric cell %q", cell)
	}

	switch {
	case euGroupedRE.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case usGroupedRE.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case commaDecimalRE.MatchString(s):
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot parse number %q: %w", cell, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
