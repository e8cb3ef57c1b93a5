package services

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatRupiah formats an amount as Indonesian Rupiah with no fractional
// digits, e.g. 1500000 -> "Rp1.500.000". Anything that is not a usable
// number (nil, NaN, unparsable text) is formatted as zero.
func FormatRupiah(v any) string {
	amount := toDecimal(v).Round(0)

	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	result := "Rp" + applyThousandsGrouping(amount.StringFixed(0))
	if negative {
		result = "-" + result
	}
	return result
}

// applyThousandsGrouping inserts "." between every group of three digits,
// counting from the right.
func applyThousandsGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// toDecimal coerces loosely typed values into a decimal. It never panics.
func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero
		}
		return *n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat32(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt32(n)
	case int64:
		return decimal.NewFromInt(n)
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0)
	case uint32:
		return decimal.NewFromInt(int64(n))
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
	case string:
		return ParseAmount(n)
	default:
		return decimal.Zero
	}
}

// ParseAmount reads a number the way it is typed into the RAB sheet:
// an optional "Rp" prefix, "." thousands separators and a "," decimal mark
// ("1.500.000,50"), or a plain machine number ("1500000.5"). A single dot
// is read as a decimal point. Text that is not a number yields zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := parseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseAmount is ParseAmount that reports text which is not a number.
// Blank text is zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rp")
	s = strings.TrimPrefix(s, "rp")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, nil
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	return decimal.NewFromString(s)
}

// SheetAmount is an amount posted by a client. It accepts a JSON number, a
// string in sheet notation ("1.250.000", "12,5"), an empty string or null.
type SheetAmount struct {
	decimal.Decimal
}

func (a *SheetAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	d, err := parseAmount(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	a.Decimal = d
	return nil
}

// FormatQty renders a volume. Whole numbers are printed without decimals,
// other values with up to two decimals and an Indonesian decimal comma.
func FormatQty(qty decimal.Decimal) string {
	if qty.Equal(qty.Truncate(0)) {
		return qty.StringFixed(0)
	}
	s := qty.Round(2).String()
	return strings.Replace(s, ".", ",", 1)
}

// FormatVariance renders a volume difference with its unit and an explicit
// sign for positive values, e.g. "+2 m2" or "-0,5 m3".
func FormatVariance(v decimal.Decimal, unit string) string {
	s := FormatQty(v)
	if v.IsPositive() {
		s = "+" + s
	}
	if unit == "" {
		return s
	}
	return s + " " + unit
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDateID formats a date in long Indonesian form, e.g. "17 Oktober 2026".
func FormatDateID(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// FormatTimestampID formats a timestamp the way id-ID locale strings look,
// e.g. "17/10/2026 14.05.09".
func FormatTimestampID(t time.Time) string {
	return t.Format("02/01/2006 15.04.05")
}
