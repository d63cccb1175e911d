package utils

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NonNegative clamps an amount to zero from below.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// LegacyAmount renders an amount the way historical comments store it:
// shortest float form, always with a fractional part ("50.0", "12.5"),
// exponent form outside [1e-4, 1e16).
func LegacyAmount(d decimal.Decimal) string {
	f := d.InexactFloat64()
	if f == 0 {
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// SettlementNote is the "cash:<x>; card:<y>" text recorded on return.
func SettlementNote(cash, card decimal.Decimal) string {
	return "cash:" + LegacyAmount(NonNegative(cash)) + "; card:" + LegacyAmount(NonNegative(card))
}

// AppendSettlementNote joins the note onto an existing comment with " | ",
// or uses it as the whole comment when there is none.
func AppendSettlementNote(comment string, cash, card decimal.Decimal) string {
	note := SettlementNote(cash, card)
	if strings.TrimSpace(comment) == "" {
		return note
	}
	return comment + " | " + note
}
