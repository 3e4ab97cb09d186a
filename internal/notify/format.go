package notify

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders amount with thousands separators and the symbol of the
// ISO 4217 code. Unknown codes leave the number bare.
func FormatAmount(amount Amount, code string) string {
	p := message.NewPrinter(language.English)
	n := p.Sprintf("%.2f", amount.InexactFloat64())

	unit, err := currency.ParseISO(code)
	if err != nil {
		return n
	}
	return p.Sprintf("%v", currency.Symbol(unit)) + n
}
