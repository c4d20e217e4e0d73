// Package present formats catalogue values for people. It is shared by the
// CLI and the TUI so both print prices the same way.
package present

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// Storefront prices are Brazilian reais.
var printer = message.NewPrinter(language.BrazilianPortuguese)

// Price formats v as reais with pt-BR separators, e.g. "R$ 12.999,90".
func Price(v float64) string {
	return printer.Sprintf("R$ %.2f", v)
}

// RecordPrice describes a record's price, showing a discount when the
// original price is higher. Records without a price return "".
func RecordPrice(rec domain.IndexedRecord) string {
	if rec.Price <= 0 {
		return ""
	}
	if rec.OriginalPrice > rec.Price {
		return Price(rec.Price) + " (de " + Price(rec.OriginalPrice) + ")"
	}
	return Price(rec.Price)
}

// Title returns the display name of a record, falling back to its id.
func Title(rec domain.IndexedRecord) string {
	if rec.Name != "" {
		return rec.Name
	}
	return rec.ID
}
