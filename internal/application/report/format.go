package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale formats USD amounts as $1,234.50
const DefaultLocale = "es-US"

const dateLayout = "02/01/2006 15:04"

// Formatter renders amounts and dates for reports
type Formatter struct {
	printer  *message.Printer
	location *time.Location
}

// NewFormatter creates a Formatter for a BCP 47 locale. A nil location uses
// the process local time zone.
func NewFormatter(locale string, location *time.Location) (*Formatter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	if location == nil {
		location = time.Local
	}
	return &Formatter{printer: message.NewPrinter(tag), location: location}, nil
}

// USD formats a dollar amount with locale grouping and two decimals
func (f *Formatter) USD(d decimal.Decimal) string {
	return "$" + f.printer.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// VES formats a bolívar amount as "Bs 1234.50", without grouping
func (f *Formatter) VES(d decimal.Decimal) string {
	return "Bs " + d.StringFixed(2)
}

// Date formats a timestamp in the formatter's time zone
func (f *Formatter) Date(t time.Time) string {
	return t.In(f.location).Format(dateLayout)
}

// Code normalizes a currency code. Ledger currencies map directly since the
// x/text tables predate VES. An empty code is the ledger default USD; other
// codes go through ISO 4217 and are kept as written when unknown.
func (f *Formatter) Code(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return string(ledger.CurrencyUSD)
	}
	if ledger.Currency(code).IsValid() {
		return code
	}
	if unit, err := currency.ParseISO(code); err == nil {
		return unit.String()
	}
	return code
}
