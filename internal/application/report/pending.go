package report

import (
	"fmt"
	"sort"
	"time"

	appledger "github.com/Erickgiber/debts-my-clients/internal/application/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingTitle is the heading and document title of the pending report
const PendingTitle = "Pagos pendientes"

// unknownDebtor names sections whose debtor record is missing
const unknownDebtor = "Cliente"

// PendingRow is one sale line of the report
type PendingRow struct {
	Date     time.Time
	Product  string
	Quantity decimal.Decimal
	UnitUSD  decimal.Decimal
	TotalUSD decimal.Decimal
	// UnitVES and TotalVES are set for VES sales only
	UnitVES  decimal.NullDecimal
	TotalVES decimal.NullDecimal
	Currency string
}

// PendingSection groups the rows of one debtor
type PendingSection struct {
	DebtorName  string
	Subtotal    decimal.Decimal
	SubtotalVES decimal.Decimal
	Sales       int
	Rows        []PendingRow
}

// PendingReport lists every non-delivered sale grouped by debtor
type PendingReport struct {
	Title       string
	GeneratedAt time.Time
	Total       decimal.Decimal
	DebtorCount int
	SaleCount   int
	Sections    []PendingSection
}

// IsEmpty reports whether there is nothing pending
func (r *PendingReport) IsEmpty() bool {
	return len(r.Sections) == 0
}

// Filename returns the download name, e.g. pendientes-20240110-1500.pdf
func (r *PendingReport) Filename(ext string) string {
	return fmt.Sprintf("pendientes-%s.%s", r.GeneratedAt.Format("20060102-1504"), ext)
}

// BuildPendingReport groups a pending snapshot into report sections. Sections
// follow the snapshot's debtor order; sales whose debtor is unknown come first
// under a generic name.
func BuildPendingReport(snap *appledger.PendingSnapshot) *PendingReport {
	r := &PendingReport{
		Title:       PendingTitle,
		GeneratedAt: snap.GeneratedAt,
		Total:       decimal.Zero,
	}

	known := make(map[uuid.UUID]bool, len(snap.Debtors))
	for _, d := range snap.Debtors {
		known[d.ID] = true
	}
	orphans := make([]uuid.UUID, 0)
	for id := range snap.SalesByDebtor {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].String() < orphans[j].String() })

	for _, id := range orphans {
		r.addSection(unknownDebtor, snap.SalesByDebtor[id])
	}
	for _, d := range snap.Debtors {
		r.addSection(d.Name, snap.SalesByDebtor[d.ID])
	}
	return r
}

func (r *PendingReport) addSection(name string, sales []ledger.Sale) {
	if len(sales) == 0 {
		return
	}
	sec := PendingSection{
		DebtorName:  name,
		Subtotal:    decimal.Zero,
		SubtotalVES: decimal.Zero,
		Sales:       len(sales),
	}
	for _, sale := range sales {
		sec.Subtotal = sec.Subtotal.Add(sale.Total)
		sec.SubtotalVES = sec.SubtotalVES.Add(sale.SubtotalVES())
		for _, it := range sale.Items {
			row := PendingRow{
				Date:     sale.CreatedAt,
				Product:  it.Product,
				Quantity: it.Quantity,
				UnitUSD:  it.UnitPrice,
				TotalUSD: it.Total(),
				Currency: string(sale.Currency),
			}
			if sale.Currency == ledger.CurrencyVES {
				unit := it.UnitPrice
				if it.UnitPriceVES.Valid {
					unit = it.UnitPriceVES.Decimal
				}
				row.UnitVES = decimal.NewNullDecimal(unit)
				row.TotalVES = decimal.NewNullDecimal(it.TotalVES())
			}
			sec.Rows = append(sec.Rows, row)
		}
	}
	r.Sections = append(r.Sections, sec)
	r.Total = r.Total.Add(sec.Subtotal)
	r.DebtorCount++
	r.SaleCount += sec.Sales
}
