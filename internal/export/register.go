// Package export renders document registers as spreadsheets.
package export

import (
	"fmt"
	"io"

	"billing-service/internal/core"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of WriteRegister's output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var sheets = []struct {
	name string
	typ  core.DocumentType
}{
	{"Invoices", core.TypeInvoice},
	{"Quotes", core.TypeQuote},
	{"Expenses", core.TypeExpense},
}

var headings = []string{
	"ID", "Date", "Client", "Currency", "Subtotal", "Discount", "Tax", "Total", "Paid", "Status", "Sync",
}

// WriteRegister writes an XLSX workbook with one sheet per document type. The
// money columns are recomputed from each document's items.
func WriteRegister(w io.Writer, docs []core.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		if err := f.SetSheetRow(s.name, "A1", &headings); err != nil {
			return fmt.Errorf("failed to write headings: %w", err)
		}
	}

	rows := make(map[core.DocumentType]int)
	for _, d := range docs {
		sheet := sheetFor(d.Type)
		if sheet == "" {
			continue
		}
		rows[d.Type]++
		cell, err := excelize.CoordinatesToCellName(1, rows[d.Type]+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, rowFor(d)); err != nil {
			return fmt.Errorf("failed to write %s: %w", d.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func sheetFor(t core.DocumentType) string {
	for _, s := range sheets {
		if s.typ == t {
			return s.name
		}
	}
	return ""
}

func rowFor(d core.Document) *[]any {
	t := d.Totals().Rounded()
	date := ""
	if !d.Date.IsZero() {
		date = d.Date.Format("2006-01-02")
	}
	row := []any{
		d.ID,
		date,
		d.ClientName,
		d.Currency,
		t.Subtotal.InexactFloat64(),
		t.DiscountAmount.InexactFloat64(),
		t.TaxAmount.InexactFloat64(),
		t.Total.InexactFloat64(),
		d.AmountPaid.Round(2).InexactFloat64(),
		string(d.Status),
		string(d.SyncState),
	}
	return &row
}
