// Package report renders the operator's Excel export: all bookings, the
// per-customer loyalty standings and the earnings totals.
package report

import (
	"fmt"
	"io"

	"tonnenheld/internal/service"

	"github.com/xuri/excelize/v2"
)

// sheetWriter appends header and data rows to one excelize workbook.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newSheetWriter() *sheetWriter {
	return &sheetWriter{file: excelize.NewFile()}
}

func (w *sheetWriter) addSheet(name string) error {
	if len(name) > 31 {
		name = name[:31] // Excel sheet name limit
	}

	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	if err := w.writeCells(toAny(columns)); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

func (w *sheetWriter) writeRow(row []any) error {
	if err := w.writeCells(row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func (w *sheetWriter) writeCells(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) save(out io.Writer) error {
	return w.file.Write(out)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Write renders the full report workbook to out.
func Write(out io.Writer, bookings []service.BookingView, stats *service.Stats) error {
	w := newSheetWriter()

	if err := w.addSheet("Buchungen"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{
		"ID", "Kunde", "Adresse", "Datum", "Tonne", "Leistung",
		"Status", "Preis (EUR)", "Bezahlt", "Monatlich", "Gratis",
	}); err != nil {
		return err
	}
	for _, b := range bookings {
		price := float64(b.PriceCents) / 100
		if b.Free {
			price = 0
		}
		if err := w.writeRow([]any{
			b.ID, b.CustomerName, b.CustomerAddress, b.ServiceDate.Format("02.01.2006"),
			string(b.BinType), string(b.ServiceScope), b.Status, price,
			jaNein(b.Paid), jaNein(b.IsMonthly), jaNein(b.Free),
		}); err != nil {
			return err
		}
	}

	if err := w.addSheet("Kunden"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{
		"Kunde", "Adresse", "Buchungen", "Bezahlt", "Gratis", "Bis zur nächsten Gratis-Leistung",
	}); err != nil {
		return err
	}
	for _, c := range stats.Customers {
		if err := w.writeRow([]any{
			c.Name, c.Address, c.Count, c.PaidCount, c.FreeCount, c.OrdersNeeded,
		}); err != nil {
			return err
		}
	}

	if err := w.addSheet("Einnahmen"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Gesamt (EUR)", "Bezahlt (EUR)", "Offen (EUR)"}); err != nil {
		return err
	}
	if err := w.writeRow([]any{
		float64(stats.Earnings.TotalCents) / 100,
		float64(stats.Earnings.PaidCents) / 100,
		float64(stats.Earnings.OpenCents) / 100,
	}); err != nil {
		return err
	}

	return w.save(out)
}

func jaNein(b bool) string {
	if b {
		return "Ja"
	}
	return "Nein"
}
