package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/xuri/excelize/v2"
)

// Columns is the header row of every tabular export.
var Columns = []string{
	"Date",
	"Type",
	"Category",
	"Amount",
	"Payment Method",
	"GST Applied",
	"GST Rate",
	"CGST",
	"SGST",
	"IGST",
	"Note",
}

// =============================================================================
// CSV
// =============================================================================

// WriteCSV writes txs as CSV, header first, one row per transaction in the
// order given.
func WriteCSV(w io.Writer, txs []cashbook.Transaction, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	loc := opts.location()
	for _, tx := range txs {
		record := []string{
			formatDate(tx.Date, loc),
			string(tx.Type),
			clean(tx.Category),
			tx.Amount.String(),
			clean(tx.PaymentMethod),
			yesNo(tx.IsGSTApplied),
			tx.GSTRate.String(),
			tx.CGST.String(),
			tx.SGST.String(),
			tx.IGST.String(),
			clean(tx.Note),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// =============================================================================
// XLSX
// =============================================================================

// SheetName is the worksheet holding the XLSX export.
const SheetName = "Transactions"

var columnWidths = []float64{22, 8, 18, 12, 16, 12, 10, 10, 10, 10, 40}

// WriteXLSX writes txs as a single-sheet workbook with the same columns as
// WriteCSV. Monetary columns are numeric cells formatted to two decimals.
func WriteXLSX(w io.Writer, txs []cashbook.Transaction, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}

	loc := opts.location()
	for idx, tx := range txs {
		row := idx + 2
		values := []any{
			formatDate(tx.Date, loc),
			string(tx.Type),
			clean(tx.Category),
			cellNumber(tx.Amount),
			clean(tx.PaymentMethod),
			yesNo(tx.IsGSTApplied),
			cellNumber(tx.GSTRate),
			cellNumber(tx.CGST),
			cellNumber(tx.SGST),
			cellNumber(tx.IGST),
			clean(tx.Note),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	if len(txs) > 0 {
		// Built-in number format 2 is "0.00".
		style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
		if err != nil {
			return err
		}
		last := len(txs) + 1
		for _, cols := range [][2]string{{"D", "D"}, {"H", "J"}} {
			if err := f.SetCellStyle(SheetName, fmt.Sprintf("%s2", cols[0]), fmt.Sprintf("%s%d", cols[1], last), style); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func cellNumber(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
