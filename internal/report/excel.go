// Package report persists an export result as an xlsx workbook with
// an Orders sheet and a Returns sheet.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"kc-order-sync/internal/core"
	"kc-order-sync/internal/ledger"
)

const (
	sheetOrders  = "Orders"
	sheetReturns = "Returns"
)

// Filename follows the legacy export convention:
// GST_Invoices_{YYYYMM}_{MONTH}-{yyyyMMddHHmm}.xlsx
func Filename(w core.MonthWindow, now time.Time) string {
	return fmt.Sprintf("GST_Invoices_%04d%02d_%s-%s.xlsx",
		w.Year, int(w.Month), w.MonthName, now.Format("200601021504"))
}

// Write saves the workbook into dir and returns its full path.
func Write(result *core.ExportResult, dir string, now time.Time) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, sheetOrders, result.Normal); err != nil {
		return "", err
	}
	if err := writeSheet(f, sheetReturns, result.Returned); err != nil {
		return "", err
	}

	// excelize creates "Sheet1" by default; replace it with Orders.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to drop default sheet: %w", err)
	}

	path := filepath.Join(dir, Filename(result.Window, now))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, name string, table *ledger.Table) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if err := writeRow(f, name, 1, table.Header); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := writeRow(f, name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", rowNum, sheet, err)
	}
	return nil
}
