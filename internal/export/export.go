// Package export renders calculations as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/nekolators/internal/calculator"
	"github.com/mmynk/nekolators/internal/models"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	breakdownSheet = "Breakdown"
	itemsSheet     = "Items"
	personsSheet   = "Persons"
)

// Calculation builds a workbook with one row per participant of a basic
// calculation followed by a totals row.
func Calculation(calc *models.Calculation) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", breakdownSheet); err != nil {
		return nil, err
	}

	headers := []string{"Name", "Price", "Total Price", "Share %", "Discount", "Tax", "Total To Pay"}
	if err := setHeaders(f, breakdownSheet, headers); err != nil {
		return nil, err
	}

	for i, p := range calc.Persons {
		b := calculator.PersonBreakdown(p.TotalPrice, calc.OverallTotal, calc.DiscountResult, calc.TaxResult)
		if err := setRow(f, breakdownSheet, i+2, []any{
			p.Name,
			p.Price,
			p.TotalPrice,
			b.PercentageOfTotal * 100,
			b.DiscountAmount,
			b.TaxAmount,
			p.TotalToPay,
		}); err != nil {
			return nil, err
		}
	}

	totalsRow := len(calc.Persons) + 2
	if err := setRow(f, breakdownSheet, totalsRow, []any{
		"Total", "", calc.OverallTotal, 100.0, calc.DiscountResult, calc.TaxResult, calc.FinalTotal,
	}); err != nil {
		return nil, err
	}

	if err := setRow(f, breakdownSheet, totalsRow+2, []any{"Discount", calc.DiscountValue}); err != nil {
		return nil, err
	}
	if err := setRow(f, breakdownSheet, totalsRow+3, []any{"Tax / Shipping", calc.TaxValue}); err != nil {
		return nil, err
	}

	return f, nil
}

// ExpertCalculation builds a workbook with an Items sheet listing who shares
// each item and a Persons sheet with each person's totals.
func ExpertCalculation(calc *models.ExpertCalculation, totals calculator.Totals) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(personsSheet); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(calc.Persons))
	for _, p := range calc.Persons {
		names[p.ID] = p.Name
	}
	assigned := make(map[string][]string)
	seen := make(map[models.Assignment]bool, len(calc.Assignments))
	for _, a := range calc.Assignments {
		if seen[a] {
			continue
		}
		seen[a] = true
		if name, ok := names[a.PersonID]; ok {
			assigned[a.ItemID] = append(assigned[a.ItemID], name)
		}
	}

	if err := setHeaders(f, itemsSheet, []string{"Item", "Category", "Price", "Assigned To"}); err != nil {
		return nil, err
	}
	for i, item := range calc.Items {
		if err := setRow(f, itemsSheet, i+2, []any{
			item.Name, string(item.Category), item.Price, strings.Join(assigned[item.ID], ", "),
		}); err != nil {
			return nil, err
		}
	}
	summary := len(calc.Items) + 3
	for i, row := range [][]any{
		{"Subtotal", "", totals.Subtotal},
		{"Discount", calc.DiscountValue, calc.Discount},
		{"Tax / Shipping", calc.TaxValue, calc.Tax},
		{"Final Total", "", totals.FinalTotal},
	} {
		if err := setRow(f, itemsSheet, summary+i, row); err != nil {
			return nil, err
		}
	}

	if err := setHeaders(f, personsSheet, []string{"Name", "Items Total", "Share %", "Discount", "Tax", "Total"}); err != nil {
		return nil, err
	}
	for i, p := range calc.Persons {
		itemTotal := totals.PersonItemTotals[p.ID]
		var proportion float64
		if totals.Subtotal > 0 {
			proportion = itemTotal / totals.Subtotal
		}
		if err := setRow(f, personsSheet, i+2, []any{
			p.Name,
			itemTotal,
			proportion * 100,
			proportion * calc.Discount,
			proportion * calc.Tax,
			totals.PersonTotals[p.ID],
		}); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Write writes the workbook to w and closes it.
func Write(w io.Writer, f *excelize.File) error {
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename returns the download name for a calculation workbook, e.g.
// "Split_with_Alice_Bob_20240131_150405.xlsx".
func Filename(title string, now time.Time) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(title, "_"), "_")
	if base == "" {
		base = "calculation"
	}
	return fmt.Sprintf("%s_%s.xlsx", base, now.Format("20060102_150405"))
}

func setHeaders(f *excelize.File, sheet string, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
