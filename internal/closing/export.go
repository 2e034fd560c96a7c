package closing

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Average cost"

// WriteAverageCostXLSX renders the report as a single-sheet workbook.
func WriteAverageCostXLSX(w io.Writer, report AverageCostReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	header := []any{"Month", "Total quantity", "Total cost", "Unit average cost"}
	if err := f.SetSheetRow(reportSheet, "A1", &[]any{
		fmt.Sprintf("%s - %s (%s)", report.Input.Code, report.Input.Name, report.Input.UnitOfMeasure),
		report.Year,
	}); err != nil {
		return err
	}
	if err := f.SetSheetRow(reportSheet, "A3", &header); err != nil {
		return err
	}
	row := 4
	for _, m := range report.Months {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{
			m.ReferenceMonth.String(),
			m.TotalQuantity.InexactFloat64(),
			m.TotalCost.InexactFloat64(),
			m.UnitAverageCost.InexactFloat64(),
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return err
		}
		row++
	}
	cell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(reportSheet, cell, &[]any{"Annual average", nil, nil, report.AnnualAverage.InexactFloat64()}); err != nil {
		return err
	}
	return f.Write(w)
}
