package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

// WorkbookName is the file name used by WriteXLSX
const WorkbookName = "prospects.xlsx"

// WriteXLSX writes every grid as a sheet of one workbook in dir and
// returns its path
func WriteXLSX(dir string, r *pipeline.Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	first := -1
	for _, g := range Grids(r) {
		index, err := f.NewSheet(g.Name)
		if err != nil {
			return "", fmt.Errorf("failed to create sheet %s: %w", g.Name, err)
		}
		if first < 0 {
			first = index
		}
		if err := writeSheet(f, g, headerStyle); err != nil {
			return "", err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetSummary); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	path := filepath.Join(dir, WorkbookName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, g Grid, headerStyle int) error {
	header := make([]any, len(g.Header))
	for i, h := range g.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(g.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", g.Name, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(g.Header), 1)
	if err := f.SetCellStyle(g.Name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", g.Name, err)
	}

	for i, row := range g.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row
		if err := f.SetSheetRow(g.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", g.Name, i+1, err)
		}
	}

	for i := range g.Header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(g.Name, col, col, 18); err != nil {
			return err
		}
	}
	return f.SetPanes(g.Name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
