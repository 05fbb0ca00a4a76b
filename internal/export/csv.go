package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

// WriteCSV writes one <name>.csv file per grid into dir and returns the
// paths written
func WriteCSV(dir string, r *pipeline.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var paths []string
	for _, g := range Grids(r) {
		path := filepath.Join(dir, g.Name+".csv")
		if err := writeCSVFile(path, g); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, g Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteGridCSV(f, g); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteGridCSV writes a single grid as CSV
func WriteGridCSV(w io.Writer, g Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(g.Header); err != nil {
		return err
	}
	record := make([]string, len(g.Header))
	for _, row := range g.Rows {
		for i, v := range row {
			record[i] = FormatCell(v)
		}
		if err := cw.Write(record[:len(row)]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
