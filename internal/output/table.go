package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/ipeds-prospector/internal/database"
	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/penetration"
	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

// Table writes data as a formatted table to stdout
func Table(data any) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case *pipeline.NeedResult:
		if err := needTable(w, v.Rows); err != nil {
			return err
		}
		return warnings(w, v.Warnings)
	case *pipeline.PenetrationResult:
		return penetrationTable(w, v.Regions)
	case *pipeline.MatchResult:
		if err := matchTable(w, v.Rows); err != nil {
			return err
		}
		return warnings(w, v.Warnings)
	case *pipeline.Report:
		return reportTables(w, v)
	case pipeline.Summary:
		return summaryBlock(w, v)
	case []database.Run:
		return runsTable(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func reportTables(w io.Writer, r *pipeline.Report) error {
	if err := summaryBlock(w, r.Summary); err != nil {
		return err
	}

	sections := []struct {
		title  string
		render func() error
	}{
		{"Approach 1: need score", func() error { return needTable(w, r.Need) }},
		{"Approach 2: market penetration", func() error { return penetrationTable(w, r.Penetration) }},
		{"Approach 3: most similar customer", func() error { return matchTable(w, r.Matches) }},
	}
	for _, s := range sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.title)
		fmt.Fprintln(w, strings.Repeat("-", len(s.title)))
		if err := s.render(); err != nil {
			return err
		}
	}
	return warnings(w, r.Warnings)
}

func summaryBlock(w io.Writer, s pipeline.Summary) error {
	fmt.Fprintln(w, "Institutions")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintf(w, "Eligible:          %d\n", s.Eligible)
	fmt.Fprintf(w, "Customers:         %d\n", s.Customers)
	fmt.Fprintf(w, "Non-customers:     %d\n", s.NonCustomers)
	fmt.Fprintf(w, "Market share:      %.2f%%\n", s.MarketShare)
	return nil
}

func needTable(w io.Writer, rows []pipeline.NeedRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No institutions scored.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "UnitID", "Institution", "Location", "Need Score")
	for i, r := range rows {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			unitID(r.ID),
			truncate(r.Name, 45),
			location(r.Institution),
			fmt.Sprintf("%.3f", r.Score),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func penetrationTable(w io.Writer, regions []penetration.Region) error {
	if len(regions) == 0 {
		fmt.Fprintln(w, "No regions found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Region", "Customers", "Non-customers", "Total", "Penetration")
	for i, r := range regions {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			r.Name,
			strconv.Itoa(r.Customers),
			strconv.Itoa(r.NonCustomers),
			strconv.Itoa(r.Total),
			fmt.Sprintf("%.1f%%", r.Penetration*100),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func matchTable(w io.Writer, rows []pipeline.MatchRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No matches found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "UnitID", "Institution", "Location", "Most Similar Customer", "Distance")
	for i, r := range rows {
		nearest := r.NearestCustomerName
		if nearest == "" {
			nearest = unitID(r.NearestCustomerID)
		}
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			unitID(r.ID),
			truncate(r.Name, 40),
			location(r.Institution),
			truncate(nearest, 40),
			fmt.Sprintf("%.5f", r.Distance),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func runsTable(w io.Writer, runs []database.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No saved runs.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Run", "Created", "Label", "Top N", "Eligible", "Share", "Rows")
	for _, r := range runs {
		label := ""
		if r.Label != nil {
			label = *r.Label
		}
		if err := table.Append([]string{
			shortID(r.ID),
			r.CreatedAt.Local().Format("Jan 02, 2006 15:04"),
			truncate(label, 25),
			strconv.Itoa(r.TopN),
			strconv.Itoa(r.Summary.Eligible),
			fmt.Sprintf("%.1f%%", r.Summary.MarketShare),
			fmt.Sprintf("%d/%d/%d", r.NeedRows, r.RegionRows, r.MatchRows),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func warnings(w io.Writer, ws []dataset.DataQualityWarning) error {
	if len(ws) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	for _, warning := range ws {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	return nil
}

func unitID(id dataset.UnitID) string {
	return strconv.FormatInt(int64(id), 10)
}

func location(inst ipeds.Institution) string {
	parts := make([]string, 0, 2)
	if inst.City != "" {
		parts = append(parts, inst.City)
	}
	if inst.State != "" {
		parts = append(parts, inst.State)
	}
	return strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
