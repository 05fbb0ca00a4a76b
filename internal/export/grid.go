// Package export writes analysis reports to CSV files and XLSX workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

// Sheet names, also used as CSV file stems
const (
	SheetSummary     = "summary"
	SheetNeed        = "need_scores"
	SheetPenetration = "market_penetration"
	SheetMatches     = "matches"
	SheetWarnings    = "warnings"
)

// Grid is one tabular section of a report
type Grid struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Grids lays a report out as one grid per approach plus a summary. The
// warnings grid is included only when there are warnings.
func Grids(r *pipeline.Report) []Grid {
	grids := []Grid{
		summaryGrid(r),
		needGrid(r.Need),
		penetrationGrid(r),
		matchGrid(r.Matches),
	}
	if len(r.Warnings) > 0 {
		grids = append(grids, warningGrid(r))
	}
	return grids
}

func summaryGrid(r *pipeline.Report) Grid {
	return Grid{
		Name:   SheetSummary,
		Header: []string{"metric", "value"},
		Rows: [][]any{
			{"eligible_institutions", r.Summary.Eligible},
			{"customers", r.Summary.Customers},
			{"non_customers", r.Summary.NonCustomers},
			{"market_share_pct", r.Summary.MarketShare},
			{"top_n", r.TopN},
		},
	}
}

func needGrid(rows []pipeline.NeedRow) Grid {
	g := Grid{
		Name:   SheetNeed,
		Header: []string{"rank", "unitid", "name", "city", "state", "zip", "need_score", "components"},
	}
	for i, r := range rows {
		components := ""
		if len(r.Components) > 0 {
			// keys are sorted by encoding/json
			b, _ := json.Marshal(r.Components)
			components = string(b)
		}
		g.Rows = append(g.Rows, []any{i + 1, int64(r.ID), r.Name, r.City, r.State, r.ZIP, r.Score, components})
	}
	return g
}

func penetrationGrid(r *pipeline.Report) Grid {
	g := Grid{
		Name:   SheetPenetration,
		Header: []string{"rank", "region", "customer_count", "non_customer_count", "total", "penetration"},
	}
	for i, reg := range r.Penetration {
		g.Rows = append(g.Rows, []any{i + 1, reg.Name, reg.Customers, reg.NonCustomers, reg.Total, reg.Penetration})
	}
	return g
}

func matchGrid(rows []pipeline.MatchRow) Grid {
	g := Grid{
		Name: SheetMatches,
		Header: []string{
			"rank", "unitid", "name", "city", "state", "zip",
			"unitid_of_most_similar_member", "most_similar_member_name", "distance_with_closest_members",
		},
	}
	for i, r := range rows {
		g.Rows = append(g.Rows, []any{
			i + 1, int64(r.ID), r.Name, r.City, r.State, r.ZIP,
			int64(r.NearestCustomerID), r.NearestCustomerName, r.Distance,
		})
	}
	return g
}

func warningGrid(r *pipeline.Report) Grid {
	g := Grid{
		Name:   SheetWarnings,
		Header: []string{"stage", "reason", "dropped", "pool_size", "dropped_ids"},
	}
	for _, w := range r.Warnings {
		ids := make([]string, len(w.Dropped))
		for i, id := range w.Dropped {
			ids[i] = strconv.FormatInt(int64(id), 10)
		}
		b, _ := json.Marshal(ids)
		g.Rows = append(g.Rows, []any{w.Stage, w.Reason, len(w.Dropped), w.Pool, string(b)})
	}
	return g
}

// FormatCell renders a grid value as text
func FormatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
