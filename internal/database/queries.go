package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/penetration"
	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

const runColumns = `
	r.id, r.label, r.created_at, r.top_n, r.eligible, r.customers, r.non_customers, r.market_share,
	(SELECT COUNT(*) FROM need_scores n WHERE n.run_id = r.id),
	(SELECT COUNT(*) FROM region_penetration p WHERE p.run_id = r.id),
	(SELECT COUNT(*) FROM matches m WHERE m.run_id = r.id),
	r.warnings`

// SaveReport stores a report and its ranked rows under a new run ID
func (db *DB) SaveReport(ctx context.Context, report *pipeline.Report, label *string) (*Run, error) {
	warnings, err := json.Marshal(report.Warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode warnings: %w", err)
	}

	run := &Run{
		ID:          uuid.New().String(),
		Label:       label,
		CreatedAt:   time.Now().UTC(),
		TopN:        report.TopN,
		Summary:     report.Summary,
		NeedRows:    len(report.Need),
		RegionRows:  len(report.Penetration),
		MatchRows:   len(report.Matches),
		WarningRows: len(report.Warnings),
	}

	err = db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, label, created_at, top_n, eligible, customers, non_customers, market_share, warnings
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, NullString(run.Label), run.CreatedAt, run.TopN,
			run.Summary.Eligible, run.Summary.Customers, run.Summary.NonCustomers,
			run.Summary.MarketShare, string(warnings),
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		if err := insertNeed(ctx, tx, run.ID, report.Need); err != nil {
			return err
		}
		if err := insertRegions(ctx, tx, run.ID, report.Penetration); err != nil {
			return err
		}
		return insertMatches(ctx, tx, run.ID, report.Matches)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func insertNeed(ctx context.Context, tx *sql.Tx, runID string, rows []pipeline.NeedRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO need_scores (run_id, rank, unitid, name, city, state, zip, need_score, components)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		components, err := json.Marshal(r.Components)
		if err != nil {
			return fmt.Errorf("failed to encode components for %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, i+1, int64(r.ID), emptyNull(r.Name), emptyNull(r.City), emptyNull(r.State), emptyNull(r.ZIP),
			r.Score, string(components),
		); err != nil {
			return fmt.Errorf("failed to insert need score for %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertRegions(ctx context.Context, tx *sql.Tx, runID string, rows []penetration.Region) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO region_penetration (run_id, rank, region, customer_count, non_customer_count, total, penetration)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			runID, i+1, r.Name, r.Customers, r.NonCustomers, r.Total, r.Penetration,
		); err != nil {
			return fmt.Errorf("failed to insert region %s: %w", r.Name, err)
		}
	}
	return nil
}

func insertMatches(ctx context.Context, tx *sql.Tx, runID string, rows []pipeline.MatchRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches (run_id, rank, unitid, name, city, state, zip, nearest_unitid, nearest_name, distance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			runID, i+1, int64(r.ID), emptyNull(r.Name), emptyNull(r.City), emptyNull(r.State), emptyNull(r.ZIP),
			int64(r.NearestCustomerID), emptyNull(r.NearestCustomerName), r.Distance,
		); err != nil {
			return fmt.Errorf("failed to insert match for %d: %w", r.ID, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, []dataset.DataQualityWarning, error) {
	r := &Run{}
	var label, warnings sql.NullString
	if err := s.Scan(
		&r.ID, &label, &r.CreatedAt, &r.TopN,
		&r.Summary.Eligible, &r.Summary.Customers, &r.Summary.NonCustomers, &r.Summary.MarketShare,
		&r.NeedRows, &r.RegionRows, &r.MatchRows, &warnings,
	); err != nil {
		return nil, nil, err
	}
	r.Label = StringPtr(label)

	var ws []dataset.DataQualityWarning
	if warnings.Valid && warnings.String != "" {
		if err := json.Unmarshal([]byte(warnings.String), &ws); err != nil {
			return nil, nil, fmt.Errorf("failed to decode warnings of run %s: %w", r.ID, err)
		}
	}
	r.WarningRows = len(ws)
	return r, ws, nil
}

// GetRun retrieves a run by ID. It returns nil when no run matches.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	r, _, err := scanRun(db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns saved runs, newest first
func (db *DB) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r ORDER BY r.created_at DESC`
	var args []any
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, _, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// LoadReport rebuilds the report saved under id. It returns nil when no run
// matches.
func (db *DB) LoadReport(ctx context.Context, id string) (*pipeline.Report, error) {
	run, warnings, err := scanRun(db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	report := &pipeline.Report{TopN: run.TopN, Summary: run.Summary, Warnings: warnings}

	if report.Need, err = db.loadNeed(ctx, id); err != nil {
		return nil, err
	}
	if report.Penetration, err = db.loadRegions(ctx, id); err != nil {
		return nil, err
	}
	if report.Matches, err = db.loadMatches(ctx, id); err != nil {
		return nil, err
	}
	return report, nil
}

func (db *DB) loadNeed(ctx context.Context, runID string) ([]pipeline.NeedRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT unitid, name, city, state, zip, need_score, components
		FROM need_scores WHERE run_id = ? ORDER BY rank
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pipeline.NeedRow
	for rows.Next() {
		var r pipeline.NeedRow
		var components sql.NullString
		var id int64
		inst := institutionColumns{}
		if err := rows.Scan(&id, &inst.name, &inst.city, &inst.state, &inst.zip, &r.Score, &components); err != nil {
			return nil, err
		}
		r.Institution = inst.institution(id)
		if components.Valid && components.String != "null" {
			if err := json.Unmarshal([]byte(components.String), &r.Components); err != nil {
				return nil, fmt.Errorf("failed to decode components for %d: %w", id, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) loadRegions(ctx context.Context, runID string) ([]penetration.Region, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT region, customer_count, non_customer_count, total, penetration
		FROM region_penetration WHERE run_id = ? ORDER BY rank
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []penetration.Region
	for rows.Next() {
		var r penetration.Region
		if err := rows.Scan(&r.Name, &r.Customers, &r.NonCustomers, &r.Total, &r.Penetration); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) loadMatches(ctx context.Context, runID string) ([]pipeline.MatchRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT unitid, name, city, state, zip, nearest_unitid, nearest_name, distance
		FROM matches WHERE run_id = ? ORDER BY rank
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pipeline.MatchRow
	for rows.Next() {
		var r pipeline.MatchRow
		var id, nearest int64
		var nearestName sql.NullString
		inst := institutionColumns{}
		if err := rows.Scan(&id, &inst.name, &inst.city, &inst.state, &inst.zip, &nearest, &nearestName, &r.Distance); err != nil {
			return nil, err
		}
		r.Institution = inst.institution(id)
		r.NearestCustomerID = dataset.UnitID(nearest)
		r.NearestCustomerName = nearestName.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its rows
func (db *DB) DeleteRun(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

type institutionColumns struct {
	name, city, state, zip sql.NullString
}

func (c institutionColumns) institution(id int64) ipeds.Institution {
	return ipeds.Institution{
		ID:    dataset.UnitID(id),
		Name:  c.name.String,
		City:  c.city.String,
		State: c.state.String,
		ZIP:   c.zip.String,
	}
}
