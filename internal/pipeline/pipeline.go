// Package pipeline runs the three outreach approaches over one loaded
// statistics table and customer roster.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/diversity"
	"github.com/vijay-prabhu/ipeds-prospector/internal/features"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/logging"
	"github.com/vijay-prabhu/ipeds-prospector/internal/match"
	"github.com/vijay-prabhu/ipeds-prospector/internal/membership"
	"github.com/vijay-prabhu/ipeds-prospector/internal/need"
	"github.com/vijay-prabhu/ipeds-prospector/internal/penetration"
)

// Pipeline holds the partitioned inputs. It is not mutated after New.
type Pipeline struct {
	opts         Options
	institutions *dataset.Table
	partition    membership.Partition
	describer    *ipeds.Describer
	warnings     []dataset.DataQualityWarning
	logger       *slog.Logger
}

// New derives the eligible, customer and non-customer sets from in
func New(in Inputs, opts Options, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if in.Institutions == nil {
		return nil, errors.New("pipeline: no institutions table")
	}

	all, err := membership.AllIDs(in.Institutions, opts.Criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to select eligible institutions: %w", err)
	}

	p := &Pipeline{opts: opts, institutions: in.Institutions, logger: logger}

	customers := in.Customers
	if opts.AllowIneligible {
		stray := customers.Difference(all)
		if stray.Len() > 0 {
			w := dataset.DataQualityWarning{
				Stage:   "roster",
				Reason:  "customer is not an eligible institution",
				Dropped: stray.IDs(),
				Pool:    customers.Len(),
			}
			logging.Warning(logger, w)
			p.warnings = append(p.warnings, w)
			customers = customers.Intersect(all)
		}
	}

	p.partition, err = membership.NewPartition(all, customers)
	if err != nil {
		return nil, err
	}

	p.describer, err = ipeds.NewDescriber(in.Institutions, opts.Describe)
	if err != nil {
		return nil, err
	}

	logger.Info("partitioned institutions",
		slog.Int("eligible", p.partition.All.Len()),
		slog.Int("customers", p.partition.Customers.Len()),
		slog.Int("non_customers", p.partition.NonCustomers.Len()),
	)
	return p, nil
}

// Partition returns the membership partition
func (p *Pipeline) Partition() membership.Partition {
	return p.partition
}

// Summary returns the partition counts and market share
func (p *Pipeline) Summary() Summary {
	return Summary{
		Eligible:     p.partition.All.Len(),
		Customers:    p.partition.Customers.Len(),
		NonCustomers: p.partition.NonCustomers.Len(),
		MarketShare:  p.partition.MarketShare(),
	}
}

// Need ranks non-customers by need score and returns the top n
func (p *Pipeline) Need(n int) (*NeedResult, error) {
	res := &NeedResult{}

	ft, err := features.Project(p.institutions, p.partition.NonCustomers, p.opts.Features)
	if err != nil {
		return nil, fmt.Errorf("need: %w", err)
	}

	for _, g := range p.opts.Diversity {
		next, err := diversity.Index(ft, g)
		var degenerate *dataset.DegenerateInputError
		if errors.As(err, &degenerate) && next != nil && p.opts.ExcludeZeroTotal {
			drop := membership.NewIDSet(degenerate.IDs...)
			w := dataset.DataQualityWarning{
				Stage:   "need/" + g.Name,
				Reason:  "diversity group total is zero",
				Dropped: degenerate.IDs,
				Pool:    next.Len(),
			}
			p.warn(&res.Warnings, w)
			ft = next.Filter(func(id dataset.UnitID, _ []dataset.Value) bool {
				return !drop.Contains(id)
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("need: %w", err)
		}
		ft = next
	}

	ft, w, err := features.DropIncomplete(ft, "need", p.opts.Need.Features.Sources())
	if err != nil {
		return nil, fmt.Errorf("need: %w", err)
	}
	p.warn(&res.Warnings, w)
	if ft.Len() == 0 {
		return res, nil
	}

	scores, err := need.Rank(ft, p.opts.Need, n)
	if err != nil {
		return nil, fmt.Errorf("need: %w", err)
	}

	res.Rows = make([]NeedRow, len(scores))
	for i, s := range scores {
		res.Rows[i] = NeedRow{
			Institution: p.describer.Describe(s.ID),
			Score:       s.Value,
			Components:  s.Components,
		}
	}
	return res, nil
}

// Penetration ranks regions by ascending market penetration
func (p *Pipeline) Penetration(n int) (*PenetrationResult, error) {
	regions, err := penetration.Aggregate(p.institutions, p.partition.Tags(), p.opts.RegionColumn)
	if err != nil {
		return nil, fmt.Errorf("penetration: %w", err)
	}
	return &PenetrationResult{Regions: penetration.Rank(regions, n)}, nil
}

// Match pairs each non-customer with its nearest customer and returns the
// n closest pairs
func (p *Pipeline) Match(n int) (*MatchResult, error) {
	res := &MatchResult{}

	customers, err := p.matchFeatures(p.partition.Customers, "match/customers", &res.Warnings)
	if err != nil {
		return nil, err
	}
	nonCustomers, err := p.matchFeatures(p.partition.NonCustomers, "match/non_customers", &res.Warnings)
	if err != nil {
		return nil, err
	}

	matches, err := match.New(p.opts.MaxCells).Match(customers, nonCustomers, p.opts.MatchFeatures, n)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	res.Rows = make([]MatchRow, len(matches))
	for i, m := range matches {
		nearest := p.describer.Describe(m.NearestCustomer)
		res.Rows[i] = MatchRow{
			Institution:         p.describer.Describe(m.ID),
			NearestCustomerID:   m.NearestCustomer,
			NearestCustomerName: nearest.Name,
			Distance:            m.Distance,
		}
	}
	return res, nil
}

func (p *Pipeline) matchFeatures(ids membership.IDSet, stage string, warnings *[]dataset.DataQualityWarning) (*dataset.Table, error) {
	ft, err := features.Project(p.institutions, ids, p.opts.Features)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	ft, w, err := features.DropIncomplete(ft, stage, p.opts.MatchFeatures)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	p.warn(warnings, w)
	return ft, nil
}

// Run executes all three approaches
func (p *Pipeline) Run(n int) (*Report, error) {
	needRes, err := p.Need(n)
	if err != nil {
		return nil, err
	}
	penRes, err := p.Penetration(n)
	if err != nil {
		return nil, err
	}
	matchRes, err := p.Match(n)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TopN:        n,
		Summary:     p.Summary(),
		Need:        needRes.Rows,
		Penetration: penRes.Regions,
		Matches:     matchRes.Rows,
	}
	report.Warnings = append(report.Warnings, p.warnings...)
	report.Warnings = append(report.Warnings, needRes.Warnings...)
	report.Warnings = append(report.Warnings, matchRes.Warnings...)
	return report, nil
}

// Warnings returns the warnings raised while building the pipeline
func (p *Pipeline) Warnings() []dataset.DataQualityWarning {
	out := make([]dataset.DataQualityWarning, len(p.warnings))
	copy(out, p.warnings)
	return out
}

func (p *Pipeline) warn(dst *[]dataset.DataQualityWarning, w dataset.DataQualityWarning) {
	if w.Empty() {
		return
	}
	logging.Warning(p.logger, w)
	*dst = append(*dst, w)
}
