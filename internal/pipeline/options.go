package pipeline

import (
	"fmt"

	"github.com/vijay-prabhu/ipeds-prospector/internal/config"
	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/diversity"
	"github.com/vijay-prabhu/ipeds-prospector/internal/features"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/membership"
	"github.com/vijay-prabhu/ipeds-prospector/internal/need"
)

// Options is the analysis configuration in the form the components consume
type Options struct {
	Criteria        membership.Criteria
	AllowIneligible bool
	Describe        ipeds.DescriptiveColumns

	// Features renames raw statistics columns to short feature names
	Features  features.Mapping
	Diversity []diversity.Group
	// ExcludeZeroTotal drops institutions whose diversity group total is
	// zero instead of failing the need approach
	ExcludeZeroTotal bool
	Need             need.Config

	RegionColumn string

	MatchFeatures []string
	MaxCells      int
}

// Inputs are the two process-wide inputs, loaded once
type Inputs struct {
	Institutions *dataset.Table
	Customers    membership.IDSet
}

// OptionsFromConfig converts a validated config into Options
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	featureMap, err := mapping(cfg.Features.Columns)
	if err != nil {
		return Options{}, fmt.Errorf("features: %w", err)
	}

	groups := make([]diversity.Group, 0, len(cfg.Diversity.Groups))
	for _, g := range cfg.Diversity.Groups {
		m, err := mapping(g.Columns)
		if err != nil {
			return Options{}, fmt.Errorf("diversity group %s: %w", g.Name, err)
		}
		groups = append(groups, diversity.Group{Name: g.Name, Columns: m})
	}

	pairs := make([]features.Pair, 0, len(cfg.Need.Features))
	var flip []string
	weights := make(map[string]float64)
	for _, f := range cfg.Need.Features {
		pairs = append(pairs, features.Pair{From: f.Column, To: f.Standardized})
		if f.Flip {
			flip = append(flip, f.Standardized)
		}
		if f.Weight != nil {
			weights[f.Standardized] = *f.Weight
		}
	}
	needFeatures, err := features.NewMapping(pairs...)
	if err != nil {
		return Options{}, fmt.Errorf("need: %w", err)
	}
	needCfg := need.Config{Features: needFeatures, Flip: flip, Weights: weights}
	if err := needCfg.Validate(); err != nil {
		return Options{}, err
	}

	return Options{
		Criteria: membership.Criteria{
			ControlColumn:       cfg.Eligibility.ControlColumn,
			ControlCodes:        cfg.Eligibility.ControlCodes,
			UndergraduateColumn: cfg.Eligibility.UndergraduateColumn,
			ActiveColumn:        cfg.Eligibility.ActiveColumn,
		},
		AllowIneligible: cfg.Data.AllowIneligible,
		Describe: ipeds.DescriptiveColumns{
			Name:  cfg.Columns.Name,
			City:  cfg.Columns.City,
			State: cfg.Columns.State,
			ZIP:   cfg.Columns.ZIP,
		},
		Features:         featureMap,
		Diversity:        groups,
		ExcludeZeroTotal: cfg.Diversity.ZeroTotal == config.ZeroTotalExclude,
		Need:             needCfg,
		RegionColumn:     cfg.Penetration.RegionColumn,
		MatchFeatures:    cfg.Matching.Features,
		MaxCells:         cfg.Matching.MaxMatrixCells,
	}, nil
}

// LoadInputs reads the statistics file and the customer roster
func LoadInputs(cfg *config.Config) (Inputs, error) {
	table, err := ipeds.LoadInstitutions(cfg.Data.InstitutionsPath, ipeds.Layout{
		IDColumn:    cfg.Columns.ID,
		TextColumns: cfg.Columns.TextColumns(),
	})
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load institutions: %w", err)
	}

	customers, err := ipeds.LoadRoster(cfg.Data.RosterPath, ipeds.RosterOptions{
		IDColumn:  cfg.Data.RosterIDColumn,
		Delimiter: cfg.RosterDelimiter(),
	})
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load roster: %w", err)
	}

	return Inputs{Institutions: table, Customers: customers}, nil
}

func mapping(cols []config.ColumnMapping) (features.Mapping, error) {
	pairs := make([]features.Pair, len(cols))
	for i, c := range cols {
		pairs[i] = features.Pair{From: c.From, To: c.To}
	}
	return features.NewMapping(pairs...)
}
