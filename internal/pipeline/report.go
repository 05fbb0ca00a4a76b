package pipeline

import (
	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/penetration"
)

// Summary describes the partition of eligible institutions
type Summary struct {
	Eligible     int     `json:"eligible"`
	Customers    int     `json:"customers"`
	NonCustomers int     `json:"non_customers"`
	MarketShare  float64 `json:"market_share_pct"`
}

// NeedRow is one ranked non-customer with its need score
type NeedRow struct {
	ipeds.Institution
	Score      float64            `json:"need_score"`
	Components map[string]float64 `json:"components,omitempty"`
}

// MatchRow is one non-customer and its most similar customer
type MatchRow struct {
	ipeds.Institution
	NearestCustomerID   dataset.UnitID `json:"unitid_of_most_similar_member"`
	NearestCustomerName string         `json:"most_similar_member_name"`
	Distance            float64        `json:"distance_with_closest_members"`
}

// NeedResult is the output of the need approach
type NeedResult struct {
	Rows     []NeedRow                    `json:"rows"`
	Warnings []dataset.DataQualityWarning `json:"warnings,omitempty"`
}

// PenetrationResult is the output of the market penetration approach
type PenetrationResult struct {
	Regions []penetration.Region `json:"regions"`
}

// MatchResult is the output of the matching approach
type MatchResult struct {
	Rows     []MatchRow                   `json:"rows"`
	Warnings []dataset.DataQualityWarning `json:"warnings,omitempty"`
}

// Report bundles every approach for one run
type Report struct {
	TopN        int                          `json:"top_n"`
	Summary     Summary                      `json:"summary"`
	Need        []NeedRow                    `json:"need"`
	Penetration []penetration.Region         `json:"penetration"`
	Matches     []MatchRow                   `json:"matches"`
	Warnings    []dataset.DataQualityWarning `json:"warnings,omitempty"`
}
