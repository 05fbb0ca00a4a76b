package database

import (
	"database/sql"
	"time"

	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

// Run is one saved analysis run
type Run struct {
	ID        string           `json:"id"`
	Label     *string          `json:"label,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	TopN      int              `json:"top_n"`
	Summary   pipeline.Summary `json:"summary"`

	NeedRows    int `json:"need_rows"`
	RegionRows  int `json:"region_rows"`
	MatchRows   int `json:"match_rows"`
	WarningRows int `json:"warnings"`
}

// ListOptions contains options for listing runs
type ListOptions struct {
	Limit  int
	Offset int
}

// NullString is a helper to convert *string to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts sql.NullString to *string
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// emptyNull stores empty descriptive values as NULL
func emptyNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
