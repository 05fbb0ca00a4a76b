// Package sheets publishes analysis reports to a Google spreadsheet, one
// tab per approach.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/vijay-prabhu/ipeds-prospector/internal/export"
	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

// Config contains publishing settings
type Config struct {
	// SpreadsheetID targets an existing spreadsheet; empty creates one
	SpreadsheetID string
	// Title names a newly created spreadsheet
	Title string
}

// Result identifies the spreadsheet written
type Result struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	URL           string `json:"url"`
	Tabs          int    `json:"tabs"`
	Rows          int    `json:"rows"`
}

// Publisher writes reports through the Sheets API
type Publisher struct {
	service *sheets.Service
	config  Config
	logger  *slog.Logger
}

// NewPublisher creates a publisher using an authenticated HTTP client.
// Extra options are passed to the Sheets service.
func NewPublisher(ctx context.Context, client *http.Client, config Config, logger *slog.Logger, opts ...option.ClientOption) (*Publisher, error) {
	if config.SpreadsheetID == "" && config.Title == "" {
		return nil, errors.New("sheets: a spreadsheet ID or a title is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return &Publisher{service: srv, config: config, logger: logger}, nil
}

// Publish replaces the contents of one tab per report section
func (p *Publisher) Publish(ctx context.Context, report *pipeline.Report) (*Result, error) {
	grids := export.Grids(report)

	ss, err := p.spreadsheet(ctx, grids)
	if err != nil {
		return nil, err
	}

	if err := p.ensureTabs(ctx, ss, grids); err != nil {
		return nil, fmt.Errorf("failed to add tabs: %w", err)
	}

	ranges := make([]string, len(grids))
	data := make([]*sheets.ValueRange, len(grids))
	rows := 0
	for i, g := range grids {
		ranges[i] = fmt.Sprintf("'%s'", g.Name)
		values := gridValues(g)
		rows += len(values)
		data[i] = &sheets.ValueRange{Range: tabRange(g.Name), Values: values}
	}

	if _, err := p.service.Spreadsheets.Values.BatchClear(ss.SpreadsheetId, &sheets.BatchClearValuesRequest{
		Ranges: ranges,
	}).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("failed to clear tabs: %w", err)
	}

	if _, err := p.service.Spreadsheets.Values.BatchUpdate(ss.SpreadsheetId, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("failed to write values: %w", err)
	}

	p.logger.Info("published report",
		slog.String("spreadsheet_id", ss.SpreadsheetId),
		slog.Int("tabs", len(grids)),
		slog.Int("rows", rows),
	)

	return &Result{SpreadsheetID: ss.SpreadsheetId, URL: ss.SpreadsheetUrl, Tabs: len(grids), Rows: rows}, nil
}

// spreadsheet fetches the configured spreadsheet or creates a new one
// with a tab per grid
func (p *Publisher) spreadsheet(ctx context.Context, grids []export.Grid) (*sheets.Spreadsheet, error) {
	if p.config.SpreadsheetID != "" {
		ss, err := p.service.Spreadsheets.Get(p.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to access spreadsheet %s: %w", p.config.SpreadsheetID, err)
		}
		return ss, nil
	}

	tabs := make([]*sheets.Sheet, len(grids))
	for i, g := range grids {
		tabs[i] = &sheets.Sheet{Properties: &sheets.SheetProperties{Title: g.Name}}
	}
	created, err := p.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: p.config.Title},
		Sheets:     tabs,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	p.logger.Info("created new spreadsheet",
		slog.String("id", created.SpreadsheetId),
		slog.String("url", created.SpreadsheetUrl),
	)
	return created, nil
}

func (p *Publisher) ensureTabs(ctx context.Context, ss *sheets.Spreadsheet, grids []export.Grid) error {
	var requests []*sheets.Request
	for _, name := range missingTabs(ss, grids) {
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
		})
	}
	if len(requests) == 0 {
		return nil
	}
	_, err := p.service.Spreadsheets.BatchUpdate(ss.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func missingTabs(ss *sheets.Spreadsheet, grids []export.Grid) []string {
	existing := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}
	var missing []string
	for _, g := range grids {
		if !existing[g.Name] {
			missing = append(missing, g.Name)
		}
	}
	return missing
}

// gridValues lays a grid out as header row plus data rows
func gridValues(g export.Grid) [][]any {
	values := make([][]any, 0, len(g.Rows)+1)
	header := make([]any, len(g.Header))
	for i, h := range g.Header {
		header[i] = h
	}
	values = append(values, header)
	values = append(values, g.Rows...)
	return values
}

func tabRange(name string) string {
	return fmt.Sprintf("'%s'!A1", name)
}
