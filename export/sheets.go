// Package export turns a workflow and its records into tabular payloads for
// external spreadsheet services.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/formflow/formflow/store"
)

// Tabulate produces the spreadsheet rows for a workflow export: a header row
// of field names in schema order, then one row per record with values looked
// up by field id. Missing values render as the empty string. The data is
// trusted as previously validated; no validation is re-applied here.
func Tabulate(fields []store.Field, records []store.Record) [][]any {
	rows := make([][]any, 0, len(records)+1)

	header := make([]any, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	rows = append(rows, header)

	for _, r := range records {
		row := make([]any, len(fields))
		for i, f := range fields {
			if v, ok := r.Data[f.ID]; ok && v != nil {
				row[i] = v
			} else {
				row[i] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Result describes a completed spreadsheet export.
type Result struct {
	SpreadsheetID string `json:"spreadsheetId"`
	URL           string `json:"url"`
}

// SheetsConfig holds Google Sheets service-account credentials.
type SheetsConfig struct {
	ClientEmail string `yaml:"client_email" json:"client_email"`
	PrivateKey  string `yaml:"private_key" json:"private_key"`
}

// Configured reports whether both credential parts are present.
func (c SheetsConfig) Configured() bool {
	return c.ClientEmail != "" && c.PrivateKey != ""
}

// SheetsExporter creates spreadsheets in Google Sheets via a service
// account.
type SheetsExporter struct {
	cfg SheetsConfig
}

// NewSheetsExporter creates a SheetsExporter with the given credentials.
func NewSheetsExporter(cfg SheetsConfig) *SheetsExporter {
	return &SheetsExporter{cfg: cfg}
}

// Export creates a new spreadsheet titled after the workflow and writes the
// tabulated rows starting at Sheet1!A1. The call is synchronous; failures
// surface to the caller.
func (e *SheetsExporter) Export(ctx context.Context, workflowName string, fields []store.Field, records []store.Record) (*Result, error) {
	svc, err := e.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("init sheets service: %w", err)
	}

	title := fmt.Sprintf("%s - Export %s", workflowName, time.Now().Format("1/2/2006"))
	created, err := svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", err)
	}

	_, err = svc.Spreadsheets.Values.Update(created.SpreadsheetId, "Sheet1!A1", &sheets.ValueRange{
		Values: Tabulate(fields, records),
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("write spreadsheet values: %w", err)
	}

	return &Result{
		SpreadsheetID: created.SpreadsheetId,
		URL:           "https://docs.google.com/spreadsheets/d/" + created.SpreadsheetId,
	}, nil
}

func (e *SheetsExporter) service(ctx context.Context) (*sheets.Service, error) {
	// Keys pasted from env files often carry literal \n sequences.
	key := strings.ReplaceAll(e.cfg.PrivateKey, `\n`, "\n")
	conf := &jwt.Config{
		Email:      e.cfg.ClientEmail,
		PrivateKey: []byte(key),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	return sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
}
