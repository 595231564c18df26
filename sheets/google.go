// ABOUTME: Google Sheets API implementation of the Service interface
// ABOUTME: Authenticates as a service account and maps API errors to actionable messages
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Values are written as RAW so that cells beginning with '+' or '=' are
// stored as text instead of being parsed as formulas.
const valueInputOption = "RAW"

// GoogleService talks to the Sheets API on behalf of a service account.
type GoogleService struct {
	api         *sheetsapi.Service
	clientEmail string
}

// NewGoogleService creates a Sheets API client from service account
// credentials.
func NewGoogleService(ctx context.Context, creds *Credentials) (*GoogleService, error) {
	if creds == nil || creds.Config == nil {
		return nil, fmt.Errorf("credentials cannot be nil")
	}

	client := creds.Config.Client(ctx)

	api, err := sheetsapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return &GoogleService{api: api, clientEmail: creds.ClientEmail}, nil
}

// ClientEmail is the address the spreadsheet must be shared with.
func (g *GoogleService) ClientEmail() string {
	return g.clientEmail
}

// OpenDocument fetches the document title and its worksheet properties.
func (g *GoogleService) OpenDocument(ctx context.Context, documentID string) (*Document, error) {
	resp, err := g.api.Spreadsheets.Get(documentID).
		Fields("spreadsheetId", "properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, g.explain(err)
	}

	doc := &Document{ID: documentID}
	if resp.Properties != nil {
		doc.Title = resp.Properties.Title
	}
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		doc.Worksheets = append(doc.Worksheets, Worksheet{
			DocumentID: documentID,
			ID:         s.Properties.SheetId,
			Title:      s.Properties.Title,
			Index:      int(s.Properties.Index),
		})
	}

	return doc, nil
}

// ReadRow returns the formatted values of one row. Trailing empty cells are
// not returned by the API.
func (g *GoogleService) ReadRow(ctx context.Context, ws Worksheet, row int) ([]string, error) {
	resp, err := g.api.Spreadsheets.Values.Get(ws.DocumentID, rowRange(ws, row)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, g.explain(err)
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}

	out := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		out[i] = fmt.Sprint(v)
	}
	return out, nil
}

// WriteRow overwrites one row starting at column A.
func (g *GoogleService) WriteRow(ctx context.Context, ws Worksheet, row int, values []string) error {
	_, err := g.api.Spreadsheets.Values.Update(ws.DocumentID, rowRange(ws, row), valueRange(values)).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return g.explain(err)
	}
	return nil
}

// AppendRow inserts one row after the last row of the worksheet's table.
func (g *GoogleService) AppendRow(ctx context.Context, ws Worksheet, values []string) error {
	_, err := g.api.Spreadsheets.Values.Append(ws.DocumentID, quoteTitle(ws.Title)+"!A1", valueRange(values)).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return g.explain(err)
	}
	return nil
}

func valueRange(values []string) *sheetsapi.ValueRange {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &sheetsapi.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{row},
	}
}

// explain adds a sharing hint to permission and not-found errors, the usual
// cause being a document that was never shared with the service account.
func (g *GoogleService) explain(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case http.StatusForbidden, http.StatusNotFound:
		if g.clientEmail != "" {
			return fmt.Errorf("%w (share the spreadsheet with %s as editor)", err, g.clientEmail)
		}
		return fmt.Errorf("%w (share the spreadsheet with the service account as editor)", err)
	default:
		return err
	}
}
