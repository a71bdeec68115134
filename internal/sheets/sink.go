package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gradient/internal/config"
)

// Sink is the spreadsheet collaborator the export synchronizer appends to.
type Sink interface {
	AppendRows(ctx context.Context, rows [][]string) error
	UpdateCell(ctx context.Context, row, col int, value string) error
}

// Client implements Sink against a Sheets-style REST API.
type Client struct {
	baseURL       string
	token         string
	spreadsheetID string
	httpClient    *http.Client
}

func NewClient(cfg config.SheetsConfig) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		token:         cfg.Token,
		spreadsheetID: cfg.SpreadsheetID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type valueRange struct {
	Values [][]string `json:"values"`
}

// AppendRows pushes all rows in one batch append. The caller treats a
// returned error as "nothing was written".
func (c *Client) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf(
		"%s/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.baseURL, c.spreadsheetID, url.PathEscape("A:Z"),
	)
	return c.postJSON(ctx, endpoint, valueRange{Values: rows})
}

// UpdateCell overwrites a single cell (1-based row and column).
func (c *Client) UpdateCell(ctx context.Context, row, col int, value string) error {
	cell := columnName(col) + fmt.Sprint(row)
	endpoint := fmt.Sprintf(
		"%s/spreadsheets/%s/values/%s?valueInputOption=RAW",
		c.baseURL, c.spreadsheetID, url.PathEscape(cell),
	)
	return c.postJSON(ctx, endpoint, valueRange{Values: [][]string{{value}}})
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheet sink error: %d", resp.StatusCode)
	}
	return nil
}

// columnName converts a 1-based column index to A1 notation (1 -> A,
// 27 -> AA).
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
