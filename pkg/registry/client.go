package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	vnet "github.com/mchmarny/varsig/pkg/net"
)

const (
	BaseURLDefault  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DatabaseDefault = "clinvar"

	searchPath  = "esearch.fcgi"
	summaryPath = "esummary.fcgi"
	retModeJSON = "json"

	redactedValue = "REDACTED"
)

// Options configure a registry Client. Zero values take the defaults.
type Options struct {
	BaseURL    string
	Database   string
	Timeout    time.Duration
	APIKey     string
	Tool       string
	Email      string
	HTTPClient *http.Client
}

// Client queries the NCBI E-utilities search and summary endpoints.
type Client struct {
	baseURL  string
	database string
	apiKey   string
	tool     string
	email    string
	http     *http.Client
}

// NewClient creates a registry client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		database: opts.Database,
		apiKey:   opts.APIKey,
		tool:     opts.Tool,
		email:    opts.Email,
		http:     opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = BaseURLDefault
	}
	if c.database == "" {
		c.database = DatabaseDefault
	}
	if c.http == nil {
		c.http = vnet.GetHTTPClient(opts.Timeout)
	}
	return c
}

type searchResponse struct {
	Result *struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR,omitempty"`
	} `json:"esearchresult"`
}

// Search returns candidate ids for term in registry order. A non-positive
// retMax leaves the page size to the registry.
func (c *Client) Search(ctx context.Context, term string, retMax int) ([]string, error) {
	q := c.query()
	q.Set("term", term)
	if retMax > 0 {
		q.Set("retmax", strconv.Itoa(retMax))
	}

	var resp searchResponse
	if err := vnet.GetJSON(ctx, c.http, c.endpoint(searchPath, q), &resp); err != nil {
		return nil, wrapError("search", c.redact(err))
	}

	if resp.Result == nil {
		slog.Debug("search response without result", "term", term)
		return nil, nil
	}
	if resp.Result.Error != "" {
		slog.Debug("search error reported", "term", term, "error", resp.Result.Error)
	}

	slog.Debug("search", "term", term, "count", resp.Result.Count, "ids", len(resp.Result.IDList))
	return resp.Result.IDList, nil
}

type summaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Summary fetches the summary record for one id.
func (c *Client) Summary(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNoRecord)
	}

	q := c.query()
	q.Set("id", id)

	var resp summaryResponse
	if err := vnet.GetJSON(ctx, c.http, c.endpoint(summaryPath, q), &resp); err != nil {
		return nil, wrapError("summary", c.redact(err))
	}

	raw, ok := resp.Result[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, id)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &Error{Kind: KindMalformed, Op: "summary", Err: fmt.Errorf("record %s: %w", id, err)}
	}
	if rec.UID == "" {
		rec.UID = id
	}

	return &rec, nil
}

func (c *Client) query() url.Values {
	q := url.Values{}
	q.Set("db", c.database)
	q.Set("retmode", retModeJSON)
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	if c.tool != "" {
		q.Set("tool", c.tool)
	}
	if c.email != "" {
		q.Set("email", c.email)
	}
	return q
}

// redact masks the API key in URLs carried by transport and status errors.
func (c *Client) redact(err error) error {
	if c.apiKey == "" {
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, c.apiKey, redactedValue)
	}
	var se *vnet.StatusError
	if errors.As(err, &se) {
		se.URL = strings.ReplaceAll(se.URL, c.apiKey, redactedValue)
	}
	return err
}

func (c *Client) endpoint(path string, q url.Values) string {
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())
}
