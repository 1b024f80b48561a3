// Package patchwork talks to the Patchwork REST API and keeps the tracker in
// sync with the decisions of a review session.
package patchwork

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"

	"github.com/sevigo/patch-warden/internal/patch"
)

const defaultTimeout = 10 * time.Second

// Filter selects patches when listing.
type Filter struct {
	Project   string   `url:"project,omitempty"`
	States    []string `url:"state,omitempty"`
	Delegate  string   `url:"delegate,omitempty"`
	Submitter string   `url:"submitter,omitempty"`
	Series    int      `url:"series,omitempty"`
	Query     string   `url:"q,omitempty"`
	Order     string   `url:"order,omitempty"`
	Archived  *bool    `url:"archived,omitempty"`
	PerPage   int      `url:"per_page,omitempty"`
}

// EventFilter selects entries of the event log.
type EventFilter struct {
	Patch    int    `url:"patch,omitempty"`
	Project  string `url:"project,omitempty"`
	Category string `url:"category,omitempty"`
	PerPage  int    `url:"per_page,omitempty"`
}

// Update holds the fields to change on a patch. Nil fields are left alone.
type Update struct {
	State    *string `json:"state,omitempty"`
	Delegate *int    `json:"delegate,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}

// Page is one page of a patch listing.
type Page struct {
	Records []patch.Record
	// Next is the URL of the following page, empty on the last one.
	Next string
}

// Event is one entry of a patch's event log.
type Event struct {
	ID       int             `json:"id"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
	Actor    *patch.User     `json:"actor"`
	Payload  json.RawMessage `json:"payload"`
}

// Client is the subset of the Patchwork API used by the review workflow.
//
//go:generate mockgen -destination=../../mocks/mock_patchwork_client.go -package=mocks -mock_names=Client=MockPatchworkClient . Client
type Client interface {
	ListPatches(ctx context.Context, filter Filter, pageURL string) (Page, error)
	GetPatch(ctx context.Context, id int) (patch.Record, error)
	UpdatePatch(ctx context.Context, id int, update Update) (patch.Record, error)
	GetMbox(ctx context.Context, mboxURL string) (string, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Options configure the HTTP client.
type Options struct {
	// BaseURL is the API root, e.g. https://patchwork.kernel.org/api/1.1
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewClient returns a client for the Patchwork API. Without a token only
// read operations succeed.
func NewClient(ctx context.Context, opts Options, logger *slog.Logger) Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := &http.Client{Timeout: timeout}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token, TokenType: "Token"},
		)
		hc = oauth2.NewClient(ctx, ts)
		hc.Timeout = timeout
	}

	return &httpClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		logger:  logger,
	}
}

func (c *httpClient) ListPatches(ctx context.Context, filter Filter, pageURL string) (Page, error) {
	if pageURL == "" {
		v, err := query.Values(filter)
		if err != nil {
			return Page{}, fmt.Errorf("failed to encode patch filter: %w", err)
		}
		pageURL = c.baseURL + "/patches/"
		if len(v) > 0 {
			pageURL += "?" + v.Encode()
		}
	}

	var records []patch.Record
	header, err := c.do(ctx, "list patches", 0, http.MethodGet, pageURL, nil, &records)
	if err != nil {
		return Page{}, err
	}
	return Page{Records: records, Next: nextLink(header.Get("Link"))}, nil
}

func (c *httpClient) GetPatch(ctx context.Context, id int) (patch.Record, error) {
	var rec patch.Record
	_, err := c.do(ctx, "get patch", id, http.MethodGet, c.patchURL(id), nil, &rec)
	return rec, err
}

func (c *httpClient) UpdatePatch(ctx context.Context, id int, update Update) (patch.Record, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return patch.Record{}, fmt.Errorf("failed to encode patch update: %w", err)
	}

	var rec patch.Record
	_, err = c.do(ctx, "update patch", id, http.MethodPatch, c.patchURL(id), body, &rec)
	if err != nil {
		c.logger.Error("failed to update patch", "patch_id", id, "error", err)
		return patch.Record{}, err
	}
	return rec, nil
}

func (c *httpClient) GetMbox(ctx context.Context, mboxURL string) (string, error) {
	var raw []byte
	_, err := c.do(ctx, "get mbox", 0, http.MethodGet, mboxURL, nil, &raw)
	return string(raw), err
}

func (c *httpClient) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	v, err := query.Values(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event filter: %w", err)
	}

	pageURL := c.baseURL + "/events/"
	if len(v) > 0 {
		pageURL += "?" + v.Encode()
	}

	var all []Event
	for pageURL != "" {
		var events []Event
		header, err := c.do(ctx, "list events", filter.Patch, http.MethodGet, pageURL, nil, &events)
		if err != nil {
			return all, err
		}
		all = append(all, events...)
		pageURL = nextLink(header.Get("Link"))
	}
	return all, nil
}

func (c *httpClient) patchURL(id int) string {
	return c.baseURL + "/patches/" + strconv.Itoa(id) + "/"
}

// do performs one request. A *[]byte out receives the raw body, anything
// else is decoded as JSON.
func (c *httpClient) do(ctx context.Context, op string, patchID int, method, rawURL string, body []byte, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &TrackerError{Kind: KindTransport, Op: op, PatchID: patchID, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("patchwork request", "method", method, "url", rawURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TrackerError{Kind: KindTransport, Op: op, PatchID: patchID, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TrackerError{Kind: KindTransport, Op: op, PatchID: patchID, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 300 {
		return nil, &TrackerError{
			Kind:    kindForStatus(resp.StatusCode),
			Op:      op,
			PatchID: patchID,
			Status:  resp.StatusCode,
			Err:     errors.New(apiDetail(data)),
		}
	}

	switch v := out.(type) {
	case nil:
	case *[]byte:
		*v = data
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return nil, &TrackerError{Kind: KindRejected, Op: op, PatchID: patchID, Status: resp.StatusCode, Err: fmt.Errorf("invalid response: %w", err)}
		}
	}
	return resp.Header, nil
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindTransport
	default:
		return KindRejected
	}
}

// apiDetail extracts the "detail" field of an error response.
func apiDetail(data []byte) string {
	var resp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &resp); err == nil && resp.Detail != "" {
		return resp.Detail
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}

var linkRegexp = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?([a-z]+)"?`)

// nextLink returns the rel="next" target of a Link header.
func nextLink(header string) string {
	for _, m := range linkRegexp.FindAllStringSubmatch(header, -1) {
		if m[2] == "next" {
			return m[1]
		}
	}
	return ""
}
