// Package httpsheet reads sheets from a JSON web endpoint such as a
// spreadsheet publishing script.
//
// The endpoint is called as GET <url>?sheet=<name> and must answer with a
// JSON array of objects, one per row. An object body carrying an "error"
// member is treated as a failure.
package httpsheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// DefaultTimeout bounds a single sheet request when the client has none.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// ServerError is a failure reported by the endpoint in its response body.
type ServerError struct {
	Sheet   core.SheetName
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	return fmt.Sprintf("server error for sheet %s: %s", e.Sheet, msg)
}

// Client fetches sheets over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ core.SheetLoader = (*Client)(nil)

// New creates a Client with its own http.Client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// SheetURL returns the request URL for a sheet.
func (c *Client) SheetURL(name core.SheetName) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	q := u.Query()
	q.Set("sheet", string(name))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// LoadSheet implements core.SheetLoader.
func (c *Client) LoadSheet(ctx context.Context, name core.SheetName) (core.Table, error) {
	target, err := c.SheetURL(name)
	if err != nil {
		return core.Table{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return core.Table{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return core.Table{}, fmt.Errorf("fetch sheet %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return core.Table{}, fmt.Errorf("fetch sheet %s: HTTP %d: %s",
			name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	t, err := Decode(resp.Body)
	var serr *ServerError
	if errors.As(err, &serr) {
		serr.Sheet = name
		return core.Table{}, serr
	}
	if err != nil {
		return core.Table{}, fmt.Errorf("decode sheet %s: %w", name, err)
	}
	return t, nil
}

// Decode reads a JSON array of row objects. Key order is kept as the column
// order; keys first seen in later rows are appended. Scalars are rendered as
// their text, null members are absent, nested values are kept as raw JSON.
func Decode(r io.Reader) (core.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return core.Table{}, nil
	}
	if err != nil {
		return core.Table{}, err
	}

	switch tok {
	case json.Delim('['):
	case json.Delim('{'):
		_, obj, err := readObject(dec)
		if err != nil {
			return core.Table{}, err
		}
		if code := obj["error"]; code != "" && code != "false" && code != "0" {
			return core.Table{}, &ServerError{Code: code, Message: obj["message"]}
		}
		return core.Table{}, errors.New("expected an array of rows, got an object")
	default:
		return core.Table{}, fmt.Errorf("expected an array of rows, got %v", tok)
	}

	var (
		t    core.Table
		seen = make(map[string]struct{})
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return core.Table{}, err
		}
		if tok != json.Delim('{') {
			return core.Table{}, fmt.Errorf("row %d: expected an object, got %v", len(t.Rows)+1, tok)
		}
		keys, row, err := readObject(dec)
		if err != nil {
			return core.Table{}, fmt.Errorf("row %d: %w", len(t.Rows)+1, err)
		}
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	if _, err := dec.Token(); err != nil {
		return core.Table{}, err
	}
	return t, nil
}

// readObject reads the members of an object whose opening brace has been
// consumed. keys lists every member in document order, including nulls.
func readObject(dec *json.Decoder) ([]string, core.Row, error) {
	var keys []string
	row := make(core.Row)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected a member name, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("member %q: %w", key, err)
		}

		keys = append(keys, key)
		if v, present := scalarText(raw); present {
			row[key] = v
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, row, nil
}

func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return "", false
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw), true
		}
		return s, true
	default:
		return string(raw), true
	}
}
