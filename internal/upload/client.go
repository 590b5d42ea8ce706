// Package upload pushes an exported artifact into an external CAD
// application through its import endpoint.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrIntegrationFailure = errors.New("cad integration failed")

// IntegrationError carries the upstream status and body. Status is 0 for
// transport errors.
type IntegrationError struct {
	Status int
	Body   string
	Err    error
}

func (e *IntegrationError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("cad integration error: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("cad integration failed: status=%d body=%s: %v", e.Status, e.Body, e.Err)
	}
	return fmt.Sprintf("cad integration failed: status=%d body=%s", e.Status, e.Body)
}

func (e *IntegrationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIntegrationFailure}
	}
	return []error{ErrIntegrationFailure, e.Err}
}

// RemoteModel is the decoded success body. Value holds any JSON value;
// Raw and ID are filled only when it is an object.
type RemoteModel struct {
	ID    string
	Raw   map[string]any
	Value any
}

// Response is the decoded body as returned upstream, or an empty object when
// the body was empty.
func (m RemoteModel) Response() any {
	if m.Value == nil {
		return map[string]any{}
	}
	return m.Value
}

type Params struct {
	URL     string
	APIKey  string
	Timeout time.Duration

	HTTPClient *http.Client
	DebugOut   io.Writer
}

type Client struct {
	url      string
	apiKey   string
	http     *http.Client
	debugOut io.Writer
}

func New(p Params) (*Client, error) {
	u := strings.TrimSpace(p.URL)
	if u == "" {
		return nil, errors.New("upload url is empty")
	}
	hc := p.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: p.Timeout}
	}
	return &Client{
		url:      u,
		apiKey:   strings.TrimSpace(p.APIKey),
		http:     hc,
		debugOut: p.DebugOut,
	}, nil
}

func (c *Client) URL() string { return c.url }

// Upload makes exactly one POST of {"file_path": filePath}. There is no retry.
func (c *Client) Upload(ctx context.Context, filePath string) (RemoteModel, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(map[string]string{"file_path": filePath})
	if err != nil {
		return RemoteModel{}, &IntegrationError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return RemoteModel{}, &IntegrationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return RemoteModel{}, &IntegrationError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RemoteModel{}, &IntegrationError{Status: resp.StatusCode, Err: err}
	}
	if c.debugOut != nil {
		_, _ = fmt.Fprintf(c.debugOut, "debug upload_response url=%s status=%d body=%s\n", c.url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RemoteModel{}, &IntegrationError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	out := RemoteModel{Raw: map[string]any{}}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &out.Value); err != nil {
			return RemoteModel{}, &IntegrationError{
				Status: resp.StatusCode,
				Body:   strings.TrimSpace(string(body)),
				Err:    fmt.Errorf("decode response: %w", err),
			}
		}
	}
	if obj, ok := out.Value.(map[string]any); ok {
		out.Raw = obj
		out.ID = remoteID(obj)
	}
	return out, nil
}

func remoteID(raw map[string]any) string {
	for _, k := range []string{"id", "model_id", "urn"} {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
