// Package client is a thin net/http + encoding/json wrapper around
// pkg/api's REST surface: one method per operation, mirroring the shape
// of a generated RPC client without the code generation.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-sci/meridian/pkg/types"
)

// Client talks to one running meridian project server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client targeting baseURL (e.g. "http://127.0.0.1:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListProtocols returns every protocol, optionally filtered by className.
func (c *Client) ListProtocols(className string) ([]*types.Protocol, error) {
	path := "/api/v1/protocols"
	if className != "" {
		path += "?class=" + url.QueryEscape(className)
	}
	var protocols []*types.Protocol
	if err := c.do(http.MethodGet, path, nil, &protocols); err != nil {
		return nil, err
	}
	return protocols, nil
}

// CreateProtocol instantiates a new protocol of className on the server.
func (c *Client) CreateProtocol(className, label, hostName string, inputs map[string]any) (*types.Protocol, error) {
	req := map[string]any{"className": className, "label": label, "hostName": hostName, "inputs": inputs}
	var p types.Protocol
	if err := c.do(http.MethodPost, "/api/v1/protocols", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProtocol fetches a single protocol by id.
func (c *Client) GetProtocol(id int64) (*types.Protocol, error) {
	var p types.Protocol
	if err := c.do(http.MethodGet, protocolPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProtocol removes a protocol.
func (c *Client) DeleteProtocol(id int64) error {
	return c.do(http.MethodDelete, protocolPath(id), nil, nil)
}

// LaunchProtocol starts (or schedules) the named protocol.
func (c *Client) LaunchProtocol(id int64) (*types.Protocol, error) {
	var p types.Protocol
	if err := c.do(http.MethodPost, protocolPath(id)+"/launch", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ScheduleProtocol marks the protocol SCHEDULED pending prerequisites.
func (c *Client) ScheduleProtocol(id int64, prerequisites []int64) (*types.Protocol, error) {
	req := map[string]any{"prerequisites": prerequisites}
	var p types.Protocol
	if err := c.do(http.MethodPost, protocolPath(id)+"/schedule", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// StopProtocol aborts a running protocol.
func (c *Client) StopProtocol(id int64) (*types.Protocol, error) {
	var p types.Protocol
	if err := c.do(http.MethodPost, protocolPath(id)+"/stop", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ResetProtocol clears a protocol's run state.
func (c *Client) ResetProtocol(id int64) (*types.Protocol, error) {
	var p types.Protocol
	if err := c.do(http.MethodPost, protocolPath(id)+"/reset", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ContinueProtocol relaunches a protocol waiting on an interactive step.
func (c *Client) ContinueProtocol(id int64) (*types.Protocol, error) {
	var p types.Protocol
	if err := c.do(http.MethodPost, protocolPath(id)+"/continue", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CopyProtocol clones a protocol's definition.
func (c *Client) CopyProtocol(id int64) (*types.Protocol, error) {
	var p types.Protocol
	if err := c.do(http.MethodPost, protocolPath(id)+"/copy", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExportWorkflow returns the workflow JSON document for the given
// protocol ids, or the whole project when ids is empty.
func (c *Client) ExportWorkflow(ids []int64) ([]byte, error) {
	path := "/api/v1/workflow/export"
	if len(ids) > 0 {
		strs := make([]string, len(ids))
		for i, id := range ids {
			strs[i] = strconv.FormatInt(id, 10)
		}
		path += "?ids=" + url.QueryEscape(strings.Join(strs, ","))
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export workflow: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("export workflow: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// ImportWorkflow loads a workflow JSON document into the project,
// returning the protocols it created.
func (c *Client) ImportWorkflow(data []byte) ([]*types.Protocol, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/workflow/import", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("import workflow: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("import workflow: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var imported []*types.Protocol
	if err := json.Unmarshal(body, &imported); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return imported, nil
}

// ListHosts returns every configured host name.
func (c *Client) ListHosts() ([]string, error) {
	var names []string
	if err := c.do(http.MethodGet, "/api/v1/hosts", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// GetHost fetches one host's configuration.
func (c *Client) GetHost(name string) (map[string]any, error) {
	var cfg map[string]any
	if err := c.do(http.MethodGet, "/api/v1/hosts/"+url.PathEscape(name), nil, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func protocolPath(id int64) string {
	return "/api/v1/protocols/" + strconv.FormatInt(id, 10)
}
