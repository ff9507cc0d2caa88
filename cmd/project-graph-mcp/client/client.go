package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lingy-Mg/project-graph/pkg/catalog"
	"github.com/lingy-Mg/project-graph/pkg/results"
)

const DefaultURL = "http://127.0.0.1:3100"

// StatusError is returned for any non 2xx answer from the bridge.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bridge answered %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("bridge answered %d: %s", e.Code, e.Message)
}

// Client talks to a running bridge over its HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
	}
}

func (c *Client) ListResources(ctx context.Context) ([]catalog.Resource, error) {
	var response struct {
		Resources []catalog.Resource `json:"resources"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/mcp/resources", nil, &response); err != nil {
		return nil, err
	}
	return response.Resources, nil
}

func (c *Client) ListTools(ctx context.Context) ([]catalog.Tool, error) {
	var response struct {
		Tools []catalog.Tool `json:"tools"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/mcp/tools", nil, &response); err != nil {
		return nil, err
	}
	return response.Tools, nil
}

func (c *Client) ListPrompts(ctx context.Context) ([]catalog.Prompt, error) {
	var response struct {
		Prompts []catalog.Prompt `json:"prompts"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/mcp/prompts", nil, &response); err != nil {
		return nil, err
	}
	return response.Prompts, nil
}

// ReadResource, CallTool and GetPrompt return the bridge's advisory answer
// as a generic document.
func (c *Client) ReadResource(ctx context.Context, uri string) (map[string]any, error) {
	var response map[string]any
	if _, err := c.do(ctx, http.MethodGet, "/mcp/resources/"+url.PathEscape(uri), nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding arguments: %w", err)
	}

	var response map[string]any
	if _, err := c.do(ctx, http.MethodPost, "/mcp/tools/"+url.PathEscape(name), body, &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) GetPrompt(ctx context.Context, name string) (map[string]any, error) {
	var response map[string]any
	if _, err := c.do(ctx, http.MethodGet, "/mcp/prompts/"+url.PathEscape(name), nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// Result fetches what is known about a ticket. pending is true while the
// application has not answered yet.
func (c *Client) Result(ctx context.Context, ticket string) (entry results.Entry, pending bool, err error) {
	code, err := c.do(ctx, http.MethodGet, "/mcp/results/"+url.PathEscape(ticket), nil, &entry)
	if err != nil {
		return results.Entry{}, false, err
	}
	return entry, code == http.StatusAccepted, nil
}

// ResultPath fetches the part of a completed result selected by a JSONPath
// expression.
func (c *Client) ResultPath(ctx context.Context, ticket, path string) (any, error) {
	var response struct {
		Value any `json:"value"`
	}
	code, err := c.do(ctx, http.MethodGet, "/mcp/results/"+url.PathEscape(ticket)+"?path="+url.QueryEscape(path), nil, &response)
	if err != nil {
		return nil, err
	}
	if code == http.StatusAccepted {
		return nil, &StatusError{Code: code, Message: "result is still pending"}
	}
	return response.Value, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		return 0, fmt.Errorf("contacting bridge: %w", err)
	}
	defer response.Body.Close()

	buf, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(buf, &failure)
		return response.StatusCode, &StatusError{Code: response.StatusCode, Message: failure.Error}
	}

	if err := json.Unmarshal(buf, out); err != nil {
		return response.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return response.StatusCode, nil
}
