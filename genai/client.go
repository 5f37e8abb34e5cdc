package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	apiVersion     = "v1beta"
)

// Options configure the Client.
type Options struct {
	// BaseURL overrides the API endpoint (used by tests).
	BaseURL string
	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
}

// Client calls the Generative Language API with a fixed API key. The key is
// held in memory only; the zero value is not usable, construct via NewClient.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client authenticating with the given API key.
func NewClient(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{apiKey: apiKey, baseURL: opts.BaseURL, httpClient: opts.HTTPClient}
}

// CreateStore creates a new, empty file search store with the given display
// name. Repeated calls create distinct stores; names are not deduplicated.
func (c *Client) CreateStore(ctx context.Context, displayName string) (*Store, error) {
	in := struct {
		DisplayName string `json:"displayName,omitempty"`
	}{DisplayName: displayName}
	var out Store
	if err := c.doJSON(ctx, http.MethodPost, c.url("fileSearchStores"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStore fetches a store by its exact resource name
// (fileSearchStores/...). Missing stores yield an APIError satisfying
// IsNotFound.
func (c *Client) GetStore(ctx context.Context, name string) (*Store, error) {
	var out Store
	if err := c.doJSON(ctx, http.MethodGet, c.url(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStores returns all file search stores owned by the key's project,
// following pagination.
func (c *Client) ListStores(ctx context.Context) ([]*Store, error) {
	var stores []*Store
	pageToken := ""
	for {
		u := c.url("fileSearchStores")
		if pageToken != "" {
			u += "?pageToken=" + url.QueryEscape(pageToken)
		}
		var out struct {
			FileSearchStores []*Store `json:"fileSearchStores"`
			NextPageToken    string   `json:"nextPageToken"`
		}
		if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
			return nil, err
		}
		stores = append(stores, out.FileSearchStores...)
		if out.NextPageToken == "" {
			return stores, nil
		}
		pageToken = out.NextPageToken
	}
}

// DeleteStore removes a store. With force set, contained documents are
// deleted as well.
func (c *Client) DeleteStore(ctx context.Context, name string, force bool) error {
	u := c.url(name)
	if force {
		u += "?force=true"
	}
	return c.doJSON(ctx, http.MethodDelete, u, nil, nil)
}

// ImportFile asks the service to chunk and index a previously uploaded file
// into the store, attaching the given custom metadata. The returned
// Operation must be polled until done.
func (c *Client) ImportFile(ctx context.Context, storeName, fileName string, meta []CustomMetadata) (*Operation, error) {
	in := struct {
		FileName       string           `json:"fileName"`
		CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
	}{FileName: fileName, CustomMetadata: meta}
	var out Operation
	if err := c.doJSON(ctx, http.MethodPost, c.url(storeName+":importFile"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOperation re-fetches a long-running operation by name, refreshing its
// completion flag and response payload.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	var out Operation
	if err := c.doJSON(ctx, http.MethodGet, c.url(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateContent runs one synchronous generation call against the model.
// Retrieval grounding is activated by attaching a FileSearch tool to req.
func (c *Client) GenerateContent(ctx context.Context, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	var out GenerateContentResponse
	u := c.url("models/" + model + ":generateContent")
	if err := c.doJSON(ctx, http.MethodPost, u, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, apiVersion, path)
}

// doJSON performs one JSON request/response round trip. A nil out discards
// the response body; non-2xx statuses are decoded into *APIError.
func (c *Client) doJSON(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("genai: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes the request and decodes the response into out.
func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("x-goog-api-key", c.apiKey)
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeAPIError(res.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(statusCode int, data []byte) error {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Message = payload.Error.Message
		apiErr.Status = payload.Error.Status
	}
	return apiErr
}
