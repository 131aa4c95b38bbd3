package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// restClient talks JSON to a provider's administration API.
type restClient struct {
	baseURL string
	headers map[string]string
	http    *http.Client
}

func newRESTClient(baseURL string, headers map[string]string, client *http.Client) *restClient {
	if client == nil {
		client = NewHTTPClient(3)
	}
	return &restClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: headers,
		http:    client,
	}
}

// do sends body as JSON and decodes a 2xx response into out when out is not
// nil. It returns the status code, and an error for non-2xx responses.
func (c *restClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("%v %v: status %v: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}

	return resp.StatusCode, nil
}

// NewHTTPClient returns a client retrying failed requests up to retries
// times.
func NewHTTPClient(retries int) *http.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = retries
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client.StandardClient()
}
