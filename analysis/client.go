package analysis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"wow_check/analysis/oauth"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Executor sends one GraphQL document and returns the data member of the
// response.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error)
}

type ExecutorFunc func(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error)

func (f ExecutorFunc) Execute(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error) {
	return f(ctx, query, variables)
}

// TransportError is returned for a non 2xx status or a response carrying
// GraphQL errors.
type TransportError struct {
	StatusCode int
	Messages   []string
	Body       string
}

func (e *TransportError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("graphql: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("graphql: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether repeating the request may succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

func IsTransportError(err error) bool {
	_, ok := errors.Cause(err).(*TransportError)
	return ok
}

// Client talks to the GraphQL endpoint with a bearer token from auth.
type Client struct {
	endpoint   string
	auth       oauth.Provider
	httpClient *http.Client
}

func NewClient(endpoint string, auth oauth.Provider) *Client {
	return &Client{
		endpoint:   endpoint,
		auth:       auth,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error) {
	header, err := c.auth.Header(ctx)
	if err != nil {
		return nil, err
	}

	buf := getBuffer()
	defer bytBufPool.Put(buf)

	err = jsoniter.NewEncoder(buf).Encode(&graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, buf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Content-Type", "application/json; encoding=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.Reset()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var gr graphQLResponse
	err = jsoniter.Unmarshal(body, &gr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(gr.Errors) > 0 {
		te := &TransportError{StatusCode: resp.StatusCode}
		for _, e := range gr.Errors {
			te.Messages = append(te.Messages, e.Message)
		}
		return nil, te
	}

	return gr.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
