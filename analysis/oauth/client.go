package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Tokens are refreshed this long before the server side expiry.
const expiryMargin = 300 * time.Second

// Provider hands out an Authorization header value.
type Provider interface {
	Header(ctx context.Context) (string, error)
	Reset()
}

// Client is a client credentials Provider. The token is cached until it
// is about to expire or Reset is called.
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string

	httpClient *http.Client
	now        func() time.Time

	headerLock    sync.Mutex
	headerValue   string
	headerExpires time.Time
}

func New(tokenURL, clientID, clientSecret string) *Client {
	return &Client{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   http.DefaultClient,
		now:          time.Now,
	}
}

// WithHTTPClient replaces the client used to request tokens.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) Reset() {
	c.headerLock.Lock()
	c.headerValue = ""
	c.headerLock.Unlock()
}

func (c *Client) Header(ctx context.Context) (string, error) {
	c.headerLock.Lock()
	defer c.headerLock.Unlock()

	now := c.now()
	if c.headerValue != "" && now.Before(c.headerExpires) {
		return c.headerValue, nil
	}

	form := url.Values{
		"grant_type": []string{"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer resp.Body.Close()

	var token struct {
		Error       string `json:"error"`
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	err = jsoniter.NewDecoder(resp.Body).Decode(&token)
	if err != nil {
		return "", errors.Wrapf(err, "token response, status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || token.Error != "" || token.AccessToken == "" {
		return "", errors.Errorf("token request failed: %d %s", resp.StatusCode, token.Error)
	}

	c.headerValue = fmt.Sprintf("Bearer %s", token.AccessToken)
	c.headerExpires = now.Add(time.Duration(token.ExpiresIn)*time.Second - expiryMargin)

	return c.headerValue, nil
}
