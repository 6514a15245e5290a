// Package api implements the PythonAnywhere HTTP API client used to obtain
// and drive a remote bash console.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caktus/paw/internal/config"
	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/logger"
	"github.com/cenkalti/backoff/v4"
)

// transportAttempts is how many times a request is retried on transport
// failure before giving up. Server responses, even 5xx, are not retried.
const transportAttempts = 3

// transportRetryInterval is the pause between transport retries.
// A variable so tests can shorten it.
var transportRetryInterval = time.Second

// Client talks to the PythonAnywhere API for a single account.
type Client struct {
	Username string

	scheme   string
	hostname string
	token    string
	http     *http.Client
	log      logger.Logger
}

// NewClient creates a client for the account in cfg.
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewEnvLogger("[api]")
	}
	return &Client{
		Username: cfg.Username,
		scheme:   "https",
		hostname: cfg.Hostname(),
		token:    cfg.Token,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// BaseURL returns the API endpoint for a resource flavor, without a trailing
// slash: https://<hostname>/api/v0/user/<username>/<flavor>
func (c *Client) BaseURL(flavor string) string {
	return fmt.Sprintf("%s://%s/api/v0/user/%s/%s", c.scheme, c.hostname, c.Username, flavor)
}

// ConsolePageURL returns the browser URL for a console page path.
func (c *Client) ConsolePageURL(path string) string {
	return c.scheme + "://" + c.hostname + path
}

// Request performs an authenticated API request. The URL is normalized to a
// single trailing slash, matching what the API expects. A non-2xx response is
// returned along with a structured error when raiseForStatus is true;
// callers that branch on status codes pass false and inspect the response.
func (c *Client) Request(method, url string, body interface{}, raiseForStatus bool) (*http.Response, error) {
	url = strings.TrimRight(url, "/") + "/"

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrAPI,
				"Couldn't encode the request body", "")
		}
	}

	var resp *http.Response
	operation := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequest(method, url, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Token "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err = c.http.Do(req)
		return err
	}

	// Bounded retry on transport errors only, mirroring the original
	// client's mounted retry adapter.
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(transportRetryInterval), transportAttempts-1)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAPI,
			fmt.Sprintf("Couldn't reach the API at %s", url),
			"Check your network connection and PYTHONANYWHERE_SITE/DOMAIN settings")
	}

	c.log.Debug("API response: %s %s -> %d", method, url, resp.StatusCode)

	if raiseForStatus && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		defer resp.Body.Close()
		detail := readErrorDetail(resp)
		suggestion := ""
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			suggestion = "Check API_USER and API_TOKEN"
		}
		return resp, errors.New(errors.ErrAPI,
			fmt.Sprintf("API request failed: %s %s returned %d%s", method, url, resp.StatusCode, detail),
			suggestion)
	}

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(url string, out interface{}) error {
	resp, err := c.Request(http.MethodGet, url, nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI,
			"Couldn't decode the API response",
			"The API may have returned an unexpected payload; re-run with PAW_DEBUG=1")
	}
	return nil
}

// PostJSON performs a POST request and decodes the JSON response into out.
// Pass a nil out to discard the response body.
func (c *Client) PostJSON(url string, body, out interface{}) error {
	resp, err := c.Request(http.MethodPost, url, body, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI,
			"Couldn't decode the API response",
			"The API may have returned an unexpected payload; re-run with PAW_DEBUG=1")
	}
	return nil
}

// readErrorDetail extracts a short error detail string from a failed response
// body, if the API sent one.
func readErrorDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil || len(data) == 0 {
		return ""
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if detail, ok := parsed["detail"].(string); ok {
			return ": " + detail
		}
		if errMsg, ok := parsed["error"].(string); ok {
			return ": " + errMsg
		}
	}
	return ""
}
