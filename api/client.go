package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/kaziflow-client/internal/config"
	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/internal/logging"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-ID"

// Client is the single configured transport to the KaziFlow backend.
// Authenticated calls carry the bearer credential from the token source on
// every request, so a logout takes effect on the next call.
type Client struct {
	baseURL string
	plain   *http.Client
	authed  *http.Client
}

// New builds a client for cfg. tokens is consulted on every authenticated request.
func New(cfg config.APIConfig, tokens oauth2.TokenSource) (*Client, error) {
	return NewWithTransport(cfg, tokens, http.DefaultTransport)
}

func NewWithTransport(cfg config.APIConfig, tokens oauth2.TokenSource, base http.RoundTripper) (*Client, error) {
	baseURL := strings.TrimRight(cfg.GetBaseURL(), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Errorf("[api New] invalid base URL %q", cfg.GetBaseURL())
	}
	if tokens == nil {
		return nil, errors.New("[api New] token source is required")
	}

	timeout := cfg.GetRequestTimeout()
	return &Client{
		baseURL: baseURL,
		plain:   &http.Client{Transport: base, Timeout: timeout},
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: base},
			Timeout:   timeout,
		},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) resolve(path string) string {
	return c.baseURL + path
}

func pathSegment(s string) string {
	return url.PathEscape(s)
}

// call issues one JSON request. body and out may be nil.
func (c *Client) call(ctx context.Context, client *http.Client, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[%s] failed to encode request", op)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return errors.Wrapf(err, "[%s] failed to build request", op)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := logging.From(ctx).With().Str("op", op).Str("request_id", requestID).Logger()
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotAuthenticated) {
			return errors.Wrapf(apperrors.ErrNotAuthenticated, "[%s] no credential", op)
		}
		logger.Debug().Err(err).Msg("API call failed")
		return &Error{Op: op, Kind: apperrors.ErrTransport, Detail: err.Error()}
	}
	defer resp.Body.Close()

	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("API call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newResponseError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Kind: apperrors.ErrServer, Detail: "malformed response: " + err.Error()}
	}
	return nil
}
