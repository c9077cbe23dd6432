// internal/salesforce/client.go
package salesforce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"crmsync-service/internal/metrics"
)

const maxRedirects = 10

var (
	ErrAuthFailed          = errors.New("salesforce: authentication failed")
	ErrUpstreamUnavailable = errors.New("salesforce: upstream unavailable")
	ErrUnauthorized        = errors.New("salesforce: unauthorized")
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	InstanceURL string `json:"instance_url"`
}

// Client authenticates against the CRM and posts JSON payloads to its apex endpoints.
type Client struct {
	cfg     *Config
	rest    *resty.Client
	cache   TokenCache
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewClient validates cfg and builds a client. cache and reg may be nil.
func NewClient(cfg *Config, cache TokenCache, reg *metrics.Registry, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rest := resty.New().
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())

	return &Client{
		cfg:     cfg,
		rest:    rest,
		cache:   cache,
		metrics: reg,
		logger:  logger,
	}, nil
}

// GetToken returns an access token using the OAuth2 password grant.
// Every failure wraps ErrAuthFailed.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if token, ok := c.cachedToken(ctx); ok {
		c.metrics.ObserveToken("cache", "hit")
		return token, nil
	}

	token, err := c.requestToken(ctx)
	if err != nil {
		c.metrics.ObserveToken("remote", "error")
		return "", err
	}
	c.metrics.ObserveToken("remote", "ok")

	if c.cache != nil && c.cfg.TokenTTL > 0 {
		if err := c.cache.Set(ctx, token, c.cfg.TokenTTL); err != nil {
			c.logger.Warn("failed to cache salesforce token", zap.Error(err))
		}
	}
	return token, nil
}

func (c *Client) cachedToken(ctx context.Context) (string, bool) {
	if c.cache == nil || c.cfg.TokenTTL <= 0 {
		return "", false
	}
	token, ok, err := c.cache.Get(ctx)
	if err != nil {
		c.logger.Warn("failed to read cached salesforce token", zap.Error(err))
		return "", false
	}
	return token, ok
}

// requestToken sends the grant as query parameters on an empty POST.
func (c *Client) requestToken(ctx context.Context) (string, error) {
	var tr tokenResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":    "password",
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"username":      c.cfg.Username,
			"password":      c.cfg.Password,
		}).
		ForceContentType("application/json").
		SetResult(&tr).
		Post(c.cfg.BaseURL + TokenEndpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, redactURLError(err))
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: HTTP %d", ErrAuthFailed, resp.StatusCode())
	}
	if strings.TrimSpace(tr.AccessToken) == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}

	return tr.AccessToken, nil
}

// Call posts payload to endpoint with a bearer token and returns the response body.
//
// A 401 whose final request URL differs from the requested one (the request
// was redirected) is retried exactly once against the final URL.
func (c *Client) Call(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.call(ctx, c.cfg.BaseURL+endpoint, token, payload)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.ObserveCall(endpoint, outcome, time.Since(start))
	return body, err
}

func (c *Client) call(ctx context.Context, target, token string, payload []byte) ([]byte, error) {
	resp, err := c.post(ctx, target, token, payload)
	if err != nil {
		return nil, err
	}

	if finalURL := redirectedURL(resp); resp.StatusCode() == http.StatusUnauthorized && finalURL != "" {
		c.logger.Info("retrying salesforce call at redirected url",
			zap.String("requested", target),
			zap.String("final", finalURL),
		)
		resp, err = c.post(ctx, finalURL, token, payload)
		if err != nil {
			return nil, err
		}
	}

	status := resp.StatusCode()
	if status == http.StatusUnauthorized {
		if c.cache != nil {
			if err := c.cache.Invalidate(ctx); err != nil {
				c.logger.Warn("failed to invalidate cached salesforce token", zap.Error(err))
			}
		}
		return nil, fmt.Errorf("%w: %w: HTTP %d", ErrUpstreamUnavailable, ErrUnauthorized, status)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, status)
	}

	return resp.Body(), nil
}

func (c *Client) post(ctx context.Context, target, token string, payload []byte) (*resty.Response, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// redirectedURL returns the URL the response was finally served from, or ""
// when the request was not redirected.
func redirectedURL(resp *resty.Response) string {
	raw := resp.RawResponse
	if raw == nil || raw.Request == nil || raw.Request.URL == nil {
		return ""
	}
	final := raw.Request.URL.String()

	requested := resp.Request.URL
	if resp.Request.RawRequest != nil && resp.Request.RawRequest.URL != nil {
		requested = resp.Request.RawRequest.URL.String()
	}
	if final == requested {
		return ""
	}
	return final
}

// redactURLError drops the request URL, which carries credentials, from transport errors.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
