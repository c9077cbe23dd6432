// internal/salesforce/config.go
package salesforce

import (
	"errors"
	"strings"
	"time"
)

// Endpoints relative to Config.BaseURL.
const (
	TokenEndpoint         = "oauth2/token"
	ContactUpsertEndpoint = "apexrest/Web2SFDCcontactUpsert"
	OrderEndpoint         = "apexrest/Web2SFDCorder"
)

const defaultTimeout = 30 * time.Second

// requestsPerSync is the most CRM requests one sync makes: a token request,
// a POST and its redirected retry, once for the contact and once for the order.
const requestsPerSync = 6

var (
	ErrConfigMissingBaseURL      = errors.New("salesforce: base url is required")
	ErrConfigMissingClientID     = errors.New("salesforce: client id is required")
	ErrConfigMissingClientSecret = errors.New("salesforce: client secret is required")
	ErrConfigMissingUsername     = errors.New("salesforce: username is required")
	ErrConfigMissingPassword     = errors.New("salesforce: password is required")
)

// Config holds the CRM connection settings.
type Config struct {
	// BaseURL ends with a slash, e.g. https://example.my.salesforce.com/services/
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Timeout      time.Duration
	// TokenTTL is how long an access token is reused. Zero disables caching.
	TokenTTL time.Duration
}

// MaxSyncDuration is the longest a single sync can wait on the CRM.
func (c Config) MaxSyncDuration() time.Duration {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return requestsPerSync * timeout
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.Username == "" {
		return ErrConfigMissingUsername
	}
	if c.Password == "" {
		return ErrConfigMissingPassword
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.TokenTTL < 0 {
		c.TokenTTL = 0
	}
	return nil
}
