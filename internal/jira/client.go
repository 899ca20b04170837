// Package jira implements the issue store over the JIRA REST API.
package jira

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/danielolaszy/starburst/internal/config"
	"github.com/danielolaszy/starburst/internal/logging"
)

const (
	// pageSize is the number of issues requested per search page.
	pageSize = 100
	// keyBatchSize is the number of keys per "key in (...)" query.
	keyBatchSize = 50
	// DefaultExtraLabelsField is the custom field holding extra labels.
	DefaultExtraLabelsField = "customfield_12001"
)

// Client handles interactions with the JIRA API
type Client struct {
	client           *jira.Client
	baseURL          string
	requestTimeout   time.Duration
	extraLabelsField string
	fields           []string
}

// NewClient creates a new JIRA client. A username selects basic auth with the
// token as password; otherwise the token is sent as a bearer PAT.
func NewClient(cfg config.JiraConfig) (*Client, error) {
	if err := config.ValidateJiraConfig(&config.Config{Jira: cfg}); err != nil {
		return nil, err
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.RejectUnauthorized {
		logging.Warn("TLS verification disabled for JIRA", "base_url", cfg.BaseURL)
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	var transport http.RoundTripper = base
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		transport = &rateLimitedTransport{
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
			base:    transport,
		}
	}

	var httpClient *http.Client
	if cfg.Username != "" {
		tp := jira.BasicAuthTransport{
			Username:  cfg.Username,
			Password:  cfg.Token,
			Transport: transport,
		}
		httpClient = tp.Client()
	} else {
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
				Base:   transport,
			},
		}
	}

	client, err := jira.NewClient(httpClient, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create JIRA client: %w", err)
	}

	extraField := cfg.ExtraLabelsField
	if extraField == "" {
		extraField = DefaultExtraLabelsField
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logging.Debug("JIRA client created",
		"base_url", cfg.BaseURL,
		"basic_auth", cfg.Username != "",
		"token", logging.MaskSensitive(cfg.Token))

	return &Client{
		client:           client,
		baseURL:          cfg.BaseURL,
		requestTimeout:   timeout,
		extraLabelsField: extraField,
		fields:           issueFields(extraField),
	}, nil
}

// BaseURL returns the JIRA base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// issueFields lists the fields requested by every search.
func issueFields(extraField string) []string {
	return []string{
		"key",
		"summary",
		"issuetype",
		"status",
		"project",
		"fixVersions",
		"issuelinks",
		extraField,
		"statuscategory",
		"assignee",
	}
}

// rateLimitedTransport waits on a shared limiter before every request.
type rateLimitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// withTimeout bounds a single request by the configured request timeout.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.requestTimeout)
}
