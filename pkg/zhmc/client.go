// Package zhmc is a client for the IBM Z Hardware Management Console (HMC)
// Web Services API. It covers session management, CPC and adapter resources,
// Support Element firmware operations, DPM configuration transfer, hardware
// messages, and polling of asynchronous HMC jobs.
package zhmc

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultPort is the port of the HMC Web Services API.
	DefaultPort = 6794

	// DefaultTimeout is the per-request HTTP timeout. Slow HMC operations
	// are asynchronous jobs, so plain requests do not need more than this.
	DefaultTimeout = 120 * time.Second

	UserAgent = "zhmc-go/1.0.0"

	sessionHeader = "X-API-Session"
)

// Client is the main API client for the HMC Web Services API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userid     string
	password   string
	userAgent  string
	log        *logrus.Entry

	skipTLSVerify bool
	caCertPool    *x509.CertPool

	mu        sync.Mutex
	sessionID string

	// API Services
	CPC     *CPCService
	Adapter *AdapterService
	Console *ConsoleService
	Message *HardwareMessageService
	Job     *JobService
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL, replacing the https://host:6794
// default. Mainly used by tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets a custom user agent.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets a logger for request/response debug logging.
func WithLogger(log *logrus.Entry) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithSkipTLSVerify disables verification of the HMC server certificate.
// HMCs commonly run with self-signed certificates.
func WithSkipTLSVerify(skip bool) ClientOption {
	return func(c *Client) {
		c.skipTLSVerify = skip
	}
}

// WithCACertPool sets the CA certificates used to verify the HMC server
// certificate.
func WithCACertPool(pool *x509.CertPool) ClientOption {
	return func(c *Client) {
		c.caCertPool = pool
	}
}

// WithSessionID resumes an existing HMC session instead of logging on.
func WithSessionID(sessionID string) ClientOption {
	return func(c *Client) {
		c.sessionID = sessionID
	}
}

// NewClient creates a new HMC API client for the given HMC host.
// No logon happens until the first request is made.
func NewClient(host, userid, password string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   fmt.Sprintf("https://%s:%d", host, DefaultPort),
		userid:    userid,
		password:  password,
		userAgent: UserAgent,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: c.skipTLSVerify, // #nosec G402
					RootCAs:            c.caCertPool,
				},
			},
		}
	}

	// Initialize services
	c.CPC = NewCPCService(c)
	c.Adapter = NewAdapterService(c)
	c.Console = NewConsoleService(c)
	c.Message = NewHardwareMessageService(c)
	c.Job = NewJobService(c)

	return c
}

// New creates a new HMC API client (alias for NewClient).
func New(host, userid, password string, opts ...ClientOption) *Client {
	return NewClient(host, userid, password, opts...)
}

type logonRequest struct {
	Userid   string `json:"userid"`
	Password string `json:"password"`
}

type logonResponse struct {
	APISession           string `json:"api-session"`
	NotificationTopic    string `json:"notification-topic,omitempty"`
	SessionCredential    string `json:"session-credential,omitempty"`
	APIMajorVersion      int    `json:"api-major-version,omitempty"`
	APIMinorVersion      int    `json:"api-minor-version,omitempty"`
	PasswordExpires      int    `json:"password-expires,omitempty"`
	ShownUserName        string `json:"shown-user-name,omitempty"`
	SessionIdleTimeout   int    `json:"session-idle-timeout,omitempty"`
	SharedSecretRequired bool   `json:"shared-secret-required,omitempty"`
}

// Logon creates a new HMC session. It is called automatically on the first
// request and after session expiry, but can be invoked explicitly to verify
// credentials.
func (c *Client) Logon(ctx context.Context) error {
	if c.userid == "" || c.password == "" {
		return NewAuthError("userid and password are required for logon")
	}

	var result logonResponse
	err := c.roundTrip(ctx, http.MethodPost, "/api/sessions", nil,
		logonRequest{Userid: c.userid, Password: c.password}, &result, false)
	if err != nil {
		return err
	}
	if result.APISession == "" {
		return NewAuthError("logon response did not contain an api-session token")
	}

	c.mu.Lock()
	c.sessionID = result.APISession
	c.mu.Unlock()

	c.log.WithField("userid", c.userid).Debug("logged on to HMC")
	return nil
}

// Logoff deletes the current HMC session.
func (c *Client) Logoff(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		return nil
	}

	err := c.roundTrip(ctx, http.MethodDelete, "/api/sessions/this-session",
		nil, nil, nil, true)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()
	return nil
}

// SessionID returns the token of the current HMC session, or "" when not
// logged on.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// ensureSession logs on if there is no session yet.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.SessionID() != "" {
		return nil
	}
	return c.Logon(ctx)
}

// roundTrip executes one HTTP request. withSession controls whether the
// X-API-Session header is sent; the logon request itself must not send it.
func (c *Client) roundTrip(ctx context.Context, method, path string,
	query url.Values, body, result any, withSession bool) error {

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return NewParseError("failed to marshal request body", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return NewNetworkError("failed to create request", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withSession {
		req.Header.Set(sessionHeader, c.SessionID())
	}

	c.log.WithFields(logrus.Fields{"method": method, "url": reqURL}).
		Debug("HMC request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewNetworkError("request failed", err)
	}
	return c.handleResponse(resp, result)
}

// handleResponse processes the HTTP response and maps errors.
func (c *Client) handleResponse(resp *http.Response, result any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}

	c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "bytes": len(body)}).
		Debug("HMC response")

	if resp.StatusCode >= 400 {
		hmcErr := &HMCError{}
		if err := json.Unmarshal(body, hmcErr); err != nil || hmcErr.HTTPStatus == 0 {
			hmcErr = &HMCError{
				HTTPStatus: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
			}
		}
		return NewAPIError(hmcErr)
	}

	if resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return nil
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return NewParseError("failed to unmarshal response", err)
		}
	}
	return nil
}

// request executes an authenticated request, logging on first if needed and
// retrying once with a fresh session when the HMC reports session expiry.
func (c *Client) request(ctx context.Context, method, path string,
	query url.Values, body, result any) error {

	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	err := c.roundTrip(ctx, method, path, query, body, result, true)
	if isSessionExpired(err) {
		if err := c.Logon(ctx); err != nil {
			return err
		}
		err = c.roundTrip(ctx, method, path, query, body, result, true)
	}
	return err
}

// Get performs a GET request against an HMC URI.
func (c *Client) Get(ctx context.Context, path string, query url.Values, result any) error {
	return c.request(ctx, http.MethodGet, path, query, nil, result)
}

// Post performs a POST request with a JSON body. The HMC uses POST both for
// property updates and for operations.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.request(ctx, http.MethodPost, path, nil, body, result)
}

// Delete performs a DELETE request against an HMC URI.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil, nil)
}
