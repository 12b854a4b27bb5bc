// Package crm provides a Salesforce client: session lifecycle (login once,
// reuse until the CRM rejects it) and generic sobject create/update/query.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sales-conversation-service/internal/observability/logging"
	"sales-conversation-service/internal/observability/metrics"
)

// Credentials holds the login material supplied via the environment.
type Credentials struct {
	LoginURL      string
	Username      string
	Password      string
	SecurityToken string
}

// Client talks to the Salesforce SOAP login endpoint and REST sobject API.
type Client struct {
	httpClient *http.Client
	creds      Credentials
	apiVersion string
	sessions   *SessionStore
	metrics    *metrics.Metrics
}

// NewClient creates a CRM client sharing the given session store.
func NewClient(creds Credentials, apiVersion string, sessions *SessionStore) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
		apiVersion: apiVersion,
		sessions:   sessions,
		metrics:    metrics.DefaultMetrics,
	}
}

// APIError is a structured error response from the CRM.
type APIError struct {
	StatusCode int
	Details    []APIErrorDetail
}

// APIErrorDetail matches the JSON error objects Salesforce returns.
type APIErrorDetail struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("crm: %s (%s, status %d)", e.Details[0].Message, e.Details[0].ErrorCode, e.StatusCode)
	}
	return fmt.Sprintf("crm: request failed with status %d", e.StatusCode)
}

// AuthExpired reports whether the CRM rejected the call because the session
// token is no longer valid.
func (e *APIError) AuthExpired() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// EnsureSession returns the cached session, performing a login exchange only
// when no valid session is held.
func (c *Client) EnsureSession(ctx context.Context) (Session, error) {
	if sess := c.sessions.Get(); sess.Valid() {
		return sess, nil
	}
	sess, err := c.login(ctx)
	if err != nil {
		return Session{}, err
	}
	c.sessions.Set(sess)
	return sess, nil
}

// loginEnvelope is the SOAP login request body. The password field carries
// the password concatenated with the security token.
const loginEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:urn="urn:partner.soap.sforce.com">
  <soapenv:Body>
    <urn:login>
      <urn:username>%s</urn:username>
      <urn:password>%s</urn:password>
    </urn:login>
  </soapenv:Body>
</soapenv:Envelope>`

type loginResponse struct {
	XMLName   xml.Name `xml:"Envelope"`
	ServerURL string   `xml:"Body>loginResponse>result>serverUrl"`
	SessionID string   `xml:"Body>loginResponse>result>sessionId"`
}

func (c *Client) login(ctx context.Context) (Session, error) {
	endpoint := strings.TrimRight(c.creds.LoginURL, "/") + "/services/Soap/u/" + c.apiVersion
	body := fmt.Sprintf(loginEnvelope,
		xmlEscape(c.creds.Username),
		xmlEscape(c.creds.Password+c.creds.SecurityToken),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("SOAPAction", "login")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("crm login: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, fmt.Errorf("crm login: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("crm login: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var lr loginResponse
	if err := xml.Unmarshal(raw, &lr); err != nil {
		return Session{}, fmt.Errorf("crm login: malformed response: %w", err)
	}
	if lr.SessionID == "" || lr.ServerURL == "" {
		return Session{}, errors.New("crm login: response missing sessionId or serverUrl")
	}

	// serverUrl points at the SOAP endpoint of the assigned instance;
	// the REST API lives on the same host.
	u, err := url.Parse(lr.ServerURL)
	if err != nil {
		return Session{}, fmt.Errorf("crm login: bad serverUrl: %w", err)
	}

	c.metrics.CRMLoginsTotal.Inc()
	log.Debug().Str("instance", u.Host).Msg("CRM login exchange completed")

	return Session{
		AccessToken: lr.SessionID,
		InstanceURL: u.Scheme + "://" + u.Host,
	}, nil
}

// withAuthRetry runs fn with a valid session. If the CRM rejects the session
// mid-call, the cached session is dropped, a fresh login is performed, and fn
// runs exactly once more. Every other failure propagates unmodified.
func (c *Client) withAuthRetry(ctx context.Context, fn func(Session) error) error {
	sess, err := c.EnsureSession(ctx)
	if err != nil {
		return err
	}

	err = fn(sess)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.AuthExpired() {
		return err
	}

	c.sessions.Clear()
	sess, err = c.EnsureSession(ctx)
	if err != nil {
		return err
	}
	c.metrics.CRMAuthRetries.Inc()
	log.Warn().Msg("CRM session expired, retrying after re-login")
	return fn(sess)
}

// Create inserts a record of the given object type. Fields pass through to
// the CRM unvalidated; the returned map is the CRM's raw create response
// (id, success, errors).
func (c *Client) Create(ctx context.Context, objectType string, fields map[string]any) (map[string]any, error) {
	var result map[string]any
	start := time.Now()
	err := c.withAuthRetry(ctx, func(sess Session) error {
		path := fmt.Sprintf("%s/services/data/v%s/sobjects/%s", sess.InstanceURL, c.apiVersion, objectType)
		return c.doJSON(ctx, http.MethodPost, path, sess, fields, &result)
	})
	c.metrics.RecordCRMRequest(objectType, "create", err, time.Since(start).Seconds())
	if err != nil {
		logger := logging.WithCRMCall(objectType, "create")
		logger.Error().Err(err).Msg("CRM create failed")
		return nil, err
	}
	return result, nil
}

// Update patches a record by id. Salesforce answers 204 with no body.
func (c *Client) Update(ctx context.Context, objectType, id string, fields map[string]any) error {
	start := time.Now()
	err := c.withAuthRetry(ctx, func(sess Session) error {
		path := fmt.Sprintf("%s/services/data/v%s/sobjects/%s/%s", sess.InstanceURL, c.apiVersion, objectType, id)
		return c.doJSON(ctx, http.MethodPatch, path, sess, fields, nil)
	})
	c.metrics.RecordCRMRequest(objectType, "update", err, time.Since(start).Seconds())
	if err != nil {
		logger := logging.WithCRMCall(objectType, "update")
		logger.Error().Err(err).Msg("CRM update failed")
	}
	return err
}

// Query runs a SOQL query and returns the record maps.
func (c *Client) Query(ctx context.Context, soql string) ([]map[string]any, error) {
	var result struct {
		Records []map[string]any `json:"records"`
	}
	start := time.Now()
	err := c.withAuthRetry(ctx, func(sess Session) error {
		path := fmt.Sprintf("%s/services/data/v%s/query?q=%s", sess.InstanceURL, c.apiVersion, url.QueryEscape(soql))
		return c.doJSON(ctx, http.MethodGet, path, sess, nil, &result)
	})
	c.metrics.RecordCRMRequest("query", "query", err, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

// CreateNote attaches a Note to an existing record. Callers must pass the id
// returned by the parent's create call; a Note is never created without one.
func (c *Client) CreateNote(ctx context.Context, parentID, title, body string) (map[string]any, error) {
	if parentID == "" {
		return nil, errors.New("crm: note requires a parent record id")
	}
	return c.Create(ctx, "Note", map[string]any{
		"ParentId": parentID,
		"Title":    title,
		"Body":     body,
	})
}

// doJSON performs one REST round trip. Non-2xx responses decode into APIError
// so callers can distinguish auth expiry from other failures.
func (c *Client) doJSON(ctx context.Context, method, path string, sess Session, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Error bodies are a JSON array of {message, errorCode}; anything
		// else still surfaces as an APIError with just the status.
		_ = json.Unmarshal(raw, &apiErr.Details)
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
