// Package api is the typed HTTP client for the ContentPilot backend. It
// attaches the bearer credential, maps wire records to domain records and
// classifies failures; retry policy belongs to callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contentpilot/internal/session"
)

const (
	defaultBaseURL = "http://localhost:8000"
	apiPrefix      = "/api/v1"

	// maxErrorBody bounds how much of an error response is read for message
	// extraction.
	maxErrorBody = 1 << 20
)

// TokenSource supplies the current bearer credential. ok=false means the
// request goes out unauthenticated, with no Authorization header at all.
type TokenSource func() (string, bool)

// Client talks to the versioned ContentPilot API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// Option configures the Client during construction.
type Option func(*Client)

// WithBaseURL overrides the backend base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client, including its
// timeout budget.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Client.
func NewClient(tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = func() (string, bool) { return "", false }
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		tokens:     tokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthResult is a successful login or signup response.
type AuthResult struct {
	User        session.User
	AccessToken string
	TokenType   string
}

// ListJobs fetches one page of the job collection, optionally filtered by
// status. Ordering is server-defined, most recent first.
func (c *Client) ListJobs(ctx context.Context, p ListJobsParams) (JobList, error) {
	p = p.WithDefaults()

	query := url.Values{}
	if p.Status != "" {
		query.Set("status_filter", string(p.Status))
	}
	query.Set("page", strconv.Itoa(p.Page))
	query.Set("page_size", strconv.Itoa(p.PageSize))

	var record jobListRecord
	if err := c.do(ctx, http.MethodGet, "/jobs", query, nil, &record); err != nil {
		return JobList{}, err
	}
	return record.toDomain(), nil
}

// GetJob fetches a single job by id.
func (c *Client) GetJob(ctx context.Context, id string) (Job, error) {
	var record jobRecord
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, nil, &record); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return Job{}, &NotFoundError{Resource: "job", ID: id}
		}
		return Job{}, err
	}
	return record.toDomain(), nil
}

type createJobBody struct {
	Prompt     string  `json:"prompt"`
	TemplateID *string `json:"template_id"`
}

// CreateJob posts a new generation job. A structured 429 surfaces as a
// QuotaError carrying the server message verbatim.
func (c *Client) CreateJob(ctx context.Context, p CreateJobParams) (Job, error) {
	body := createJobBody{Prompt: p.Prompt, TemplateID: p.TemplateID}

	var record jobRecord
	if err := c.do(ctx, http.MethodPost, "/jobs", nil, body, &record); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			message := apiErr.Message
			if message == "" {
				message = "monthly generation quota exceeded"
			}
			return Job{}, &QuotaError{Message: message}
		}
		return Job{}, err
	}
	return record.toDomain(), nil
}

// UpdateJob patches a job's editable fields. Nil fields stay out of the
// request body so the backend leaves them untouched.
func (c *Client) UpdateJob(ctx context.Context, id string, update JobUpdate) (Job, error) {
	var record jobRecord
	if err := c.do(ctx, http.MethodPatch, "/jobs/"+url.PathEscape(id), nil, update, &record); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return Job{}, &NotFoundError{Resource: "job", ID: id}
		}
		return Job{}, err
	}
	return record.toDomain(), nil
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.auth(ctx, "/auth/login", email, password)
}

// Signup registers a new account and signs it in.
func (c *Client) Signup(ctx context.Context, email, password string) (AuthResult, error) {
	return c.auth(ctx, "/auth/signup", email, password)
}

func (c *Client) auth(ctx context.Context, path, email, password string) (AuthResult, error) {
	var record authRecord
	if err := c.do(ctx, http.MethodPost, path, nil, credentialsBody{Email: email, Password: password}, &record); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		User:        record.User.toDomain(),
		AccessToken: record.AccessToken,
		TokenType:   record.TokenType,
	}, nil
}

// Logout invalidates the server-side session. Local state is the session
// store's responsibility.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me fetches the current account.
func (c *Client) Me(ctx context.Context) (session.User, error) {
	var record userRecord
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &record); err != nil {
		return session.User{}, err
	}
	return record.toDomain(), nil
}

type onboardingBody struct {
	OnboardingCompleted bool `json:"onboarding_completed"`
}

// SetOnboardingStatus records onboarding completion on the account and
// returns the refreshed user.
func (c *Client) SetOnboardingStatus(ctx context.Context, completed bool) (session.User, error) {
	var record onboardingRecord
	if err := c.do(ctx, http.MethodPut, "/users/me/onboarding", nil, onboardingBody{OnboardingCompleted: completed}, &record); err != nil {
		return session.User{}, err
	}
	return record.User.toDomain(), nil
}

// ListTemplates fetches the templates visible to the account, including
// system defaults.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var record templateListRecord
	if err := c.do(ctx, http.MethodGet, "/templates", nil, nil, &record); err != nil {
		return nil, err
	}
	templates := make([]Template, 0, len(record.Templates))
	for _, t := range record.Templates {
		templates = append(templates, t.toDomain())
	}
	return templates, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := c.tokens(); ok && tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: extractMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}
	return &ConnectivityError{Err: err}
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
