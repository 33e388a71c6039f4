package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v63/github"
	"golang.org/x/oauth2"
)

// Defaults applied when the corresponding Options field is unset.
const (
	DefaultAPIURL       = "https://api.github.com/"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 5
)

const mediaType = "application/vnd.github+json"

// ErrNoToken is returned by NewClient when the token is empty.
var ErrNoToken = errors.New("github token is empty")

// Options configures the HTTP behavior of a Client.
type Options struct {
	// BaseURL is the REST API root. Defaults to DefaultAPIURL.
	BaseURL string
	// Timeout bounds the whole request. Zero or negative means DefaultTimeout.
	Timeout time.Duration
	// MaxRedirects is the number of redirects followed. Zero disables
	// following; the 3xx response is then reported as an APIError.
	MaxRedirects int
	UserAgent    string
}

// Client provides access to the GitHub issues API.
type Client struct {
	gh *gh.Client
}

// NewClient creates a client that authenticates with token.
func NewClient(token string, opts Options) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}

	base := opts.BaseURL
	if base == "" {
		base = DefaultAPIURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing API URL %q: %w", opts.BaseURL, err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("API URL %q must be http or https", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpCli := oauth2.NewClient(context.Background(), ts)
	httpCli.Transport = &acceptTransport{base: httpCli.Transport}
	httpCli.Timeout = timeout
	httpCli.CheckRedirect = redirectPolicy(opts.MaxRedirects)

	client := gh.NewClient(httpCli)
	client.BaseURL = baseURL
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}

	return &Client{gh: client}, nil
}

// redirectPolicy stops at the redirect response once limit is exceeded or the
// target leaves the original host; the oauth2 transport sets the token on
// every hop.
func redirectPolicy(limit int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return http.ErrUseLastResponse
		}
		if len(via) > 0 && req.URL.Host != via[0].URL.Host {
			return http.ErrUseLastResponse
		}
		return nil
	}
}

// acceptTransport replaces go-github's versioned Accept header with the
// current GitHub media type.
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Accept", mediaType)
	return t.base.RoundTrip(r)
}

// IssueRequest is the issue to create.
type IssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// Validate reports whether the request has the fields GitHub requires.
func (r IssueRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("issue title is empty")
	}
	if r.Body == "" {
		return errors.New("issue body is empty")
	}
	return nil
}

func (r IssueRequest) toGitHub() *gh.IssueRequest {
	labels := make([]string, len(r.Labels))
	copy(labels, r.Labels)
	return &gh.IssueRequest{
		Title:  gh.String(r.Title),
		Body:   gh.String(r.Body),
		Labels: &labels,
	}
}

// Issue is a created issue.
type Issue struct {
	Number  int
	HTMLURL string
}

// CreateIssue posts req to /repos/{owner}/{repo}/issues.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, req IssueRequest) (*Issue, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("repository owner and name are required (got %q/%q)", owner, repo)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created, resp, err := c.gh.Issues.Create(ctx, owner, repo, req.toGitHub())
	if resp != nil && resp.Response != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 && resp.StatusCode != http.StatusCreated {
		return nil, &UnexpectedStatusError{StatusCode: resp.StatusCode}
	}
	if err != nil {
		return nil, classify(resp, err)
	}

	issue := &Issue{Number: created.GetNumber(), HTMLURL: created.GetHTMLURL()}
	if issue.HTMLURL == "" || issue.Number == 0 {
		return nil, &TransportError{Err: errors.New("response is missing html_url or number")}
	}
	return issue, nil
}

// APIError is an HTTP error response from GitHub.
type APIError struct {
	StatusCode int
	// Message is the "message" field of the JSON error body, if any.
	Message string
	// Body is the raw response body.
	Body string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "GitHub API Error: " + e.Message
	}
	return fmt.Sprintf("HTTP Error %d: %s", e.StatusCode, e.Body)
}

// UnexpectedStatusError is a 2xx response other than 201 Created.
type UnexpectedStatusError struct {
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("Failed to create issue. Status: %d", e.StatusCode)
}

// TransportError is a failure to complete the exchange: DNS, connection,
// timeout, cancellation, or an unreadable response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "Error creating issue: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

func classify(resp *gh.Response, err error) error {
	var errResp *gh.ErrorResponse
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError

	switch {
	case errors.As(err, &errResp):
		return newAPIError(errResp.Response, errResp.Message)
	case errors.As(err, &rateErr):
		return newAPIError(rateErr.Response, rateErr.Message)
	case errors.As(err, &abuseErr):
		return newAPIError(abuseErr.Response, abuseErr.Message)
	case resp != nil && resp.Response != nil && resp.StatusCode >= 300:
		return newAPIError(resp.Response, "")
	default:
		return &TransportError{Err: err}
	}
}

// newAPIError builds an APIError from a response whose body go-github has
// already consumed and re-populated.
func newAPIError(r *http.Response, message string) *APIError {
	e := &APIError{Message: message}
	if r == nil {
		return e
	}
	e.StatusCode = r.StatusCode
	if r.Body != nil {
		if raw, err := io.ReadAll(r.Body); err == nil {
			e.Body = strings.TrimSpace(string(raw))
		}
	}
	if e.Message == "" && e.Body != "" {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(e.Body), &payload) == nil {
			e.Message = payload.Message
			if e.Message == "" {
				e.Message = "Unknown error"
			}
		}
	}
	return e
}
