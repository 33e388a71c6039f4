package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = []string{"good first issue", "documentation", "planning"}

func testRequest() IssueRequest {
	return IssueRequest{
		Title:  "Parse Voice Farm Game PRD into Development Tasks",
		Body:   "# PRD\n\nSplit into tasks.",
		Labels: testLabels,
	}
}

func newTestClient(t *testing.T, serverURL string, opts Options) *Client {
	t.Helper()
	opts.BaseURL = serverURL
	c, err := NewClient("test-token", opts)
	require.NoError(t, err)
	return c
}

func TestCreateIssue(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/owner/repo/issues", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-GitHub-Api-Version"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var got map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Parse Voice Farm Game PRD into Development Tasks", got["title"])
		assert.Equal(t, "# PRD\n\nSplit into tasks.", got["body"])
		assert.Equal(t, []any{"good first issue", "documentation", "planning"}, got["labels"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"html_url": "http://x/1", "number": 1}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	issue, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())
	require.NoError(t, err)
	assert.Equal(t, "http://x/1", issue.HTMLURL)
	assert.Equal(t, 1, issue.Number)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCreateIssue_ValidationFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "Validation failed"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "want *APIError, got %T", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, "GitHub API Error: Validation failed", err.Error())
}

func TestCreateIssue_BadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials","documentation_url":"https://docs.github.com/rest"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Bad credentials", apiErr.Message)
}

func TestCreateIssue_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"API rate limit exceeded for 127.0.0.1."}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "API rate limit exceeded for 127.0.0.1.", apiErr.Message)
}

func TestCreateIssue_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "HTTP Error 502: upstream down", err.Error())
}

func TestCreateIssue_JSONErrorWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"errors":[]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Unknown error", apiErr.Message)
}

func TestCreateIssue_OnlyCreatedIsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusAccepted} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"html_url": "http://x/1", "number": 1}`))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, Options{})
			issue, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())
			assert.Nil(t, issue)

			var statusErr *UnexpectedStatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, status, statusErr.StatusCode)
		})
	}
}

func TestCreateIssue_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url, Options{})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, err.Error(), "Error creating issue")
}

func TestCreateIssue_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{Timeout: 50 * time.Millisecond})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestCreateIssue_MalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestCreateIssue_RedirectNotFollowed(t *testing.T) {
	var redirected int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/issues", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/moved", http.StatusFound)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&redirected, 1)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL, Options{MaxRedirects: 0})
	_, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusFound, apiErr.StatusCode)
	assert.Zero(t, atomic.LoadInt32(&redirected))
}

func TestCreateIssue_CrossHostRedirectNotFollowed(t *testing.T) {
	var otherHits int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&otherHits, 1)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"html_url": "http://other/1", "number": 1}`))
	}))
	defer other.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL+r.URL.Path, http.StatusTemporaryRedirect)
	}))
	defer api.Close()

	c := newTestClient(t, api.URL, Options{MaxRedirects: DefaultMaxRedirects})
	issue, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())

	assert.Nil(t, issue)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTemporaryRedirect, apiErr.StatusCode)
	assert.Zero(t, atomic.LoadInt32(&otherHits))
}

func TestCreateIssue_SameHostRedirectFollowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/issues", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/repos/owner/renamed/issues", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/repos/owner/renamed/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"html_url": "http://x/3", "number": 3}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL, Options{MaxRedirects: DefaultMaxRedirects})
	issue, err := c.CreateIssue(context.Background(), "owner", "repo", testRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, issue.Number)
}

func TestCreateIssue_InvalidRequestSendsNothing(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})

	req := testRequest()
	req.Body = ""
	_, err := c.CreateIssue(context.Background(), "owner", "repo", req)
	assert.Error(t, err)

	req = testRequest()
	req.Title = " "
	_, err = c.CreateIssue(context.Background(), "owner", "repo", req)
	assert.Error(t, err)

	_, err = c.CreateIssue(context.Background(), "", "repo", testRequest())
	assert.Error(t, err)

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("", Options{})
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = NewClient("tok", Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient("tok", Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, c.gh.BaseURL.String())
}

func TestRedirectPolicy(t *testing.T) {
	newReq := func(rawURL string) *http.Request {
		r, err := http.NewRequest(http.MethodPost, rawURL, nil)
		require.NoError(t, err)
		return r
	}
	first := newReq("https://api.github.com/repos/o/r/issues")
	policy := redirectPolicy(2)

	via := []*http.Request{first, newReq("https://api.github.com/a")}
	assert.NoError(t, policy(newReq("https://api.github.com/b"), via))
	assert.ErrorIs(t, policy(newReq("https://api.github.com/c"), append(via, newReq("https://api.github.com/b"))), http.ErrUseLastResponse)

	assert.ErrorIs(t, policy(newReq("https://evil.example/repos/o/r/issues"), []*http.Request{first}), http.ErrUseLastResponse)
	assert.ErrorIs(t, policy(newReq("https://api.github.com:8443/x"), []*http.Request{first}), http.ErrUseLastResponse)
}
