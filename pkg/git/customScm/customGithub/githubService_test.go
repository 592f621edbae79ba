package customGithub

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

const pageOne = `[
  {"number": 14, "title": "Bump onechart", "html_url": "https://github.com/acme/api/pull/14", "user": {"login": "dzsak"}, "created_at": "2023-12-17T10:00:00Z"},
  {"number": 13, "title": "Add readiness probe", "html_url": "https://github.com/acme/api/pull/13", "user": {"login": "laszlocph"}, "created_at": "2023-12-15T10:00:00Z"}
]`

const pageTwo = `[
  {"number": 11, "title": "Fix flaky test", "html_url": "https://github.com/acme/api/pull/11", "user": {"login": "dzsak"}, "created_at": "2023-12-12T10:00:00Z"},
  {"number": 7, "title": "Stale refactor", "html_url": "https://github.com/acme/api/pull/7", "user": {"login": "policy"}, "created_at": "2023-11-02T10:00:00Z"},
  {"number": 5, "title": "Even older", "html_url": "https://github.com/acme/api/pull/5", "user": {"login": "policy"}, "created_at": "2023-10-02T10:00:00Z"}
]`

func githubServer(t *testing.T) (*httptest.Server, *int) {
	requests := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/repos/acme/api/pulls", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		assert.Equal(t, "created", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("direction"))
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(pageTwo))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/api/pulls?page=2>; rel="next"`, server.URL))
		w.Write([]byte(pageOne))
	}))
	return server, &requests
}

func Test_PullRequests(t *testing.T) {
	server, requests := githubServer(t)
	defer server.Close()

	client := &GithubClient{Token: "gh-token", BaseURL: server.URL}
	since := time.Date(2023, 12, 11, 9, 0, 0, 0, time.UTC)
	pullRequests := client.PullRequests(context.Background(), "acme", "api", since)

	assert.Equal(t, 2, *requests)
	if assert.Len(t, pullRequests, 3) {
		assert.Equal(t, 14, pullRequests[0].Number)
		assert.Equal(t, "Bump onechart", pullRequests[0].Title)
		assert.Equal(t, "https://github.com/acme/api/pull/14", pullRequests[0].URL)
		assert.Equal(t, "dzsak", pullRequests[0].Author)
		assert.Equal(t, time.Date(2023, 12, 17, 10, 0, 0, 0, time.UTC), pullRequests[0].CreatedAt.UTC())
		assert.Equal(t, 11, pullRequests[2].Number)
	}
}

func Test_PullRequestsStopsPagingPastTheWindow(t *testing.T) {
	server, requests := githubServer(t)
	defer server.Close()

	client := &GithubClient{Token: "gh-token", BaseURL: server.URL}
	since := time.Date(2023, 12, 16, 0, 0, 0, 0, time.UTC)
	pullRequests := client.PullRequests(context.Background(), "acme", "api", since)

	assert.Equal(t, 1, *requests)
	assert.Len(t, pullRequests, 1)
}

func Test_PullRequestsFailsSoft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer server.Close()

	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "failures"})
	client := &GithubClient{Token: "gh-token", BaseURL: server.URL, Failures: failures}
	pullRequests := client.PullRequests(context.Background(), "acme", "api", time.Time{})

	assert.NotNil(t, pullRequests)
	assert.Empty(t, pullRequests)
	assert.Equal(t, float64(1), testutil.ToFloat64(failures))
}

func Test_PullRequestsCancelledByCallerAreNotCounted(t *testing.T) {
	server, _ := githubServer(t)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "failures"})
	client := &GithubClient{Token: "gh-token", BaseURL: server.URL, Failures: failures}
	pullRequests := client.PullRequests(ctx, "acme", "api", time.Time{})

	assert.Empty(t, pullRequests)
	assert.Equal(t, float64(0), testutil.ToFloat64(failures))
}
