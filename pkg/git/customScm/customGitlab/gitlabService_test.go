package customGitlab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

const mergeRequests = `[
  {"iid": 42, "title": "Upgrade helm", "web_url": "https://gitlab.com/acme/api/-/merge_requests/42", "author": {"username": "dzsak"}, "created_at": "2023-12-17T10:00:00Z"},
  {"iid": 41, "title": "Tune alerts", "web_url": "https://gitlab.com/acme/api/-/merge_requests/41", "author": {"username": "laszlocph"}, "created_at": "2023-12-12T10:00:00Z"}
]`

func Test_MergeRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/merge_requests") {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Contains(t, r.URL.EscapedPath(), "acme%2Fapi")
		assert.Equal(t, "opened", r.URL.Query().Get("state"))
		assert.Equal(t, "created_at", r.URL.Query().Get("order_by"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort"))
		assert.NotEmpty(t, r.URL.Query().Get("created_after"))
		assert.Equal(t, "gl-token", r.Header.Get("PRIVATE-TOKEN"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mergeRequests))
	}))
	defer server.Close()

	client := &GitlabClient{Token: "gl-token", BaseURL: server.URL}
	since := time.Date(2023, 12, 11, 9, 0, 0, 0, time.UTC)
	pullRequests := client.PullRequests(context.Background(), "acme", "api", since)

	if assert.Len(t, pullRequests, 2, "request path must end with /merge_requests") {
		assert.Equal(t, 42, pullRequests[0].Number)
		assert.Equal(t, "Upgrade helm", pullRequests[0].Title)
		assert.Equal(t, "https://gitlab.com/acme/api/-/merge_requests/42", pullRequests[0].URL)
		assert.Equal(t, "dzsak", pullRequests[0].Author)
		assert.Equal(t, 41, pullRequests[1].Number)
	}
}

func Test_MergeRequestsFailsSoft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "401 Unauthorized"}`))
	}))
	defer server.Close()

	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "failures"})
	client := &GitlabClient{Token: "gl-token", BaseURL: server.URL, Failures: failures}
	pullRequests := client.PullRequests(context.Background(), "acme", "api", time.Time{})

	assert.NotNil(t, pullRequests)
	assert.Empty(t, pullRequests)
	assert.Equal(t, float64(1), testutil.ToFloat64(failures))
}
