package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gimlet-io/coverage-digest/pkg/digest"
	"github.com/gimlet-io/coverage-digest/pkg/model"
	"github.com/stretchr/testify/assert"
)

func testDigest() *digest.Digest {
	coverage := 85.0
	return &digest.Digest{
		Header: "Coverage of the week",
		Coverage: []digest.CoverageLine{
			{
				CoverageReading: model.CoverageReading{
					Project: model.Project{Key: "svc-a", Name: "Service A"},
					Percent: &coverage,
				},
				Symbol: digest.Fire,
			},
		},
		PullRequests: []model.PullRequestSummary{
			{URL: "https://github.com/acme/api/pull/12", Number: 12, Title: "Fix flaky test", Author: "dzsak"},
		},
	}
}

func slackServer(t *testing.T, status int, response string, received *slackMessage) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-token", r.Header.Get("Authorization"))

		err := json.NewDecoder(r.Body).Decode(received)
		assert.Nil(t, err)

		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
}

func Test_Slack(t *testing.T) {
	var received slackMessage
	server := slackServer(t, http.StatusOK, `{"ok": true}`, &received)
	defer server.Close()

	slack := &SlackProvider{
		Token:          "xoxb-token",
		DefaultChannel: "#slackbot-test",
		APIURL:         server.URL,
	}

	err := slack.send(context.Background(), Digest(testDigest(), ""))
	assert.Nil(t, err)
	assert.Equal(t, "#slackbot-test", received.Channel)
	assert.Equal(t, testDigest().Text(digest.SlackLinks), received.Text)
	assert.Contains(t, received.Text, "<https://github.com/acme/api/pull/12|#12> Fix flaky test (dzsak)")
}

func Test_SlackCustomChannel(t *testing.T) {
	var received slackMessage
	server := slackServer(t, http.StatusOK, `{"ok": true}`, &received)
	defer server.Close()

	slack := &SlackProvider{Token: "xoxb-token", DefaultChannel: "#slackbot-test", APIURL: server.URL}

	err := slack.send(context.Background(), Digest(testDigest(), "#integrations"))
	assert.Nil(t, err)
	assert.Equal(t, "#integrations", received.Channel)
}

func Test_SlackFailures(t *testing.T) {
	var received slackMessage
	server := slackServer(t, http.StatusOK, `{"ok": false, "error": "channel_not_found"}`, &received)
	slack := &SlackProvider{Token: "xoxb-token", DefaultChannel: "#nope", APIURL: server.URL}

	err := slack.send(context.Background(), Digest(testDigest(), ""))
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
	server.Close()

	server = slackServer(t, http.StatusInternalServerError, ``, &received)
	slack.APIURL = server.URL
	err = slack.send(context.Background(), Digest(testDigest(), ""))
	assert.NotNil(t, err)
	server.Close()

	err = slack.send(context.Background(), Digest(testDigest(), ""))
	assert.NotNil(t, err, "closed server must fail the post")
}
