package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

const slackAPIURL = "https://slack.com/api"

type SlackProvider struct {
	Token          string
	DefaultChannel string
	// APIURL overrides the Slack Web API root
	APIURL string
}

type slackMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *SlackProvider) name() string {
	return "slack"
}

func (s *SlackProvider) send(ctx context.Context, msg Message) error {
	slackMessage, err := msg.AsSlackMessage()
	if err != nil {
		return fmt.Errorf("cannot create slack message: %s", err)
	}

	if slackMessage == nil {
		return nil
	}

	slackMessage.Channel = s.channel(msg)

	return s.post(ctx, slackMessage)
}

func (s *SlackProvider) channel(msg Message) string {
	if msg.CustomChannel() != "" {
		return msg.CustomChannel()
	}

	return s.DefaultChannel
}

func (s *SlackProvider) post(ctx context.Context, msg *slackMessage) error {
	b := new(bytes.Buffer)
	err := json.NewEncoder(b).Encode(msg)
	if err != nil {
		return fmt.Errorf("could not encode message to slack: %s", err)
	}

	apiURL := s.APIURL
	if apiURL == "" {
		apiURL = slackAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/chat.postMessage", b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not post to slack: %s", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("could not post to slack, status: %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("cannot read slack response: %s", err)
	}
	var parsed slackResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		return fmt.Errorf("cannot parse slack response: %s", err)
	}
	if !parsed.OK {
		logrus.Debugf("Slack response: %s", string(body))
		return fmt.Errorf("slack rejected the message: %s", parsed.Error)
	}

	return nil
}
