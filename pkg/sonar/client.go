package sonar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const DefaultURL = "https://sonarcloud.io"

const pathMeasures = "%s/api/measures/component"

// Client reads the coverage metric from the SonarCloud measures API
type Client struct {
	client *http.Client
	addr   string
	token  string
}

func New(uri string, token string) *Client {
	return NewClient(uri, token, http.DefaultClient)
}

func NewClient(uri string, token string, cli *http.Client) *Client {
	if uri == "" {
		uri = DefaultURL
	}
	return &Client{
		client: cli,
		addr:   strings.TrimSuffix(uri, "/"),
		token:  token,
	}
}

type measuresResponse struct {
	Component *component `json:"component"`
}

type component struct {
	Key      string    `json:"key"`
	Measures []measure `json:"measures"`
}

type measure struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// Coverage returns the coverage percentage of the project,
// or nil if it could not be retrieved for any reason
func (c *Client) Coverage(ctx context.Context, projectKey string) *float64 {
	coverage, err := c.coverage(ctx, projectKey)
	if err != nil {
		logrus.Warnf("cannot get coverage of %s, check the project key and token: %s", projectKey, err)
		return nil
	}
	return &coverage
}

func (c *Client) coverage(ctx context.Context, projectKey string) (float64, error) {
	params := url.Values{}
	params.Set("component", projectKey)
	params.Set("metricKeys", "coverage")
	uri := fmt.Sprintf(pathMeasures, c.addr) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed measuresResponse
	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return 0, fmt.Errorf("cannot parse response: %s", err)
	}
	if parsed.Component == nil {
		return 0, fmt.Errorf("no component in response")
	}
	if len(parsed.Component.Measures) == 0 {
		return 0, fmt.Errorf("no coverage measure for component")
	}

	value := parsed.Component.Measures[0].Value
	coverage, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse coverage value %q: %s", value, err)
	}
	return coverage, nil
}
