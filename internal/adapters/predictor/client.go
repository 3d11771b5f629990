// Package predictor talks to the prediction backend's roster and predict endpoints.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	model "github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/metrics"
)

// Config controls how the client reaches the backend.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration // used only when HTTPClient is nil
	UserAgent  string
}

// Client fetches the roster and requests predictions.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient httpDoer
	now        func() time.Time
}

// NewClient constructs a client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		userAgent:  resolveUserAgent(cfg.UserAgent),
		httpClient: resolveHTTPClient(cfg.HTTPClient, cfg.Timeout),
		now:        time.Now,
	}
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchTeams issues exactly one GET /api/teams and returns its teams field.
func (c *Client) FetchTeams(ctx context.Context) (teams []model.Team, err error) {
	start := c.now()
	defer func() { c.observe(EndpointTeams, start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+teamsPath, nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	body, err := c.do(req, EndpointTeams)
	if err != nil {
		return nil, err
	}

	var roster model.Roster
	if err := json.Unmarshal(body, &roster); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, EndpointTeams, err)
	}
	if roster.Teams == nil {
		roster.Teams = []model.Team{}
	}
	return roster.Teams, nil
}

// Predict issues exactly one POST /api/predict and returns the body unchanged.
func (c *Client) Predict(ctx context.Context, home, away model.TeamRef) (p model.Prediction, err error) {
	start := c.now()
	defer func() { c.observe(EndpointPredict, start, err) }()

	payload, err := json.Marshal(model.PredictRequest{HomeTeam: home, AwayTeam: away})
	if err != nil {
		return model.Prediction{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(payload))
	if err != nil {
		return model.Prediction{}, err
	}
	c.decorate(req)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, EndpointPredict)
	if err != nil {
		return model.Prediction{}, err
	}

	p, err = model.ParsePrediction(body)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %s: %w", ErrDecode, EndpointPredict, err)
	}
	return p, nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, endpoint, err)
	}
	return body, nil
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	latency := float64(c.now().Sub(start).Microseconds()) / 1000
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeFailed
		metrics.RecordErrorByComponent("predictor", errorType(err))
	}
	metrics.RecordUpstreamCall(endpoint, outcome, latency)
}

func errorType(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "request"
	}
}
