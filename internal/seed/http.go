package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
)

const maxBodyBytes = 16 << 20

// Leaderboard is the subset of GET /leaderboard the verifier reads.
type Leaderboard struct {
	Rankings  []model.LeaderboardEntry `json:"rankings"`
	Count     int                      `json:"count"`
	Total     int                      `json:"total"`
	Timestamp *int64                   `json:"timestamp"`
	Stats     model.LeaderboardStats   `json:"stats"`
}

// Client queries the leaderboard service.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, hc: &http.Client{Timeout: timeout}}
}

// CheckHealth verifies the service answers /healthz with 200.
func (c *Client) CheckHealth(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer closeBody(ctx, resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Leaderboard fetches the top limit entries.
func (c *Client) Leaderboard(ctx context.Context, limit int) (Leaderboard, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	resp, err := c.get(ctx, "/leaderboard?"+q.Encode())
	if err != nil {
		return Leaderboard{}, err
	}
	defer closeBody(ctx, resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Leaderboard{}, fmt.Errorf("read leaderboard: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Leaderboard{}, fmt.Errorf("leaderboard returned %d: %s", resp.StatusCode, body)
	}
	var lb Leaderboard
	if err := json.Unmarshal(body, &lb); err != nil {
		return Leaderboard{}, fmt.Errorf("decode leaderboard: %w", err)
	}
	return lb, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.hc.Do(req)
}

func closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.GetOrNop().Error(ctx, "failed to close response body", logger.Error(err))
	}
}
