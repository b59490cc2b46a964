// Package leetcode implements the problem-solving provider adapter.
//
// LeetCode has no public stats API, so the adapter queries an ordered
// list of independent community mirrors. Each mirror is a complete
// alternative for the same logical statistic; the first one that
// answers with a non-error shape wins. Field names differ per mirror
// and are reconciled by the normalization table in normalize.go.
package leetcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"backend/internal/models"
	"backend/internal/providers"
)

// DefaultMirrors are the community stats mirrors, in priority order.
// Each entry is a URL template receiving the username.
var DefaultMirrors = []string{
	"https://leetcode-stats-api.herokuapp.com/%s",
	"https://leetcode-api-faisalshohag.vercel.app/%s",
	"https://alfa-leetcode-api.onrender.com/userProfile/%s",
}

// Client queries the mirror endpoints. Stateless, safe for concurrent
// use.
type Client struct {
	httpClient *http.Client
	mirrors    []string
}

// NewClient creates a LeetCode adapter over the given mirror URL
// templates. An empty list falls back to DefaultMirrors.
func NewClient(mirrors []string, timeout time.Duration) *Client {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		mirrors:    mirrors,
	}
}

// FetchStats runs the mirrors as a fallback chain and returns the
// first successfully normalized snapshot. When every mirror fails, the
// error-flagged zeroed snapshot is returned together with an
// *providers.AllFailedError carrying every endpoint's reason. This
// method never panics on provider misbehavior.
func (c *Client) FetchStats(ctx context.Context, username string) (*models.LeetCodeStats, error) {
	strategies := make([]providers.Strategy[*models.LeetCodeStats], len(c.mirrors))
	for i, mirror := range c.mirrors {
		mirror := mirror
		strategies[i] = providers.Strategy[*models.LeetCodeStats]{
			Name: fmt.Sprintf("mirror %d", i+1),
			Run: func(ctx context.Context) (*models.LeetCodeStats, error) {
				return c.fetchMirror(ctx, mirror, username)
			},
		}
	}

	stats, _, err := providers.RunChain(ctx, models.ProviderLeetCode, strategies)
	if err != nil {
		message := err.Error()
		var allFailed *providers.AllFailedError
		if errors.As(err, &allFailed) {
			message = allFailed.Message()
		}
		return models.FailedLeetCodeStats(message), err
	}
	return stats, nil
}

// fetchMirror issues one bounded request against a single mirror and
// normalizes its response. Error shapes (explicit status flag, failure
// message, transport error) are converted into errors for the caller
// to record before trying the next mirror.
func (c *Client) fetchMirror(ctx context.Context, template, username string) (*models.LeetCodeStats, error) {
	endpoint := fmt.Sprintf(template, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, providers.ErrUnreachable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", providers.ErrUnreachable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, providers.ErrUnreachable)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if msg, failed := isErrorShape(raw); failed {
		return nil, fmt.Errorf("%s: %w", msg, providers.ErrRejected)
	}

	return normalize(raw), nil
}
