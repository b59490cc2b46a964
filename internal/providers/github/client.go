// Package github implements the commit-activity provider adapter.
//
// Several strategies exist for the same logical statistic, tried in a
// fixed order by the fallback chain: the accurate method (commit
// search API + profile + events feed), the search-only method (commit
// search total when the rest of the bundle is unavailable), and the
// estimation method (heuristic from repo count, recent activity and
// account age). A lightweight existence probe short-circuits invalid
// usernames before any other network call is attempted.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"backend/internal/models"
	"backend/internal/providers"
)

const (
	// DefaultBaseURL is the public GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"

	// eventsPerPage bounds the recent-activity feed to the most recent
	// ~100 events, which is what the API serves on one page.
	eventsPerPage = 100

	weekWindow  = 7 * 24 * time.Hour
	monthWindow = 30 * 24 * time.Hour
)

// Estimation heuristic constants. Calibration data, not style; do not
// tune them.
const (
	estimateCommitsPerRepo   = 8.0
	estimateActivityDivisor  = 10.0
	estimateActivityCap      = 3.0
	estimateIdleMultiplier   = 0.5
	estimateAgeYearsDivisor  = 2.0
	estimateAgeCap           = 2.0
	estimateRecentMultiplier = 10
	hoursPerYear             = 24 * 365.25
)

// Client talks to the GitHub REST API. It is stateless and safe for
// concurrent use; construct one per configuration and inject it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	now        func() time.Time
}

// NewClient creates a GitHub adapter. The token is optional; it raises
// rate limits but is not required for correctness.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		now:        time.Now,
	}
}

type userProfile struct {
	Login       string    `json:"login"`
	PublicRepos int       `json:"public_repos"`
	CreatedAt   time.Time `json:"created_at"`
}

type feedEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Payload   struct {
		Size    int               `json:"size"`
		Commits []json.RawMessage `json:"commits"`
	} `json:"payload"`
}

type searchResult struct {
	TotalCount int `json:"total_count"`
}

// Exists probes whether the username resolves to an account. Transport
// failures are reported as errors, not as a missing account.
func (c *Client) Exists(ctx context.Context, username string) (bool, error) {
	status, _, err := c.get(ctx, fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username)))
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", username, providers.ErrUnreachable)
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("probe %s: status %d: %w", username, status, providers.ErrUnreachable)
	}
}

// FetchStats acquires a normalized commit-activity snapshot for the
// username. The returned snapshot is always usable: when acquisition
// fails entirely the fixed fallback snapshot is returned together with
// an error describing why, so the caller can record a warning and
// decide whether to keep a previous snapshot instead.
func (c *Client) FetchStats(ctx context.Context, username string) (*models.GitHubStats, error) {
	exists, err := c.Exists(ctx, username)
	if err == nil && !exists {
		return models.FallbackGitHubStats(), fmt.Errorf("github user %q not found: %w", username, providers.ErrRejected)
	}
	// A failed probe is not conclusive; fall through and let the
	// strategies report their own failures.

	stats, _, err := providers.RunChain(ctx, models.ProviderGitHub, []providers.Strategy[*models.GitHubStats]{
		{Name: models.MethodAccurate, Run: func(ctx context.Context) (*models.GitHubStats, error) {
			return c.accurateStats(ctx, username)
		}},
		{Name: models.MethodSearchAPI, Run: func(ctx context.Context) (*models.GitHubStats, error) {
			return c.searchOnlyStats(ctx, username)
		}},
		{Name: models.MethodEstimate, Run: func(ctx context.Context) (*models.GitHubStats, error) {
			return c.estimateStats(ctx, username)
		}},
	})
	if err != nil {
		return models.FallbackGitHubStats(), err
	}
	return stats, nil
}

// accurateStats queries the commit search API for the authoritative
// total, the profile for the repo count, and the events feed for the
// week/month buckets. Any failure of the authoritative pieces makes
// the whole strategy unsupported so the chain can fall through.
func (c *Client) accurateStats(ctx context.Context, username string) (*models.GitHubStats, error) {
	total, err := c.searchCommitTotal(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("commit search: %v: %w", err, providers.ErrUnsupported)
	}

	profile, err := c.fetchProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("profile: %v: %w", err, providers.ErrUnsupported)
	}

	events, err := c.fetchEvents(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("events feed: %v: %w", err, providers.ErrUnsupported)
	}

	weekly, monthly, _ := c.bucketCommits(events)

	return &models.GitHubStats{
		TotalCommits:   total,
		WeeklyCommits:  weekly,
		MonthlyCommits: monthly,
		PublicRepos:    profile.PublicRepos,
		Method:         models.MethodAccurate,
		LastUpdated:    c.now(),
	}, nil
}

// searchOnlyStats serves accounts where the commit search total is
// resolvable but the rest of the accurate bundle is not (profile or
// events feed failing). The window buckets are unknown and stay zero.
func (c *Client) searchOnlyStats(ctx context.Context, username string) (*models.GitHubStats, error) {
	total, err := c.searchCommitTotal(ctx, username)
	if err != nil {
		return nil, err
	}

	return &models.GitHubStats{
		TotalCommits: total,
		Method:       models.MethodSearchAPI,
		LastUpdated:  c.now(),
	}, nil
}

// estimateStats derives a heuristic commit total when the accurate
// method is unsupported (e.g. search API rate limited):
//
//	base       = publicRepos * 8
//	activity   = min(3, recentCommits/10), or 0.5 with no activity
//	age        = min(2, accountAgeYears/2)
//	total      = max(recentCommits*10, floor(base*activity*age))
func (c *Client) estimateStats(ctx context.Context, username string) (*models.GitHubStats, error) {
	profile, err := c.fetchProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	events, err := c.fetchEvents(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("events feed: %w", err)
	}

	weekly, monthly, recent := c.bucketCommits(events)

	base := float64(profile.PublicRepos) * estimateCommitsPerRepo

	activityMult := estimateIdleMultiplier
	if recent > 0 {
		activityMult = math.Min(estimateActivityCap, float64(recent)/estimateActivityDivisor)
	}

	ageYears := c.now().Sub(profile.CreatedAt).Hours() / hoursPerYear
	ageMult := math.Min(estimateAgeCap, ageYears/estimateAgeYearsDivisor)

	estimated := int(math.Floor(base * activityMult * ageMult))
	if floor := recent * estimateRecentMultiplier; floor > estimated {
		estimated = floor
	}
	if estimated < 0 {
		estimated = 0
	}

	return &models.GitHubStats{
		TotalCommits:   estimated,
		WeeklyCommits:  weekly,
		MonthlyCommits: monthly,
		PublicRepos:    profile.PublicRepos,
		Method:         models.MethodEstimate,
		LastUpdated:    c.now(),
	}, nil
}

// bucketCommits sums push-event commit counts into the 7-day and
// 30-day windows plus the total recent-activity count. An event with
// no embedded commit count contributes 1.
func (c *Client) bucketCommits(events []feedEvent) (weekly, monthly, recent int) {
	now := c.now()
	weekStart := now.Add(-weekWindow)
	monthStart := now.Add(-monthWindow)

	for _, ev := range events {
		if ev.Type != "PushEvent" {
			continue
		}
		commits := ev.Payload.Size
		if commits == 0 {
			commits = len(ev.Payload.Commits)
		}
		if commits == 0 {
			commits = 1
		}

		recent += commits
		if !ev.CreatedAt.Before(monthStart) {
			monthly += commits
		}
		if !ev.CreatedAt.Before(weekStart) {
			weekly += commits
		}
	}
	return weekly, monthly, recent
}

func (c *Client) searchCommitTotal(ctx context.Context, username string) (int, error) {
	endpoint := fmt.Sprintf("%s/search/commits?q=author:%s&per_page=1", c.baseURL, url.QueryEscape(username))
	status, body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("search commits: %w", providers.ErrUnreachable)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("search commits: status %d: %w", status, providers.ErrRejected)
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("search commits: decode: %w", err)
	}
	return result.TotalCount, nil
}

func (c *Client) fetchProfile(ctx context.Context, username string) (*userProfile, error) {
	status, body, err := c.get(ctx, fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username)))
	if err != nil {
		return nil, fmt.Errorf("profile: %w", providers.ErrUnreachable)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("profile: user not found: %w", providers.ErrRejected)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("profile: status %d: %w", status, providers.ErrUnreachable)
	}

	var profile userProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("profile: decode: %w", err)
	}
	return &profile, nil
}

func (c *Client) fetchEvents(ctx context.Context, username string) ([]feedEvent, error) {
	endpoint := fmt.Sprintf("%s/users/%s/events?per_page=%d", c.baseURL, url.PathEscape(username), eventsPerPage)
	status, body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("events: %w", providers.ErrUnreachable)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("events: status %d: %w", status, providers.ErrUnreachable)
	}

	var events []feedEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("events: decode: %w", err)
	}
	return events, nil
}

// get performs one API request and returns the status code and body.
// Transport errors are returned as-is for the caller to classify.
func (c *Client) get(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
