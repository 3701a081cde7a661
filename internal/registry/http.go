package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the hard per-call timeout for registry requests.
const DefaultTimeout = 5 * time.Second

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// HTTPConfig contains the resolved registry client configuration.
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewHTTP constructs a registry client for an HTTP registry.
//
// It uses the REST endpoints:
//   GET {baseURL}/v1/skills/search?q=...&sort=...&limit=...
//   GET {baseURL}/v1/skills/browse?category=...&limit=...
// both returning a JSON array of skill records.
func NewHTTP(cfg HTTPConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

// wireRecord models the subset of registry response fields used by scout.
type wireRecord struct {
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Downloads   int64  `json:"downloads"`
	UpdatedAt   string `json:"updated_at"`
}

func (c *httpClient) Search(ctx context.Context, query string, sort Sort, limit int) ([]SkillRecord, error) {
	q := url.Values{}
	q.Set("q", query)
	if sort != "" {
		q.Set("sort", string(sort))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.get(ctx, "/v1/skills/search", q)
}

func (c *httpClient) Browse(ctx context.Context, category string, limit int) ([]SkillRecord, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.get(ctx, "/v1/skills/browse", q)
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values) ([]SkillRecord, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("registry base URL is not configured (set registry_url in scout.yaml or SCOUT_REGISTRY_URL)")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Transport failures and timeouts are outages, not empty results.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registry request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed []wireRecord
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse registry response: %w", err)
	}

	out := make([]SkillRecord, 0, len(parsed))
	for _, w := range parsed {
		rec := SkillRecord{
			ID:          Identifier{Owner: w.Owner, Repo: w.Repo, Name: w.Name},
			DisplayName: w.DisplayName,
			Description: w.Description,
			Downloads:   w.Downloads,
		}
		if rec.DisplayName == "" {
			rec.DisplayName = w.Name
		}
		if w.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, w.UpdatedAt); err == nil {
				rec.UpdatedAt = t
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
