package rawg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"log/slog"

	"github.com/icco/backlog/models"
)

// pageSize caps how many candidates a search returns.
const pageSize = 10

// maxListEntries caps how many platform/genre names end up on a record.
const maxListEntries = 3

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// SearchResult is the provider's response to a game search.
type SearchResult struct {
	Count   int         `json:"count"`
	Results []Candidate `json:"results"`
}

// Candidate is one possible match for a searched title, prior to user
// disambiguation.
type Candidate struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	Rating          float64 `json:"rating"`
	BackgroundImage string  `json:"background_image"`
	Platforms       []struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Search issues one search request for title and returns up to 10
// candidates.
func (c *Client) Search(ctx context.Context, title string) (*SearchResult, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("search", title)
	params.Set("page_size", fmt.Sprint(pageSize))

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/games?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// PlatformNames returns the candidate's platform names in provider order.
func (c *Candidate) PlatformNames() []string {
	names := make([]string, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		if p.Platform.Name != "" {
			names = append(names, p.Platform.Name)
		}
	}
	return names
}

// GenreNames returns the candidate's genre names in provider order.
func (c *Candidate) GenreNames() []string {
	names := make([]string, 0, len(c.Genres))
	for _, g := range c.Genres {
		names = append(names, g.Name)
	}
	return names
}

// Game maps the candidate onto a catalog record. Platform and genre lists
// are truncated to the first three entries and comma-joined.
func (c *Candidate) Game() *models.Game {
	released := c.Released
	if released == "" {
		released = models.ReleaseDateUnknown
	}
	return &models.Game{
		Name:        c.Name,
		ReleaseDate: released,
		Rating:      c.Rating,
		ImageURL:    c.BackgroundImage,
		Platform:    joinFirst(c.PlatformNames(), maxListEntries),
		Genre:       joinFirst(c.GenreNames(), maxListEntries),
	}
}

// DisplayLine is the one-line summary shown in disambiguation lists.
func (c *Candidate) DisplayLine() string {
	released := c.Released
	if released == "" {
		released = models.ReleaseDateUnknown
	}
	return fmt.Sprintf("%s (%s) - %s", c.Name, released, joinFirst(c.PlatformNames(), maxListEntries))
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
