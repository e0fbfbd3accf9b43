package jikan

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/Digital-Shane/title-fetch/internal/provider"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	providerName = "jikan"
	// BaseURL is the public Jikan v4 endpoint.
	BaseURL = "https://api.jikan.moe/v4"
	// maxPages bounds the episode listing walk for very long running shows.
	maxPages = 50
)

// Provider implements provider.Provider for Jikan (MyAnimeList).
type Provider struct {
	client  *resty.Client
	limiter *provider.RateLimiter
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient routes requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) {
		base := p.client.BaseURL
		p.client = resty.NewWithClient(hc).SetBaseURL(base)
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.client.SetBaseURL(url)
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.client.SetTimeout(d)
	}
}

// WithRateLimit allows n requests per second. Zero disables limiting.
func WithRateLimit(n int) Option {
	return func(p *Provider) {
		p.limiter = provider.NewRateLimiter(n, time.Second)
	}
}

// New creates a Jikan provider limited to 3 requests per second.
func New(opts ...Option) *Provider {
	p := &Provider{
		client:  resty.New().SetBaseURL(BaseURL).SetTimeout(10 * time.Second),
		limiter: provider.NewRateLimiter(3, time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client.SetHeader("Accept", "application/json")
	return p
}

func (p *Provider) Kind() provider.Kind { return provider.KindJikan }

func (p *Provider) Name() string { return providerName }

func (p *Provider) Description() string {
	return "MyAnimeList via Jikan, seasons follow airing years"
}

func (p *Provider) RequiresAPIKey() bool { return false }

// Fetch resolves the anime, walks its episode pages and groups them by the
// year each episode aired.
func (p *Provider) Fetch(ctx context.Context, query episode.Query) (*episode.Result, error) {
	if err := provider.ValidateQuery(p, query); err != nil {
		return nil, err
	}

	id := query.AnimeID
	if !query.HasID() {
		found, err := p.search(ctx, query)
		if err != nil {
			return nil, err
		}
		id = found
	}

	var details animeResponse
	if err := p.get(ctx, fmt.Sprintf("/anime/%d", id), nil, &details); err != nil {
		return nil, err
	}

	episodes, err := p.episodes(ctx, details.Data.MalID)
	if err != nil {
		return nil, err
	}

	seasons := episode.GroupBySeason(seasonsByYear(episodes))

	logrus.WithFields(logrus.Fields{
		"provider": providerName,
		"anime":    details.Data.MalID,
		"episodes": len(episodes),
		"seasons":  len(seasons),
	}).Debug("fetched episodes")

	return &episode.Result{
		Show: &episode.Show{
			ID:            details.Data.MalID,
			Name:          details.Data.Title,
			PremieredYear: details.Data.premieredYear(),
		},
		Seasons: seasons,
	}, nil
}

// search returns the mal_id of the best hit: the first one that aired in the
// requested year, otherwise the first hit.
func (p *Provider) search(ctx context.Context, query episode.Query) (int, error) {
	params := map[string]string{"q": query.Name()}
	if query.Year > 0 {
		params["start_date"] = fmt.Sprintf("%04d-01-01", query.Year)
	}

	var resp searchResponse
	if err := p.get(ctx, "/anime", params, &resp); err != nil {
		return 0, err
	}
	if len(resp.Data) == 0 {
		return 0, provider.NotFound(providerName, "No matching anime found.")
	}

	if query.Year > 0 {
		for _, hit := range resp.Data {
			if hit.premieredYear() == query.Year {
				return hit.MalID, nil
			}
		}
	}
	return resp.Data[0].MalID, nil
}

func (p *Provider) episodes(ctx context.Context, id int) ([]jikanEpisode, error) {
	var all []jikanEpisode
	for page := 1; page <= maxPages; page++ {
		var resp episodesResponse
		params := map[string]string{"page": strconv.Itoa(page)}
		if err := p.get(ctx, fmt.Sprintf("/anime/%d/episodes", id), params, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		if !resp.Pagination.HasNextPage {
			break
		}
	}
	return all, nil
}

func (p *Provider) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return provider.MapError(providerName, err)
	}
	if resp.IsError() {
		return provider.MapError(providerName, fmt.Errorf("Jikan Error: %s", resp.Status()))
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return provider.InvalidResponse(providerName, err)
	}
	return nil
}

// seasonsByYear numbers airing years 1..n in ascending order and assigns each
// episode the season of its year. Episodes without an air date inherit the
// year of the preceding episode, or of the first dated one.
func seasonsByYear(eps []jikanEpisode) []episode.Episode {
	years := make([]int, len(eps))
	last := 0
	for i, e := range eps {
		if y := yearOf(e.Aired); y > 0 {
			last = y
		}
		years[i] = last
	}
	first := 0
	for _, y := range years {
		if y > 0 {
			first = y
			break
		}
	}

	distinct := make(map[int]struct{})
	for i := range years {
		if years[i] == 0 {
			years[i] = first
		}
		distinct[years[i]] = struct{}{}
	}

	sorted := lo.Keys(distinct)
	sort.Ints(sorted)
	season := make(map[int]int, len(sorted))
	for i, y := range sorted {
		season[y] = i + 1
	}

	out := make([]episode.Episode, 0, len(eps))
	for i, e := range eps {
		out = append(out, episode.Episode{
			Season:    season[years[i]],
			HasSeason: true,
			Number:    e.MalID,
			Title:     e.Title,
		})
	}
	return out
}

// yearOf extracts the year of an ISO timestamp such as 2002-10-03T00:00:00+00:00.
func yearOf(date string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(date), "-")
	year, err := strconv.Atoi(head)
	if err != nil || year <= 0 {
		return 0
	}
	return year
}
