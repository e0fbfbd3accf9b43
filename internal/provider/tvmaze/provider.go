package tvmaze

import (
	"context"
	"fmt"
	"net/http"
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
	providerName = "tvmaze"
	// BaseURL is the public TVMaze API root.
	BaseURL = "https://api.tvmaze.com"
)

// Provider implements provider.Provider for TVMaze.
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

// WithRateLimit allows n requests per ten seconds, the window TVMaze documents.
func WithRateLimit(n int) Option {
	return func(p *Provider) {
		p.limiter = provider.NewRateLimiter(n, 10*time.Second)
	}
}

// New creates a TVMaze provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		client:  resty.New().SetBaseURL(BaseURL).SetTimeout(10 * time.Second),
		limiter: provider.NewRateLimiter(20, 10*time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client.SetHeader("Accept", "application/json")
	return p
}

func (p *Provider) Kind() provider.Kind { return provider.KindTVMaze }

func (p *Provider) Name() string { return providerName }

func (p *Provider) Description() string {
	return "TVMaze episode lists with official seasons"
}

func (p *Provider) RequiresAPIKey() bool { return false }

// Fetch looks the show up by id or by name and groups its episodes by season.
func (p *Provider) Fetch(ctx context.Context, query episode.Query) (*episode.Result, error) {
	if err := provider.ValidateQuery(p, query); err != nil {
		return nil, err
	}

	var found show
	if query.HasID() {
		if err := p.get(ctx, "/shows/"+strconv.Itoa(query.AnimeID), nil, &found); err != nil {
			return nil, err
		}
	} else {
		hit, err := p.search(ctx, query)
		if err != nil {
			return nil, err
		}
		found = hit
	}

	var raw []tvmazeEpisode
	if err := p.get(ctx, fmt.Sprintf("/shows/%d/episodes", found.ID), nil, &raw); err != nil {
		return nil, err
	}

	seasons := episode.GroupBySeason(lo.FilterMap(raw, func(e tvmazeEpisode, _ int) (episode.Episode, bool) {
		if e.Number == nil {
			return episode.Episode{}, false
		}
		return episode.Episode{
			Season:    lo.FromPtr(e.Season),
			HasSeason: e.Season != nil,
			Number:    *e.Number,
			Title:     e.Name,
		}, true
	}))

	logrus.WithFields(logrus.Fields{
		"provider": providerName,
		"show":     found.ID,
		"episodes": len(raw),
		"seasons":  len(seasons),
	}).Debug("fetched episodes")

	return &episode.Result{
		Show: &episode.Show{
			ID:            found.ID,
			Name:          found.Name,
			PremieredYear: found.premieredYear(),
		},
		Seasons: seasons,
	}, nil
}

// search returns the first hit, or with a year the first hit that premiered
// in that year.
func (p *Provider) search(ctx context.Context, query episode.Query) (show, error) {
	var hits []searchHit
	if err := p.get(ctx, "/search/shows", map[string]string{"q": query.Name()}, &hits); err != nil {
		return show{}, err
	}

	if query.Year > 0 {
		prefix := strconv.Itoa(query.Year)
		hit, ok := lo.Find(hits, func(h searchHit) bool {
			return strings.HasPrefix(h.Show.Premiered, prefix)
		})
		if !ok {
			return show{}, provider.NotFound(providerName, "No matching anime found.")
		}
		return hit.Show, nil
	}

	if len(hits) == 0 {
		return show{}, provider.NotFound(providerName, "No matching anime found.")
	}
	return hits[0].Show, nil
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
		return provider.MapError(providerName, fmt.Errorf("TVMaze Error: %s", resp.Status()))
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return provider.InvalidResponse(providerName, err)
	}
	return nil
}
