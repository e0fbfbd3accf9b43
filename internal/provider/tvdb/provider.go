package tvdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/Digital-Shane/title-fetch/internal/provider"
	tvdbapi "github.com/dashotv/tvdb"
	"github.com/dashotv/tvdb/openapi/models/operations"
	"github.com/dashotv/tvdb/openapi/models/shared"
	"github.com/sirupsen/logrus"
)

const (
	providerName = "tvdb"
	seasonType   = "default"
	maxPages     = 20
)

// Client captures the dashotv client methods used by this provider.
type Client interface {
	GetSearchResults(request operations.GetSearchResultsRequest) (*tvdbapi.GetSearchResultsResponse, error)
	GetSeriesEpisodes(request operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error)
}

// LoginFunc exchanges an API key for an authenticated client.
type LoginFunc func(apiKey string) (Client, error)

func defaultLogin(apiKey string) (Client, error) {
	client, err := tvdbapi.Login(apiKey)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Provider implements provider.Provider for TheTVDB.
type Provider struct {
	login LoginFunc
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogin replaces the login function, used by tests to inject a fake client.
func WithLogin(fn LoginFunc) Option {
	return func(p *Provider) {
		p.login = fn
	}
}

// New creates a new TVDB provider instance.
func New(opts ...Option) *Provider {
	p := &Provider{login: defaultLogin}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Kind() provider.Kind { return provider.KindTVDB }

func (p *Provider) Name() string { return providerName }

func (p *Provider) Description() string {
	return "TheTVDB episode lists grouped by aired season"
}

func (p *Provider) RequiresAPIKey() bool { return true }

// Fetch logs in with the query's API key and returns the series episodes
// grouped by season. TVDB results carry no show metadata.
func (p *Provider) Fetch(ctx context.Context, query episode.Query) (*episode.Result, error) {
	if err := provider.ValidateQuery(p, query); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := p.login(strings.TrimSpace(query.APIKey))
	if err != nil {
		return nil, provider.MapError(providerName, err)
	}

	seriesID := int64(query.AnimeID)
	if !query.HasID() {
		seriesID, err = p.searchSeries(client, query)
		if err != nil {
			return nil, err
		}
	}

	records, err := p.seriesEpisodes(ctx, client, seriesID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &episode.Result{Seasons: []episode.SeasonBucket{}}, nil
	}

	seasons := episode.GroupBySeason(toEpisodes(records))
	if len(seasons) == 0 {
		return nil, provider.NotFound(providerName, "No episodes found.")
	}

	logrus.WithFields(logrus.Fields{
		"provider": providerName,
		"series":   seriesID,
		"seasons":  len(seasons),
	}).Debug("fetched episodes")

	return &episode.Result{Seasons: seasons}, nil
}

func (p *Provider) searchSeries(client Client, query episode.Query) (int64, error) {
	name := query.Name()
	req := operations.GetSearchResultsRequest{Query: &name}
	typeSeries := "series"
	req.Type = &typeSeries
	if query.Year > 0 {
		yf := float64(query.Year)
		req.Year = &yf
	}

	resp, err := client.GetSearchResults(req)
	if err != nil {
		return 0, provider.MapError(providerName, err)
	}
	if resp == nil {
		return 0, provider.NotFound(providerName, "No matching show found.")
	}

	for _, candidate := range resp.Data {
		if id := searchResultID(candidate); id != 0 {
			return id, nil
		}
	}
	return 0, provider.NotFound(providerName, "No matching show found.")
}

// seriesEpisodes walks the paginated episode listing until an empty page.
func (p *Provider) seriesEpisodes(ctx context.Context, client Client, seriesID int64) ([]shared.EpisodeBaseRecord, error) {
	req := operations.GetSeriesEpisodesRequest{
		ID:         float64(seriesID),
		SeasonType: seasonType,
		Page:       0,
	}

	var records []shared.EpisodeBaseRecord
	for i := 0; i < maxPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := client.GetSeriesEpisodes(req)
		if err != nil {
			return nil, provider.MapError(providerName, err)
		}
		if resp == nil || resp.Data == nil || len(resp.Data.Episodes) == 0 {
			break
		}
		records = append(records, resp.Data.Episodes...)
		req.Page++
	}
	return records, nil
}

func toEpisodes(records []shared.EpisodeBaseRecord) []episode.Episode {
	episodes := make([]episode.Episode, 0, len(records))
	for _, r := range records {
		name := pointerToString(r.Name)
		if r.SeasonNumber == nil || r.Number == nil || name == "" {
			continue
		}
		episodes = append(episodes, episode.Episode{
			Season:    int(*r.SeasonNumber),
			HasSeason: true,
			Number:    int(*r.Number),
			Title:     name,
		})
	}
	return episodes
}

func searchResultID(result shared.SearchResult) int64 {
	if !strings.EqualFold(pointerToString(result.Type), "series") && result.Type != nil {
		return 0
	}
	id := parseInt64(pointerToString(result.TvdbID))
	if id == 0 {
		id = parseInt64(strings.TrimPrefix(pointerToString(result.ID), "series-"))
	}
	return id
}

func pointerToString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func parseInt64(value string) int64 {
	parsed, _ := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	return parsed
}
