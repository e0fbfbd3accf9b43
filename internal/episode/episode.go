package episode

import (
	"strings"

	"github.com/samber/lo"
)

// Placeholder is used for episodes without a title and for gaps in numbering.
const Placeholder = "Unknown Title"

// Episode is a single provider-native episode before aggregation.
type Episode struct {
	Season    int
	HasSeason bool
	Number    int
	Title     string
}

// SeasonBucket holds the contiguous titles of one season.
// Titles[i] is the title of episode StartEpisode+i.
type SeasonBucket struct {
	Season       int      `json:"season"`
	StartEpisode int      `json:"start_episode"`
	EndEpisode   int      `json:"end_episode"`
	Titles       []string `json:"titles"`
}

// Len returns the number of titles in the bucket.
func (b SeasonBucket) Len() int {
	return len(b.Titles)
}

// Show is the provider metadata of a series. PremieredYear is 0 when unknown.
type Show struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	PremieredYear int    `json:"premiered_year,omitempty"`
}

// ShowDetails pairs show metadata with its season buckets.
type ShowDetails struct {
	Show
	EpisodesBySeason []SeasonBucket `json:"episodes_by_season"`
}

// Result is what every provider returns. Show is nil for providers that only
// return bare seasons.
type Result struct {
	Show    *Show          `json:"show,omitempty"`
	Seasons []SeasonBucket `json:"seasons"`
}

// Details returns the show details, or nil when the provider supplied no show.
func (r *Result) Details() *ShowDetails {
	if r == nil || r.Show == nil {
		return nil
	}
	return &ShowDetails{Show: *r.Show, EpisodesBySeason: r.Seasons}
}

// Season returns the bucket for the given season number.
func (r *Result) Season(season int) (SeasonBucket, bool) {
	if r == nil {
		return SeasonBucket{}, false
	}
	return lo.Find(r.Seasons, func(b SeasonBucket) bool { return b.Season == season })
}

// Query carries the user supplied fetch parameters. Zero values mean unset.
type Query struct {
	AnimeID   int    `json:"anime_id,omitempty"`
	AnimeName string `json:"anime_name,omitempty"`
	Year      int    `json:"year,omitempty"`
	APIKey    string `json:"-"`
}

// Name returns the trimmed anime name.
func (q Query) Name() string {
	return strings.TrimSpace(q.AnimeName)
}

// HasID reports whether a provider id was supplied.
func (q Query) HasID() bool {
	return q.AnimeID > 0
}

// IsEmpty reports whether neither an id nor a name was supplied.
func (q Query) IsEmpty() bool {
	return !q.HasID() && q.Name() == ""
}

// JoinTitles joins titles with newlines, the clipboard and text area format.
func JoinTitles(titles []string) string {
	return strings.Join(titles, "\n")
}

// SplitTitles splits newline separated text into trimmed titles.
func SplitTitles(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return lo.Map(lines, func(line string, _ int) string {
		return strings.TrimSpace(line)
	})
}
