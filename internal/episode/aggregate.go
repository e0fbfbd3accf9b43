package episode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// MaxEpisodeGap is the widest numbering gap filled with placeholders. A season
// ends at the first wider gap and its later episodes are dropped.
const MaxEpisodeGap = 1000

// GroupBySeason buckets provider episodes into contiguous seasons.
//
// Episodes without a season (specials, unaired entries) or with a negative
// number are dropped. The rest
// are ordered by season then episode number, and a new bucket starts whenever
// the season changes. Gaps in numbering are filled with Placeholder and a
// repeated episode number keeps the first title seen, so every bucket satisfies
// EndEpisode-StartEpisode+1 == len(Titles).
func GroupBySeason(episodes []Episode) []SeasonBucket {
	usable := lo.Filter(episodes, func(e Episode, _ int) bool {
		return e.HasSeason && e.Season > 0 && e.Number >= 0
	})

	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].Season != usable[j].Season {
			return usable[i].Season < usable[j].Season
		}
		return usable[i].Number < usable[j].Number
	})

	buckets := make([]SeasonBucket, 0)
	start := 0
	for i := 1; i <= len(usable); i++ {
		if i < len(usable) && usable[i].Season == usable[start].Season {
			continue
		}
		buckets = append(buckets, buildBucket(untilGap(usable[start:i])))
		start = i
	}

	return buckets
}

// untilGap returns the leading run of eps whose consecutive numbers are at
// most MaxEpisodeGap apart.
func untilGap(eps []Episode) []Episode {
	for i := 1; i < len(eps); i++ {
		if eps[i].Number-eps[i-1].Number > MaxEpisodeGap {
			return eps[:i]
		}
	}
	return eps
}

// buildBucket assumes eps is non-empty, shares one season and is sorted by number.
func buildBucket(eps []Episode) SeasonBucket {
	first := eps[0].Number
	last := eps[len(eps)-1].Number

	titles := make([]string, last-first+1)
	seen := make([]bool, len(titles))
	for _, e := range eps {
		idx := e.Number - first
		if seen[idx] {
			continue
		}
		seen[idx] = true
		titles[idx] = titleOrPlaceholder(e.Title)
	}
	for i := range titles {
		if !seen[i] {
			titles[i] = Placeholder
		}
	}

	return SeasonBucket{
		Season:       eps[0].Season,
		StartEpisode: first,
		EndEpisode:   last,
		Titles:       titles,
	}
}

func titleOrPlaceholder(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return Placeholder
	}
	return title
}

// Validate checks the bucket and result ordering invariants.
func Validate(buckets []SeasonBucket) error {
	prev := 0
	for i, b := range buckets {
		if b.Season <= 0 {
			return fmt.Errorf("bucket %d: season %d is not positive", i, b.Season)
		}
		if b.Season <= prev {
			return fmt.Errorf("bucket %d: season %d not after season %d", i, b.Season, prev)
		}
		if b.StartEpisode > b.EndEpisode {
			return fmt.Errorf("season %d: start episode %d after end episode %d", b.Season, b.StartEpisode, b.EndEpisode)
		}
		if want := b.EndEpisode - b.StartEpisode + 1; want != len(b.Titles) {
			return fmt.Errorf("season %d: range covers %d episodes but has %d titles", b.Season, want, len(b.Titles))
		}
		prev = b.Season
	}
	return nil
}
