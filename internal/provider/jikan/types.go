package jikan

// Response shapes of the Jikan v4 endpoints, trimmed to the fields used.

type aired struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type anime struct {
	MalID int    `json:"mal_id"`
	Title string `json:"title"`
	Year  int    `json:"year"`
	Aired aired  `json:"aired"`
}

// premieredYear prefers the aired.from date and falls back to the year field.
func (a anime) premieredYear() int {
	if y := yearOf(a.Aired.From); y > 0 {
		return y
	}
	return a.Year
}

type animeResponse struct {
	Data anime `json:"data"`
}

type searchResponse struct {
	Data []anime `json:"data"`
}

type jikanEpisode struct {
	MalID int    `json:"mal_id"`
	Title string `json:"title"`
	Aired string `json:"aired"`
}

type pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

type episodesResponse struct {
	Data       []jikanEpisode `json:"data"`
	Pagination pagination     `json:"pagination"`
}
