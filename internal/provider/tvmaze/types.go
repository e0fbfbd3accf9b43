package tvmaze

import "strconv"

type show struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Premiered string `json:"premiered"`
}

// premieredYear parses the YYYY prefix of the premiere date, 0 when absent.
func (s show) premieredYear() int {
	if len(s.Premiered) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s.Premiered[:4])
	if err != nil {
		return 0
	}
	return year
}

type searchHit struct {
	Score float64 `json:"score"`
	Show  show    `json:"show"`
}

type tvmazeEpisode struct {
	ID      int    `json:"id"`
	Season  *int   `json:"season"`
	Number  *int   `json:"number"`
	Name    string `json:"name"`
	Airdate string `json:"airdate"`
}
