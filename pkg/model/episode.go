package model

import (
	"regexp"
	"time"
)

// EpisodeCodePattern matches codes such as S01E01.
var EpisodeCodePattern = regexp.MustCompile(`^S\d{2}E\d{2}$`)

// Episode is a single broadcast episode.
type Episode struct {
	EpisodeID  int       `json:"episode_id"`
	Name       string    `json:"name"`
	AirDate    string    `json:"air_date"`
	Code       string    `json:"episode"`
	Characters []int     `json:"characters"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
}

// Season returns the season prefix of the episode code ("S01"), or "".
func (e *Episode) Season() string {
	if len(e.Code) < 3 || e.Code[0] != 'S' {
		return ""
	}
	return e.Code[:3]
}

// EpisodeFilter narrows an episode listing.
type EpisodeFilter struct {
	Season string // e.g. "S01"; "" or "all" means no filter
}
