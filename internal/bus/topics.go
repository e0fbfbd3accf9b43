package bus

import (
	"errors"

	"github.com/goccy/go-json"
)

// Channel names shared by both surfaces.
const (
	SendEpisodesChannel     = "send_episodes"
	DirectoryChangedChannel = "directory-changed"
	TriggerReloadChannel    = "trigger-reload"
)

// EpisodeTitles is the send_episodes payload.
type EpisodeTitles struct {
	EpisodeTitles []string `json:"episodeTitles"`
}

// Trigger is the payload of the reload style channels. Older emitters send a
// bare string message, which decodes into Reason.
type Trigger struct {
	Reason string `json:"reason,omitempty"`
	Path   string `json:"path,omitempty"`
}

// UnmarshalJSON accepts an object, a bare string or null.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	var msg string
	if err := json.Unmarshal(data, &msg); err == nil {
		t.Reason = msg
		return nil
	}

	type plain Trigger
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Trigger(p)
	return nil
}

var errTitlesNotArray = errors.New("episodeTitles must be an array of strings")

var (
	// SendEpisodes carries a season's titles from the fetcher to the renamer.
	SendEpisodes = Topic[EpisodeTitles]{
		Name: SendEpisodesChannel,
		Validate: func(p EpisodeTitles) error {
			if p.EpisodeTitles == nil {
				return errTitlesNotArray
			}
			return nil
		},
	}

	// DirectoryChanged tells the renamer its working directory changed.
	DirectoryChanged = Topic[Trigger]{Name: DirectoryChangedChannel}

	// TriggerReload asks the renamer to re-read the current episode names.
	TriggerReload = Topic[Trigger]{Name: TriggerReloadChannel}
)
