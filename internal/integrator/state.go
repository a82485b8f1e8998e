// Package integrator drives a single renderer through a play command's
// lifecycle: issuing the initial SetAVTransportURI/Play, polling the
// renderer's transport state, and deciding when to queue the next track,
// detect an interruption, or end the run.
package integrator

import (
	"time"

	"github.com/derHeinz/dlna-mediacontroller/internal/didl"
)

// Command is a play request as received from the dispatcher. Exactly one
// of URL or (Title/Artist) selection should be meaningful; IsURLMode
// reports which.
type Command struct {
	URL    string
	Artist string
	Title  string
	Target string
	Type   string
	Loop   bool
}

// IsURLMode reports whether the command plays a literal URL rather than
// searching the media server for an item.
func (c Command) IsURLMode() bool {
	return c.URL != ""
}

// typeText renders the German noun used in the item-mode looping
// description, grounded verbatim on
// original_source/controller/data/state.py's _type_text.
func typeText(kind string) string {
	switch kind {
	case "audio":
		return "Lieder"
	case "video":
		return "Videos"
	case "image":
		return "Bilder"
	default:
		return "Medien"
	}
}

// StateView is an immutable snapshot of a State, safe to hand out to
// callers (HTTP handlers, the websocket hub) without further locking.
type StateView struct {
	Looping             bool      `json:"looping"`
	Running             bool      `json:"running"`
	RunningStartedAt     time.Time `json:"running_started_at,omitempty"`
	LastPlayedURL        string    `json:"last_played_url,omitempty"`
	LastPlayedArtist     string    `json:"last_played_artist,omitempty"`
	LastPlayedTitle      string    `json:"last_played_title,omitempty"`
	PlayedCount          int       `json:"played_count"`
	Description          string    `json:"description"`
	StopReason           string    `json:"stop_reason,omitempty"`
}

// State is the mutable per-renderer play state. It is always accessed
// under the owning Integrator's single mutex; see Integrator for the
// locking discipline.
type State struct {
	current Command

	running              bool
	looping              bool
	runningStart         time.Time
	playedCount          int
	description          string
	stopReason           string

	nextPlayURL  string
	nextPlayItem *didl.Item

	lastPlayedURL   string
	lastPlayedItem  *didl.Item
}

func newState() *State {
	return &State{description: "Aus"}
}

// resetForStop clears all per-command fields except last-played-*, which
// survives a stop so the description can still reference "what was
// playing" after the run ends — matching data/state.py's
// _initial_values, which deliberately never touches last_played_url/item.
func (s *State) resetForStop() {
	s.running = false
	s.looping = false
	s.runningStart = time.Time{}
	s.playedCount = 0
	s.nextPlayURL = ""
	s.nextPlayItem = nil
	s.current = Command{}
}

func (s *State) command(cmd Command) {
	s.current = cmd
	s.stopReason = ""
}

func (s *State) isURLMode() bool {
	return s.current.URL != ""
}

func (s *State) titleAndArtist() (title, artist string) {
	if s.lastPlayedItem != nil {
		return s.lastPlayedItem.Title, s.lastPlayedItem.Artist
	}
	return "", ""
}

// calculateDescription mirrors data/state.py's _calculate_description
// exactly, including the German sentence templates. Matching
// _initial_values, "Aus" is hardcoded whenever nothing is running rather
// than recomputed from a stale command.
func (s *State) calculateDescription() string {
	if !s.running {
		return "Aus"
	}

	if s.current.Loop {
		if s.current.URL != "" {
			return "Wiederholt " + s.current.URL
		}
		desc := "Spielt " + typeText(s.current.Type)
		if s.current.Artist != "" {
			desc += " von " + s.current.Artist
		}
		if s.current.Title != "" {
			desc += " mit '" + s.current.Title + "'"
		}
		return desc
	}

	if s.current.URL != "" {
		return "Spielt " + s.current.URL
	}
	title, artist := s.titleAndArtist()
	if title != "" {
		desc := "Spielt " + title
		if artist != "" {
			desc += " von " + artist
		}
		return desc
	}
	if artist != "" {
		return "Spielt etwas von " + artist
	}
	return "Aus"
}

// nowPlaying records that url/item has started playing under the current
// command, grounded on data/state.py's now_playing: running_start is only
// set the first time within a run, and played_count increments on every
// call (including the very first).
func (s *State) nowPlaying(url string, item *didl.Item) {
	s.running = true
	s.looping = s.current.Loop
	if s.runningStart.IsZero() {
		s.runningStart = time.Now()
	}
	s.playedCount++
	s.lastPlayedURL = url
	s.lastPlayedItem = item
	s.description = s.calculateDescription()
}

// nextTrackIsPlaying promotes the queued next-track fields into
// last-played, used when the renderer reports it has moved on to the
// queued SetNextAVTransportURI target.
func (s *State) nextTrackIsPlaying() {
	s.lastPlayedURL = s.nextPlayURL
	s.lastPlayedItem = s.nextPlayItem
	s.playedCount++
}

func (s *State) nextPlay(url string, item *didl.Item) {
	s.nextPlayURL = url
	s.nextPlayItem = item
}

func (s *State) stop(reason string) {
	s.resetForStop()
	s.stopReason = reason
	s.description = s.calculateDescription()
}

func (s *State) view() StateView {
	return StateView{
		Looping:          s.looping,
		Running:          s.running,
		RunningStartedAt: s.runningStart,
		LastPlayedURL:    s.lastPlayedURL,
		LastPlayedArtist: itemArtist(s.lastPlayedItem),
		LastPlayedTitle:  itemTitle(s.lastPlayedItem),
		PlayedCount:      s.playedCount,
		Description:      s.description,
		StopReason:       s.stopReason,
	}
}

func itemArtist(item *didl.Item) string {
	if item == nil {
		return ""
	}
	return item.Artist
}

func itemTitle(item *didl.Item) string {
	if item == nil {
		return ""
	}
	return item.Title
}
