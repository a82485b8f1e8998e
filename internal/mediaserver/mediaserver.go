// Package mediaserver searches a UPnP ContentDirectory for playable items
// and narrows the result down to a single item for playback.
package mediaserver

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/derHeinz/dlna-mediacontroller/internal/didl"
	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
)

// kindClass maps a renderer capability kind to the object.item class it
// should be searched under. Unknown kinds fall back to audioItem, matching
// the original source's search query which hardcoded audioItem regardless
// of the requested type.
var kindClass = map[string]string{
	"audio": "object.item.audioItem",
	"video": "object.item.videoItem",
	"image": "object.item.imageItem",
}

// MediaServer searches a single ContentDirectory endpoint.
type MediaServer struct {
	client         *soap.Client
	controlURL     string
	requestedCount int
}

// New builds a MediaServer bound to a ContentDirectory control URL,
// requesting up to soap.DefaultRequestedCount matches per search.
func New(client *soap.Client, controlURL string) *MediaServer {
	return &MediaServer{client: client, controlURL: controlURL, requestedCount: soap.DefaultRequestedCount}
}

// NewWithSearchCount builds a MediaServer with a configured RequestedCount
// for ContentDirectory Search calls.
func NewWithSearchCount(client *soap.Client, controlURL string, requestedCount int) *MediaServer {
	return &MediaServer{client: client, controlURL: controlURL, requestedCount: requestedCount}
}

// Criteria narrows a Search by optional title/artist substrings and a
// renderer capability kind (audio/video/image).
type Criteria struct {
	Title  string
	Artist string
	Kind   string
}

// buildSearchCriteria renders the SearchCriteria expression, grounded on
// original_source/dlna/mediaserver.py's QUERY template.
func buildSearchCriteria(c Criteria) string {
	class, ok := kindClass[c.Kind]
	if !ok {
		class = kindClass["audio"]
	}
	var b strings.Builder
	fmt.Fprintf(&b, `upnp:class derivedfrom "%s" and @refID exists false`, class)
	if strings.TrimSpace(c.Title) != "" {
		fmt.Fprintf(&b, ` and dc:title contains "%s"`, c.Title)
	}
	if strings.TrimSpace(c.Artist) != "" {
		fmt.Fprintf(&b, ` and upnp:artist contains "%s"`, c.Artist)
	}
	return b.String()
}

// Search runs a ContentDirectory Search and returns the matched items.
func (m *MediaServer) Search(ctx context.Context, c Criteria) ([]didl.Item, error) {
	criteria := buildSearchCriteria(c)
	result, err := m.client.Search(ctx, m.controlURL, criteria, m.requestedCount)
	if err != nil {
		return nil, err
	}
	if result.NumberReturned == 0 {
		return nil, nil
	}
	items, err := didl.ParseItems(result.Result)
	if err != nil {
		return nil, fmt.Errorf("parse search result: %w", err)
	}
	return items, nil
}

// Picker selects a single item from a non-empty candidate list. It exists
// so tests can supply a deterministic selection instead of math/rand.
type Picker interface {
	Pick(items []didl.Item) didl.Item
}

// RandomPicker selects uniformly at random, matching
// original_source/dlna/search_responses.py's random_item.
type RandomPicker struct{}

func (RandomPicker) Pick(items []didl.Item) didl.Item {
	return items[rand.Intn(len(items))]
}

// SearchAndPick runs Search and then picks a single item with picker. It
// returns ok=false if the search produced no matches.
func (m *MediaServer) SearchAndPick(ctx context.Context, c Criteria, picker Picker) (item didl.Item, ok bool, err error) {
	items, err := m.Search(ctx, c)
	if err != nil {
		return didl.Item{}, false, err
	}
	if len(items) == 0 {
		return didl.Item{}, false, nil
	}
	return picker.Pick(items), true, nil
}
