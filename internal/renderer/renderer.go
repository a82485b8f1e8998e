// Package renderer models a single UPnP MediaRenderer target, merging
// statically configured metadata with metadata detected via discovery.
package renderer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
)

// Meta holds the metadata a renderer can be known by, whether supplied in
// configuration or detected from the network.
type Meta struct {
	Name         string
	Aliases      []string
	URL          string // device description / presentation URL, used for reachability probing
	ControlURL   string // AVTransport control URL
	MAC          string
	Capabilities []string // subset of "audio", "video", "image"
	SendMetadata bool
}

// Handle is a single renderer, merging configured and detected metadata.
// Configured values always take priority over detected ones, matching
// original_source/controller/player_wrapper.py's _get_attr_preferred.
type Handle struct {
	mu sync.RWMutex

	configured *Meta
	detected   *Meta
	lastSeen   time.Time
}

// NewConfigured builds a Handle from a statically configured renderer
// entry.
func NewConfigured(meta Meta) *Handle {
	m := meta
	return &Handle{configured: &m}
}

// NewDiscovered builds a Handle from a freshly discovered renderer.
func NewDiscovered(meta Meta) *Handle {
	m := meta
	return &Handle{detected: &m, lastSeen: time.Now()}
}

// MergeDetected attaches or refreshes the detected-metadata side of an
// existing handle, e.g. when periodic discovery rediscovers a configured
// renderer at a (possibly changed) control URL.
func (h *Handle) MergeDetected(meta Meta) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := meta
	h.detected = &m
	h.lastSeen = time.Now()
}

func (h *Handle) IsConfigured() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.configured != nil
}

func (h *Handle) IsDetected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detected != nil
}

func (h *Handle) attr(get func(*Meta) string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.configured != nil {
		if v := get(h.configured); v != "" {
			return v
		}
	}
	if h.detected != nil {
		return get(h.detected)
	}
	return ""
}

func (h *Handle) Name() string {
	return h.attr(func(m *Meta) string { return m.Name })
}

func (h *Handle) URL() string {
	return h.attr(func(m *Meta) string { return m.URL })
}

func (h *Handle) ControlURL() string {
	return h.attr(func(m *Meta) string { return m.ControlURL })
}

func (h *Handle) MAC() string {
	return h.attr(func(m *Meta) string { return m.MAC })
}

func (h *Handle) SendMetadata() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.configured != nil {
		return h.configured.SendMetadata
	}
	if h.detected != nil {
		return h.detected.SendMetadata
	}
	return false
}

// KnownNames returns every name this renderer can be addressed by: its
// primary name plus all aliases, from both configured and detected sides.
func (h *Handle) KnownNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var names []string
	if h.configured != nil {
		names = append(names, h.configured.Name)
		names = append(names, h.configured.Aliases...)
	}
	if h.detected != nil {
		names = append(names, h.detected.Name)
		names = append(names, h.detected.Aliases...)
	}
	return names
}

// MatchesTarget reports whether target names this renderer (case
// insensitive).
func (h *Handle) MatchesTarget(target string) bool {
	for _, name := range h.KnownNames() {
		if strings.EqualFold(name, target) {
			return true
		}
	}
	return false
}

// CanPlayType reports whether this renderer's combined capability set
// (configured ∪ detected) includes kind.
func (h *Handle) CanPlayType(kind string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.configured != nil {
		for _, c := range h.configured.Capabilities {
			if c == kind {
				return true
			}
		}
	}
	if h.detected != nil {
		for _, c := range h.detected.Capabilities {
			if c == kind {
				return true
			}
		}
	}
	return false
}

// DetectCapabilities queries a renderer's ConnectionManager GetProtocolInfo
// and returns the subset of {audio, video, image} its Sink field mentions.
// Grounded on original_source/controller/player_wrapper.py's
// _detect_capabilities.
func DetectCapabilities(ctx context.Context, client *soap.Client, connectionManagerControlURL string) ([]string, error) {
	sink, err := client.GetProtocolInfo(ctx, connectionManagerControlURL)
	if err != nil {
		return nil, err
	}
	var caps []string
	lower := strings.ToLower(sink)
	for _, kind := range []string{"audio", "video", "image"} {
		if strings.Contains(lower, kind) {
			caps = append(caps, kind)
		}
	}
	return caps, nil
}

// View is a JSON-serializable snapshot of a renderer's identity, for the
// /info endpoint and discovery bookkeeping.
type View struct {
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases,omitempty"`
	URL          string   `json:"url"`
	ControlURL   string   `json:"control_url"`
	Capabilities []string `json:"capabilities"`
	Configured   bool     `json:"configured"`
	Detected     bool     `json:"detected"`
}

func (h *Handle) ToView() View {
	h.mu.RLock()
	var caps []string
	seen := map[string]bool{}
	add := func(m *Meta) {
		if m == nil {
			return
		}
		for _, c := range m.Capabilities {
			if !seen[c] {
				seen[c] = true
				caps = append(caps, c)
			}
		}
	}
	add(h.configured)
	add(h.detected)
	configured := h.configured != nil
	detected := h.detected != nil
	h.mu.RUnlock()

	return View{
		Name:         h.Name(),
		URL:          h.URL(),
		ControlURL:   h.ControlURL(),
		Capabilities: caps,
		Configured:   configured,
		Detected:     detected,
	}
}
