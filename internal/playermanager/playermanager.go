// Package playermanager owns the canonical set of renderer handles,
// merging statically configured renderers with ones found via periodic
// SSDP discovery.
package playermanager

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/derHeinz/dlna-mediacontroller/internal/dispatcher"
	"github.com/derHeinz/dlna-mediacontroller/internal/integrator"
	"github.com/derHeinz/dlna-mediacontroller/internal/mediaserver"
	"github.com/derHeinz/dlna-mediacontroller/internal/renderer"
	"github.com/derHeinz/dlna-mediacontroller/internal/scheduler"
	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
	"github.com/derHeinz/dlna-mediacontroller/internal/ssdp"
	"github.com/derHeinz/dlna-mediacontroller/internal/wake"
)

// DefaultDiscoveryInterval matches
// original_source/controller/player_manager.py's
// DEFAULT_DISCOVERY_INTERVAL (5 minutes).
const DefaultDiscoveryInterval = 5 * time.Minute

const discoveryJobName = "player_discovery"

// RendererConfig is one statically configured renderer entry.
type RendererConfig struct {
	Name         string
	Aliases      []string
	URL          string // reachability probe URL (device description or presentation page)
	ControlURL   string // AVTransport control URL
	MAC          string
	Capabilities []string
	SendMetadata bool
}

// Manager owns the renderer set and the lazily built Integrator for each.
type Manager struct {
	mu         sync.RWMutex
	renderers  []*renderer.Handle
	integrators map[string]*integrator.Integrator

	soapClient  *soap.Client
	mediaServer *mediaserver.MediaServer
	scheduler   *scheduler.Scheduler

	searchTarget      string
	discoveryInterval time.Duration
	discoveryTimeout  time.Duration

	onStateChange func()
}

// New builds a Manager from the statically configured renderers. It does
// not start discovery; call StartDiscovery for that.
func New(configured []RendererConfig, soapClient *soap.Client, mediaServer *mediaserver.MediaServer, sched *scheduler.Scheduler, discoveryInterval, discoveryTimeout time.Duration) *Manager {
	m := &Manager{
		integrators:       make(map[string]*integrator.Integrator),
		soapClient:        soapClient,
		mediaServer:       mediaServer,
		scheduler:         sched,
		searchTarget:      ssdp.MediaRendererSearchTarget,
		discoveryInterval: discoveryInterval,
		discoveryTimeout:  discoveryTimeout,
	}
	for _, rc := range configured {
		m.renderers = append(m.renderers, renderer.NewConfigured(renderer.Meta{
			Name:         rc.Name,
			Aliases:      rc.Aliases,
			URL:          rc.URL,
			ControlURL:   rc.ControlURL,
			MAC:          rc.MAC,
			Capabilities: rc.Capabilities,
			SendMetadata: rc.SendMetadata,
		}))
	}
	return m
}

// SetStateChangeNotifier registers a callback that every Integrator this
// Manager materializes (from this point on) will invoke after a state
// transition, used to push updates to websocket subscribers.
func (m *Manager) SetStateChangeNotifier(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// StartDiscovery starts the periodic SSDP discovery/merge job, grounded on
// player_manager.py's constructor starting the PLAYER_DISCOVERY job.
func (m *Manager) StartDiscovery() {
	m.scheduler.StartJob(discoveryJobName, m.discoveryInterval, true, m.runDiscovery)
}

// StopDiscovery stops the periodic discovery job.
func (m *Manager) StopDiscovery() {
	m.scheduler.StopJob(discoveryJobName)
}

// runDiscovery probes SSDP for renderers and merges results into the
// existing renderer set by control URL, matching player_manager.py's
// _run_discovery. New renderers are appended; known ones get their
// detected metadata refreshed.
func (m *Manager) runDiscovery() {
	ctx, cancel := context.WithTimeout(context.Background(), m.discoveryTimeout)
	defer cancel()

	found, err := ssdp.Discover(ctx, m.searchTarget, m.discoveryTimeout)
	if err != nil {
		log.Printf("playermanager: discovery failed: %v", err)
		return
	}

	for _, d := range found {
		desc, err := ssdp.ProbeDevice(ctx, d.Location)
		if err != nil {
			log.Printf("playermanager: probe failed for %s: %v", d.Location, err)
			continue
		}
		if desc.AVTransportControlURL == "" {
			continue // not a media renderer
		}

		var caps []string
		if desc.ConnectionManagerControlURL != "" {
			caps, err = renderer.DetectCapabilities(ctx, m.soapClient, desc.ConnectionManagerControlURL)
			if err != nil {
				log.Printf("playermanager: capability detection failed for %s: %v", desc.FriendlyName, err)
			}
		}

		meta := renderer.Meta{
			Name:         desc.FriendlyName,
			URL:          d.Location,
			ControlURL:   desc.AVTransportControlURL,
			Capabilities: caps,
		}

		m.mergeDiscovered(meta)
	}
}

func (m *Manager) mergeDiscovered(meta renderer.Meta) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.renderers {
		if h.ControlURL() == meta.ControlURL {
			h.MergeDetected(meta)
			return
		}
	}
	m.renderers = append(m.renderers, renderer.NewDiscovered(meta))
}

// Renderers returns a snapshot of the current renderer set as
// dispatcher.Renderer values.
func (m *Manager) Renderers() []dispatcher.Renderer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dispatcher.Renderer, 0, len(m.renderers))
	for _, h := range m.renderers {
		out = append(out, &rendererAdapter{handle: h})
	}
	return out
}

// Views returns a JSON-serializable snapshot of every known renderer, for
// the /info endpoint.
func (m *Manager) Views() []renderer.View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]renderer.View, 0, len(m.renderers))
	for _, h := range m.renderers {
		out = append(out, h.ToView())
	}
	return out
}

// IntegratorFor lazily builds (and caches) the Integrator for a named
// renderer.
func (m *Manager) IntegratorFor(name string) *integrator.Integrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.integrators[name]; ok {
		return existing
	}

	var handle *renderer.Handle
	for _, h := range m.renderers {
		if h.Name() == name {
			handle = h
			break
		}
	}
	if handle == nil {
		return nil
	}

	player := renderer.NewSoapPlayer(m.soapClient, handle.ControlURL())
	i := integrator.New(name, player, m.mediaServer, m.scheduler, handle.SendMetadata())
	if m.onStateChange != nil {
		i.SetNotifier(m.onStateChange)
	}
	m.integrators[name] = i
	return i
}

// MaterializedIntegrators returns a snapshot of every renderer name that
// has had an Integrator built so far (i.e. has received at least one
// play/pause/stop command), for GET /state.
func (m *Manager) MaterializedIntegrators() map[string]*integrator.Integrator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*integrator.Integrator, len(m.integrators))
	for name, i := range m.integrators {
		out[name] = i
	}
	return out
}

// rendererAdapter adapts a *renderer.Handle to dispatcher.Renderer,
// performing the wake/reachability check through internal/wake.
type rendererAdapter struct {
	handle *renderer.Handle
}

func (a *rendererAdapter) Name() string {
	return a.handle.Name()
}

func (a *rendererAdapter) MatchesTarget(target string) bool {
	return a.handle.MatchesTarget(target)
}

func (a *rendererAdapter) CanPlayType(kind string) bool {
	return a.handle.CanPlayType(kind)
}

func (a *rendererAdapter) EnsureOnline(ctx context.Context) bool {
	return wake.EnsureOnline(ctx, a.handle.URL(), a.handle.MAC())
}
