// Package dispatcher resolves an incoming play/pause/stop/state command to
// the Integrator for the renderer that should handle it.
package dispatcher

import (
	"context"
	"sort"
	"sync"

	"github.com/derHeinz/dlna-mediacontroller/internal/apperrors"
	"github.com/derHeinz/dlna-mediacontroller/internal/integrator"
)

// RendererSet is the subset of internal/playermanager.Manager the
// dispatcher needs: the live, currently-known set of renderers. Reading
// it fresh on every Decide call (rather than capturing it once at
// construction) is what lets newly discovered renderers become
// dispatchable immediately — see DESIGN.md for why this departs from the
// original Python source's static mapping.
type RendererSet interface {
	Renderers() []Renderer
}

// Renderer is the renderer-identity surface the dispatcher needs to
// resolve targets and capabilities.
type Renderer interface {
	Name() string
	MatchesTarget(target string) bool
	CanPlayType(kind string) bool
	EnsureOnline(ctx context.Context) bool
}

// IntegratorFactory lazily builds (or returns a cached) Integrator for a
// renderer name.
type IntegratorFactory interface {
	IntegratorFor(rendererName string) *integrator.Integrator

	// MaterializedIntegrators returns every renderer name that has had an
	// Integrator built so far, keyed by renderer name.
	MaterializedIntegrators() map[string]*integrator.Integrator
}

// StateEntry pairs a renderer name with a snapshot of its integrator's
// play state, for GET /state.
type StateEntry struct {
	PlayerName string               `json:"player_name"`
	State      integrator.StateView `json:"state"`
}

// Dispatcher resolves commands to integrators.
type Dispatcher struct {
	mu      sync.Mutex
	set     RendererSet
	factory IntegratorFactory
}

// New builds a Dispatcher over a renderer set and integrator factory.
func New(set RendererSet, factory IntegratorFactory) *Dispatcher {
	return &Dispatcher{set: set, factory: factory}
}

// Decide resolves a command to the Integrator that should handle it,
// grounded on original_source/controller/player_dispatcher.py's
// _decide_integrator. Resolution order: 1) an explicit target name, which
// must be online or the request fails; 2) a requested type, matched
// against the first online renderer that supports it — if no online
// renderer supports it, this falls through to the default rather than
// failing; 3) the default: the first configured renderer must support the
// requested type, and the first renderer in configuration order that is
// online (and, when a type is requested, supports it) handles the command.
func (d *Dispatcher) Decide(ctx context.Context, target, kind string) (*integrator.Integrator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	renderers := d.set.Renderers()
	if len(renderers) == 0 {
		return nil, apperrors.NewRequestCannotBeHandled("no renderers configured")
	}

	if target != "" {
		for _, r := range renderers {
			if r.MatchesTarget(target) {
				if !r.EnsureOnline(ctx) {
					return nil, apperrors.NewRequestCannotBeHandled("target renderer is offline: " + target)
				}
				return d.factory.IntegratorFor(r.Name()), nil
			}
		}
		return nil, apperrors.NewRequestCannotBeHandled("unknown target renderer: " + target)
	}

	if kind != "" {
		for _, r := range renderers {
			if r.CanPlayType(kind) && r.EnsureOnline(ctx) {
				return d.factory.IntegratorFor(r.Name()), nil
			}
		}
		// no online renderer supports the type: fall through to default,
		// matching the original's silent fallthrough rather than raising.
	}

	def := renderers[0]
	if kind != "" && !def.CanPlayType(kind) {
		return nil, apperrors.NewRequestCannotBeHandled("default renderer cannot play type: " + kind)
	}
	for _, r := range renderers {
		if (kind == "" || r.CanPlayType(kind)) && r.EnsureOnline(ctx) {
			return d.factory.IntegratorFor(r.Name()), nil
		}
	}
	return nil, apperrors.NewRequestCannotBeHandled("no online renderer available")
}

// State returns one entry per previously-materialized integrator, matching
// player_dispatcher.py's state(). If target resolves to a known renderer,
// the result is filtered to just that renderer (and is empty if that
// renderer has no materialized integrator yet); an unresolvable target
// yields an empty list rather than an error, since GET /state has no
// documented error path.
func (d *Dispatcher) State(target string) []StateEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := ""
	if target != "" {
		name = "\x00" // sentinel: target given but not (yet) resolved to a renderer
		for _, r := range d.set.Renderers() {
			if r.MatchesTarget(target) {
				name = r.Name()
				break
			}
		}
	}

	materialized := d.factory.MaterializedIntegrators()
	names := make([]string, 0, len(materialized))
	for rendererName := range materialized {
		if name != "" && rendererName != name {
			continue
		}
		names = append(names, rendererName)
	}
	sort.Strings(names)

	entries := make([]StateEntry, 0, len(names))
	for _, rendererName := range names {
		entries = append(entries, StateEntry{PlayerName: rendererName, State: materialized[rendererName].GetState()})
	}
	return entries
}
