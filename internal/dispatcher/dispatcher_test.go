package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derHeinz/dlna-mediacontroller/internal/integrator"
)

type fakeRenderer struct {
	name    string
	targets []string
	kinds   []string
	online  bool
}

func (f *fakeRenderer) Name() string { return f.name }

func (f *fakeRenderer) MatchesTarget(target string) bool {
	for _, t := range f.targets {
		if t == target {
			return true
		}
	}
	return false
}

func (f *fakeRenderer) CanPlayType(kind string) bool {
	for _, k := range f.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (f *fakeRenderer) EnsureOnline(ctx context.Context) bool { return f.online }

type fakeSet struct {
	renderers []Renderer
}

func (f *fakeSet) Renderers() []Renderer { return f.renderers }

type fakeFactory struct {
	materialized map[string]*integrator.Integrator
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{materialized: map[string]*integrator.Integrator{}}
}

func (f *fakeFactory) IntegratorFor(name string) *integrator.Integrator {
	if existing, ok := f.materialized[name]; ok {
		return existing
	}
	i := integrator.New(name, nil, nil, nil, false)
	f.materialized[name] = i
	return i
}

func (f *fakeFactory) MaterializedIntegrators() map[string]*integrator.Integrator {
	return f.materialized
}

func TestDecideByExplicitTarget(t *testing.T) {
	living := &fakeRenderer{name: "living_room", targets: []string{"living_room"}, online: true}
	kitchen := &fakeRenderer{name: "kitchen", targets: []string{"kitchen"}, online: true}
	set := &fakeSet{renderers: []Renderer{living, kitchen}}
	d := New(set, newFakeFactory())

	_, err := d.Decide(context.Background(), "kitchen", "")
	require.NoError(t, err)
}

func TestDecideFailsWhenTargetOffline(t *testing.T) {
	living := &fakeRenderer{name: "living_room", targets: []string{"living_room"}, online: false}
	set := &fakeSet{renderers: []Renderer{living}}
	d := New(set, newFakeFactory())

	_, err := d.Decide(context.Background(), "living_room", "")
	assert.Error(t, err)
}

func TestDecideFailsWhenTargetUnknown(t *testing.T) {
	living := &fakeRenderer{name: "living_room", targets: []string{"living_room"}, online: true}
	set := &fakeSet{renderers: []Renderer{living}}
	d := New(set, newFakeFactory())

	_, err := d.Decide(context.Background(), "nonexistent", "")
	assert.Error(t, err)
}

func TestDecideByCapabilityPrefersOnlineMatch(t *testing.T) {
	living := &fakeRenderer{name: "living_room", kinds: []string{"audio"}, online: true}
	kitchen := &fakeRenderer{name: "kitchen", kinds: []string{"video"}, online: true}
	set := &fakeSet{renderers: []Renderer{kitchen, living}}
	d := New(set, newFakeFactory())

	_, err := d.Decide(context.Background(), "", "audio")
	require.NoError(t, err)
}

func TestDecideFallsThroughToDefaultWhenNoneSupportType(t *testing.T) {
	living := &fakeRenderer{name: "living_room", kinds: []string{"audio"}, online: true}
	set := &fakeSet{renderers: []Renderer{living}}
	d := New(set, newFakeFactory())

	_, err := d.Decide(context.Background(), "", "video")
	assert.Error(t, err, "default renderer does not support video, so this should fail rather than silently succeed")
}

func TestDecideDefaultRendererNoTypeRequested(t *testing.T) {
	living := &fakeRenderer{name: "living_room", online: true}
	set := &fakeSet{renderers: []Renderer{living}}
	d := New(set, newFakeFactory())

	_, err := d.Decide(context.Background(), "", "")
	require.NoError(t, err)
}

func TestDecideFailsWithNoRenderers(t *testing.T) {
	set := &fakeSet{}
	d := New(set, newFakeFactory())

	_, err := d.Decide(context.Background(), "", "")
	assert.Error(t, err)
}

func TestStateListsOnlyMaterializedIntegrators(t *testing.T) {
	living := &fakeRenderer{name: "living_room", targets: []string{"living_room"}, online: true}
	kitchen := &fakeRenderer{name: "kitchen", targets: []string{"kitchen"}, online: true}
	set := &fakeSet{renderers: []Renderer{living, kitchen}}
	factory := newFakeFactory()
	d := New(set, factory)

	assert.Empty(t, d.State(""), "nothing has been played yet, so no integrator exists")

	_, err := d.Decide(context.Background(), "living_room", "")
	require.NoError(t, err)

	entries := d.State("")
	require.Len(t, entries, 1)
	assert.Equal(t, "living_room", entries[0].PlayerName)
}

func TestStateFiltersByTarget(t *testing.T) {
	living := &fakeRenderer{name: "living_room", targets: []string{"living_room"}, online: true}
	kitchen := &fakeRenderer{name: "kitchen", targets: []string{"kitchen"}, online: true}
	set := &fakeSet{renderers: []Renderer{living, kitchen}}
	factory := newFakeFactory()
	d := New(set, factory)

	_, err := d.Decide(context.Background(), "living_room", "")
	require.NoError(t, err)
	_, err = d.Decide(context.Background(), "kitchen", "")
	require.NoError(t, err)

	entries := d.State("kitchen")
	require.Len(t, entries, 1)
	assert.Equal(t, "kitchen", entries[0].PlayerName)
}

func TestStateWithUnresolvableTargetIsEmpty(t *testing.T) {
	living := &fakeRenderer{name: "living_room", targets: []string{"living_room"}, online: true}
	set := &fakeSet{renderers: []Renderer{living}}
	factory := newFakeFactory()
	d := New(set, factory)

	_, err := d.Decide(context.Background(), "living_room", "")
	require.NoError(t, err)

	assert.Empty(t, d.State("nonexistent"))
}
