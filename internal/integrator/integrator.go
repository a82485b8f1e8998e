package integrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/derHeinz/dlna-mediacontroller/internal/apperrors"
	"github.com/derHeinz/dlna-mediacontroller/internal/didl"
	"github.com/derHeinz/dlna-mediacontroller/internal/mediaserver"
	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
)

// pollTimeout bounds each background poll's SOAP round trip, since poll()
// has no caller-supplied context to inherit a deadline from.
const pollTimeout = 5 * time.Second

// DefaultCheckInterval is how often the poll loop re-checks transport
// state while a command is running, matching
// original_source/controller/integrator.py's DEFAULT_CHECK_INTERVAL.
const DefaultCheckInterval = 10 * time.Second

// RunningState is the result of interpreting a renderer's transport
// report against the current State, grounded on integrator.py's
// RUNNING_STATE enum.
type RunningState int

const (
	RunningCurrent RunningState = iota
	RunningNext
	Stopped
	Interrupted
	Unknown
)

// NextMediaState records whether a next-track URI has been queued.
type NextMediaState int

const (
	NextUnset NextMediaState = iota
	NextSet
	// NextUnknown means the observation says nothing about the queued
	// next track (TRANSITIONING); the poll loop does not prefetch on it.
	NextUnknown
)

// Player is the control-plane surface an Integrator needs from a
// renderer: issuing transport commands and reading transport state. It is
// satisfied by a thin adapter over internal/soap bound to one renderer's
// control URL, kept as an interface so tests can substitute a fake.
type Player interface {
	SetCurrent(ctx context.Context, url, metadata string) error
	SetNext(ctx context.Context, url, metadata string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	TransportState(ctx context.Context) (soap.TransportInfo, error)
	PositionInfo(ctx context.Context) (soap.PositionInfo, error)
}

// Searcher resolves an item-mode command to a playable item, backed by
// internal/mediaserver.
type Searcher interface {
	SearchAndPick(ctx context.Context, c mediaserver.Criteria, picker mediaserver.Picker) (didl.Item, bool, error)
}

// Scheduler is the subset of internal/scheduler.Scheduler an Integrator
// needs, kept as an interface to avoid a hard dependency cycle and to
// ease testing.
type Scheduler interface {
	StartJob(name string, interval time.Duration, immediate bool, fn func())
	StopJob(name string)
}

// Integrator drives one renderer's play/pause/stop lifecycle and its
// background poll loop. All state mutation and all calls into Player
// happen under mu, matching the single-mutex-per-stateful-unit discipline
// the teacher's scene package uses.
type Integrator struct {
	mu sync.Mutex

	rendererName string
	player       Player
	searcher     Searcher
	scheduler    Scheduler
	picker       mediaserver.Picker
	sendMetadata bool
	notify       func()

	state *State
}

// New builds an Integrator for a single renderer.
func New(rendererName string, player Player, searcher Searcher, sched Scheduler, sendMetadata bool) *Integrator {
	return &Integrator{
		rendererName: rendererName,
		player:       player,
		searcher:     searcher,
		scheduler:    sched,
		picker:       mediaserver.RandomPicker{},
		sendMetadata: sendMetadata,
		state:        newState(),
	}
}

// SetNotifier registers a callback invoked, in its own goroutine, after
// every transition that mutates published state: end() and the
// NowPlaying/NextTrackIsPlaying state transitions. Used to push updates
// to websocket subscribers (see internal/wsstate).
func (i *Integrator) SetNotifier(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.notify = fn
}

// notifyChange fires the registered notifier, if any, without holding mu:
// the notifier typically re-reads this (and every other) integrator's
// state, which would deadlock against the non-reentrant mutex this method
// is always called under.
func (i *Integrator) notifyChange() {
	if i.notify == nil {
		return
	}
	notify := i.notify
	go notify()
}

func (i *Integrator) schedulerName() string {
	return "Media_Observer_" + i.rendererName
}

func validateCommand(cmd Command) error {
	if cmd.URL == "" && cmd.Title == "" && cmd.Artist == "" {
		return apperrors.NewRequestInvalid("play command needs a url, title or artist")
	}
	return nil
}

// Play validates and starts a new command, replacing whatever was running
// before. Grounded on integrator.py's play(command).
func (i *Integrator) Play(ctx context.Context, cmd Command) (StateView, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := validateCommand(cmd); err != nil {
		return StateView{}, err
	}

	i.end("initiate new track")
	i.state.command(cmd)
	if err := i.playNextTrack(ctx); err != nil {
		return i.state.view(), err
	}
	if i.state.looping {
		i.setNextTrack(ctx)
	}

	i.scheduler.StartJob(i.schedulerName(), DefaultCheckInterval, false, i.poll)
	return i.state.view(), nil
}

// Pause stops the poll loop and pauses the renderer.
func (i *Integrator) Pause(ctx context.Context) (StateView, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.end("pause invoked")
	if err := i.player.Pause(ctx); err != nil {
		i.end(fmt.Sprintf("exception in pause: %v", err))
		return i.state.view(), apperrors.NewUpstreamFailure(fmt.Sprintf("pause failed: %v", err))
	}
	return i.state.view(), nil
}

// Stop stops the poll loop and stops the renderer.
func (i *Integrator) Stop(ctx context.Context) (StateView, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.end("stop invoked")
	if err := i.player.Stop(ctx); err != nil {
		i.end(fmt.Sprintf("exception in stop: %v", err))
		return i.state.view(), apperrors.NewUpstreamFailure(fmt.Sprintf("stop failed: %v", err))
	}
	return i.state.view(), nil
}

// GetState returns a snapshot of the current play state.
func (i *Integrator) GetState() StateView {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state.view()
}

// end stops the scheduler job and transitions state to stopped, matching
// integrator.py's _end(reason).
func (i *Integrator) end(reason string) {
	i.scheduler.StopJob(i.schedulerName())
	i.state.stop(reason)
	i.notifyChange()
}

// playNextTrack resolves and plays the next track for the current
// command: the literal URL in URL mode, or a freshly searched-and-picked
// item in item mode. Grounded on integrator.py's _play_next_track.
func (i *Integrator) playNextTrack(ctx context.Context) error {
	cmd := i.state.current
	if cmd.IsURLMode() {
		metadata := ""
		if i.sendMetadata {
			metadata = didl.BuildMetadata(cmd.Title, cmd.Artist, "", "", "", "", "")
		}
		if err := i.player.SetCurrent(ctx, cmd.URL, metadata); err != nil {
			i.end(fmt.Sprintf("exception in play: %v", err))
			return apperrors.NewUpstreamFailure(fmt.Sprintf("set current track failed: %v", err))
		}
		if err := i.player.Play(ctx); err != nil {
			i.end(fmt.Sprintf("exception in play: %v", err))
			return apperrors.NewUpstreamFailure(fmt.Sprintf("play failed: %v", err))
		}
		i.state.nowPlaying(cmd.URL, nil)
		i.notifyChange()
		return nil
	}

	item, ok, err := i.searcher.SearchAndPick(ctx, mediaserver.Criteria{
		Title:  cmd.Title,
		Artist: cmd.Artist,
		Kind:   cmd.Type,
	}, i.picker)
	if err != nil {
		i.end(fmt.Sprintf("exception in play: %v", err))
		return apperrors.NewUpstreamFailure(fmt.Sprintf("media server search failed: %v", err))
	}
	if !ok {
		i.end("nothing found in media server")
		return apperrors.NewNotFoundError("nothing found in media server")
	}

	metadata := ""
	if i.sendMetadata {
		metadata = didl.BuildMetadata(item.Title, item.Artist, item.Creator, item.Author, item.Actor, item.Class, didl.StripResNamespace(item.ResXML))
	}
	if err := i.player.SetCurrent(ctx, item.URL, metadata); err != nil {
		i.end(fmt.Sprintf("exception in play: %v", err))
		return apperrors.NewUpstreamFailure(fmt.Sprintf("set current track failed: %v", err))
	}
	if err := i.player.Play(ctx); err != nil {
		i.end(fmt.Sprintf("exception in play: %v", err))
		return apperrors.NewUpstreamFailure(fmt.Sprintf("play failed: %v", err))
	}
	i.state.nowPlaying(item.URL, &item)
	i.notifyChange()
	return nil
}

// setNextTrack resolves and queues the next track without starting
// playback, for the looping RUNNING_CURRENT/next-unset case. Grounded on
// integrator.py's _set_next_track.
func (i *Integrator) setNextTrack(ctx context.Context) {
	cmd := i.state.current
	if cmd.IsURLMode() {
		metadata := ""
		if i.sendMetadata {
			metadata = didl.BuildMetadata(cmd.Title, cmd.Artist, "", "", "", "", "")
		}
		if err := i.player.SetNext(ctx, cmd.URL, metadata); err != nil {
			log.Printf("integrator %s: set next track failed: %v", i.rendererName, err)
			return
		}
		i.state.nextPlay(cmd.URL, nil)
		return
	}

	item, ok, err := i.searcher.SearchAndPick(ctx, mediaserver.Criteria{
		Title:  cmd.Title,
		Artist: cmd.Artist,
		Kind:   cmd.Type,
	}, i.picker)
	if err != nil {
		log.Printf("integrator %s: media server search for next track failed: %v", i.rendererName, err)
		return
	}
	if !ok {
		log.Printf("integrator %s: nothing found in media server for next track", i.rendererName)
		return
	}

	metadata := ""
	if i.sendMetadata {
		metadata = didl.BuildMetadata(item.Title, item.Artist, item.Creator, item.Author, item.Actor, item.Class, didl.StripResNamespace(item.ResXML))
	}
	if err := i.player.SetNext(ctx, item.URL, metadata); err != nil {
		log.Printf("integrator %s: set next track failed: %v", i.rendererName, err)
		return
	}
	i.state.nextPlay(item.URL, &item)
}

// checkRunning reads the renderer's transport and position info and
// classifies it against the current state, matching integrator.py's
// _check_running decision table exactly.
func (i *Integrator) checkRunning(ctx context.Context) (RunningState, NextMediaState) {
	transport, err := i.player.TransportState(ctx)
	if err != nil {
		log.Printf("integrator %s: transport state check failed: %v", i.rendererName, err)
		return Interrupted, NextUnset
	}
	position, err := i.player.PositionInfo(ctx)
	if err != nil {
		log.Printf("integrator %s: position info check failed: %v", i.rendererName, err)
		return Interrupted, NextUnset
	}

	switch transport.CurrentTransportState {
	case soap.TransportTransitioning:
		return RunningCurrent, NextUnknown
	case soap.TransportNoMediaPresent:
		return Interrupted, NextUnset
	}

	// Whatever the transport state, a URL that matches neither the
	// current nor the queued-next track means something else is
	// playing: that check takes priority over the per-state rules
	// below, matching integrator.py's _check_running ordering.
	currentURL := position.TrackURI
	isLastPlayedURL := currentURL == i.state.lastPlayedURL
	isNextPlayURL := currentURL == i.state.nextPlayURL
	if !isLastPlayedURL && !isNextPlayURL {
		return Interrupted, NextUnset
	}

	switch transport.CurrentTransportState {
	case soap.TransportStopped:
		if position.Track == 0 {
			return Stopped, NextUnset
		}
		return Interrupted, NextUnset
	case soap.TransportPlaying:
		switch {
		case isLastPlayedURL:
			if i.state.nextPlayURL != "" {
				return RunningCurrent, NextSet
			}
			return RunningCurrent, NextUnset
		case isNextPlayURL:
			return RunningNext, NextUnset
		default:
			return Interrupted, NextUnset
		}
	default:
		return Interrupted, NextUnset
	}
}

// poll is the scheduled job body: it inspects the renderer's transport
// state and decides whether to queue a next track, detect the renderer
// has moved on to a queued track, restart a looping URL, or end the run.
// Grounded on integrator.py's _loop_process.
func (i *Integrator) poll() {
	i.mu.Lock()
	defer i.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	running, next := i.checkRunning(ctx)

	switch running {
	case Interrupted:
		i.end("interrupted")
	case RunningCurrent:
		if i.state.looping && next == NextUnset {
			i.setNextTrack(ctx)
		}
	case RunningNext:
		if !i.state.looping {
			log.Printf("integrator %s: invariant violated: running next track while not looping", i.rendererName)
			i.end("exception in looping: running next track while not looping")
			return
		}
		i.state.nextTrackIsPlaying()
		i.notifyChange()
		i.setNextTrack(ctx)
	case Stopped:
		if i.state.looping {
			if err := i.playNextTrack(ctx); err != nil {
				log.Printf("integrator %s: restart after stop failed: %v", i.rendererName, err)
				i.end(fmt.Sprintf("exception in looping: %v", err))
			}
		} else {
			i.end("not looping")
		}
	case Unknown:
		log.Printf("integrator %s: unknown transport state", i.rendererName)
	}
}
