package integrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/derHeinz/dlna-mediacontroller/internal/didl"
)

func TestCalculateDescriptionLoopingURL(t *testing.T) {
	s := newState()
	s.running = true
	s.command(Command{URL: "http://nas/a.mp3", Loop: true})
	assert.Equal(t, "Wiederholt http://nas/a.mp3", s.calculateDescription())
}

func TestCalculateDescriptionLoopingItemMode(t *testing.T) {
	s := newState()
	s.running = true
	s.command(Command{Artist: "Lou Bega", Title: "Mambo No. 5", Type: "audio", Loop: true})
	assert.Equal(t, "Spielt Lieder von Lou Bega mit 'Mambo No. 5'", s.calculateDescription())
}

func TestCalculateDescriptionNonLoopingURL(t *testing.T) {
	s := newState()
	s.running = true
	s.command(Command{URL: "http://nas/a.mp3"})
	assert.Equal(t, "Spielt http://nas/a.mp3", s.calculateDescription())
}

func TestCalculateDescriptionNonLoopingItemModeUsesLastPlayed(t *testing.T) {
	s := newState()
	s.running = true
	s.command(Command{Artist: "Lou Bega"})
	s.lastPlayedItem = &didl.Item{Title: "Mambo No. 5", Artist: "Lou Bega"}
	assert.Equal(t, "Spielt Mambo No. 5 von Lou Bega", s.calculateDescription())
}

func TestCalculateDescriptionFallsBackToArtistOnly(t *testing.T) {
	s := newState()
	s.running = true
	s.command(Command{Artist: "Lou Bega"})
	s.lastPlayedItem = &didl.Item{Artist: "Lou Bega"}
	assert.Equal(t, "Spielt etwas von Lou Bega", s.calculateDescription())
}

func TestCalculateDescriptionDefaultsToAus(t *testing.T) {
	s := newState()
	assert.Equal(t, "Aus", s.calculateDescription())
}

func TestCalculateDescriptionIsAusWhenNotRunningRegardlessOfStaleCommand(t *testing.T) {
	s := newState()
	s.command(Command{Artist: "Lou Bega", Title: "Mambo No. 5"})
	s.lastPlayedItem = &didl.Item{Title: "Mambo No. 5", Artist: "Lou Bega"}
	assert.Equal(t, "Aus", s.calculateDescription(), "a stale command/last-played must not be recomputed while stopped")
}

func TestStopPreservesLastPlayed(t *testing.T) {
	s := newState()
	s.command(Command{URL: "http://nas/a.mp3"})
	s.nowPlaying("http://nas/a.mp3", nil)
	s.stop("stopped by request")

	assert.False(t, s.running)
	assert.Equal(t, "http://nas/a.mp3", s.lastPlayedURL)
	assert.Equal(t, "stopped by request", s.stopReason)
	assert.Equal(t, "Aus", s.description)
	assert.Equal(t, Command{}, s.current)
}

func TestNowPlayingSetsRunningStartOnlyOnce(t *testing.T) {
	s := newState()
	s.command(Command{URL: "http://nas/a.mp3", Loop: true})
	s.nowPlaying("http://nas/a.mp3", nil)
	first := s.runningStart
	s.nowPlaying("http://nas/a.mp3", nil)

	assert.Equal(t, first, s.runningStart)
	assert.Equal(t, 2, s.playedCount)
}
