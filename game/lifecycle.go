package game

import (
	"time"

	"github.com/pthm-cable/penguin/agent"
)

// beginEpisode resets the agent and the arena for a new episode.
func (e *Env) beginEpisode() {
	e.agent.OnEpisodeBegin()
	e.started = time.Now()
}

// EpisodeEnded implements agent.Listener. It runs inside the step that ended
// the episode, before the arena is reset.
func (e *Env) EpisodeEnded(s agent.Summary) {
	wall := time.Since(e.started)

	if e.trajectory != nil {
		e.trajectory.finish(s, e.agent.CollectObservation())
	}
	for _, l := range e.listeners {
		l.EpisodeEnded(s)
	}
	if e.recorder != nil {
		e.recorder.RecordEpisode(e, s, wall)
	}
}
