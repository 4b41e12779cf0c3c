package main

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/penguin/arena"
	"github.com/pthm-cable/penguin/config"
)

// regionNames are the placement regions in display order.
var regionNames = [...]string{"agent_region", "baby_region", "fish_region"}

// layout is the editable part of the arena config.
type layout struct {
	Regions [3]config.RegionConfig
}

func layoutFromConfig(ac config.ArenaConfig) layout {
	return layout{Regions: [3]config.RegionConfig{ac.AgentRegion, ac.BabyRegion, ac.FishRegion}}
}

// normalize keeps every min at or below its max and radii non-negative.
func (l *layout) normalize() {
	for i := range l.Regions {
		r := &l.Regions[i]
		r.MinRadius = max(r.MinRadius, 0)
		r.MaxRadius = max(r.MaxRadius, r.MinRadius)
		r.MaxAngle = max(r.MaxAngle, r.MinAngle)
	}
}

// samplePoints draws n placements from a region with a fixed seed, so the
// same sliders always show the same cloud.
func samplePoints(rc config.RegionConfig, center r3.Vec, n int, seed int64) []r3.Vec {
	rng := rand.New(rand.NewSource(seed))
	region := arena.RegionFromConfig(rc)
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = region.Sample(rng, center)
	}
	return pts
}

// yamlSnippet renders the regions as an arena config fragment.
func (l layout) yamlSnippet() (string, error) {
	doc := map[string]map[string]config.RegionConfig{"arena": {}}
	for i, name := range regionNames {
		doc["arena"][name] = l.Regions[i]
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
