// Package bridge moves animation and transform data between parsed model
// records and the scene graph.
//
// Import materializes node controllers as per-axis curves on a global frame
// timeline; export samples those curves back into keyframe tracks.
package bridge

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Faultbox/midgard-mdl/internal/scene"
	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

// Options control frame layout.
type Options struct {
	FPS        float64 // frames per second
	StartFrame float64 // first frame of the first animation
	Padding    float64 // empty frames between consecutive animations
}

// DefaultOptions returns the standard 30 fps layout starting at frame 1.
func DefaultOptions() Options {
	return Options{FPS: 30, StartFrame: 1, Padding: 60}
}

// Bridge converts between parsed records and a scene. Warnings collects
// non-fatal problems; Skipped counts nodes that could not be placed.
type Bridge struct {
	Scene    *scene.Scene
	Options  Options
	Warnings formats.Diagnostics
	Skipped  int
}

// New returns a bridge over sc.
func New(sc *scene.Scene, opts Options) *Bridge {
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	return &Bridge{Scene: sc, Options: opts}
}

func (b *Bridge) warn(err error) {
	b.Warnings = b.Warnings.Append(err)
}

// unresolved records a missing name, with a suggestion when one is close.
func (b *Bridge) unresolved(line int, what, name string, candidates []string) {
	msg := fmt.Sprintf("%s %q not found", what, name)
	if s := suggest(name, candidates); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	b.warn(&formats.LineError{Line: line, Err: fmt.Errorf("%w: %s", formats.ErrUnresolvedReference, msg)})
}

// suggest returns the candidate closest to name, or "".
func suggest(name string, candidates []string) string {
	others := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !strings.EqualFold(c, name) {
			others = append(others, c)
		}
	}

	ranks := fuzzy.RankFindFold(name, others)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	// name may be the longer string, e.g. a suffixed copy.
	best, bestDist := "", -1
	for _, c := range others {
		if d := fuzzy.RankMatchFold(c, name); d >= 0 && (bestDist < 0 || d < bestDist) {
			best, bestDist = c, d
		}
	}
	return best
}

// FrameFromTime converts animation-relative seconds to a global frame.
// Frames keep seven decimals so sub-frame key times survive a round trip.
func FrameFromTime(seconds, fps, start float64) float64 {
	return math.Round(fps*seconds*1e7)/1e7 + start
}

// TimeFromFrame converts a global frame to seconds relative to start.
func TimeFromFrame(frame, fps, start float64) float64 {
	return formats.RoundTime((frame - start) / fps)
}
