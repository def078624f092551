// Package etrace records the glitch, rebase, and worker-replacement
// decisions made while rendering a tile, for post-hoc debugging of deep
// zooms where perturbation misbehaves.
package etrace

import "sync"

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelDecisions captures glitch/rebase/replace decisions.
	LevelDecisions Level = "decisions"
)

var validLevels = map[Level]bool{
	LevelNone:      true,
	LevelDecisions: true,
	"":             true,
}

// IsValidLevel returns true if level is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Config controls trace collection behavior for a render.
type Config struct {
	Level Level
}

// GlitchRecord captures one glitch detection within a tile.
type GlitchRecord struct {
	TileX, TileY int
	PixelX, PixelY int
	Iteration    int
}

// RebaseRecord captures one rebase attempt for a tile.
type RebaseRecord struct {
	TileX, TileY int
	Depth        int
	Exhausted    bool
}

// WorkerReplaceRecord captures a worker failure and its replacement.
type WorkerReplaceRecord struct {
	WorkerID    int
	Reason      string
	RestartNum  int
}

// Trace collects decision records during a render. Workers record
// concurrently, so all mutation goes through the embedded mutex.
type Trace struct {
	Config Config

	mu       sync.Mutex
	Glitches []GlitchRecord
	Rebases  []RebaseRecord
	Replaces []WorkerReplaceRecord
}

// New creates a Trace ready for recording.
func New(config Config) *Trace {
	return &Trace{Config: config}
}

// RecordGlitch appends a glitch record if tracing is enabled.
func (t *Trace) RecordGlitch(r GlitchRecord) {
	if t == nil || t.Config.Level != LevelDecisions {
		return
	}
	t.mu.Lock()
	t.Glitches = append(t.Glitches, r)
	t.mu.Unlock()
}

// RecordRebase appends a rebase record if tracing is enabled.
func (t *Trace) RecordRebase(r RebaseRecord) {
	if t == nil || t.Config.Level != LevelDecisions {
		return
	}
	t.mu.Lock()
	t.Rebases = append(t.Rebases, r)
	t.mu.Unlock()
}

// RecordReplace appends a worker-replacement record if tracing is enabled.
func (t *Trace) RecordReplace(r WorkerReplaceRecord) {
	if t == nil || t.Config.Level != LevelDecisions {
		return
	}
	t.mu.Lock()
	t.Replaces = append(t.Replaces, r)
	t.mu.Unlock()
}

// Snapshot returns copies of the accumulated records, safe to read while
// other goroutines may still be recording.
func (t *Trace) Snapshot() (glitches []GlitchRecord, rebases []RebaseRecord, replaces []WorkerReplaceRecord) {
	if t == nil {
		return nil, nil, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]GlitchRecord(nil), t.Glitches...),
		append([]RebaseRecord(nil), t.Rebases...),
		append([]WorkerReplaceRecord(nil), t.Replaces...)
}
