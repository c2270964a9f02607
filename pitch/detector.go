// Package pitch converts live microphone audio into validated musical
// notes and chords. Single autocorrelation frames are noisy near the
// onset and decay of a piano note, so callers normally use the
// consensus wrappers (DetectStable, DetectStableChord) rather than a
// single-shot read.
package pitch

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/music"
	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

var (
	// ErrMicrophoneUnavailable is returned when the audio input stream
	// cannot be acquired (permission denied or no device). The detector
	// stays Idle; the caller may retry by calling Start again.
	ErrMicrophoneUnavailable = errors.New("pitch: microphone unavailable")
)

// State is the detector lifecycle state.
type State int

const (
	Idle State = iota
	Initializing
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds the detection thresholds.
type Config struct {
	// ClarityThreshold is the minimum autocorrelation confidence.
	// Zero means the default of 0.9.
	ClarityThreshold float64
	// QuantizeTolerance is the maximum deviation from a note's exact
	// frequency in fractions of a semitone. Zero means the default.
	QuantizeTolerance float64
	// EnableHarmonicRatio turns on the piano-vs-noise spectral gate.
	EnableHarmonicRatio bool
	// HarmonicRatioThreshold is the minimum fraction of spectral energy
	// at harmonics of the candidate fundamental. Zero means 0.5.
	HarmonicRatioThreshold float64
	// PollInterval is the consensus polling period. Zero means 50ms.
	PollInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.ClarityThreshold == 0 {
		c.ClarityThreshold = 0.9
	}
	if c.QuantizeTolerance == 0 {
		c.QuantizeTolerance = music.DefaultQuantizeTolerance
	}
	if c.HarmonicRatioThreshold == 0 {
		c.HarmonicRatioThreshold = 0.5
	}
	if c.PollInterval == 0 {
		c.PollInterval = 50 * time.Millisecond
	}
}

// ConfigFromSettings maps the persisted user settings onto a detector config.
func ConfigFromSettings(s *models.Settings) Config {
	return Config{
		EnableHarmonicRatio:    s.EnableHarmonicRatio,
		HarmonicRatioThreshold: s.HarmonicRatioThreshold,
	}
}

// Detector estimates notes and chords from a Source.
type Detector struct {
	cfg    Config
	source Source

	mu    sync.Mutex
	state State
}

// NewDetector wraps a source with the given config. Zero config fields
// take defaults.
func NewDetector(source Source, cfg Config) *Detector {
	cfg.applyDefaults()
	return &Detector{cfg: cfg, source: source, state: Idle}
}

// State returns the current lifecycle state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start acquires the audio source. On failure the detector returns to
// Idle and the error wraps ErrMicrophoneUnavailable; it is reported, not
// retried automatically.
func (d *Detector) Start() error {
	d.mu.Lock()
	if d.state == Running || d.state == Paused {
		d.mu.Unlock()
		return nil
	}
	d.state = Initializing
	d.mu.Unlock()

	if err := d.source.Start(); err != nil {
		d.mu.Lock()
		d.state = Idle
		d.mu.Unlock()
		utils.LogError("Pitch detector failed to start: %v", err)
		if !errors.Is(err, ErrMicrophoneUnavailable) {
			err = errors.Join(ErrMicrophoneUnavailable, err)
		}
		return err
	}

	d.mu.Lock()
	d.state = Running
	d.mu.Unlock()
	utils.LogAudio("Pitch detector running")
	return nil
}

// Pause suspends detection without releasing the audio stream.
func (d *Detector) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Running {
		d.state = Paused
	}
}

// Resume restarts detection after a pause.
func (d *Detector) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Paused {
		d.state = Running
	}
}

// Stop releases all audio resources unconditionally. Idempotent; the
// detector may be started again afterwards.
func (d *Detector) Stop() {
	d.mu.Lock()
	if d.state == Stopped {
		d.mu.Unlock()
		return
	}
	d.state = Stopped
	d.mu.Unlock()
	d.source.Stop()
	utils.LogAudio("Pitch detector stopped")
}

// DetectPitch reads the most recent audio window and returns a single
// validated note. A false result is the expected steady state when no
// one is playing, the detector is not running, or a gate rejects the
// frame; it is never an error.
func (d *Detector) DetectPitch() (models.Note, bool) {
	if d.State() != Running {
		return models.Note{}, false
	}
	samples := d.source.Samples()
	if len(samples) == 0 {
		return models.Note{}, false
	}
	rate := d.source.SampleRate()

	freq, clarity := estimateFrequency(samples, rate, music.MinFrequency(), music.MaxFrequency())
	if freq < music.MinFrequency() || freq > music.MaxFrequency() {
		return models.Note{}, false
	}
	if clarity < d.cfg.ClarityThreshold {
		return models.Note{}, false
	}
	if d.cfg.EnableHarmonicRatio {
		if harmonicRatio(samples, rate, freq) < d.cfg.HarmonicRatioThreshold {
			return models.Note{}, false
		}
	}
	return music.Quantize(freq, d.cfg.QuantizeTolerance)
}

// DetectStable polls DetectPitch until the same note has been seen
// requiredCount times, returning early as soon as consensus is reached.
// If the duration elapses first, the most frequently seen note wins;
// with no detections at all it returns false.
func (d *Detector) DetectStable(duration time.Duration, requiredCount int) (models.Note, bool) {
	if requiredCount < 1 {
		requiredCount = 1
	}
	tally := make(map[string]int)
	notes := make(map[string]models.Note)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return bestTally(tally, notes)
		case <-ticker.C:
			if s := d.State(); s == Stopped {
				return bestTally(tally, notes)
			}
			note, ok := d.DetectPitch()
			if !ok {
				continue
			}
			key := noteKey(note)
			notes[key] = note
			tally[key]++
			if tally[key] >= requiredCount {
				return note, true
			}
		}
	}
}

// DetectChord reads the most recent audio window and returns the set of
// concurrently sounding notes (2 to 5), using a per-note spectral energy
// scan with greedy peak picking. The harmonic-ratio gate still applies,
// keyed on the strongest candidate.
func (d *Detector) DetectChord() ([]models.Note, bool) {
	if d.State() != Running {
		return nil, false
	}
	samples := d.source.Samples()
	if len(samples) == 0 {
		return nil, false
	}
	rate := d.source.SampleRate()

	notes := scanChordNotes(samples, rate, d.cfg.QuantizeTolerance)
	if len(notes) < 2 {
		return nil, false
	}
	if d.cfg.EnableHarmonicRatio {
		if harmonicRatio(samples, rate, notes[0].Frequency) < d.cfg.HarmonicRatioThreshold {
			return nil, false
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Frequency < notes[j].Frequency })
	return notes, true
}

// DetectStableChord is the consensus wrapper over DetectChord. Ticks are
// tallied per distinct note set, keyed by the sorted names and octaves.
func (d *Detector) DetectStableChord(duration time.Duration, requiredCount int) ([]models.Note, bool) {
	if requiredCount < 1 {
		requiredCount = 1
	}
	tally := make(map[string]int)
	sets := make(map[string][]models.Note)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return bestSetTally(tally, sets)
		case <-ticker.C:
			if s := d.State(); s == Stopped {
				return bestSetTally(tally, sets)
			}
			notes, ok := d.DetectChord()
			if !ok {
				continue
			}
			key := chordKey(notes)
			sets[key] = notes
			tally[key]++
			if tally[key] >= requiredCount {
				return notes, true
			}
		}
	}
}

func noteKey(n models.Note) string {
	name, err := music.NormalizePitchClass(n.Name)
	if err != nil {
		name = n.Name
	}
	return name + strconv.Itoa(n.Octave)
}

func chordKey(notes []models.Note) string {
	keys := make([]string, len(notes))
	for i, n := range notes {
		keys[i] = noteKey(n)
	}
	sort.Strings(keys)
	return strings.Join(keys, "+")
}

func bestTally(tally map[string]int, notes map[string]models.Note) (models.Note, bool) {
	bestKey, bestCount := "", 0
	for key, count := range tally {
		if count > bestCount {
			bestKey, bestCount = key, count
		}
	}
	if bestCount == 0 {
		return models.Note{}, false
	}
	return notes[bestKey], true
}

func bestSetTally(tally map[string]int, sets map[string][]models.Note) ([]models.Note, bool) {
	bestKey, bestCount := "", 0
	for key, count := range tally {
		if count > bestCount {
			bestKey, bestCount = key, count
		}
	}
	if bestCount == 0 {
		return nil, false
	}
	return sets[bestKey], true
}
