package pitch

import (
	"math"
	"sort"

	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/music"
)

// Chord scan tunables.
const (
	maxChordNotes = 5
	// A candidate must carry at least this fraction of the strongest
	// candidate's energy to count as a sounding note.
	chordPeakThreshold = 0.25
)

// noteScore is a per-note spectral energy measurement.
type noteScore struct {
	midi  int
	score float64
}

// scanChordNotes estimates the small set of concurrently sounding notes
// by measuring spectral energy at every piano note's fundamental (with
// weighted support from its 2nd and 3rd harmonics) and greedily picking
// the strongest peaks. Candidates adjacent to an accepted note, or lying
// on an integer multiple of a clearly stronger accepted fundamental, are
// suppressed as spectral leakage and overtones.
func scanChordNotes(samples []float32, sampleRate, tolerance float64) []models.Note {
	n := len(samples)
	if n == 0 {
		return nil
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(n)
	x := make([]float64, n)
	var energy float64
	for i, s := range samples {
		v := float64(s) - mean
		x[i] = v
		energy += v * v
	}
	if math.Sqrt(energy/float64(n)) < silenceFloor {
		return nil
	}

	nyquist := sampleRate / 2
	scores := make([]noteScore, 0, music.HighestMIDI-music.LowestMIDI+1)
	for midi := music.LowestMIDI; midi <= music.HighestMIDI; midi++ {
		f0 := music.MIDIFrequency(midi)
		if f0 >= nyquist {
			break
		}
		score := goertzelPower(x, sampleRate, f0)
		if 2*f0 < nyquist {
			score += 0.5 * goertzelPower(x, sampleRate, 2*f0)
		}
		if 3*f0 < nyquist {
			score += 0.25 * goertzelPower(x, sampleRate, 3*f0)
		}
		scores = append(scores, noteScore{midi: midi, score: score})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if len(scores) == 0 || scores[0].score == 0 {
		return nil
	}
	top := scores[0].score

	var picked []noteScore
	for _, cand := range scores {
		if len(picked) == maxChordNotes {
			break
		}
		if cand.score < chordPeakThreshold*top {
			break
		}
		if suppressed(cand, picked) {
			continue
		}
		picked = append(picked, cand)
	}

	notes := make([]models.Note, 0, len(picked))
	for _, p := range picked {
		if note, ok := music.Quantize(music.MIDIFrequency(p.midi), tolerance); ok {
			notes = append(notes, note)
		}
	}
	return notes
}

func suppressed(cand noteScore, picked []noteScore) bool {
	f := music.MIDIFrequency(cand.midi)
	for _, p := range picked {
		// Spectral leakage: the bins next to a real note pick up energy.
		if abs(cand.midi-p.midi) <= 1 {
			return true
		}
		// Overtone or subharmonic ghost of a clearly stronger note.
		pf := music.MIDIFrequency(p.midi)
		for k := 2.0; k <= 4; k++ {
			if math.Abs(f-k*pf) < 0.03*f && cand.score < 0.9*p.score {
				return true
			}
			if math.Abs(k*f-pf) < 0.03*pf && cand.score < 0.9*p.score {
				return true
			}
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
