package music

import (
	"fmt"
	"math"

	"github.com/georgmuntingh/sheet-music-tutor/models"
)

// DefaultQuantizeTolerance is the maximum deviation from a note's exact
// frequency, in fractions of a semitone, accepted by Quantize.
const DefaultQuantizeTolerance = 0.3

// NewNote builds a note with its frequency derived from (name, octave).
func NewNote(name string, octave int) (models.Note, error) {
	freq, err := Frequency(name, octave)
	if err != nil {
		return models.Note{}, err
	}
	return models.Note{Name: name, Octave: octave, Frequency: freq}, nil
}

// noteForMIDI returns the canonical sharp-spelled note for a MIDI number.
func noteForMIDI(midi int) models.Note {
	name := PitchClasses[((midi%12)+12)%12]
	octave := midi/12 - 1
	return models.Note{Name: name, Octave: octave, Frequency: MIDIFrequency(midi)}
}

// Quantize snaps a raw frequency to the nearest note within the piano
// range. tolerance is in fractions of a semitone; deviations beyond it,
// or frequencies outside B1..C8, yield no note.
func Quantize(freq, tolerance float64) (models.Note, bool) {
	if freq <= 0 {
		return models.Note{}, false
	}
	exact := 12*math.Log2(freq/ReferenceFrequency) + 69
	midi := int(math.Round(exact))
	if midi < LowestMIDI || midi > HighestMIDI {
		return models.Note{}, false
	}
	if math.Abs(exact-float64(midi)) > tolerance {
		return models.Note{}, false
	}
	return noteForMIDI(midi), true
}

// Equivalent reports whether two notes denote the same sounding pitch:
// enharmonic pitch classes are equal and octaves match exactly.
func Equivalent(a, b models.Note) bool {
	ca, err := NormalizePitchClass(a.Name)
	if err != nil {
		return false
	}
	cb, err := NormalizePitchClass(b.Name)
	if err != nil {
		return false
	}
	return ca == cb && a.Octave == b.Octave
}

// MajorTriad builds a major chord on the given root. inversion 0 is root
// position; 1 and 2 rotate the voicing upward, octave-shifting the moved
// notes so the pitch-class multiset stays fixed.
func MajorTriad(root string, octave, inversion int) (models.Chord, error) {
	rootMIDI, err := MIDINumber(root, octave)
	if err != nil {
		return models.Chord{}, err
	}
	if inversion < 0 || inversion > 2 {
		return models.Chord{}, fmt.Errorf("music: invalid triad inversion %d", inversion)
	}

	midis := []int{rootMIDI, rootMIDI + 4, rootMIDI + 7}
	for i := 0; i < inversion; i++ {
		midis = append(midis[1:], midis[0]+12)
	}

	notes := make([]models.Note, len(midis))
	for i, m := range midis {
		notes[i] = noteForMIDI(m)
	}
	return models.Chord{Name: root, Notes: notes, Type: "major"}, nil
}
