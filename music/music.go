// Package music provides the equal-temperament note model shared by the
// pitch detector, the answer matcher and the lesson catalog.
package music

import (
	"fmt"
	"math"
)

// A4 reference pitch.
const ReferenceFrequency = 440.0

// Supported piano range, B1..C8. Detections outside this range are rejected.
const (
	LowestMIDI  = 35  // B1, ~61.7 Hz
	HighestMIDI = 108 // C8, ~4186 Hz
)

// PitchClasses lists the canonical (sharp) pitch-class spellings in
// chromatic order starting at C.
var PitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// semitones maps every recognized pitch-class spelling, sharp or flat,
// to its chromatic index within an octave.
var semitones = map[string]int{
	"C": 0, "C#": 1, "Db": 1,
	"D": 2, "D#": 3, "Eb": 3,
	"E": 4,
	"F": 5, "F#": 6, "Gb": 6,
	"G": 7, "G#": 8, "Ab": 8,
	"A": 9, "A#": 10, "Bb": 10,
	"B": 11,
}

// NormalizePitchClass maps flat spellings to their sharp equivalents
// ("Db" -> "C#"). Unknown names return an error: the engine validates
// learner input before it ever reaches this path, so an unknown name is
// a programming error, not bad user input.
func NormalizePitchClass(name string) (string, error) {
	idx, ok := semitones[name]
	if !ok {
		return "", fmt.Errorf("music: unknown pitch class %q", name)
	}
	return PitchClasses[idx], nil
}

// MIDINumber converts (name, octave) to a MIDI note number (C4 = 60).
func MIDINumber(name string, octave int) (int, error) {
	idx, ok := semitones[name]
	if !ok {
		return 0, fmt.Errorf("music: unknown pitch class %q", name)
	}
	return (octave+1)*12 + idx, nil
}

// MIDIFrequency returns the equal-temperament frequency of a MIDI note.
func MIDIFrequency(midi int) float64 {
	return ReferenceFrequency * math.Pow(2, float64(midi-69)/12)
}

// Frequency returns the equal-temperament frequency of (name, octave)
// with A4 = 440 Hz.
func Frequency(name string, octave int) (float64, error) {
	midi, err := MIDINumber(name, octave)
	if err != nil {
		return 0, err
	}
	return MIDIFrequency(midi), nil
}

// MinFrequency and MaxFrequency bound the supported piano range.
func MinFrequency() float64 { return MIDIFrequency(LowestMIDI) }
func MaxFrequency() float64 { return MIDIFrequency(HighestMIDI) }
