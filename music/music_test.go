package music

import (
	"math"
	"testing"
)

func TestFrequencyA4(t *testing.T) {
	f, err := Frequency("A", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f-440.0) > 1e-9 {
		t.Fatalf("expected 440Hz, got %.6f", f)
	}
}

func TestFrequencyMiddleC(t *testing.T) {
	f, err := Frequency("C", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f-261.6256) > 0.001 {
		t.Fatalf("expected ~261.63Hz, got %.4f", f)
	}
}

func TestFrequencyUnknownPitchClass(t *testing.T) {
	if _, err := Frequency("H", 4); err == nil {
		t.Fatal("expected error for unknown pitch class")
	}
	if _, err := NormalizePitchClass("X#"); err == nil {
		t.Fatal("expected error for unknown pitch class")
	}
}

func TestNormalizePitchClassFlats(t *testing.T) {
	cases := map[string]string{
		"Db": "C#", "Eb": "D#", "Gb": "F#", "Ab": "G#", "Bb": "A#",
		"C": "C", "F#": "F#",
	}
	for in, want := range cases {
		got, err := NormalizePitchClass(in)
		if err != nil {
			t.Fatalf("NormalizePitchClass(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("NormalizePitchClass(%q) = %q, want %q", in, got, want)
		}
	}
}

// Every note in the piano range must survive a frequency round trip.
func TestQuantizeRoundTrip(t *testing.T) {
	for midi := LowestMIDI; midi <= HighestMIDI; midi++ {
		want := noteForMIDI(midi)
		got, ok := Quantize(want.Frequency, DefaultQuantizeTolerance)
		if !ok {
			t.Fatalf("Quantize(%.2f) found no note for %s%d", want.Frequency, want.Name, want.Octave)
		}
		if got.Name != want.Name || got.Octave != want.Octave {
			t.Fatalf("Quantize(%.2f) = %s%d, want %s%d",
				want.Frequency, got.Name, got.Octave, want.Name, want.Octave)
		}
	}
}

func TestQuantizeOutOfRange(t *testing.T) {
	if _, ok := Quantize(30.0, DefaultQuantizeTolerance); ok {
		t.Fatal("expected no note below piano range")
	}
	if _, ok := Quantize(9000.0, DefaultQuantizeTolerance); ok {
		t.Fatal("expected no note above piano range")
	}
	if _, ok := Quantize(0, DefaultQuantizeTolerance); ok {
		t.Fatal("expected no note for zero frequency")
	}
}

func TestQuantizeToleranceRejectsHalfway(t *testing.T) {
	// Exactly between A4 and A#4, 0.5 semitones from each.
	a4, _ := Frequency("A", 4)
	halfway := a4 * math.Pow(2, 0.5/12)
	if _, ok := Quantize(halfway, 0.3); ok {
		t.Fatal("expected quarter-tone frequency to be rejected")
	}
}

func TestEquivalentEnharmonic(t *testing.T) {
	cs, _ := NewNote("C#", 4)
	db, _ := NewNote("Db", 4)
	if !Equivalent(cs, db) {
		t.Fatal("C#4 and Db4 must be equivalent")
	}
	cs5, _ := NewNote("C#", 5)
	if Equivalent(cs, cs5) {
		t.Fatal("C#4 and C#5 must not be equivalent")
	}
}

func TestMajorTriadRootPosition(t *testing.T) {
	ch, err := MajorTriad("C", 4, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.Notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(ch.Notes))
	}
	want := []string{"C", "E", "G"}
	for i, n := range ch.Notes {
		if n.Name != want[i] || n.Octave != 4 {
			t.Errorf("note %d = %s%d, want %s4", i, n.Name, n.Octave, want[i])
		}
	}
}

func TestMajorTriadInversions(t *testing.T) {
	// First inversion of C4 major: E4 G4 C5.
	ch, err := MajorTriad("C", 4, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Notes[0].Name != "E" || ch.Notes[1].Name != "G" || ch.Notes[2].Name != "C" {
		t.Fatalf("unexpected first inversion voicing: %+v", ch.Notes)
	}
	if ch.Notes[2].Octave != 5 {
		t.Fatalf("expected root shifted to octave 5, got %d", ch.Notes[2].Octave)
	}

	// Second inversion: G4 C5 E5.
	ch, err = MajorTriad("C", 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Notes[0].Name != "G" || ch.Notes[1].Name != "C" || ch.Notes[2].Name != "E" {
		t.Fatalf("unexpected second inversion voicing: %+v", ch.Notes)
	}

	if _, err := MajorTriad("C", 4, 3); err == nil {
		t.Fatal("expected error for inversion 3")
	}
}
