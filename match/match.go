// Package match decides whether a detected or typed answer is equivalent
// to the expected answer for each card kind. All comparisons validate
// their inputs; nothing a learner types is ever parsed blindly into a note.
package match

import (
	"strings"

	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/music"
	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

// Note reports whether the detected note sounds the expected pitch:
// enharmonic spellings are equal, octaves must match exactly.
func Note(expected, detected models.Note) bool {
	return music.Equivalent(expected, detected)
}

// ChordNotes compares a live-detected note set against the expected
// chord: same number of notes and the same set of pitch classes after
// enharmonic normalization, octaves ignored.
func ChordNotes(expected models.Chord, detected []models.Note) bool {
	if len(detected) != len(expected.Notes) {
		return false
	}
	want := make(map[string]int)
	for _, n := range expected.Notes {
		class, err := music.NormalizePitchClass(n.Name)
		if err != nil {
			return false
		}
		want[class]++
	}
	got := make(map[string]int)
	for _, n := range detected {
		class, err := music.NormalizePitchClass(n.Name)
		if err != nil {
			return false
		}
		got[class]++
	}
	if len(want) != len(got) {
		return false
	}
	for class, count := range want {
		if got[class] != count {
			return false
		}
	}
	return true
}

// ChordTyped compares typed shorthand against the chord's root name only,
// case-insensitively. The typed form is just the root letter/accidental,
// not a full chord spelling.
func ChordTyped(expected models.Chord, typed string) bool {
	return utils.NormalizeAnswer(typed) == utils.NormalizeAnswer(expected.Name)
}

// Math is an exact string match against the stored canonical answer.
func Math(expected models.MathProblem, typed string) bool {
	return strings.TrimSpace(typed) == expected.Answer
}

// Clock compares user input against the problem's precomputed accepted
// forms, case-insensitively, after normalizing alternate time separators
// (space, period) to a colon so "14.30", "14 30" and "14:30" all match.
func Clock(expected models.ClockProblem, typed string) bool {
	input := NormalizeTimeSeparators(utils.NormalizeAnswer(typed))
	for _, accepted := range expected.AcceptedAnswers {
		if input == NormalizeTimeSeparators(strings.ToLower(accepted)) {
			return true
		}
	}
	return false
}

// NormalizeTimeSeparators rewrites "14.30" and "14 30" style inputs to
// "14:30". Only digit-to-digit separators are touched so locale phrases
// keep their spaces.
func NormalizeTimeSeparators(s string) string {
	runes := []rune(s)
	for i := 1; i < len(runes)-1; i++ {
		if runes[i] != '.' && runes[i] != ' ' {
			continue
		}
		if isDigit(runes[i-1]) && isDigit(runes[i+1]) {
			runes[i] = ':'
		}
	}
	return string(runes)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Card dispatches on the card's payload kind. Detected notes (if any)
// take precedence for note and chord cards; typed input drives the rest.
func Card(card models.FlashCard, typed string, detected []models.Note) bool {
	switch payload := card.Payload.(type) {
	case models.Note:
		if len(detected) == 1 {
			return Note(payload, detected[0])
		}
		return typedNoteMatches(payload, typed)
	case models.Chord:
		if len(detected) > 0 {
			return ChordNotes(payload, detected)
		}
		return ChordTyped(payload, typed)
	case models.MathProblem:
		return Math(payload, typed)
	case models.ClockProblem:
		return Clock(payload, typed)
	default:
		utils.LogError("Unknown card payload kind %q on card %s", card.Kind(), card.ID)
		return false
	}
}

// typedNoteMatches accepts the pitch-class name of the expected note,
// with or without the octave number ("C#", "Db4"). Input is validated
// against the known pitch classes before any comparison.
func typedNoteMatches(expected models.Note, typed string) bool {
	input := strings.TrimSpace(typed)
	if input == "" {
		return false
	}
	// Canonicalize case: pitch letter upper, accidental suffix as-is.
	name := strings.ToUpper(input[:1]) + input[1:]

	if last := name[len(name)-1]; last >= '0' && last <= '9' {
		class := name[:len(name)-1]
		wantClass, err := music.NormalizePitchClass(expected.Name)
		if err != nil {
			return false
		}
		gotClass, err := music.NormalizePitchClass(class)
		if err != nil {
			return false
		}
		return gotClass == wantClass && int(last-'0') == expected.Octave
	}

	wantClass, err := music.NormalizePitchClass(expected.Name)
	if err != nil {
		return false
	}
	gotClass, err := music.NormalizePitchClass(name)
	if err != nil {
		return false
	}
	return gotClass == wantClass
}
