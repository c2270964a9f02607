package catalog

import (
	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/music"
	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

func init() {
	register(&Lesson{
		ID:    "treble-c4-g4",
		Title: "Treble clef: C4 to G4",
		Order: 1,
		Items: noteRange(60, 67), // C4..G4
	})
	register(&Lesson{
		ID:    "treble-a4-c6",
		Title: "Treble clef: A4 to C6",
		Order: 2,
		Items: noteRange(69, 84), // A4..C6
	})
	register(&Lesson{
		ID:    "bass-c3-b3",
		Title: "Bass clef: C3 to B3",
		Order: 3,
		Items: noteRange(48, 59), // C3..B3
	})
	register(&Lesson{
		ID:    "bass-e2-b2",
		Title: "Bass clef: E2 to B2",
		Order: 4,
		Items: noteRange(40, 47), // E2..B2
	})
}

// noteRange builds the natural (white-key) notes between two MIDI
// numbers inclusive.
func noteRange(fromMIDI, toMIDI int) []models.CardPayload {
	var items []models.CardPayload
	for midi := fromMIDI; midi <= toMIDI; midi++ {
		name := music.PitchClasses[midi%12]
		if len(name) > 1 {
			continue // skip accidentals in the beginner ranges
		}
		note, err := music.NewNote(name, midi/12-1)
		if err != nil {
			utils.LogError("catalog: bad note %s: %v", name, err)
			continue
		}
		items = append(items, note)
	}
	return items
}
