package catalog

import (
	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/music"
	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

func init() {
	register(&Lesson{
		ID:    "chords-major-root",
		Title: "Major chords: root position",
		Order: 5,
		Items: majorChords(4, 0, "C", "F", "G", "D", "A", "E"),
	})
	register(&Lesson{
		ID:    "chords-major-inversions",
		Title: "Major chords: inversions",
		Order: 6,
		Items: append(
			majorChords(4, 1, "C", "F", "G"),
			majorChords(4, 2, "C", "F", "G")...,
		),
	})
}

func majorChords(octave, inversion int, roots ...string) []models.CardPayload {
	var items []models.CardPayload
	for _, root := range roots {
		chord, err := music.MajorTriad(root, octave, inversion)
		if err != nil {
			utils.LogError("catalog: bad chord %s: %v", root, err)
			continue
		}
		items = append(items, chord)
	}
	return items
}
