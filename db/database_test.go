package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/georgmuntingh/sheet-music-tutor/leitner"
	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/music"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := InitDB(filepath.Join(t.TempDir(), "tutor.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testProgress(t *testing.T, database *DB) *models.LearningProgress {
	t.Helper()
	userID, err := database.GetOrCreateProfile("georg")
	if err != nil {
		t.Fatalf("GetOrCreateProfile: %v", err)
	}

	note, err := music.NewNote("C#", 4)
	if err != nil {
		t.Fatal(err)
	}
	chord, err := music.MajorTriad("G", 4, 0)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	return &models.LearningProgress{
		UserID: userID,
		Cards: []models.FlashCard{
			{
				ID:             "card-note",
				LessonID:       "treble-c4-g4",
				Payload:        note,
				BoxNumber:      2,
				LastReviewDate: now.Add(-time.Minute),
				NextReviewDate: now.Add(time.Minute),
				ReviewCount:    3,
				CorrectCount:   2,
				IncorrectCount: 1,
			},
			{
				ID:       "card-chord",
				LessonID: "chords-major-root",
				Payload:  chord,
			},
			{
				ID:      "card-math",
				Payload: models.MathProblem{Question: "7 + 3", Answer: "10"},
			},
		},
		InjectedLessons: []string{"treble-c4-g4", "chords-major-root"},
	}
}

func TestProgressRoundTrip(t *testing.T) {
	database := openTestDB(t)
	progress := testProgress(t, database)
	progress.Cards[1].BoxNumber = models.BoxNew

	if err := database.SaveProgress(progress); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	loaded, err := database.LoadProgress(progress.UserID)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}

	if len(loaded.Cards) != len(progress.Cards) {
		t.Fatalf("loaded %d cards, want %d", len(loaded.Cards), len(progress.Cards))
	}
	for i, want := range progress.Cards {
		got := loaded.Cards[i]
		if got.ID != want.ID {
			t.Fatalf("card %d: id %q, want %q (order must be preserved)", i, got.ID, want.ID)
		}
		if got.Kind() != want.Kind() {
			t.Errorf("card %s: kind %q, want %q", got.ID, got.Kind(), want.Kind())
		}
		if got.BoxNumber != want.BoxNumber {
			t.Errorf("card %s: box %d, want %d", got.ID, got.BoxNumber, want.BoxNumber)
		}
		if got.ReviewCount != want.ReviewCount || got.CorrectCount != want.CorrectCount {
			t.Errorf("card %s: counters (%d, %d), want (%d, %d)",
				got.ID, got.ReviewCount, got.CorrectCount, want.ReviewCount, want.CorrectCount)
		}
	}

	note, ok := loaded.Cards[0].Payload.(models.Note)
	if !ok {
		t.Fatalf("card-note payload decoded as %T", loaded.Cards[0].Payload)
	}
	if note.Name != "C#" || note.Octave != 4 {
		t.Errorf("note payload = %s%d, want C#4", note.Name, note.Octave)
	}
	if !loaded.Cards[0].LastReviewDate.Equal(progress.Cards[0].LastReviewDate) {
		t.Errorf("last review = %v, want %v",
			loaded.Cards[0].LastReviewDate, progress.Cards[0].LastReviewDate)
	}
	if !loaded.Cards[1].LastReviewDate.IsZero() {
		t.Errorf("never-reviewed card should load a zero time, got %v", loaded.Cards[1].LastReviewDate)
	}

	if len(loaded.InjectedLessons) != 2 || !loaded.HasLesson("treble-c4-g4") {
		t.Errorf("injected lessons = %v, want both lesson ids", loaded.InjectedLessons)
	}
}

func TestLoadProgressEmptyUser(t *testing.T) {
	database := openTestDB(t)
	userID, err := database.GetOrCreateProfile("fresh")
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := database.LoadProgress(userID)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if loaded.Cards == nil || len(loaded.Cards) != 0 {
		t.Errorf("fresh user should load an empty card list, got %v", loaded.Cards)
	}
	if loaded.InjectedLessons == nil || len(loaded.InjectedLessons) != 0 {
		t.Errorf("fresh user should load an empty lesson list, got %v", loaded.InjectedLessons)
	}
}

func TestLoadProgressSkipsMalformedRows(t *testing.T) {
	database := openTestDB(t)
	progress := testProgress(t, database)
	if err := database.SaveProgress(progress); err != nil {
		t.Fatal(err)
	}

	// Corrupt one payload and plant a row with an unknown kind.
	if _, err := database.Exec(
		"UPDATE cards SET payload = 'not json' WHERE id = 'card-chord'"); err != nil {
		t.Fatal(err)
	}
	if _, err := database.Exec(`
		INSERT INTO cards (id, user_id, kind, payload, position)
		VALUES ('card-bogus', ?, 'riddle', '{}', 99)`, progress.UserID); err != nil {
		t.Fatal(err)
	}

	loaded, err := database.LoadProgress(progress.UserID)
	if err != nil {
		t.Fatalf("LoadProgress must not fail on bad rows: %v", err)
	}
	if len(loaded.Cards) != 2 {
		t.Fatalf("loaded %d cards, want 2 readable ones", len(loaded.Cards))
	}
	for _, card := range loaded.Cards {
		if card.ID == "card-chord" || card.ID == "card-bogus" {
			t.Errorf("unreadable card %s must be skipped", card.ID)
		}
	}
}

func TestLoadProgressSkipsOutOfRangeBox(t *testing.T) {
	database := openTestDB(t)
	progress := testProgress(t, database)
	if err := database.SaveProgress(progress); err != nil {
		t.Fatal(err)
	}

	// Box numbers outside -1..4 must never reach the scheduler.
	if _, err := database.Exec(
		"UPDATE cards SET box_number = 9 WHERE id = 'card-math'"); err != nil {
		t.Fatal(err)
	}
	if _, err := database.Exec(
		"UPDATE cards SET box_number = -3 WHERE id = 'card-chord'"); err != nil {
		t.Fatal(err)
	}

	loaded, err := database.LoadProgress(progress.UserID)
	if err != nil {
		t.Fatalf("LoadProgress must not fail on out-of-range boxes: %v", err)
	}
	if len(loaded.Cards) != 1 || loaded.Cards[0].ID != "card-note" {
		t.Fatalf("loaded cards = %v, want only card-note", loaded.Cards)
	}

	// The loaded state must be safe to aggregate and schedule over.
	stats := leitner.Statistics(loaded.Cards, time.Now())
	if stats.ActiveCount != 1 {
		t.Errorf("active count = %d, want 1", stats.ActiveCount)
	}
}

func TestSaveCardUpdatesInPlace(t *testing.T) {
	database := openTestDB(t)
	progress := testProgress(t, database)
	if err := database.SaveProgress(progress); err != nil {
		t.Fatal(err)
	}

	card := progress.Cards[0]
	card.BoxNumber = 3
	card.ReviewCount = 4
	card.CorrectCount = 3
	if err := database.SaveCard(progress.UserID, card); err != nil {
		t.Fatalf("SaveCard: %v", err)
	}

	loaded, err := database.LoadProgress(progress.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Cards[0].BoxNumber != 3 || loaded.Cards[0].ReviewCount != 4 {
		t.Errorf("card not updated: box %d, reviews %d",
			loaded.Cards[0].BoxNumber, loaded.Cards[0].ReviewCount)
	}

	card.ID = "no-such-card"
	if err := database.SaveCard(progress.UserID, card); err == nil {
		t.Error("SaveCard for an unknown id must fail")
	}
}

func TestSettingsDefaultsAndUpsert(t *testing.T) {
	database := openTestDB(t)
	userID, err := database.GetOrCreateProfile("georg")
	if err != nil {
		t.Fatal(err)
	}

	settings, err := database.GetSettings(userID)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	defaults := models.GetDefaultSettings(userID)
	if settings.Box0IntervalMs != defaults.Box0IntervalMs ||
		settings.Locale != defaults.Locale ||
		!settings.EnableHarmonicRatio {
		t.Errorf("first access should create defaults, got %+v", settings)
	}

	settings.TimeoutSeconds = 15
	settings.SilentTimeout = true
	settings.Locale = "en"
	if err := database.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	reloaded, err := database.GetSettings(userID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.TimeoutSeconds != 15 || !reloaded.SilentTimeout || reloaded.Locale != "en" {
		t.Errorf("upsert not applied: %+v", reloaded)
	}
}

func TestResetProgressKeepsSettings(t *testing.T) {
	database := openTestDB(t)
	progress := testProgress(t, database)
	if err := database.SaveProgress(progress); err != nil {
		t.Fatal(err)
	}
	settings, err := database.GetSettings(progress.UserID)
	if err != nil {
		t.Fatal(err)
	}
	settings.Locale = "en"
	if err := database.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	if err := database.ResetProgress(progress.UserID); err != nil {
		t.Fatalf("ResetProgress: %v", err)
	}

	loaded, err := database.LoadProgress(progress.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Cards) != 0 || len(loaded.InjectedLessons) != 0 {
		t.Errorf("reset left %d cards, %d lessons", len(loaded.Cards), len(loaded.InjectedLessons))
	}

	kept, err := database.GetSettings(progress.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if kept.Locale != "en" {
		t.Errorf("reset must not touch settings, locale = %q", kept.Locale)
	}
}

func TestGetOrCreateProfileIdempotent(t *testing.T) {
	database := openTestDB(t)
	first, err := database.GetOrCreateProfile("georg")
	if err != nil {
		t.Fatal(err)
	}
	second, err := database.GetOrCreateProfile("georg")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("same name gave ids %d and %d", first, second)
	}
	other, err := database.GetOrCreateProfile("anna")
	if err != nil {
		t.Fatal(err)
	}
	if other == first {
		t.Error("different names must get different ids")
	}
}
