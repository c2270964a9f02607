package leitner

import (
	"math/rand"
	"testing"
	"time"

	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/music"
)

func testConfig() Config {
	return Config{Intervals: [models.BoxCount]time.Duration{
		time.Second,
		5 * time.Second,
		time.Minute,
		10 * time.Minute,
		time.Hour,
	}}
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func noteItems(t *testing.T, names ...string) []models.CardPayload {
	t.Helper()
	items := make([]models.CardPayload, 0, len(names))
	for _, name := range names {
		n, err := music.NewNote(name, 4)
		if err != nil {
			t.Fatalf("NewNote(%q): %v", name, err)
		}
		items = append(items, n)
	}
	return items
}

func TestInitializeCards(t *testing.T) {
	cards := InitializeCards(noteItems(t, "C", "D", "E"), "lesson-1")
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	seen := make(map[string]bool)
	for i, c := range cards {
		if c.ID == "" || seen[c.ID] {
			t.Fatalf("card %d has missing or duplicate id", i)
		}
		seen[c.ID] = true
		if c.BoxNumber != models.BoxNew {
			t.Errorf("card %d box = %d, want -1", i, c.BoxNumber)
		}
		if c.LessonID != "lesson-1" {
			t.Errorf("card %d lesson = %q", i, c.LessonID)
		}
		if c.ReviewCount != 0 || c.CorrectCount != 0 || c.IncorrectCount != 0 {
			t.Errorf("card %d counters not zeroed", i)
		}
	}
}

// With no due cards, NextCard returns the first new card deterministically.
func TestNextCardFirstNewDeterministic(t *testing.T) {
	cards := InitializeCards(noteItems(t, "C", "D", "E"), "")
	now := time.Now()
	for i := 0; i < 10; i++ {
		got, ok := NextCard(cards, now, "", testRNG())
		if !ok {
			t.Fatal("expected a card")
		}
		if got.ID != cards[0].ID {
			t.Fatalf("expected first new card %s, got %s", cards[0].ID, got.ID)
		}
	}
}

func TestNextCardEmpty(t *testing.T) {
	if _, ok := NextCard(nil, time.Now(), "", testRNG()); ok {
		t.Fatal("expected no card from empty collection")
	}
}

// A new card must never be returned while any active card is due.
func TestNextCardDueBeatsNew(t *testing.T) {
	now := time.Now()
	cards := InitializeCards(noteItems(t, "C", "D", "E"), "")
	cards[2] = IntroduceCard(cards[2], now.Add(-time.Minute))

	rng := testRNG()
	for i := 0; i < 50; i++ {
		got, ok := NextCard(cards, now, "", rng)
		if !ok {
			t.Fatal("expected a card")
		}
		if got.IsNew() {
			t.Fatal("NextCard returned a new card while a due card existed")
		}
	}
}

func TestNextCardExclude(t *testing.T) {
	now := time.Now()
	cards := InitializeCards(noteItems(t, "C", "D"), "")
	cards[0] = IntroduceCard(cards[0], now.Add(-time.Minute))
	cards[1] = IntroduceCard(cards[1], now.Add(-time.Minute))

	rng := testRNG()
	for i := 0; i < 50; i++ {
		got, ok := NextCard(cards, now, cards[0].ID, rng)
		if !ok {
			t.Fatal("expected a card")
		}
		if got.ID == cards[0].ID {
			t.Fatal("excluded card was returned")
		}
	}
}

func TestIntroduceCard(t *testing.T) {
	now := time.Now()
	cards := InitializeCards(noteItems(t, "C"), "")
	got := IntroduceCard(cards[0], now)
	if got.BoxNumber != 0 {
		t.Fatalf("box = %d, want 0", got.BoxNumber)
	}
	if !got.NextReviewDate.Equal(now) || !got.LastReviewDate.Equal(now) {
		t.Fatal("introduce must set last and next review date to now")
	}
	if !got.IsDue(now) {
		t.Fatal("introduced card must be immediately due")
	}
}

func TestPromoteClimbsAndCapsAtTop(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	card := IntroduceCard(InitializeCards(noteItems(t, "C"), "")[0], now)

	for wantBox := 1; wantBox <= models.MaxBox; wantBox++ {
		card = Promote(card, cfg, now)
		if card.BoxNumber != wantBox {
			t.Fatalf("box = %d, want %d", card.BoxNumber, wantBox)
		}
		if !card.NextReviewDate.After(now) {
			t.Fatal("promote must push the due date past now")
		}
		wantDue := now.Add(cfg.Intervals[wantBox])
		if !card.NextReviewDate.Equal(wantDue) {
			t.Fatalf("due = %v, want %v", card.NextReviewDate, wantDue)
		}
	}

	// Box 4 never graduates out of rotation; the due date still advances.
	card = Promote(card, cfg, now)
	if card.BoxNumber != models.MaxBox {
		t.Fatalf("box = %d, want %d", card.BoxNumber, models.MaxBox)
	}
	if !card.NextReviewDate.Equal(now.Add(cfg.Intervals[models.MaxBox])) {
		t.Fatal("promote at box 4 must still advance the due date")
	}
}

func TestDemoteAlwaysResetsToBoxZero(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	card := IntroduceCard(InitializeCards(noteItems(t, "C"), "")[0], now)
	for i := 0; i < 3; i++ {
		card = Promote(card, cfg, now)
	}

	before := card
	card = Demote(card, cfg, now)
	if card.BoxNumber != 0 {
		t.Fatalf("box = %d, want 0", card.BoxNumber)
	}
	if card.IncorrectCount != before.IncorrectCount+1 {
		t.Fatal("demote must increment incorrectCount by exactly 1")
	}
	if card.CorrectCount != before.CorrectCount {
		t.Fatal("demote must not change correctCount")
	}
	if !card.NextReviewDate.Equal(now.Add(cfg.Intervals[0])) {
		t.Fatal("demote must schedule at the box 0 interval")
	}
}

// reviewCount == correctCount + incorrectCount after any review sequence.
func TestCounterInvariant(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	card := IntroduceCard(InitializeCards(noteItems(t, "C"), "")[0], now)

	rng := testRNG()
	for i := 0; i < 100; i++ {
		if rng.Intn(2) == 0 {
			card = Promote(card, cfg, now)
		} else {
			card = Demote(card, cfg, now)
		}
		if card.ReviewCount != card.CorrectCount+card.IncorrectCount {
			t.Fatalf("after %d reviews: reviewCount %d != %d + %d",
				i+1, card.ReviewCount, card.CorrectCount, card.IncorrectCount)
		}
	}
}

// A just-demoted card stays out of the due pool until its interval elapses.
func TestDemotedCardNotDueUntilInterval(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	cards := InitializeCards(noteItems(t, "C"), "")
	cards[0] = IntroduceCard(cards[0], now)
	cards[0] = Promote(cards[0], cfg, now)
	cards[0] = Promote(cards[0], cfg, now) // box 2

	cards[0] = Demote(cards[0], cfg, now)
	if len(DueCards(cards, now)) != 0 {
		t.Fatal("demoted card must not be due before its interval elapses")
	}
	later := now.Add(cfg.Intervals[0])
	if len(DueCards(cards, later)) != 1 {
		t.Fatal("demoted card must be due once the box 0 interval has elapsed")
	}
}

func TestStatisticsEmpty(t *testing.T) {
	stats := Statistics(nil, time.Now())
	if stats.ActiveCount != 0 || stats.NewCount != 0 || stats.DueCount != 0 ||
		stats.TotalReviews != 0 || stats.TotalCorrect != 0 || stats.AccuracyPct != 0 {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
}

func TestStatisticsAggregation(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	cards := InitializeCards(noteItems(t, "C", "D", "E"), "")
	cards[0] = IntroduceCard(cards[0], now.Add(-time.Hour))
	cards[0] = Promote(cards[0], cfg, now.Add(-time.Hour)) // box 1, due by now
	cards[1] = IntroduceCard(cards[1], now)
	cards[1] = Demote(cards[1], cfg, now) // box 0, not yet due

	stats := Statistics(cards, now)
	if stats.ActiveCount != 2 || stats.NewCount != 1 {
		t.Fatalf("active/new = %d/%d, want 2/1", stats.ActiveCount, stats.NewCount)
	}
	if stats.DueCount != 1 {
		t.Fatalf("due = %d, want 1", stats.DueCount)
	}
	if stats.TotalReviews != 2 || stats.TotalCorrect != 1 {
		t.Fatalf("reviews/correct = %d/%d, want 2/1", stats.TotalReviews, stats.TotalCorrect)
	}
	if stats.AccuracyPct != 50 {
		t.Fatalf("accuracy = %.1f, want 50", stats.AccuracyPct)
	}
	if stats.PerBoxCounts[0] != 1 || stats.PerBoxCounts[1] != 1 {
		t.Fatalf("per-box = %v", stats.PerBoxCounts)
	}
	if stats.PerKindCount[models.KindNote] != 3 {
		t.Fatalf("per-kind = %v", stats.PerKindCount)
	}
}

func TestShuffleSeededReproducible(t *testing.T) {
	a := noteItems(t, "C", "D", "E", "F", "G", "A", "B")
	b := noteItems(t, "C", "D", "E", "F", "G", "A", "B")
	Shuffle(a, rand.New(rand.NewSource(42)))
	Shuffle(b, rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].(models.Note).Name != b[i].(models.Note).Name {
			t.Fatal("seeded shuffles must agree")
		}
	}
}
