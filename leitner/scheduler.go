// Package leitner implements the five-box spaced repetition scheduler.
// All operations are pure: they take card values and return new card
// values, never mutating shared state. The session layer owns the live
// collection and substitutes returned cards into it.
package leitner

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/georgmuntingh/sheet-music-tutor/models"
)

// Config holds the review interval per box, indexed by box number.
type Config struct {
	Intervals [models.BoxCount]time.Duration
}

// ConfigFromSettings builds a scheduler config from user settings.
func ConfigFromSettings(s *models.Settings) Config {
	return Config{Intervals: s.BoxIntervals()}
}

// InitializeCards constructs one card per item with a fresh unique id,
// box -1 (not yet in rotation) and zeroed counters. The input order is
// preserved; callers shuffle beforehand if they want randomized
// injection order.
func InitializeCards(items []models.CardPayload, lessonID string) []models.FlashCard {
	cards := make([]models.FlashCard, 0, len(items))
	for _, item := range items {
		cards = append(cards, models.FlashCard{
			ID:        uuid.NewString(),
			LessonID:  lessonID,
			Payload:   item,
			BoxNumber: models.BoxNew,
		})
	}
	return cards
}

// DueCards returns all active cards whose next review date has passed.
func DueCards(cards []models.FlashCard, now time.Time) []models.FlashCard {
	var due []models.FlashCard
	for _, c := range cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	return due
}

// NewCards returns all not-yet-introduced cards in insertion order.
// Insertion order is meaningful: it reflects injection/shuffle order.
func NewCards(cards []models.FlashCard) []models.FlashCard {
	var fresh []models.FlashCard
	for _, c := range cards {
		if c.IsNew() {
			fresh = append(fresh, c)
		}
	}
	return fresh
}

// NextCard picks the card to show next. Due cards win over new cards;
// among due cards the pick is uniformly random so a review burst has no
// predictable order. New cards are taken first-in-first-out. excludeID
// (if non-empty) removes one card from the due pool, typically the card
// just shown. Returns false if nothing is due and no new cards remain.
func NextCard(cards []models.FlashCard, now time.Time, excludeID string, rng *rand.Rand) (models.FlashCard, bool) {
	due := DueCards(cards, now)
	if excludeID != "" {
		filtered := due[:0]
		for _, c := range due {
			if c.ID != excludeID {
				filtered = append(filtered, c)
			}
		}
		due = filtered
	}
	if len(due) > 0 {
		return due[rng.Intn(len(due))], true
	}

	fresh := NewCards(cards)
	if len(fresh) > 0 {
		return fresh[0], true
	}
	return models.FlashCard{}, false
}

// IntroduceCard moves a new card into rotation: box 0, due immediately.
// Must be applied before a new card is first shown so it stays
// due-eligible from then on.
func IntroduceCard(card models.FlashCard, now time.Time) models.FlashCard {
	card.BoxNumber = 0
	card.LastReviewDate = now
	card.NextReviewDate = now
	return card
}

// Promote records a correct review: the card climbs one box (capped at
// box 4, where it stays in rotation at the longest interval) and its due
// date advances by the new box's interval.
func Promote(card models.FlashCard, cfg Config, now time.Time) models.FlashCard {
	if card.BoxNumber < models.MaxBox {
		card.BoxNumber++
	}
	card.LastReviewDate = now
	card.NextReviewDate = now.Add(cfg.Intervals[card.BoxNumber])
	card.ReviewCount++
	card.CorrectCount++
	return card
}

// Demote records an incorrect review: the card drops back to box 0
// regardless of its prior box. No partial credit.
func Demote(card models.FlashCard, cfg Config, now time.Time) models.FlashCard {
	card.BoxNumber = 0
	card.LastReviewDate = now
	card.NextReviewDate = now.Add(cfg.Intervals[0])
	card.ReviewCount++
	card.IncorrectCount++
	return card
}

// Statistics aggregates review totals over a card collection.
func Statistics(cards []models.FlashCard, now time.Time) models.Stats {
	stats := models.Stats{PerKindCount: make(map[models.CardKind]int)}
	for _, c := range cards {
		stats.TotalReviews += c.ReviewCount
		stats.TotalCorrect += c.CorrectCount
		stats.PerKindCount[c.Kind()]++
		if c.IsNew() {
			stats.NewCount++
			continue
		}
		stats.ActiveCount++
		stats.PerBoxCounts[c.BoxNumber]++
		if c.IsDue(now) {
			stats.DueCount++
		}
	}
	if stats.TotalReviews > 0 {
		stats.AccuracyPct = 100 * float64(stats.TotalCorrect) / float64(stats.TotalReviews)
	}
	return stats
}

// Shuffle permutes items in place with a uniform Fisher-Yates shuffle.
// The rand source is caller-supplied so tests can seed it.
func Shuffle(items []models.CardPayload, rng *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
