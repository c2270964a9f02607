package models

import "time"

// LearningProgress is the persisted aggregate for one user: the full card
// collection plus the set of lessons already merged into the active deck.
// Created empty, mutated on every introduce/promote/demote, only reset
// by explicit request.
type LearningProgress struct {
	UserID          int         `json:"user_id"`
	Cards           []FlashCard `json:"cards"`
	InjectedLessons []string    `json:"injected_lessons"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// HasLesson reports whether a lesson's cards were already injected.
func (p *LearningProgress) HasLesson(lessonID string) bool {
	for _, id := range p.InjectedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// ReplaceCard substitutes the card with the same ID, keeping collection
// order. Returns false if no card with that ID exists.
func (p *LearningProgress) ReplaceCard(card FlashCard) bool {
	for i := range p.Cards {
		if p.Cards[i].ID == card.ID {
			p.Cards[i] = card
			return true
		}
	}
	return false
}

// Stats represents aggregate review statistics over a card collection.
type Stats struct {
	ActiveCount  int              `json:"active_count"`
	NewCount     int              `json:"new_count"`
	DueCount     int              `json:"due_count"`
	TotalReviews int              `json:"total_reviews"`
	TotalCorrect int              `json:"total_correct"`
	AccuracyPct  float64          `json:"accuracy_pct"`
	PerBoxCounts [BoxCount]int    `json:"per_box_counts"`
	PerKindCount map[CardKind]int `json:"per_kind_count,omitempty"`
}
