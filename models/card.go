package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CardKind identifies which payload a flash card carries.
type CardKind string

const (
	KindNote  CardKind = "note"
	KindChord CardKind = "chord"
	KindMath  CardKind = "math"
	KindClock CardKind = "clock"
)

// Box number bounds. BoxNew marks a card not yet introduced into rotation.
const (
	BoxNew = -1
	MaxBox = 4
	// BoxCount is the number of active boxes (0..MaxBox).
	BoxCount = MaxBox + 1
)

// CardPayload is the tagged union of the four card contents.
// Exactly one concrete type backs each card and the kind is immutable
// after creation.
type CardPayload interface {
	CardKind() CardKind
}

func (Note) CardKind() CardKind         { return KindNote }
func (Chord) CardKind() CardKind        { return KindChord }
func (MathProblem) CardKind() CardKind  { return KindMath }
func (ClockProblem) CardKind() CardKind { return KindClock }

// FlashCard is a single item under spaced repetition.
type FlashCard struct {
	ID             string      `json:"id"`
	LessonID       string      `json:"lesson_id,omitempty"`
	Payload        CardPayload `json:"-"`
	BoxNumber      int         `json:"box_number"` // -1 (new) or 0..4
	LastReviewDate time.Time   `json:"last_review_date"`
	NextReviewDate time.Time   `json:"next_review_date"`
	ReviewCount    int         `json:"review_count"`
	CorrectCount   int         `json:"correct_count"`
	IncorrectCount int         `json:"incorrect_count"`
}

// IsNew reports whether the card has not yet been introduced into rotation.
func (c FlashCard) IsNew() bool {
	return c.BoxNumber == BoxNew
}

// IsDue reports whether an active card is eligible for review at the given time.
func (c FlashCard) IsDue(now time.Time) bool {
	return c.BoxNumber >= 0 && !c.NextReviewDate.After(now)
}

// Kind returns the payload kind, or "" if the payload is unset.
func (c FlashCard) Kind() CardKind {
	if c.Payload == nil {
		return ""
	}
	return c.Payload.CardKind()
}

// cardJSON is the wire shape for FlashCard. The payload is flattened into
// a kind tag plus a raw object so older persisted shapes stay readable.
type cardJSON struct {
	ID             string          `json:"id"`
	LessonID       string          `json:"lesson_id,omitempty"`
	Kind           CardKind        `json:"kind"`
	Payload        json.RawMessage `json:"payload"`
	BoxNumber      int             `json:"box_number"`
	LastReviewDate time.Time       `json:"last_review_date"`
	NextReviewDate time.Time       `json:"next_review_date"`
	ReviewCount    int             `json:"review_count"`
	CorrectCount   int             `json:"correct_count"`
	IncorrectCount int             `json:"incorrect_count"`
}

func (c FlashCard) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(c.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal card %s payload: %w", c.ID, err)
	}
	return json.Marshal(cardJSON{
		ID:             c.ID,
		LessonID:       c.LessonID,
		Kind:           c.Kind(),
		Payload:        raw,
		BoxNumber:      c.BoxNumber,
		LastReviewDate: c.LastReviewDate,
		NextReviewDate: c.NextReviewDate,
		ReviewCount:    c.ReviewCount,
		CorrectCount:   c.CorrectCount,
		IncorrectCount: c.IncorrectCount,
	})
}

// DecodePayload deserializes a payload of the given kind. Used by the
// JSON codec above and by the storage layer.
func DecodePayload(kind CardKind, data []byte) (CardPayload, error) {
	switch kind {
	case KindNote:
		var n Note
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("unmarshal note payload: %w", err)
		}
		return n, nil
	case KindChord:
		var ch Chord
		if err := json.Unmarshal(data, &ch); err != nil {
			return nil, fmt.Errorf("unmarshal chord payload: %w", err)
		}
		return ch, nil
	case KindMath:
		var m MathProblem
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal math payload: %w", err)
		}
		return m, nil
	case KindClock:
		var cl ClockProblem
		if err := json.Unmarshal(data, &cl); err != nil {
			return nil, fmt.Errorf("unmarshal clock payload: %w", err)
		}
		return cl, nil
	default:
		return nil, fmt.Errorf("unknown card kind %q", kind)
	}
}

func (c *FlashCard) UnmarshalJSON(data []byte) error {
	var wire cardJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	payload, err := DecodePayload(wire.Kind, wire.Payload)
	if err != nil {
		return err
	}

	*c = FlashCard{
		ID:             wire.ID,
		LessonID:       wire.LessonID,
		Payload:        payload,
		BoxNumber:      wire.BoxNumber,
		LastReviewDate: wire.LastReviewDate,
		NextReviewDate: wire.NextReviewDate,
		ReviewCount:    wire.ReviewCount,
		CorrectCount:   wire.CorrectCount,
		IncorrectCount: wire.IncorrectCount,
	}
	return nil
}
