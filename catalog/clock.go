package catalog

import (
	"fmt"

	"github.com/georgmuntingh/sheet-music-tutor/models"
)

func init() {
	for _, locale := range []string{"nb", "en"} {
		register(&Lesson{
			ID:    "clock-whole-half-" + locale,
			Title: "Clock reading: whole and half hours",
			Order: 10,
			Items: clockProblems(locale, 0, 30),
		})
		register(&Lesson{
			ID:    "clock-quarters-" + locale,
			Title: "Clock reading: quarter hours",
			Order: 11,
			Items: clockProblems(locale, 15, 45),
		})
	}
}

func clockProblems(locale string, minutes ...int) []models.CardPayload {
	var items []models.CardPayload
	for hour := 0; hour < 24; hour += 2 {
		for _, minute := range minutes {
			items = append(items, NewClockProblem(hour, minute, locale))
		}
	}
	return items
}

// NewClockProblem builds a clock-reading problem for the exact
// (hour, minute) with every textual form accepted as correct: canonical
// 24h and 12h digital forms with and without leading zero, the locale
// long-form phrase, and the locale phrase without its leading words.
func NewClockProblem(hour, minute int, locale string) models.ClockProblem {
	canonical := fmt.Sprintf("%02d:%02d", hour, minute)
	// An analog face cannot distinguish am from pm, so the hour twelve
	// hours away is accepted alongside the canonical one.
	alt := (hour + 12) % 24
	accepted := []string{
		canonical,
		fmt.Sprintf("%d:%02d", hour, minute),
		fmt.Sprintf("%02d:%02d", alt, minute),
		fmt.Sprintf("%d:%02d", alt, minute),
		fmt.Sprintf("%d:%02d", hour12(hour), minute),
	}

	long, short := clockPhrases(hour, minute, locale)
	if long != "" {
		accepted = append(accepted, long)
	}
	if short != "" && short != long {
		accepted = append(accepted, short)
	}

	return models.ClockProblem{
		Hour:            hour,
		Minute:          minute,
		Question:        clockQuestion(locale),
		Answer:          canonical,
		AcceptedAnswers: dedupe(accepted),
	}
}

func clockQuestion(locale string) string {
	if locale == "nb" {
		return "Hva er klokken?"
	}
	return "What time is it?"
}

// clockPhrases returns the locale long-form phrase and its abbreviated
// form (the phrase without leading words). Only whole, half and quarter
// hours have spoken forms; other minutes are digital-only.
func clockPhrases(hour, minute int, locale string) (long, short string) {
	switch locale {
	case "nb":
		return norwegianPhrases(hour, minute)
	case "en":
		return englishPhrases(hour, minute)
	default:
		return "", ""
	}
}

var norwegianNumbers = [12]string{
	"tolv", "ett", "to", "tre", "fire", "fem",
	"seks", "sju", "åtte", "ni", "ti", "elleve",
}

// norwegianPhrases follows Norwegian clock conventions: the half hour
// belongs to the coming hour ("halv tre" is 2:30) and quarter-to names
// the coming hour as well.
func norwegianPhrases(hour, minute int) (string, string) {
	this := norwegianNumbers[hour%12]
	next := norwegianNumbers[(hour+1)%12]
	switch minute {
	case 0:
		return "klokken er " + this, this
	case 15:
		short := "kvart over " + this
		return "klokken er " + short, short
	case 30:
		short := "halv " + next
		return "klokken er " + short, short
	case 45:
		short := "kvart på " + next
		return "klokken er " + short, short
	default:
		return "", ""
	}
}

var englishNumbers = [12]string{
	"twelve", "one", "two", "three", "four", "five",
	"six", "seven", "eight", "nine", "ten", "eleven",
}

func englishPhrases(hour, minute int) (string, string) {
	this := englishNumbers[hour%12]
	next := englishNumbers[(hour+1)%12]
	switch minute {
	case 0:
		short := this + " o'clock"
		return "it's " + short, short
	case 15:
		short := "quarter past " + this
		return "it's " + short, short
	case 30:
		short := "half past " + this
		return "it's " + short, short
	case 45:
		short := "quarter to " + next
		return "it's " + short, short
	default:
		return "", ""
	}
}

func hour12(hour int) int {
	h := hour % 12
	if h == 0 {
		return 12
	}
	return h
}

func dedupe(forms []string) []string {
	seen := make(map[string]bool, len(forms))
	out := forms[:0]
	for _, f := range forms {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
