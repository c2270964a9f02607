package models

// Note represents a single pitch on the staff.
// Frequency is always derived from (Name, Octave) via equal temperament,
// never edited independently.
type Note struct {
	Name      string  `json:"name"`   // pitch class, e.g. "C", "D#", "Eb"
	Octave    int     `json:"octave"` // scientific pitch notation, C4 = middle C
	Frequency float64 `json:"frequency"`
}

// Chord represents a triad built on a root pitch class.
// Notes holds exactly three notes; inversions reorder and octave-shift
// them but the pitch-class multiset is fixed per chord identity.
type Chord struct {
	Name  string `json:"name"` // root pitch class
	Notes []Note `json:"notes"`
	Type  string `json:"type"` // e.g. "major"
}

// MathProblem is an opaque question/answer pair.
type MathProblem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ClockProblem asks the learner to read an analog clock face.
// AcceptedAnswers holds every textual form accepted as correct for this
// exact (hour, minute): digital 12/24h variants and locale phrasings.
type ClockProblem struct {
	Hour            int      `json:"hour"`   // 0..23
	Minute          int      `json:"minute"` // 0..59
	Question        string   `json:"question"`
	Answer          string   `json:"answer"` // canonical display phrase
	AcceptedAnswers []string `json:"accepted_answers"`
}
