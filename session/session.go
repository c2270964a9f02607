// Package session coordinates a review run: it pulls cards from the
// Leitner scheduler, drives the pitch detector while a card is on
// screen, funnels detected and typed answers through the matcher, and
// routes the verdict back into the scheduler.
//
// All timer-driven actions (stabilization, feedback dismiss, timeout)
// hold a single cancellable handle each and are guarded by a generation
// counter, so a stale callback can never touch a later card's state.
package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/georgmuntingh/sheet-music-tutor/catalog"
	"github.com/georgmuntingh/sheet-music-tutor/leitner"
	"github.com/georgmuntingh/sheet-music-tutor/match"
	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

// State is the session's per-card flow state.
type State int

const (
	AwaitingStart State = iota
	CountingDown
	Listening
	ListeningPaused
	Feedback
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "awaiting_start"
	case CountingDown:
		return "counting_down"
	case Listening:
		return "listening"
	case ListeningPaused:
		return "paused"
	case Feedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// Detector is the audio collaborator. pitch.Detector implements it;
// sessions without audio pass nil.
type Detector interface {
	Start() error
	Stop()
	Pause()
	Resume()
	DetectPitch() (models.Note, bool)
	DetectChord() ([]models.Note, bool)
}

// Store persists the learning progress after every mutation.
type Store interface {
	SaveProgress(progress *models.LearningProgress) error
}

// Callbacks notify the UI shell. All callbacks are invoked without the
// session lock held; nil callbacks are skipped.
type Callbacks struct {
	// OnCard fires when a card is displayed.
	OnCard func(card models.FlashCard)
	// OnFeedback fires on a verdict. shownCorrect is what the learner
	// sees; the scheduling outcome can differ under a silent timeout.
	OnFeedback func(card models.FlashCard, shownCorrect bool, correctAnswer string)
	// OnIdle fires when no due or new cards remain.
	OnIdle func()
}

// Config holds the session timing contract.
type Config struct {
	// StabilizationWindow is how long a detected candidate must stay
	// unchanged before it is judged. Zero means 400ms.
	StabilizationWindow time.Duration
	// CorrectFeedback is the auto-advance delay after a correct answer.
	// Zero means 1s.
	CorrectFeedback time.Duration
	// IncorrectFeedback is the auto-advance delay after an incorrect
	// answer, long enough to study the correct answer. Zero means 1.5s.
	IncorrectFeedback time.Duration
	// PollInterval is the detection polling period. Zero means 50ms.
	PollInterval time.Duration
	// Countdown is an optional pre-card countdown. Zero disables it.
	Countdown time.Duration
}

func (c *Config) applyDefaults() {
	if c.StabilizationWindow == 0 {
		c.StabilizationWindow = 400 * time.Millisecond
	}
	if c.CorrectFeedback == 0 {
		c.CorrectFeedback = time.Second
	}
	if c.IncorrectFeedback == 0 {
		c.IncorrectFeedback = 1500 * time.Millisecond
	}
	if c.PollInterval == 0 {
		c.PollInterval = 50 * time.Millisecond
	}
}

// Session owns the live card collection and is its sole mutator. Every
// scheduler transition produces a new card value that the session
// substitutes into the collection and persists.
type Session struct {
	mu sync.Mutex

	cfg      Config
	settings *models.Settings
	sched    leitner.Config
	progress *models.LearningProgress
	store    Store
	detector Detector
	cb       Callbacks
	rng      *rand.Rand

	state      State
	current    models.FlashCard
	hasCurrent bool

	// generation invalidates timers and poll loops from earlier cards.
	generation int

	candidateKey   string
	candidateNotes []models.Note

	stabilizeTimer *time.Timer
	feedbackTimer  *time.Timer
	timeoutTimer   *time.Timer
	countdownTimer *time.Timer

	// timeoutDeadline is set while a card with a timeout is listening.
	// Under a silent timeout no verdict is forced; answers after the
	// deadline are merely routed as incorrect for scheduling.
	timeoutDeadline time.Time

	detectorStarted bool
}

// New creates a session over an existing progress record.
func New(progress *models.LearningProgress, settings *models.Settings, store Store, detector Detector, cfg Config, cb Callbacks) *Session {
	cfg.applyDefaults()
	return &Session{
		cfg:      cfg,
		settings: settings,
		sched:    leitner.ConfigFromSettings(settings),
		progress: progress,
		store:    store,
		detector: detector,
		cb:       cb,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		state:    AwaitingStart,
	}
}

// InjectLesson merges a lesson's items into the deck as new cards,
// unless the lesson was already injected. Items are shuffled so the
// injection order varies between learners.
func (s *Session) InjectLesson(lesson *catalog.Lesson) error {
	if lesson == nil {
		return fmt.Errorf("session: nil lesson")
	}
	s.mu.Lock()
	if s.progress.HasLesson(lesson.ID) {
		s.mu.Unlock()
		return nil
	}
	items := make([]models.CardPayload, len(lesson.Items))
	copy(items, lesson.Items)
	leitner.Shuffle(items, s.rng)
	cards := leitner.InitializeCards(items, lesson.ID)
	s.progress.Cards = append(s.progress.Cards, cards...)
	s.progress.InjectedLessons = append(s.progress.InjectedLessons, lesson.ID)
	s.progress.UpdatedAt = time.Now()
	s.mu.Unlock()

	utils.LogSession("Injected lesson %s (%d cards)", lesson.ID, len(cards))
	s.persist()
	return nil
}

// Start begins the review run. If a detector is present it is acquired
// first; on microphone failure the session stays in AwaitingStart and
// the error is returned so the caller can retry.
func (s *Session) Start() error {
	if s.detector != nil {
		s.mu.Lock()
		started := s.detectorStarted
		s.mu.Unlock()
		if !started {
			if err := s.detector.Start(); err != nil {
				utils.LogSession("Cannot start audio, session stays idle: %v", err)
				return err
			}
			s.mu.Lock()
			s.detectorStarted = true
			s.mu.Unlock()
		}
	}
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	s.nextCard("", gen)
	return nil
}

// State returns the current flow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the card on display, if any.
func (s *Session) Current() (models.FlashCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasCurrent
}

// Stats aggregates review statistics over the current collection.
func (s *Session) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return leitner.Statistics(s.progress.Cards, time.Now())
}

// nextCard cancels every pending timer, picks the next due or new card
// and moves to CountingDown/Listening. With nothing left it returns to
// AwaitingStart. expectGen is the generation the caller decided to
// advance under; when the auto-advance timer and a key press race, only
// the first to get here wins and the loser is a no-op.
func (s *Session) nextCard(excludeID string, expectGen int) {
	now := time.Now()

	s.mu.Lock()
	if s.generation != expectGen {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.cancelTimersLocked()
	s.candidateKey = ""
	s.candidateNotes = nil
	s.timeoutDeadline = time.Time{}

	card, ok := leitner.NextCard(s.progress.Cards, now, excludeID, s.rng)
	if !ok {
		s.state = AwaitingStart
		s.hasCurrent = false
		cb := s.cb.OnIdle
		s.mu.Unlock()
		utils.LogSession("No cards due and no new cards remain")
		if cb != nil {
			cb()
		}
		return
	}

	introduced := false
	if card.IsNew() {
		card = leitner.IntroduceCard(card, now)
		s.progress.ReplaceCard(card)
		s.progress.UpdatedAt = now
		introduced = true
	}
	s.current = card
	s.hasCurrent = true
	gen := s.generation

	if s.cfg.Countdown > 0 {
		s.state = CountingDown
		s.countdownTimer = time.AfterFunc(s.cfg.Countdown, func() {
			s.beginListening(gen)
		})
	}
	cb := s.cb.OnCard
	s.mu.Unlock()

	if introduced {
		utils.LogSession("Introduced card %s into rotation", card.ID)
		s.persist()
	}
	if cb != nil {
		cb(card)
	}
	if s.cfg.Countdown == 0 {
		s.beginListening(gen)
	}
}

// beginListening arms the timeout and starts the detection poll loop.
func (s *Session) beginListening(gen int) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state = Listening
	s.armTimeoutLocked(gen)
	audio := s.audioRelevantLocked()
	s.mu.Unlock()

	if audio {
		go s.pollLoop(gen)
	}
}

// audioRelevantLocked reports whether the current card is answered by
// playing rather than typing.
func (s *Session) audioRelevantLocked() bool {
	if s.detector == nil || !s.detectorStarted {
		return false
	}
	kind := s.current.Kind()
	return kind == models.KindNote || kind == models.KindChord
}

// armTimeoutLocked starts the per-card countdown where configured.
// New and box-0 cards always get infinite time.
func (s *Session) armTimeoutLocked(gen int) {
	if s.settings.TimeoutSeconds <= 0 || s.current.BoxNumber < 1 {
		return
	}
	d := time.Duration(s.settings.TimeoutSeconds) * time.Second
	s.timeoutDeadline = time.Now().Add(d)
	if s.settings.SilentTimeout {
		// Hidden countdown: no forced verdict, the deadline only decides
		// how a late answer is routed.
		return
	}
	s.timeoutTimer = time.AfterFunc(d, func() {
		s.timeoutFired(gen)
	})
}

// timeoutFired forces an incorrect verdict when the visible countdown
// reaches zero with no answer.
func (s *Session) timeoutFired(gen int) {
	s.mu.Lock()
	if s.generation != gen || s.state != Listening {
		s.mu.Unlock()
		return
	}
	utils.LogSession("Card %s timed out", s.current.ID)
	s.verdictLocked(gen, false, false)
}

// pollLoop runs single-shot detection on a fixed period while the card
// is listening. It exits as soon as the generation moves on.
func (s *Session) pollLoop(gen int) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		if s.generation != gen || s.state != Listening {
			s.mu.Unlock()
			return
		}
		kind := s.current.Kind()
		s.mu.Unlock()

		var notes []models.Note
		switch kind {
		case models.KindNote:
			if n, ok := s.detector.DetectPitch(); ok {
				notes = []models.Note{n}
			}
		case models.KindChord:
			if ns, ok := s.detector.DetectChord(); ok {
				notes = ns
			}
		default:
			return
		}
		if len(notes) > 0 {
			s.observe(gen, notes)
		}
	}
}

// observe feeds one detection tick into the stabilization window. A new
// candidate restarts the window; an unchanged candidate leaves the
// running timer alone. Ticks with no detection never reset the window.
func (s *Session) observe(gen int, notes []models.Note) {
	key := detectionKey(notes)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.state != Listening {
		return
	}
	if key == s.candidateKey {
		return
	}
	s.candidateKey = key
	s.candidateNotes = notes
	if s.stabilizeTimer != nil {
		s.stabilizeTimer.Stop()
	}
	s.stabilizeTimer = time.AfterFunc(s.cfg.StabilizationWindow, func() {
		s.stabilized(gen, key)
	})
}

// stabilized renders a verdict once a candidate survived the whole
// stabilization window unchanged.
func (s *Session) stabilized(gen int, key string) {
	s.mu.Lock()
	if s.generation != gen || s.state != Listening || s.candidateKey != key {
		s.mu.Unlock()
		return
	}
	correct := match.Card(s.current, "", s.candidateNotes)
	s.verdictLocked(gen, correct, false)
}

// SubmitAnswer judges typed input immediately, bypassing the
// stabilization window. Ignored outside the Listening state.
func (s *Session) SubmitAnswer(typed string) {
	s.mu.Lock()
	if s.state != Listening {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	correct := match.Card(s.current, typed, nil)
	s.verdictLocked(gen, correct, true)
}

// verdictLocked applies the scheduling outcome and enters Feedback.
// Callers must hold the lock; it is released before callbacks fire.
func (s *Session) verdictLocked(gen int, correct, typed bool) {
	now := time.Now()

	// Silent timeout: a late answer is shown as the learner earned it,
	// but only an answer before the deadline advances the card.
	shownCorrect := correct
	scheduledCorrect := correct
	if correct && s.settings.SilentTimeout && !s.timeoutDeadline.IsZero() && now.After(s.timeoutDeadline) {
		scheduledCorrect = false
		utils.LogSession("Card %s answered correctly after the silent deadline, scheduling as incorrect", s.current.ID)
	}

	s.cancelTimersLocked()
	var card models.FlashCard
	if scheduledCorrect {
		card = leitner.Promote(s.current, s.sched, now)
	} else {
		card = leitner.Demote(s.current, s.sched, now)
	}
	s.current = card
	s.progress.ReplaceCard(card)
	s.progress.UpdatedAt = now
	s.state = Feedback

	delay := s.cfg.CorrectFeedback
	if !shownCorrect {
		delay = s.cfg.IncorrectFeedback
	}
	s.feedbackTimer = time.AfterFunc(delay, func() {
		s.feedbackElapsed(gen)
	})
	answer := CorrectAnswerText(card)
	cb := s.cb.OnFeedback
	s.mu.Unlock()

	if typed {
		utils.LogSession("Card %s judged on typed input: correct=%t", card.ID, correct)
	}
	s.persist()
	if cb != nil {
		cb(card, shownCorrect, answer)
	}
}

// feedbackElapsed auto-advances when the feedback display time is over.
func (s *Session) feedbackElapsed(gen int) {
	s.mu.Lock()
	if s.generation != gen || s.state != Feedback {
		s.mu.Unlock()
		return
	}
	excludeID := s.current.ID
	s.mu.Unlock()
	s.nextCard(excludeID, gen)
}

// Advance is the explicit affirmative key press: during Feedback it
// cancels the auto-advance timer and moves on right away.
func (s *Session) Advance() {
	s.mu.Lock()
	if s.state != Feedback {
		s.mu.Unlock()
		return
	}
	// Cancel before accepting the manual action; if the timer already
	// fired, both racers carry the same generation and nextCard lets
	// only the first through.
	if s.feedbackTimer != nil {
		s.feedbackTimer.Stop()
		s.feedbackTimer = nil
	}
	gen := s.generation
	excludeID := s.current.ID
	s.mu.Unlock()
	s.nextCard(excludeID, gen)
}

// Pause halts the polling loop and cancels (not suspends) the
// stabilization window and any visible countdown.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.state != Listening {
		s.mu.Unlock()
		return
	}
	s.generation++ // kills the poll loop and all pending timers
	s.cancelTimersLocked()
	s.candidateKey = ""
	s.candidateNotes = nil
	s.timeoutDeadline = time.Time{}
	s.state = ListeningPaused
	s.mu.Unlock()

	if s.detector != nil && s.detectorStarted {
		s.detector.Pause()
	}
	utils.LogSession("Session paused")
}

// Resume restarts detection fresh: no carried-over candidate state and
// a fresh timeout countdown.
func (s *Session) Resume() {
	s.mu.Lock()
	if s.state != ListeningPaused {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	s.state = Listening
	s.armTimeoutLocked(gen)
	audio := s.audioRelevantLocked()
	s.mu.Unlock()

	if s.detector != nil && s.detectorStarted {
		s.detector.Resume()
	}
	if audio {
		go s.pollLoop(gen)
	}
	utils.LogSession("Session resumed")
}

// Stop ends the run, cancelling all timers and releasing the detector.
func (s *Session) Stop() {
	s.mu.Lock()
	s.generation++
	s.cancelTimersLocked()
	s.state = AwaitingStart
	s.hasCurrent = false
	stopDetector := s.detector != nil && s.detectorStarted
	s.detectorStarted = false
	s.mu.Unlock()

	if stopDetector {
		s.detector.Stop()
	}
	utils.LogSession("Session stopped")
}

// cancelTimersLocked clears every pending timer handle. Fire-and-forget
// timers are tracked and cleared, never merely ignored.
func (s *Session) cancelTimersLocked() {
	for _, t := range []**time.Timer{&s.stabilizeTimer, &s.feedbackTimer, &s.timeoutTimer, &s.countdownTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

// persist saves the progress record. Storage failures are logged and do
// not interrupt the review flow.
func (s *Session) persist() {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	progress := s.progress
	s.mu.Unlock()
	if err := s.store.SaveProgress(progress); err != nil {
		utils.LogError("Failed to persist progress: %v", err)
	}
}

func detectionKey(notes []models.Note) string {
	key := ""
	for i, n := range notes {
		if i > 0 {
			key += "+"
		}
		key += fmt.Sprintf("%s%d", n.Name, n.Octave)
	}
	return key
}

// CorrectAnswerText renders the expected answer for feedback display.
func CorrectAnswerText(card models.FlashCard) string {
	switch payload := card.Payload.(type) {
	case models.Note:
		return fmt.Sprintf("%s%d", payload.Name, payload.Octave)
	case models.Chord:
		return fmt.Sprintf("%s %s", payload.Name, payload.Type)
	case models.MathProblem:
		return payload.Answer
	case models.ClockProblem:
		return payload.Answer
	default:
		return ""
	}
}
