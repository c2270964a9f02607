// Package catalog holds the static lesson content: staff notes, chords,
// arithmetic tables and clock-reading problems. Lessons register
// themselves from init functions; the session layer injects a lesson's
// items into the scheduler via leitner.InitializeCards.
package catalog

import (
	"sort"
	"sync"

	"github.com/georgmuntingh/sheet-music-tutor/models"
)

// Lesson is an ordered list of card payloads under a stable ID.
type Lesson struct {
	ID    string
	Title string
	Order int
	Items []models.CardPayload
}

var (
	mu      sync.RWMutex
	lessons = make(map[string]*Lesson)
)

// register adds a lesson to the catalog. Called from init functions.
func register(l *Lesson) {
	mu.Lock()
	defer mu.Unlock()
	lessons[l.ID] = l
}

// Lessons returns every lesson sorted by order.
func Lessons() []*Lesson {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]*Lesson, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Get returns a lesson by ID, or nil if not registered.
func Get(id string) *Lesson {
	mu.RLock()
	defer mu.RUnlock()
	return lessons[id]
}
