package lifecycle

import (
	"fmt"
	"log"

	"github.com/5w1tchy/lms-catalog/internal/models"
)

type EventKind string

const (
	EventCreated       EventKind = "book.created"
	EventActivated     EventKind = "book.activated"
	EventDeactivated   EventKind = "book.deactivated"
	EventStatusChanged EventKind = "book.status_changed"
)

// Event is an observational lifecycle notification. It never changes
// persisted data.
type Event struct {
	Kind   EventKind
	BookID int64
	Title  string
	Status models.Status // set for EventStatusChanged only
}

// Notifier receives lifecycle events synchronously. Errors are logged and
// dropped by the Engine.
type Notifier interface {
	Notify(Event) error
}

// Submitter hands a batch of book ids to the artifact runner. It must not
// block on the work itself and reports nothing back.
type Submitter interface {
	Submit(bookIDs []int64)
}

// Snapshot holds the pre-update values AfterUpdate diffs against.
type Snapshot struct {
	Active bool
	Status *models.Status
}

func SnapshotOf(b models.Book) Snapshot {
	s := Snapshot{Active: b.Active}
	if b.Status != nil {
		st := *b.Status
		s.Status = &st
	}
	return s
}

type Engine struct {
	notifier  Notifier
	submitter Submitter
}

func NewEngine(n Notifier, s Submitter) *Engine {
	return &Engine{notifier: n, submitter: s}
}

// AfterCreate runs once after the first successful insert, when b.ID is set.
// Order: book.created notification, then the artifact submission.
func (e *Engine) AfterCreate(b models.Book) {
	e.notify(Event{Kind: EventCreated, BookID: b.ID, Title: b.Title})
	if e.submitter != nil {
		e.submitter.Submit([]int64{b.ID})
	}
}

// AfterUpdate runs once after a successful update. The active check fires
// before the status check; either, both or neither may fire.
func (e *Engine) AfterUpdate(b models.Book, prev Snapshot) {
	if b.Active != prev.Active {
		kind := EventDeactivated
		if b.Active {
			kind = EventActivated
		}
		e.notify(Event{Kind: kind, BookID: b.ID, Title: b.Title})
	}
	if statusChanged(prev.Status, b.Status) {
		ev := Event{Kind: EventStatusChanged, BookID: b.ID, Title: b.Title}
		if b.Status != nil {
			ev.Status = *b.Status
		}
		e.notify(ev)
	}
}

func (e *Engine) notify(ev Event) {
	if e.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[lifecycle] notifier panicked on %s book=%d: %v", ev.Kind, ev.BookID, r)
		}
	}()
	if err := e.notifier.Notify(ev); err != nil {
		log.Printf("[lifecycle] notify %s book=%d failed: %v", ev.Kind, ev.BookID, err)
	}
}

func statusChanged(a, b *models.Status) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil || b == nil:
		return true
	}
	return *a != *b
}

func (ev Event) String() string {
	if ev.Kind == EventStatusChanged {
		return fmt.Sprintf("%s %q -> %s", ev.Kind, ev.Title, ev.Status)
	}
	return fmt.Sprintf("%s %q", ev.Kind, ev.Title)
}
