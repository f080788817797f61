package lifecycle

// InfoLogger is the slice of a structured logger LogNotifier needs.
type InfoLogger interface {
	Info(msg string, keysAndValues ...any)
}

// LogNotifier writes lifecycle events to an operational log.
type LogNotifier struct {
	Log InfoLogger
}

func (n LogNotifier) Notify(ev Event) error {
	switch ev.Kind {
	case EventStatusChanged:
		n.Log.Info("book status changed", "event", string(ev.Kind), "book_id", ev.BookID, "title", ev.Title, "status", string(ev.Status))
	case EventActivated:
		n.Log.Info("book activated", "event", string(ev.Kind), "book_id", ev.BookID, "title", ev.Title)
	case EventDeactivated:
		n.Log.Info("book deactivated", "event", string(ev.Kind), "book_id", ev.BookID, "title", ev.Title)
	default:
		n.Log.Info("book created", "event", string(ev.Kind), "book_id", ev.BookID, "title", ev.Title)
	}
	return nil
}

