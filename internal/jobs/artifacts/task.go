package artifacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/5w1tchy/lms-catalog/internal/logging"
	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

// Handler processes one submitted batch of book ids.
type Handler func(ctx context.Context, bookIDs []int64) error

type BookGetter interface {
	Get(ctx context.Context, id int64) (models.Book, error)
}

// Task generates per-book artifacts. Rendering is a log line for now; the
// book is re-read so the artifact reflects the committed row.
type Task struct {
	Books BookGetter
	Log   *logging.Logger
}

// GenerateArtifacts skips ids that no longer exist. Lookup failures are
// logged and reported together once the whole batch has been tried.
func (t *Task) GenerateArtifacts(ctx context.Context, bookIDs []int64) error {
	var errs []error
	for _, id := range bookIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := t.Books.Get(ctx, id)
		if errors.Is(err, dbx.ErrNotFound) {
			t.Log.Debug("artifact skipped, book gone", "book_id", id)
			continue
		}
		if err != nil {
			t.Log.Error("artifact lookup failed", "book_id", id, "error", err)
			errs = append(errs, fmt.Errorf("book %d: %w", id, err))
			continue
		}
		t.Log.Info("generating artifact", "book_id", b.ID, "title", b.Title)
	}
	return errors.Join(errs...)
}
