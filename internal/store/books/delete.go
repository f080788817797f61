package books

import (
	"context"
	"fmt"

	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

// Delete removes a book; its tags go with it (ON DELETE CASCADE).
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, dbx.MapPGError(err))
	}
	return dbx.RowsAffected(res)
}
