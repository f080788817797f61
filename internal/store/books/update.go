package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

// Update rewrites every editable column of b and replaces its tag set.
// owner_id and created_at are never touched. Returns dbx.ErrNotFound when
// the row is gone.
func (s *Store) Update(ctx context.Context, b *models.Book) error {
	err := dbx.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE books SET
				title = $2, author = $3, cover_key = $4, author_photo_key = $5,
				pages = $6, category_id = $7, course_id = $8,
				price = $9, rental_price_per_day = $10, rental_period_days = $11, total_rental = $12,
				active = $13, status = $14, status_color = $15, published_date = $16,
				updated_at = now()
			WHERE id = $1
			RETURNING updated_at`,
			b.ID,
			b.Title, val(b.Author), val(b.CoverKey), val(b.AuthorPhotoKey),
			val(b.Pages), val(b.CategoryID), val(b.CourseID),
			val(b.Price), val(b.RentalPricePerDay), val(b.RentalPeriodDays), val(b.TotalRental),
			b.Active, statusVal(b.Status), nullIfEmpty(b.StatusColor), val(b.PublishedDate),
		).Scan(&b.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return dbx.ErrNotFound
		}
		if err != nil {
			return mapWriteError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_tags WHERE book_id = $1`, b.ID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		return insertTags(ctx, tx, b.ID, b.Tags)
	})
	if err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, err)
	}
	return nil
}

// ActivateInactive flips every inactive book to active in one statement and
// returns the rows it changed.
func (s *Store) ActivateInactive(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE books AS b SET active = true, updated_at = now()
		WHERE b.active = false
		RETURNING `+bookColumns)
	if err != nil {
		return nil, fmt.Errorf("activate books: %w", err)
	}
	defer rows.Close()

	var out []models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
