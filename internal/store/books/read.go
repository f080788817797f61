package books

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

// bookColumns is shared by every query that materializes a models.Book.
// The table must be aliased "b".
const bookColumns = `
	b.id, b.title, b.author, b.cover_key, b.author_photo_key,
	b.pages, b.category_id, b.course_id,
	b.price::text, b.rental_price_per_day::text, b.rental_period_days, b.total_rental::text,
	b.active, b.status, COALESCE(b.status_color, ''), b.published_date, b.owner_id::text,
	b.created_at, b.updated_at,
	COALESCE((SELECT json_agg(bt.tag ORDER BY bt.tag) FROM book_tags bt WHERE bt.book_id = b.id), '[]')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(rs rowScanner) (models.Book, error) {
	var (
		b        models.Book
		status   sql.NullString
		tagsJSON []byte
	)
	if err := rs.Scan(
		&b.ID, &b.Title, &b.Author, &b.CoverKey, &b.AuthorPhotoKey,
		&b.Pages, &b.CategoryID, &b.CourseID,
		&b.Price, &b.RentalPricePerDay, &b.RentalPeriodDays, &b.TotalRental,
		&b.Active, &status, &b.StatusColor, &b.PublishedDate, &b.OwnerID,
		&b.CreatedAt, &b.UpdatedAt,
		&tagsJSON,
	); err != nil {
		return models.Book{}, err
	}
	if status.Valid {
		st := models.Status(status.String)
		b.Status = &st
	}
	b.Tags = []string{}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &b.Tags); err != nil {
			return models.Book{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return b, nil
}

// Get returns dbx.ErrNotFound when no book has id.
func (s *Store) Get(ctx context.Context, id int64) (models.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = $1`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, dbx.ErrNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

// Exists backs HEAD /books/{id}.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
