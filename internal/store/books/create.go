package books

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var dialect = goqu.Dialect("postgres")

// Create inserts the row and its tags in one transaction, then stamps the
// generated id and timestamps onto b.
func (s *Store) Create(ctx context.Context, b *models.Book) (int64, error) {
	err := dbx.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO books (
				title, author, cover_key, author_photo_key, pages, category_id, course_id,
				price, rental_price_per_day, rental_period_days, total_rental,
				active, status, status_color, published_date, owner_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id, created_at, updated_at`,
			b.Title, val(b.Author), val(b.CoverKey), val(b.AuthorPhotoKey),
			val(b.Pages), val(b.CategoryID), val(b.CourseID),
			val(b.Price), val(b.RentalPricePerDay), val(b.RentalPeriodDays), val(b.TotalRental),
			b.Active, statusVal(b.Status), nullIfEmpty(b.StatusColor), val(b.PublishedDate), val(b.OwnerID),
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		return insertTags(ctx, tx, b.ID, b.Tags)
	})
	if err != nil {
		return 0, fmt.Errorf("create book: %w", err)
	}
	return b.ID, nil
}

func insertTags(ctx context.Context, tx dbx.Execer, bookID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]any, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, goqu.Record{"book_id": bookID, "tag": t})
	}
	q, args, err := dialect.Insert("book_tags").Rows(rows...).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build tag insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert tags: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
