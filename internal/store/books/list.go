package books

import (
	"context"
	"fmt"
	"iter"

	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/shared"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

func (f Filter) where() []exp.Expression {
	var ex []exp.Expression
	if f.Active != nil {
		ex = append(ex, goqu.I("b.active").Eq(*f.Active))
	}
	if f.Status != nil {
		ex = append(ex, goqu.I("b.status").Eq(string(*f.Status)))
	}
	if f.CategoryID != nil {
		ex = append(ex, goqu.I("b.category_id").Eq(*f.CategoryID))
	}
	if f.CourseID != nil {
		ex = append(ex, goqu.I("b.course_id").Eq(*f.CourseID))
	}
	if f.OwnerID != "" {
		ex = append(ex, goqu.L("b.owner_id::text = ?", f.OwnerID))
	}
	if f.Tag != "" {
		ex = append(ex, goqu.L("EXISTS (SELECT 1 FROM book_tags bt WHERE bt.book_id = b.id AND bt.tag = ?)", shared.NormalizeTag(f.Tag)))
	}
	if f.Query != "" {
		ex = append(ex, goqu.I("b.title").ILike("%"+shared.LikeEscape(f.Query)+"%"))
	}
	if f.TitleSuffix != "" {
		ex = append(ex, goqu.I("b.title").Like("%"+shared.LikeEscape(f.TitleSuffix)))
	}
	return ex
}

func (f Filter) selectQuery() (string, []any, error) {
	ds := dialect.From(goqu.T("books").As("b")).
		Select(goqu.L(bookColumns)).
		Where(f.where()...).
		Order(goqu.I("b.created_at").Desc(), goqu.I("b.id").Desc()).
		Prepared(true)
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	return ds.ToSQL()
}

// Filter streams matching books, newest first. The query runs when iteration
// starts; breaking out early closes the cursor.
func (s *Store) Filter(ctx context.Context, f Filter) iter.Seq2[models.Book, error] {
	return func(yield func(models.Book, error) bool) {
		q, args, err := f.selectQuery()
		if err != nil {
			yield(models.Book{}, fmt.Errorf("build filter query: %w", err))
			return
		}
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			yield(models.Book{}, fmt.Errorf("filter books: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBook(rows)
			if err != nil {
				yield(models.Book{}, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Book{}, err)
		}
	}
}

// Count ignores Limit and Offset.
func (s *Store) Count(ctx context.Context, f Filter) (int, error) {
	q, args, err := dialect.From(goqu.T("books").As("b")).
		Select(goqu.COUNT(goqu.Star())).
		Where(f.where()...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// Stats backs GET /books/stats.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByStatus: map[string]int{}}
	var available, rental, sold int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE active),
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'rental'),
			COUNT(*) FILTER (WHERE status = 'sold')
		FROM books`).Scan(&st.Total, &st.Active, &available, &rental, &sold)
	if err != nil {
		return Stats{}, fmt.Errorf("book totals: %w", err)
	}
	st.ByStatus[string(models.StatusAvailable)] = available
	st.ByStatus[string(models.StatusRental)] = rental
	st.ByStatus[string(models.StatusSold)] = sold

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.category_id, COALESCE(c.name, ''), COUNT(*)
		FROM books b
		LEFT JOIN categories c ON c.id = b.category_id
		GROUP BY b.category_id, c.name
		ORDER BY COUNT(*) DESC, c.name`)
	if err != nil {
		return Stats{}, fmt.Errorf("books by category: %w", err)
	}
	defer rows.Close()
	st.ByCategory = []CategoryCount{}
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.CategoryID, &cc.Name, &cc.Count); err != nil {
			return Stats{}, err
		}
		st.ByCategory = append(st.ByCategory, cc)
	}
	return st, rows.Err()
}
