package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
	"github.com/5w1tchy/lms-catalog/internal/store/shared"
)

const (
	MaxCategoryName = 50
	MaxCourseName   = 100
)

var ErrInvalidName = errors.New("invalid name")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

func cleanName(name string, max int) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || len([]rune(name)) > max {
		return "", fmt.Errorf("%w: must be 1..%d characters", ErrInvalidName, max)
	}
	return name, nil
}

// deleteRestricted maps an FK violation on delete to dbx.ErrReferenced.
func deleteRestricted(res sql.Result, err error) error {
	if err != nil {
		err = dbx.MapPGError(err)
		if errors.Is(err, dbx.ErrForeignKey) {
			return fmt.Errorf("%w: %s", dbx.ErrReferenced, dbx.ConstraintOf(err))
		}
		return err
	}
	return dbx.RowsAffected(res)
}

// ---------- categories ----------

func (s *Store) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name, err := cleanName(name, MaxCategoryName)
	if err != nil {
		return models.Category{}, err
	}
	c := models.Category{Name: name}
	err = s.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	if err != nil {
		return models.Category{}, fmt.Errorf("create category: %w", dbx.MapPGError(err))
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	c := models.Category{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = $1`, id).Scan(&c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, dbx.ErrNotFound
	}
	return c, err
}

func (s *Store) RenameCategory(ctx context.Context, id int64, name string) (models.Category, error) {
	name, err := cleanName(name, MaxCategoryName)
	if err != nil {
		return models.Category{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return models.Category{}, fmt.Errorf("rename category: %w", dbx.MapPGError(err))
	}
	if err := dbx.RowsAffected(res); err != nil {
		return models.Category{}, err
	}
	return models.Category{ID: id, Name: name}, nil
}

// DeleteCategory fails with dbx.ErrReferenced while any book points at it.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return deleteRestricted(s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id))
}

// ---------- courses ----------

type CourseInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Store) CreateCourse(ctx context.Context, in CourseInput) (models.Course, error) {
	name, err := cleanName(in.Name, MaxCourseName)
	if err != nil {
		return models.Course{}, err
	}
	c := models.Course{Name: name, Description: in.Description}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO courses (name, description) VALUES ($1, $2) RETURNING id, created_at`,
		name, in.Description,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return models.Course{}, fmt.Errorf("create course: %w", dbx.MapPGError(err))
	}
	return c, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM courses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

func (s *Store) GetCourse(ctx context.Context, id int64) (models.Course, error) {
	c := models.Course{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, description, created_at FROM courses WHERE id = $1`, id,
	).Scan(&c.Name, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, dbx.ErrNotFound
	}
	return c, err
}

// UpdateCourse leaves created_at alone.
func (s *Store) UpdateCourse(ctx context.Context, id int64, in CourseInput) (models.Course, error) {
	name, err := cleanName(in.Name, MaxCourseName)
	if err != nil {
		return models.Course{}, err
	}
	c := models.Course{ID: id, Name: name, Description: in.Description}
	err = s.db.QueryRowContext(ctx,
		`UPDATE courses SET name = $2, description = $3 WHERE id = $1 RETURNING created_at`,
		id, name, in.Description,
	).Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, dbx.ErrNotFound
	}
	if err != nil {
		return models.Course{}, fmt.Errorf("update course: %w", dbx.MapPGError(err))
	}
	return c, nil
}

// DeleteCourse fails with dbx.ErrReferenced while any book points at it.
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	return deleteRestricted(s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id))
}

// AutocompleteCourses returns up to limit courses whose name starts with q,
// falling back to a contains match.
func (s *Store) AutocompleteCourses(ctx context.Context, q string, limit int) ([]models.Course, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Course{}, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	esc := shared.LikeEscape(q)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM courses
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY (name ILIKE $1 || '%') DESC, name
		LIMIT $2`, esc, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

func scanCourses(rows *sql.Rows) ([]models.Course, error) {
	out := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
