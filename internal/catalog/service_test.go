package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/lifecycle"
	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/books"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	rows    map[int64]models.Book
	nextID  int64
	failRef bool // simulate an FK violation on writes
	writes  int
}

func newMemStore() *memStore { return &memStore{rows: map[int64]models.Book{}, nextID: 1} }

func (m *memStore) Create(_ context.Context, b *models.Book) (int64, error) {
	if m.failRef {
		return 0, fmt.Errorf("create book: %w", &books.ReferenceError{Field: "category_id"})
	}
	m.writes++
	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now()
	m.rows[b.ID] = *b
	return b.ID, nil
}

func (m *memStore) Update(_ context.Context, b *models.Book) error {
	if m.failRef {
		return &books.ReferenceError{Field: "course_id"}
	}
	if _, ok := m.rows[b.ID]; !ok {
		return dbx.ErrNotFound
	}
	m.writes++
	m.rows[b.ID] = *b
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (models.Book, error) {
	b, ok := m.rows[id]
	if !ok {
		return models.Book{}, dbx.ErrNotFound
	}
	return b, nil
}

func (m *memStore) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memStore) Filter(_ context.Context, f books.Filter) iter.Seq2[models.Book, error] {
	return func(yield func(models.Book, error) bool) {
		for id := int64(1); id < m.nextID; id++ {
			b, ok := m.rows[id]
			if !ok || (f.Active != nil && b.Active != *f.Active) {
				continue
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (m *memStore) Count(ctx context.Context, f books.Filter) (int, error) {
	n := 0
	for range m.Filter(ctx, f) {
		n++
	}
	return n, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return dbx.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) ActivateInactive(_ context.Context) ([]models.Book, error) {
	var out []models.Book
	for id := int64(1); id < m.nextID; id++ {
		b, ok := m.rows[id]
		if !ok || b.Active {
			continue
		}
		b.Active = true
		m.rows[id] = b
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) Stats(_ context.Context) (books.Stats, error) {
	return books.Stats{Total: len(m.rows), ByStatus: map[string]int{}}, nil
}

type hooks struct {
	trace []string
}

func (h *hooks) Notify(ev lifecycle.Event) error {
	h.trace = append(h.trace, string(ev.Kind))
	return nil
}

func (h *hooks) Submit(ids []int64) {
	h.trace = append(h.trace, fmt.Sprintf("submit%v", ids))
}

type memCache struct {
	data  map[string][]byte
	bumps int
}

func (c *memCache) Get(_ context.Context, name string, dst any) bool {
	raw, ok := c.data[name]
	return ok && json.Unmarshal(raw, dst) == nil
}

func (c *memCache) Set(_ context.Context, name string, v any) {
	raw, _ := json.Marshal(v)
	c.data[name] = raw
}

func (c *memCache) Bump(context.Context) error {
	c.bumps++
	c.data = map[string][]byte{}
	return nil
}

func setup() (*Service, *memStore, *hooks, *memCache) {
	st := newMemStore()
	h := &hooks{}
	c := &memCache{data: map[string][]byte{}}
	return NewService(st, lifecycle.NewEngine(h, h), c), st, h, c
}

func money(s string) *models.Money {
	m := models.MustMoney(s)
	return &m
}

func intp(n int) *int { return &n }

var owner = Actor{UserID: "u-1"}

func TestCreateBook_Pipeline(t *testing.T) {
	svc, st, h, c := setup()

	b, err := svc.CreateBook(t.Context(), BookInput{
		Title:             "Dune",
		Tags:              []string{"Sci-Fi", "sci-fi ", "Classic"},
		RentalPricePerDay: money("1.25"),
		RentalPeriodDays:  intp(3),
		PublishedDate:     &models.Date{Time: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)},
	}, owner)
	require.NoError(t, err)

	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, "3.75", b.TotalRental.String())
	assert.Equal(t, []string{"sci-fi", "classic"}, b.Tags)
	require.NotNil(t, b.OwnerID)
	assert.Equal(t, "u-1", *b.OwnerID)
	assert.Equal(t, "3.75", st.rows[1].TotalRental.String(), "derived value must be persisted")
	assert.Equal(t, []string{"book.created", "submit[1]"}, h.trace)
	assert.Equal(t, 1, c.bumps)
}

func TestCreateBook_ValidationStopsEverything(t *testing.T) {
	svc, st, h, _ := setup()

	_, err := svc.CreateBook(t.Context(), BookInput{Title: "T", RentalPeriodDays: intp(5)}, owner)
	ve, ok := lifecycle.AsValidationError(err)
	require.True(t, ok, "got %v", err)
	assert.True(t, ve.Has("published_date"))
	assert.Zero(t, st.writes)
	assert.Empty(t, h.trace)
}

func TestCreateBook_UnknownReferenceFiresNoHooks(t *testing.T) {
	svc, st, h, _ := setup()
	st.failRef = true

	cat := int64(42)
	_, err := svc.CreateBook(t.Context(), BookInput{Title: "T", CategoryID: &cat}, owner)
	assert.ErrorIs(t, err, books.ErrUnknownReference)
	assert.Empty(t, h.trace)
}

func TestUpdateBook_ActiveThenStatus(t *testing.T) {
	svc, _, h, _ := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{Title: "T"}, owner)
	require.NoError(t, err)
	h.trace = nil

	active := true
	b, err := svc.UpdateBook(t.Context(), 1, BookPatch{
		Active: &active,
		Status: Set(models.StatusSold),
	}, owner)
	require.NoError(t, err)
	assert.True(t, b.Active)
	assert.Equal(t, []string{"book.activated", "book.status_changed"}, h.trace)
}

func TestUpdateBook_RecomputesTotalAndOverwritesDirectWrite(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{
		Title:             "T",
		RentalPricePerDay: money("2.00"),
		RentalPeriodDays:  intp(2),
		PublishedDate:     &models.Date{Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, owner)
	require.NoError(t, err)

	b, err := svc.UpdateBook(t.Context(), 1, BookPatch{
		RentalPeriodDays: Set(5),
		TotalRental:      Set(models.MustMoney("1.00")),
	}, owner)
	require.NoError(t, err)
	assert.Equal(t, "10.00", b.TotalRental.String())
}

func TestUpdateBook_ClearingSourceKeepsTotal(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{
		Title:             "T",
		RentalPricePerDay: money("2.00"),
		RentalPeriodDays:  intp(2),
		PublishedDate:     &models.Date{Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, owner)
	require.NoError(t, err)

	b, err := svc.UpdateBook(t.Context(), 1, BookPatch{RentalPricePerDay: Null[models.Money]()}, owner)
	require.NoError(t, err)
	assert.Nil(t, b.RentalPricePerDay)
	assert.Equal(t, "4.00", b.TotalRental.String())
}

func TestUpdateBookWithPrevious_ReturnsRowPatched(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{Title: "T"}, owner)
	require.NoError(t, err)
	_, err = svc.UpdateBook(t.Context(), 1, BookPatch{CoverKey: Set("covers/1/a.png")}, owner)
	require.NoError(t, err)

	b, prev, err := svc.UpdateBookWithPrevious(t.Context(), 1, BookPatch{CoverKey: Set("covers/1/b.png")}, owner)
	require.NoError(t, err)
	require.NotNil(t, b.CoverKey)
	require.NotNil(t, prev.CoverKey)
	assert.Equal(t, "covers/1/b.png", *b.CoverKey)
	assert.Equal(t, "covers/1/a.png", *prev.CoverKey)
}

func TestUpdateBook_NotFoundIsTerminal(t *testing.T) {
	svc, _, h, _ := setup()
	_, err := svc.UpdateBook(t.Context(), 9, BookPatch{}, owner)
	assert.ErrorIs(t, err, dbx.ErrNotFound)
	assert.Empty(t, h.trace)
}

func TestUpdateBook_Ownership(t *testing.T) {
	svc, st, _, _ := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{Title: "Mine"}, owner)
	require.NoError(t, err)
	_, err = svc.CreateBook(t.Context(), BookInput{Title: "Legacy"}, Actor{})
	require.NoError(t, err)
	require.Nil(t, st.rows[2].OwnerID)

	title := "Theirs"
	_, err = svc.UpdateBook(t.Context(), 1, BookPatch{Title: &title}, Actor{UserID: "u-2"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateBook(t.Context(), 2, BookPatch{Title: &title}, owner)
	assert.ErrorIs(t, err, ErrForbidden, "unowned rows are admin-only")

	_, err = svc.UpdateBook(t.Context(), 2, BookPatch{Title: &title}, Actor{UserID: "root", Admin: true})
	assert.NoError(t, err)
}

func TestEditableBook(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{Title: "Mine"}, owner)
	require.NoError(t, err)

	b, err := svc.EditableBook(t.Context(), 1, owner)
	require.NoError(t, err)
	assert.Equal(t, "Mine", b.Title)

	_, err = svc.EditableBook(t.Context(), 1, Actor{UserID: "u-2"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.EditableBook(t.Context(), 5, owner)
	assert.ErrorIs(t, err, dbx.ErrNotFound)
}

func TestReplaceBook_KeepsIdentity(t *testing.T) {
	svc, _, h, _ := setup()
	created, err := svc.CreateBook(t.Context(), BookInput{Title: "Old", Status: ptr(models.StatusRental)}, owner)
	require.NoError(t, err)
	h.trace = nil

	b, err := svc.ReplaceBook(t.Context(), 1, BookInput{Title: "New"}, owner)
	require.NoError(t, err)
	assert.Equal(t, "New", b.Title)
	assert.Equal(t, created.OwnerID, b.OwnerID)
	assert.Equal(t, created.CreatedAt, b.CreatedAt)
	assert.Nil(t, b.Status)
	assert.Equal(t, []string{"book.status_changed"}, h.trace)
}

func TestActivateInactive_OneNotificationPerBook(t *testing.T) {
	svc, _, h, _ := setup()
	for _, title := range []string{"A", "B", "C"} {
		_, err := svc.CreateBook(t.Context(), BookInput{Title: title, Active: title == "B"}, owner)
		require.NoError(t, err)
	}
	h.trace = nil

	n, err := svc.ActivateInactive(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"book.activated", "book.activated"}, h.trace)

	n, err = svc.ActivateInactive(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteBook(t *testing.T) {
	svc, _, _, c := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{Title: "T"}, owner)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteBook(t.Context(), 1, Actor{UserID: "u-2"}), ErrForbidden)
	require.NoError(t, svc.DeleteBook(t.Context(), 1, owner))
	assert.ErrorIs(t, svc.DeleteBook(t.Context(), 1, owner), dbx.ErrNotFound)
	assert.Equal(t, 2, c.bumps)
}

func TestStats_CachedUntilWrite(t *testing.T) {
	svc, st, _, _ := setup()
	_, err := svc.CreateBook(t.Context(), BookInput{Title: "T"}, owner)
	require.NoError(t, err)

	s1, err := svc.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, s1.Total)

	st.rows[99] = models.Book{ID: 99}
	s2, err := svc.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Total, "served from cache")

	_, err = svc.CreateBook(t.Context(), BookInput{Title: "U"}, owner)
	require.NoError(t, err)
	s3, err := svc.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, s3.Total)
}

func TestListBooks(t *testing.T) {
	svc, _, _, _ := setup()
	for _, title := range []string{"A", "B"} {
		_, err := svc.CreateBook(t.Context(), BookInput{Title: title}, owner)
		require.NoError(t, err)
	}
	list, total, err := svc.ListBooks(t.Context(), books.Filter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)
}

func TestBookPatch_JSONNullVsAbsent(t *testing.T) {
	var p BookPatch
	require.NoError(t, json.Unmarshal([]byte(`{"author":null,"price":"3.10"}`), &p))
	assert.True(t, p.Author.Set)
	assert.Nil(t, p.Author.Value)
	assert.True(t, p.Price.Set)
	assert.Equal(t, models.Money(310), *p.Price.Value)
	assert.False(t, p.Pages.Set)

	author := "Herbert"
	b := models.Book{Author: &author, Pages: intp(10)}
	p.Apply(&b)
	assert.Nil(t, b.Author)
	assert.Equal(t, 10, *b.Pages)
}

func ptr[T any](v T) *T { return &v }
