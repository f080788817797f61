package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"slices"

	"github.com/5w1tchy/lms-catalog/internal/lifecycle"
	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/books"
	"github.com/5w1tchy/lms-catalog/internal/store/shared"
)

// ErrForbidden is returned when the actor may not modify a book.
var ErrForbidden = errors.New("forbidden")

type BookStore interface {
	Create(ctx context.Context, b *models.Book) (int64, error)
	Update(ctx context.Context, b *models.Book) error
	Get(ctx context.Context, id int64) (models.Book, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Filter(ctx context.Context, f books.Filter) iter.Seq2[models.Book, error]
	Count(ctx context.Context, f books.Filter) (int, error)
	Delete(ctx context.Context, id int64) error
	ActivateInactive(ctx context.Context) ([]models.Book, error)
	Stats(ctx context.Context) (books.Stats, error)
}

// StatsCache is satisfied by *statscache.Cache.
type StatsCache interface {
	Get(ctx context.Context, name string, dst any) bool
	Set(ctx context.Context, name string, v any)
	Bump(ctx context.Context) error
}

// Actor is the caller of a mutating operation. The zero Actor is an
// anonymous system caller with no ownership.
type Actor struct {
	UserID string
	Admin  bool
}

// System is used by maintenance commands.
var System = Actor{Admin: true}

// Service runs every book write through the same pipeline:
// Validate, PrepareForSave, store write, then the lifecycle hook.
type Service struct {
	store  BookStore
	engine *lifecycle.Engine
	cache  StatsCache
}

func NewService(store BookStore, engine *lifecycle.Engine, cache StatsCache) *Service {
	return &Service{store: store, engine: engine, cache: cache}
}

// CreateBook stamps the actor as owner. Nothing is persisted and no hook
// runs when validation or the insert fails.
func (s *Service) CreateBook(ctx context.Context, in BookInput, actor Actor) (models.Book, error) {
	b := in.toBook()
	b.Tags = shared.DedupTags(b.Tags)
	if actor.UserID != "" {
		owner := actor.UserID
		b.OwnerID = &owner
	}

	b, err := lifecycle.Validate(b)
	if err != nil {
		return models.Book{}, err
	}
	lifecycle.PrepareForSave(&b, true)

	if _, err := s.store.Create(ctx, &b); err != nil {
		return models.Book{}, err
	}
	s.invalidate(ctx)
	s.engine.AfterCreate(b)
	return b, nil
}

// UpdateBook applies a partial update to the stored row.
func (s *Service) UpdateBook(ctx context.Context, id int64, patch BookPatch, actor Actor) (models.Book, error) {
	b, _, err := s.UpdateBookWithPrevious(ctx, id, patch, actor)
	return b, err
}

// UpdateBookWithPrevious is UpdateBook that also returns the row the patch
// was applied to. Media uploads use it to find the object they replaced.
func (s *Service) UpdateBookWithPrevious(ctx context.Context, id int64, patch BookPatch, actor Actor) (updated, previous models.Book, err error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Book{}, models.Book{}, err
	}
	if err := authorize(cur, actor); err != nil {
		return models.Book{}, models.Book{}, err
	}

	next := cur
	next.Tags = slices.Clone(cur.Tags)
	patch.Apply(&next)
	updated, err = s.save(ctx, next, lifecycle.SnapshotOf(cur))
	if err != nil {
		return models.Book{}, models.Book{}, err
	}
	return updated, cur, nil
}

// ReplaceBook overwrites every editable field. id, owner, created_at and
// media keys are kept from the stored row.
func (s *Service) ReplaceBook(ctx context.Context, id int64, in BookInput, actor Actor) (models.Book, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Book{}, err
	}
	if err := authorize(cur, actor); err != nil {
		return models.Book{}, err
	}
	prev := lifecycle.SnapshotOf(cur)

	next := in.toBook()
	next.ID = cur.ID
	next.OwnerID = cur.OwnerID
	next.CreatedAt = cur.CreatedAt
	next.CoverKey = cur.CoverKey
	next.AuthorPhotoKey = cur.AuthorPhotoKey
	return s.save(ctx, next, prev)
}

func (s *Service) save(ctx context.Context, b models.Book, prev lifecycle.Snapshot) (models.Book, error) {
	b.Tags = shared.DedupTags(b.Tags)
	b, err := lifecycle.Validate(b)
	if err != nil {
		return models.Book{}, err
	}
	lifecycle.PrepareForSave(&b, false)

	if err := s.store.Update(ctx, &b); err != nil {
		return models.Book{}, err
	}
	s.invalidate(ctx)
	s.engine.AfterUpdate(b, prev)
	return b, nil
}

// ActivateInactive activates every inactive book in one statement and emits
// one book.activated notification per changed row.
func (s *Service) ActivateInactive(ctx context.Context) (int, error) {
	changed, err := s.store.ActivateInactive(ctx)
	if err != nil {
		return 0, err
	}
	if len(changed) > 0 {
		s.invalidate(ctx)
	}
	for _, b := range changed {
		prev := lifecycle.SnapshotOf(b)
		prev.Active = false
		s.engine.AfterUpdate(b, prev)
	}
	return len(changed), nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (models.Book, error) {
	return s.store.Get(ctx, id)
}

// EditableBook returns the book if actor may modify it.
func (s *Service) EditableBook(ctx context.Context, id int64, actor Actor) (models.Book, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Book{}, err
	}
	if err := authorize(b, actor); err != nil {
		return models.Book{}, err
	}
	return b, nil
}

func (s *Service) BookExists(ctx context.Context, id int64) (bool, error) {
	return s.store.Exists(ctx, id)
}

// ListBooks materializes one page of Filter plus the unpaged total.
func (s *Service) ListBooks(ctx context.Context, f books.Filter) ([]models.Book, int, error) {
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.Book, 0, min(f.Limit, total))
	for b, err := range s.store.Filter(ctx, f) {
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64, actor Actor) error {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(cur, actor); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

const statsCacheKey = "books"

// Stats is served from the cache when possible.
func (s *Service) Stats(ctx context.Context) (books.Stats, error) {
	var st books.Stats
	if s.cache != nil && s.cache.Get(ctx, statsCacheKey, &st) {
		return st, nil
	}
	st, err := s.store.Stats(ctx)
	if err != nil {
		return books.Stats{}, fmt.Errorf("stats: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, statsCacheKey, st)
	}
	return st, nil
}

// InvalidateStats is for writes that bypass the book pipeline, such as
// category renames.
func (s *Service) InvalidateStats(ctx context.Context) { s.invalidate(ctx) }

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		log.Printf("[catalog] stats cache bump failed: %v", err)
	}
}

// authorize lets admins touch anything and owners touch their own rows.
// Unowned rows are admin-only.
func authorize(b models.Book, a Actor) error {
	if a.Admin {
		return nil
	}
	if a.UserID != "" && b.OwnerID != nil && *b.OwnerID == a.UserID {
		return nil
	}
	return ErrForbidden
}
