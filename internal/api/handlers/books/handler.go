package books

import (
	"context"
	"io"
	"net/http"

	mw "github.com/5w1tchy/lms-catalog/internal/api/middlewares"
	"github.com/5w1tchy/lms-catalog/internal/catalog"
	"github.com/5w1tchy/lms-catalog/internal/models"
	storebooks "github.com/5w1tchy/lms-catalog/internal/store/books"
	"github.com/5w1tchy/lms-catalog/internal/store/users"
)

// Service is satisfied by *catalog.Service.
type Service interface {
	CreateBook(ctx context.Context, in catalog.BookInput, actor catalog.Actor) (models.Book, error)
	UpdateBook(ctx context.Context, id int64, patch catalog.BookPatch, actor catalog.Actor) (models.Book, error)
	UpdateBookWithPrevious(ctx context.Context, id int64, patch catalog.BookPatch, actor catalog.Actor) (models.Book, models.Book, error)
	ReplaceBook(ctx context.Context, id int64, in catalog.BookInput, actor catalog.Actor) (models.Book, error)
	EditableBook(ctx context.Context, id int64, actor catalog.Actor) (models.Book, error)
	GetBook(ctx context.Context, id int64) (models.Book, error)
	BookExists(ctx context.Context, id int64) (bool, error)
	ListBooks(ctx context.Context, f storebooks.Filter) ([]models.Book, int, error)
	DeleteBook(ctx context.Context, id int64, actor catalog.Actor) error
	Stats(ctx context.Context) (storebooks.Stats, error)
	ActivateInactive(ctx context.Context) (int, error)
}

// Media is satisfied by *s3.S3Client. A nil Media disables uploads.
type Media interface {
	Put(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error
	PresignGet(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

type Handler struct {
	svc       Service
	media     Media
	maxUpload int64
}

func New(svc Service, media Media, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &Handler{svc: svc, media: media, maxUpload: maxUpload}
}

func actorFrom(r *http.Request) catalog.Actor {
	p, ok := mw.PrincipalFrom(r.Context())
	if !ok {
		return catalog.Actor{}
	}
	return catalog.Actor{UserID: p.UserID, Admin: p.Role == users.RoleAdmin}
}
