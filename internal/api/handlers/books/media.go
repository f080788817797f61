package books

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
	"github.com/5w1tchy/lms-catalog/internal/api/httpx"
	"github.com/5w1tchy/lms-catalog/internal/catalog"
	"github.com/5w1tchy/lms-catalog/internal/models"
	storage "github.com/5w1tchy/lms-catalog/internal/storage/s3"
)

// UploadCover handles POST /books/{id}/cover.
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, storage.KindCover)
}

// UploadAuthorPhoto handles POST /books/{id}/author-photo.
func (h *Handler) UploadAuthorPhoto(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, storage.KindAuthorPhoto)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, kind string) {
	if h.media == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "media storage is not configured")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	actor := actorFrom(r)

	// Check access before spending bandwidth on the upload.
	if _, err := h.svc.EditableBook(ctx, id, actor); err != nil {
		apperr.Handle(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "missing file field")
		return
	}
	defer file.Close()
	if header.Size > h.maxUpload {
		apperr.WriteStatus(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large",
			fmt.Sprintf("file exceeds %d bytes", h.maxUpload))
		return
	}

	contentType := header.Header.Get("Content-Type")
	objectKey, err := storage.ObjectKey(id, kind, contentType, time.Now())
	if errors.Is(err, storage.ErrUnsupportedType) {
		apperr.WriteStatus(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "image must be jpeg, png or webp")
		return
	}
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	if err := h.media.Put(ctx, objectKey, contentType, file, header.Size); err != nil {
		apperr.Handle(w, r, err)
		return
	}

	var patch catalog.BookPatch
	keyOf := func(b models.Book) *string { return b.CoverKey }
	if kind == storage.KindCover {
		patch.CoverKey = catalog.Set(objectKey)
	} else {
		keyOf = func(b models.Book) *string { return b.AuthorPhotoKey }
		patch.AuthorPhotoKey = catalog.Set(objectKey)
	}
	// The replaced key comes from the row the update read, not from the
	// earlier access check, so a concurrent upload is not leaked.
	b, prev, err := h.svc.UpdateBookWithPrevious(ctx, id, patch, actor)
	if err != nil {
		h.cleanup(r, objectKey)
		apperr.Handle(w, r, err)
		return
	}
	if old := keyOf(prev); old != nil && *old != objectKey {
		h.cleanup(r, *old)
	}

	url, err := h.media.PresignGet(ctx, objectKey)
	if err != nil {
		log.Printf("[media] uploaded %s but presign failed: %v", objectKey, err)
	}
	httpx.OK(w, map[string]any{"book": b, "object_key": objectKey, "url": url})
}

func (h *Handler) cleanup(r *http.Request, objectKey string) {
	if err := h.media.Delete(r.Context(), objectKey); err != nil {
		log.Printf("[media] cleanup %s failed: %v", objectKey, err)
	}
}

// Cover handles GET /books/{id}/cover by redirecting to a presigned URL.
func (h *Handler) Cover(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, func(b models.Book) *string { return b.CoverKey })
}

// AuthorPhoto handles GET /books/{id}/author-photo.
func (h *Handler) AuthorPhoto(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, func(b models.Book) *string { return b.AuthorPhotoKey })
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, key func(models.Book) *string) {
	if h.media == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "media storage is not configured")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.GetBook(r.Context(), id)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	k := key(b)
	if k == nil || *k == "" {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "book has no image")
		return
	}
	url, err := h.media.PresignGet(r.Context(), *k)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
