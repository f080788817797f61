package catalog

import (
	"encoding/json"
	"slices"

	"github.com/5w1tchy/lms-catalog/internal/models"
)

// Nullable distinguishes an absent JSON key (Set=false) from an explicit
// null (Set=true, Value=nil).
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func Set[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

func (n Nullable[T]) applyTo(dst **T) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}

// BookInput is the full editable shape used by create and replace.
type BookInput struct {
	Title             string         `json:"title"`
	Author            *string        `json:"author"`
	Pages             *int           `json:"pages"`
	CategoryID        *int64         `json:"category_id"`
	CourseID          *int64         `json:"course_id"`
	Tags              []string       `json:"tags"`
	Price             *models.Money  `json:"price"`
	RentalPricePerDay *models.Money  `json:"rental_price_per_day"`
	RentalPeriodDays  *int           `json:"rental_period_days"`
	TotalRental       *models.Money  `json:"total_rental"`
	Active            bool           `json:"active"`
	Status            *models.Status `json:"status"`
	StatusColor       string         `json:"status_color"`
	PublishedDate     *models.Date   `json:"published_date"`
}

func (in BookInput) toBook() models.Book {
	return models.Book{
		Title:             in.Title,
		Author:            in.Author,
		Pages:             in.Pages,
		CategoryID:        in.CategoryID,
		CourseID:          in.CourseID,
		Tags:              slices.Clone(in.Tags),
		Price:             in.Price,
		RentalPricePerDay: in.RentalPricePerDay,
		RentalPeriodDays:  in.RentalPeriodDays,
		TotalRental:       in.TotalRental,
		Active:            in.Active,
		Status:            in.Status,
		StatusColor:       in.StatusColor,
		PublishedDate:     in.PublishedDate,
	}
}

// BookPatch carries a partial update. Media keys are set by the upload
// endpoints only.
type BookPatch struct {
	Title             *string                 `json:"title"`
	Author            Nullable[string]        `json:"author"`
	Pages             Nullable[int]           `json:"pages"`
	CategoryID        Nullable[int64]         `json:"category_id"`
	CourseID          Nullable[int64]         `json:"course_id"`
	Tags              *[]string               `json:"tags"`
	Price             Nullable[models.Money]  `json:"price"`
	RentalPricePerDay Nullable[models.Money]  `json:"rental_price_per_day"`
	RentalPeriodDays  Nullable[int]           `json:"rental_period_days"`
	TotalRental       Nullable[models.Money]  `json:"total_rental"`
	Active            *bool                   `json:"active"`
	Status            Nullable[models.Status] `json:"status"`
	StatusColor       *string                 `json:"status_color"`
	PublishedDate     Nullable[models.Date]   `json:"published_date"`
	CoverKey          Nullable[string]        `json:"-"`
	AuthorPhotoKey    Nullable[string]        `json:"-"`
}

// Apply copies every present field onto b.
func (p BookPatch) Apply(b *models.Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	p.Author.applyTo(&b.Author)
	p.Pages.applyTo(&b.Pages)
	p.CategoryID.applyTo(&b.CategoryID)
	p.CourseID.applyTo(&b.CourseID)
	if p.Tags != nil {
		b.Tags = slices.Clone(*p.Tags)
	}
	p.Price.applyTo(&b.Price)
	p.RentalPricePerDay.applyTo(&b.RentalPricePerDay)
	p.RentalPeriodDays.applyTo(&b.RentalPeriodDays)
	p.TotalRental.applyTo(&b.TotalRental)
	if p.Active != nil {
		b.Active = *p.Active
	}
	p.Status.applyTo(&b.Status)
	if p.StatusColor != nil {
		b.StatusColor = *p.StatusColor
	}
	p.PublishedDate.applyTo(&b.PublishedDate)
	p.CoverKey.applyTo(&b.CoverKey)
	p.AuthorPhotoKey.applyTo(&b.AuthorPhotoKey)
}
