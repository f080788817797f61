package models

import "time"

type Status string

const (
	StatusAvailable Status = "available"
	StatusRental    Status = "rental"
	StatusSold      Status = "sold"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusRental, StatusSold:
		return true
	}
	return false
}

// Book is the catalog row. TotalRental is derived from RentalPricePerDay and
// RentalPeriodDays and must only be written through lifecycle.PrepareForSave.
type Book struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title" validate:"required,max=250"`
	Author         *string `json:"author,omitempty" validate:"omitempty,max=250"`
	CoverKey       *string `json:"cover_key,omitempty"`
	AuthorPhotoKey *string `json:"author_photo_key,omitempty"`

	Pages      *int     `json:"pages,omitempty" validate:"omitempty,min=0"`
	CategoryID *int64   `json:"category_id,omitempty"`
	CourseID   *int64   `json:"course_id,omitempty"`
	Tags       []string `json:"tags" validate:"dive,max=100"`

	Price             *Money `json:"price,omitempty" validate:"omitempty,min=0,max=99999"`
	RentalPricePerDay *Money `json:"rental_price_per_day,omitempty" validate:"omitempty,min=0,max=99999"`
	RentalPeriodDays  *int   `json:"rental_period_days,omitempty"`
	TotalRental       *Money `json:"total_rental,omitempty" validate:"omitempty,min=0,max=99999"`

	Active        bool    `json:"active"`
	Status        *Status `json:"status,omitempty" validate:"omitempty,oneof=available rental sold"`
	StatusColor   string  `json:"status_color,omitempty" validate:"omitempty,hexcolor6"`
	PublishedDate *Date   `json:"published_date,omitempty"`

	OwnerID *string `json:"owner_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Course struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
