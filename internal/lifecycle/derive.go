package lifecycle

import "github.com/5w1tchy/lms-catalog/internal/models"

// PrepareForSave recomputes derived fields right before a write, for inserts
// and updates alike. When either rental source is nil TotalRental is left as
// it is. Cents times whole days is exact, so no rounding step is needed.
func PrepareForSave(b *models.Book, isNew bool) {
	if b.RentalPricePerDay == nil || b.RentalPeriodDays == nil {
		return
	}
	total := b.RentalPricePerDay.Times(*b.RentalPeriodDays)
	b.TotalRental = &total
}
