package lifecycle

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/go-playground/validator/v10"
)

// FieldError is one rejected field with a human-readable reason.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError rejects a write as a whole; nothing is persisted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field was rejected.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// MaxRentalPeriodDays is the largest value the INT column holds.
const MaxRentalPeriodDays = math.MaxInt32

var (
	hexColorRe = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)
	structV    = newStructValidator()
)

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColorRe.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks a book at input-acceptance time, before PrepareForSave.
// It returns the book unchanged or a *ValidationError listing every
// rejected field.
func Validate(b models.Book) (models.Book, error) {
	ve := &ValidationError{}

	if err := structV.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return b, err
		}
		for _, fe := range verrs {
			ve.add(fieldName(fe), reasonFor(fe))
		}
	}
	if strings.TrimSpace(b.Title) == "" && !ve.Has("title") {
		ve.add("title", "is required")
	}

	if b.RentalPeriodDays != nil {
		switch days := *b.RentalPeriodDays; {
		case days <= 0:
			ve.add("rental_period_days", "must be greater than zero")
		case days > MaxRentalPeriodDays:
			ve.add("rental_period_days", "must be at most "+strconv.Itoa(MaxRentalPeriodDays))
		}
		if b.PublishedDate == nil {
			ve.add("published_date", "is required when rental_period_days is set")
		}
	}

	if b.RentalPricePerDay != nil && b.RentalPeriodDays != nil && *b.RentalPeriodDays > 0 {
		total, ok := b.RentalPricePerDay.TimesChecked(*b.RentalPeriodDays)
		if !ok || total > models.MaxMoney {
			ve.add("total_rental", "rental_price_per_day × rental_period_days exceeds "+models.MaxMoney.String())
		}
	}

	if len(ve.Fields) > 0 {
		return b, ve
	}
	return b, nil
}

func fieldName(fe validator.FieldError) string {
	// Tags[2] reports as "tags[2]"; keep the parent name.
	name, _, _ := strings.Cut(fe.Field(), "[")
	return name
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		if fe.Type() == reflect.TypeOf(models.Money(0)) {
			return "must be at most " + models.MaxMoney.String()
		}
		return "must be at most " + fe.Param()
	case "min":
		return "must not be negative"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "hexcolor6":
		return "must be a 6-digit hex color"
	}
	return "is invalid"
}
