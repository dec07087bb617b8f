// Package validation checks sell-form submissions before they reach the catalog store.
package validation

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field (JSON name) to its message.
type FieldErrors map[string]string

// Result is the outcome of ValidateListing.
type Result struct {
	Valid  bool        `json:"valid"`
	Errors FieldErrors `json:"errors"`
}

// messages per field and failing tag. A "" tag is the field's fallback.
var messages = map[string]map[string]string{
	"title":         {"": "Title is required"},
	"author":        {"": "Author is required for single books"},
	"courseCode":    {"": "Course code is required"},
	"condition":     {"required": "Condition is required", "condition": "Condition must be New, Like New, Good or Acceptable"},
	"price":         {"": "Please enter a valid price"},
	"bookGroup":     {"": "Book group is required for sets"},
	"selectedBooks": {"": "Please select at least one book for the set"},
	"listingType":   {"": "Listing type must be single or set"},
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("positive_number", func(fl validator.FieldLevel) bool {
			_, ok := ParsePrice(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
			return models.Condition(fl.Field().String()).Valid()
		})
		v.RegisterStructValidation(func(sl validator.StructLevel) {
			d := sl.Current().Interface().(models.ListingDraft)
			if d.ListingType == models.ListingTypeSet && len(d.SelectedBooks) == 0 {
				sl.ReportError(d.SelectedBooks, "selectedBooks", "SelectedBooks", "required_if", "")
			}
		}, models.ListingDraft{})
		validate = v
	})
	return validate
}

// ParsePrice accepts a finite decimal string strictly greater than zero.
func ParsePrice(s string) (float64, bool) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, false
	}
	return p, true
}

// Normalize trims the free-text fields and defaults the listing type to single.
func Normalize(d models.ListingDraft) models.ListingDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	d.ISBN = strings.TrimSpace(d.ISBN)
	d.CourseCode = strings.TrimSpace(d.CourseCode)
	d.BookGroup = strings.TrimSpace(d.BookGroup)
	d.Condition = strings.TrimSpace(d.Condition)
	d.Price = strings.TrimSpace(d.Price)
	d.Description = strings.TrimSpace(d.Description)
	if d.ListingType == "" {
		d.ListingType = models.ListingTypeSingle
	}
	return d
}

// ValidateListing applies the sell-form rules. Every failing field gets exactly one message.
func ValidateListing(draft models.ListingDraft) Result {
	res := Result{Valid: true, Errors: FieldErrors{}}

	err := getValidator().Struct(Normalize(draft))
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// only InvalidValidationError lands here, which means a programming error
		panic(err)
	}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := res.Errors[field]; seen {
			continue
		}
		res.Errors[field] = messageFor(field, fe.Tag())
	}
	res.Valid = len(res.Errors) == 0
	return res
}

func messageFor(field, tag string) string {
	byTag, ok := messages[field]
	if !ok {
		return field + " is invalid"
	}
	if m, ok := byTag[tag]; ok {
		return m
	}
	return byTag[""]
}
