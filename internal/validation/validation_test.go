package validation

import (
	"strings"
	"testing"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSingle() models.ListingDraft {
	return models.ListingDraft{
		Title:       "Introduction to Algorithms",
		Author:      "Thomas Cormen",
		CourseCode:  "CS201",
		Condition:   "Good",
		Price:       "800",
		ListingType: models.ListingTypeSingle,
	}
}

func validSet() models.ListingDraft {
	return models.ListingDraft{
		Title:         "Engineering Mathematics Set",
		CourseCode:    "MATH101",
		BookGroup:     "eng-1",
		Condition:     "Like New",
		Price:         "2500",
		ListingType:   models.ListingTypeSet,
		SelectedBooks: []string{"calc", "linalg"},
	}
}

func TestValidateListing_Valid(t *testing.T) {
	for _, d := range []models.ListingDraft{validSingle(), validSet()} {
		res := ValidateListing(d)
		assert.True(t, res.Valid, "errors: %v", res.Errors)
		assert.Empty(t, res.Errors)
	}
}

func TestValidateListing_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		draft func() models.ListingDraft
		field string
		msg   string
	}{
		{"blank title", func() models.ListingDraft { d := validSingle(); d.Title = "   "; return d }, "title", "Title is required"},
		{"single needs author", func() models.ListingDraft { d := validSingle(); d.Author = ""; return d }, "author", "Author is required for single books"},
		{"course code", func() models.ListingDraft { d := validSingle(); d.CourseCode = " "; return d }, "courseCode", "Course code is required"},
		{"missing condition", func() models.ListingDraft { d := validSingle(); d.Condition = ""; return d }, "condition", "Condition is required"},
		{"unknown condition", func() models.ListingDraft { d := validSingle(); d.Condition = "Mint"; return d }, "condition", "Condition must be New, Like New, Good or Acceptable"},
		{"empty price", func() models.ListingDraft { d := validSingle(); d.Price = ""; return d }, "price", "Please enter a valid price"},
		{"non numeric price", func() models.ListingDraft { d := validSingle(); d.Price = "cheap"; return d }, "price", "Please enter a valid price"},
		{"zero price", func() models.ListingDraft { d := validSingle(); d.Price = "0"; return d }, "price", "Please enter a valid price"},
		{"negative price", func() models.ListingDraft { d := validSingle(); d.Price = "-5"; return d }, "price", "Please enter a valid price"},
		{"NaN price", func() models.ListingDraft { d := validSingle(); d.Price = "NaN"; return d }, "price", "Please enter a valid price"},
		{"infinite price", func() models.ListingDraft { d := validSingle(); d.Price = "Inf"; return d }, "price", "Please enter a valid price"},
		{"overflowing price", func() models.ListingDraft { d := validSingle(); d.Price = "1e400"; return d }, "price", "Please enter a valid price"},
		{"set needs group", func() models.ListingDraft { d := validSet(); d.BookGroup = ""; return d }, "bookGroup", "Book group is required for sets"},
		{"set needs books", func() models.ListingDraft { d := validSet(); d.SelectedBooks = []string{}; return d }, "selectedBooks", "Please select at least one book for the set"},
		{"bad listing type", func() models.ListingDraft { d := validSingle(); d.ListingType = "bundle"; return d }, "listingType", "Listing type must be single or set"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateListing(tc.draft())
			require.False(t, res.Valid)
			assert.Equal(t, tc.msg, res.Errors[tc.field])
			assert.Len(t, res.Errors, 1, "unexpected errors: %v", res.Errors)
		})
	}
}

func TestValidateListing_SetDoesNotNeedAuthor(t *testing.T) {
	d := validSet()
	d.Author = ""
	assert.True(t, ValidateListing(d).Valid)
}

func TestValidateListing_EmptyDraftDefaultsToSingle(t *testing.T) {
	res := ValidateListing(models.ListingDraft{})
	require.False(t, res.Valid)
	for _, f := range []string{"title", "author", "courseCode", "condition", "price"} {
		assert.Contains(t, res.Errors, f)
	}
	assert.NotContains(t, res.Errors, "bookGroup")
	assert.NotContains(t, res.Errors, "selectedBooks")
}

func TestValidateImages(t *testing.T) {
	files := []models.ImageFile{
		{Name: "cover.jpg", ContentType: "image/jpeg", Size: 1024},
		{Name: "huge.png", ContentType: "image/png", Size: MaxImageSize + 1},
		{Name: "notes.pdf", ContentType: "application/pdf", Size: 10},
		{Name: "back.webp", ContentType: "image/webp", Size: 2048},
	}
	accepted, rejected := ValidateImages(0, files)

	require.Len(t, accepted, 2)
	assert.Equal(t, "cover.jpg", accepted[0].Name)
	assert.Equal(t, "back.webp", accepted[1].Name)

	require.Len(t, rejected, 2)
	assert.Equal(t, "huge.png", rejected[0].Name)
	assert.True(t, strings.Contains(rejected[0].Reason, "larger than 5MB"))
	assert.Equal(t, "notes.pdf", rejected[1].Name)
	assert.Contains(t, rejected[1].Reason, "not a supported image format")
}

func TestValidateImages_CapsTotal(t *testing.T) {
	files := []models.ImageFile{
		{Name: "a.jpg", ContentType: "image/jpeg", Size: 1},
		{Name: "b.jpg", ContentType: "image/jpeg", Size: 1},
		{Name: "c.jpg", ContentType: "image/jpeg", Size: 1},
	}
	accepted, rejected := ValidateImages(3, files)
	assert.Len(t, accepted, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, "c.jpg", rejected[0].Name)
}

func TestSuggestedPrice(t *testing.T) {
	assert.Equal(t, 2000, SuggestedPrice(models.ListingTypeSet, models.ConditionNew))
	assert.Equal(t, 1600, SuggestedPrice(models.ListingTypeSet, models.ConditionLikeNew))
	assert.Equal(t, 480, SuggestedPrice(models.ListingTypeSingle, models.ConditionGood))
	assert.Equal(t, 320, SuggestedPrice(models.ListingTypeSingle, models.ConditionAcceptable))
	assert.Equal(t, 480, SuggestedPrice(models.ListingTypeSingle, ""))
}
