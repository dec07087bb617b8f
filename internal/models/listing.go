package models

import (
	"time"

	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

// Condition is the physical state of a listed book.
type Condition string

const (
	ConditionNew        Condition = "New"
	ConditionLikeNew    Condition = "Like New"
	ConditionGood       Condition = "Good"
	ConditionAcceptable Condition = "Acceptable"
)

// Conditions lists every valid condition, best first.
var Conditions = []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionAcceptable}

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// ListingStatus controls catalog visibility. Only active listings are browsable.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

// Seller is the public projection of a seller profile embedded in a listing.
type Seller struct {
	ID        string  `bson:"id" json:"id"`
	FullName  *string `bson:"full_name,omitempty" json:"full_name"`
	AvatarURL *string `bson:"avatar_url,omitempty" json:"avatar_url"`
}

// ListingBook wraps a book included in a listing.
type ListingBook struct {
	Book BookRef `bson:"book" json:"book"`
}

// ImageRef is one listing photo. DisplayOrder 0 is the thumbnail.
type ImageRef struct {
	ID           utils.SixID `bson:"id" json:"id"`
	ImageURL     string      `bson:"image_url" json:"image_url"`
	DisplayOrder int         `bson:"display_order" json:"display_order"`
}

// Listing represents a book (or set of books) offered for sale.
type Listing struct {
	ID          int64         `bson:"_id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description *string       `bson:"description,omitempty" json:"description"`
	Price       float64       `bson:"price" json:"price"`
	Condition   Condition     `bson:"condition" json:"condition"`
	IsSet       bool          `bson:"is_set" json:"is_set"`
	Status      ListingStatus `bson:"status" json:"status"`
	Seller      Seller        `bson:"seller" json:"seller"`
	BookGroup   *BookGroup    `bson:"book_group,omitempty" json:"book_group"`
	Books       []ListingBook `bson:"listing_books" json:"listing_books"`
	Images      []ImageRef    `bson:"listing_images" json:"listing_images"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// ImageFile describes an upload candidate before it reaches storage.
type ImageFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ListingType is the sell form's single/set switch.
type ListingType string

const (
	ListingTypeSingle ListingType = "single"
	ListingTypeSet    ListingType = "set"
)

// ListingDraft is the sell form as submitted. Price stays a string until validated.
type ListingDraft struct {
	Title         string      `json:"title" validate:"required"`
	Author        string      `json:"author" validate:"required_if=ListingType single"`
	ISBN          string      `json:"isbn"`
	CourseCode    string      `json:"courseCode" validate:"required"`
	BookGroup     string      `json:"bookGroup" validate:"required_if=ListingType set"`
	Condition     string      `json:"condition" validate:"required,condition"`
	Price         string      `json:"price" validate:"positive_number"`
	Description   string      `json:"description"`
	ListingType   ListingType `json:"listingType" validate:"oneof=single set"`
	SelectedBooks []string    `json:"selectedBooks"`
	Images        []ImageFile `json:"images"`
}
