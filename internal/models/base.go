package models

import (
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

// Base carries the SixID primary key of documents whose ids are generated by this service
// rather than by a counter sequence.
type Base struct {
	ID utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
}

// NewBase returns a Base with a fresh random id.
func NewBase() Base {
	return Base{ID: utils.NewSixID()}
}

