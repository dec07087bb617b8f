package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alphaxx001/bookloop-connect-campus/internal/validation"
)

var (
	// ErrEmptyMessage is returned for message text that is empty after trimming.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrNotParticipant is returned when the sender is neither buyer nor seller.
	ErrNotParticipant = errors.New("sender is not a participant of this conversation")
	// ErrSelfConversation is returned when a seller tries to contact themselves.
	ErrSelfConversation = errors.New("cannot start a conversation about your own listing")
	// ErrTooManyImages is returned when a listing already has the maximum number of images.
	ErrTooManyImages = errors.New("listing has the maximum number of images")
)

// ValidationError carries per-field messages for a rejected submission.
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid listing: " + strings.Join(parts, "; ")
}
