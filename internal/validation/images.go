package validation

import (
	"fmt"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
)

const (
	MaxImageSize        = 5 * 1024 * 1024
	MaxImagesPerListing = 5
)

// AllowedImageTypes are the accepted upload content types.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// FileRejection explains why one upload was refused.
type FileRejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImageLimits bounds an upload batch. The zero value uses the package defaults.
type ImageLimits struct {
	MaxSize   int64
	MaxImages int
}

func (l ImageLimits) withDefaults() ImageLimits {
	if l.MaxSize <= 0 {
		l.MaxSize = MaxImageSize
	}
	if l.MaxImages <= 0 {
		l.MaxImages = MaxImagesPerListing
	}
	return l
}

// ValidateImages checks each file on its own; one bad file does not reject the batch.
// existing is the number of images the listing already has.
func ValidateImages(existing int, files []models.ImageFile) (accepted []models.ImageFile, rejected []FileRejection) {
	return ImageLimits{}.Validate(existing, files)
}

// Validate is ValidateImages with explicit limits.
func (l ImageLimits) Validate(existing int, files []models.ImageFile) (accepted []models.ImageFile, rejected []FileRejection) {
	l = l.withDefaults()
	accepted = []models.ImageFile{}
	rejected = []FileRejection{}
	for _, f := range files {
		switch {
		case f.Size > l.MaxSize:
			rejected = append(rejected, FileRejection{Name: f.Name, Reason: fmt.Sprintf("%s is larger than %dMB", f.Name, l.MaxSize/(1024*1024))})
		case !AllowedImageTypes[f.ContentType]:
			rejected = append(rejected, FileRejection{Name: f.Name, Reason: fmt.Sprintf("%s is not a supported image format", f.Name)})
		case existing+len(accepted) >= l.MaxImages:
			rejected = append(rejected, FileRejection{Name: f.Name, Reason: fmt.Sprintf("a listing can have at most %d images", l.MaxImages)})
		default:
			accepted = append(accepted, f)
		}
	}
	return accepted, rejected
}
