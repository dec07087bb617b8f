package catalog

import (
	"fmt"
	"sort"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
)

// PlaceholderImage is shown wherever a listing has no photos.
const PlaceholderImage = "/placeholder.svg"

// SortedImages returns a copy of the listing's images ordered by display order.
func SortedImages(l *models.Listing) []models.ImageRef {
	imgs := make([]models.ImageRef, len(l.Images))
	copy(imgs, l.Images)
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].DisplayOrder < imgs[j].DisplayOrder })
	return imgs
}

// Thumbnail picks the display_order 0 image, falling back to the lowest order present.
// placeholder is true when the listing has no images at all.
func Thumbnail(l *models.Listing) (url string, placeholder bool) {
	imgs := SortedImages(l)
	if len(imgs) == 0 {
		return PlaceholderImage, true
	}
	return imgs[0].ImageURL, false
}

// Carousel is the image viewer state on the detail page.
type Carousel struct {
	images []string
	index  int
}

// NewCarousel orders images by display order. With no images it shows a single placeholder.
func NewCarousel(l *models.Listing) *Carousel {
	imgs := SortedImages(l)
	urls := make([]string, 0, len(imgs))
	for _, img := range imgs {
		urls = append(urls, img.ImageURL)
	}
	return &Carousel{images: urls}
}

func (c *Carousel) Next() {
	if len(c.images) > 0 {
		c.index = (c.index + 1) % len(c.images)
	}
}

func (c *Carousel) Prev() {
	if len(c.images) > 0 {
		c.index = (c.index - 1 + len(c.images)) % len(c.images)
	}
}

// Current returns the image URL being shown.
func (c *Carousel) Current() string {
	if len(c.images) == 0 {
		return PlaceholderImage
	}
	return c.images[c.index]
}

// Index is zero-based.
func (c *Carousel) Index() int { return c.index }

// Len is the number of real images, 0 when the placeholder is shown.
func (c *Carousel) Len() int { return len(c.images) }

// HasControls reports whether navigation arrows and dots are shown.
func (c *Carousel) HasControls() bool { return len(c.images) > 1 }

// Counter renders the "2 / 5" badge. Empty when there are no controls.
func (c *Carousel) Counter() string {
	if !c.HasControls() {
		return ""
	}
	return fmt.Sprintf("%d / %d", c.index+1, len(c.images))
}

// CarouselView is the JSON form of a freshly opened carousel.
type CarouselView struct {
	Images      []string `json:"images"`
	Current     string   `json:"current"`
	HasControls bool     `json:"has_controls"`
	Counter     string   `json:"counter,omitempty"`
}

func (c *Carousel) View() CarouselView {
	imgs := c.images
	if len(imgs) == 0 {
		imgs = []string{PlaceholderImage}
	}
	return CarouselView{Images: imgs, Current: c.Current(), HasControls: c.HasControls(), Counter: c.Counter()}
}

// BookSet describes how complete a set listing is relative to its book group.
type BookSet struct {
	Group    string   `json:"group"`
	Included []string `json:"included"`
	FullSet  []string `json:"full_set"`
	Missing  []string `json:"missing"`
}

// BookSetSummary returns nil for listings without a book group.
// Missing is every full-set title not included in the listing, in group order.
func BookSetSummary(l *models.Listing) *BookSet {
	if l.BookGroup == nil {
		return nil
	}
	bs := &BookSet{
		Group:    l.BookGroup.Name,
		Included: make([]string, 0, len(l.Books)),
		FullSet:  make([]string, 0, len(l.BookGroup.Books)),
		Missing:  []string{},
	}
	have := make(map[string]bool, len(l.Books))
	for _, lb := range l.Books {
		bs.Included = append(bs.Included, lb.Book.Title)
		have[lb.Book.ID.String()] = true
		have[lb.Book.Title] = true
	}
	for _, b := range l.BookGroup.Books {
		bs.FullSet = append(bs.FullSet, b.Title)
		if !have[b.ID.String()] && !have[b.Title] {
			bs.Missing = append(bs.Missing, b.Title)
		}
	}
	return bs
}
