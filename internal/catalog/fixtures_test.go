package catalog

import (
	"time"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

// flatListing is the denormalised shape the browse page was prototyped with.
// Tests describe fixtures this way and convert them to the stored shape.
type flatListing struct {
	id         int64
	title      string
	books      []string
	price      float64
	quality    models.Condition
	isSet      bool
	group      string
	fullSet    []string
	datePosted string
	author     string
	courseCode string
	photos     int
}

func (f flatListing) listing() models.Listing {
	posted, err := time.Parse("2006-01-02", f.datePosted)
	if err != nil {
		panic(err)
	}
	l := models.Listing{
		ID:        f.id,
		Title:     f.title,
		Price:     f.price,
		Condition: f.quality,
		IsSet:     f.isSet,
		Status:    models.ListingStatusActive,
		Seller:    models.Seller{ID: "seller-" + f.title},
		CreatedAt: posted,
		UpdatedAt: posted,
	}
	for _, title := range f.books {
		b := models.BookRef{ID: utils.NewSixID(), Title: title}
		if f.author != "" {
			a := f.author
			b.Author = &a
		}
		if f.courseCode != "" {
			cc := f.courseCode
			b.CourseCode = &cc
		}
		l.Books = append(l.Books, models.ListingBook{Book: b})
	}
	if f.group != "" {
		g := &models.BookGroup{Base: models.NewBase(), Name: f.group}
		for _, title := range f.fullSet {
			g.Books = append(g.Books, models.BookRef{ID: utils.NewSixID(), Title: title})
		}
		l.BookGroup = g
	}
	for i := 0; i < f.photos; i++ {
		l.Images = append(l.Images, models.ImageRef{
			ID:           utils.NewSixID(),
			ImageURL:     "https://img.example.com/" + f.title + "/" + string(rune('a'+i)) + ".jpg",
			DisplayOrder: i,
		})
	}
	return l
}

func fixtureListings() []models.Listing {
	flat := []flatListing{
		{
			id:         1,
			title:      "Engineering Mathematics Set",
			books:      []string{"Advanced Calculus", "Linear Algebra", "Differential Equations"},
			price:      2500,
			quality:    models.ConditionLikeNew,
			isSet:      true,
			group:      "Engineering Group 1",
			fullSet:    []string{"Advanced Calculus", "Linear Algebra", "Differential Equations", "Probability Theory"},
			datePosted: "2024-01-25",
			courseCode: "MATH101",
			photos:     5,
		},
		{
			id:         2,
			title:      "Physics Complete Set",
			books:      []string{"Mechanics", "Thermodynamics", "Electromagnetism", "Modern Physics"},
			price:      1800,
			quality:    models.ConditionGood,
			isSet:      true,
			group:      "Physics Group 1",
			fullSet:    []string{"Mechanics", "Thermodynamics", "Electromagnetism", "Modern Physics"},
			datePosted: "2024-01-24",
			courseCode: "PHY101",
			photos:     3,
		},
		{
			id:         3,
			title:      "Data Structures and Algorithms",
			books:      []string{"Introduction to Algorithms"},
			price:      800,
			quality:    models.ConditionAcceptable,
			datePosted: "2024-01-23",
			author:     "Thomas Cormen",
			courseCode: "CS201",
		},
		{
			id:         4,
			title:      "Organic Chemistry",
			books:      []string{"Organic Chemistry"},
			price:      800,
			quality:    models.ConditionNew,
			datePosted: "2024-01-22",
			author:     "Paula Bruice",
			courseCode: "CHEM210",
			photos:     1,
		},
	}
	out := make([]models.Listing, 0, len(flat))
	for _, f := range flat {
		out = append(out, f.listing())
	}
	return out
}

func ids(ls []models.Listing) []int64 {
	out := make([]int64, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}
