package models

import "github.com/alphaxx001/bookloop-connect-campus/internal/utils"

// BookRef identifies a single textbook.
type BookRef struct {
	ID         utils.SixID `bson:"id" json:"id"`
	Title      string      `bson:"title" json:"title"`
	Author     *string     `bson:"author,omitempty" json:"author"`
	CourseCode *string     `bson:"course_code,omitempty" json:"course_code"`
}

// BookGroup is a curriculum bundle. Books holds the full set so a listing can report what it lacks.
type BookGroup struct {
	Base        `bson:",inline"`
	Name        string    `bson:"name" json:"name"`
	Description *string   `bson:"description,omitempty" json:"description"`
	Books       []BookRef `bson:"books,omitempty" json:"books,omitempty"`
}

// BookByID returns the group's book with the given id.
func (g *BookGroup) BookByID(id utils.SixID) (BookRef, bool) {
	for _, b := range g.Books {
		if b.ID == id {
			return b, true
		}
	}
	return BookRef{}, false
}
