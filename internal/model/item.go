package model

import (
	"errors"
	"time"
)

// Item is a lost or found object registered by a user.
type Item struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"-"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Status           string    `json:"status"`
	Category         string    `json:"category"`
	LocationLastSeen string    `json:"location_last_seen"`
	DateLost         Date      `json:"date_lost"`
	Tags             []Tag     `json:"tags"`
	ImagePath        string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Item statuses.
const (
	ItemStatusLost  = "lost"
	ItemStatusFound = "found"
)

// Field limits.
const (
	MaxTitleLength    = 255
	MaxCategoryLength = 20
	MaxLocationLength = 255
	MaxTagNameLength  = 255
)

// ValidItemStatus reports whether s is a known item status.
func ValidItemStatus(s string) bool {
	return s == ItemStatusLost || s == ItemStatusFound
}

// Validate checks the required fields and limits of an item.
func (i *Item) Validate() error {
	switch {
	case i.Title == "":
		return errors.New("title required")
	case len(i.Title) > MaxTitleLength:
		return errors.New("title too long")
	case i.Category == "":
		return errors.New("category required")
	case len(i.Category) > MaxCategoryLength:
		return errors.New("category too long")
	case i.LocationLastSeen == "":
		return errors.New("location_last_seen required")
	case len(i.LocationLastSeen) > MaxLocationLength:
		return errors.New("location_last_seen too long")
	case i.DateLost.IsZero():
		return errors.New("date_lost required")
	case !ValidItemStatus(i.Status):
		return errors.New("status must be 'lost' or 'found'")
	}
	return nil
}
