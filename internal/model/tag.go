package model

// Tag is a user-scoped label attachable to many items.
type Tag struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}
