package model

import "time"

// Claim is a user's assertion of ownership over an item.
type Claim struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	ItemTitle   string    `json:"item"`
	UserID      int64     `json:"user"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Claim statuses.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// ValidClaimStatus reports whether s is a known claim status.
func ValidClaimStatus(s string) bool {
	switch s {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected:
		return true
	}
	return false
}
