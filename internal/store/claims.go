package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/lostfound/internal/match"
	"github.com/erazemk/lostfound/internal/model"
)

var (
	// ErrItemNotFound is returned when a claim references an item that does
	// not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrAmbiguousItem is returned when a claim references an item by a title
	// shared by several items.
	ErrAmbiguousItem = errors.New("item title matches more than one item")
)

// ItemRef identifies the item a claim refers to, either by ID or by title.
// The ID takes precedence when both are set.
type ItemRef struct {
	ID    int64
	Title string
}

// IsZero reports whether the reference names no item.
func (r ItemRef) IsZero() bool {
	return r.ID == 0 && r.Title == ""
}

// MatchResult describes what the matcher did to a new claim.
type MatchResult struct {
	// Matched is set when an item description scored above the threshold.
	Matched bool
	// ItemID is the item the claim ended up referencing.
	ItemID int64
	Ratio  float64
}

const claimSelect = `SELECT c.id, c.item_id, i.title, c.user_id, c.status, c.description, c.created_at
	FROM claims c
	JOIN items i ON i.id = c.item_id`

// CreateClaim creates a claim for a user. The description is compared with
// every item's description; the best match above the threshold replaces the
// referenced item. The referenced item must exist even when it gets replaced.
func CreateClaim(ctx context.Context, db *sql.DB, userID int64, ref ItemRef, description, status string) (*model.Claim, MatchResult, error) {
	var res MatchResult

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, res, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	itemID, err := resolveItem(ctx, tx, ref)
	if err != nil {
		return nil, res, err
	}
	res.ItemID = itemID

	items, err := allItems(ctx, tx)
	if err != nil {
		return nil, res, err
	}
	if best, ratio := match.BestItem(description, items); best != nil {
		res = MatchResult{Matched: true, ItemID: best.ID, Ratio: ratio}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO claims (item_id, user_id, status, description) VALUES (?, ?, ?, ?)`,
		res.ItemID, userID, status, description,
	)
	if err != nil {
		return nil, res, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, res, fmt.Errorf("getting claim id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, res, fmt.Errorf("committing claim: %w", err)
	}

	claim, err := GetClaim(ctx, db, id)
	return claim, res, err
}

// ResolveItem returns the ID of the item ref points to.
func ResolveItem(ctx context.Context, db *sql.DB, ref ItemRef) (int64, error) {
	return resolveItem(ctx, db, ref)
}

func resolveItem(ctx context.Context, q queryer, ref ItemRef) (int64, error) {
	if ref.ID != 0 {
		var id int64
		err := q.QueryRowContext(ctx, `SELECT id FROM items WHERE id = ?`, ref.ID).Scan(&id)
		if err == sql.ErrNoRows {
			return 0, ErrItemNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("resolving item: %w", err)
		}
		return id, nil
	}

	if ref.Title == "" {
		return 0, ErrItemNotFound
	}

	rows, err := q.QueryContext(ctx, `SELECT id FROM items WHERE title = ? LIMIT 2`, ref.Title)
	if err != nil {
		return 0, fmt.Errorf("resolving item: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scanning item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("resolving item: %w", err)
	}

	switch len(ids) {
	case 0:
		return 0, ErrItemNotFound
	case 1:
		return ids[0], nil
	}
	return 0, ErrAmbiguousItem
}

// GetClaim returns a claim by ID.
func GetClaim(ctx context.Context, db *sql.DB, id int64) (*model.Claim, error) {
	c := &model.Claim{}
	err := db.QueryRowContext(ctx, claimSelect+` WHERE c.id = ?`, id).
		Scan(&c.ID, &c.ItemID, &c.ItemTitle, &c.UserID, &c.Status, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// ListClaims returns claims newest first, limited to one user when userID is
// non-zero.
func ListClaims(ctx context.Context, db *sql.DB, userID int64) ([]model.Claim, error) {
	query := claimSelect
	var args []any
	if userID > 0 {
		query += ` WHERE c.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY c.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.ItemID, &c.ItemTitle, &c.UserID, &c.Status, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// UpdateClaim saves a claim's item, status and description.
func UpdateClaim(ctx context.Context, db *sql.DB, c *model.Claim) error {
	_, err := db.ExecContext(ctx,
		`UPDATE claims SET item_id = ?, status = ?, description = ? WHERE id = ?`,
		c.ItemID, c.Status, c.Description, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating claim: %w", err)
	}
	return nil
}

// DeleteClaim deletes a claim.
func DeleteClaim(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting claim: %w", err)
	}
	return nil
}
