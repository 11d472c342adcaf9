package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/lostfound/internal/model"
)

// CreateTag creates a tag for a user.
func CreateTag(ctx context.Context, db *sql.DB, userID int64, name string) (*model.Tag, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name) VALUES (?, ?)`,
		userID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting tag id: %w", err)
	}

	return GetTag(ctx, db, id)
}

// GetTag returns a tag by ID.
func GetTag(ctx context.Context, db *sql.DB, id int64) (*model.Tag, error) {
	t := &model.Tag{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag: %w", err)
	}
	return t, nil
}

// getOrCreateTag returns the user's oldest tag with the given name, creating
// it if the user has none.
func getOrCreateTag(ctx context.Context, q queryer, userID int64, name string) (*model.Tag, error) {
	t := &model.Tag{UserID: userID, Name: name}
	err := q.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE user_id = ? AND name = ? ORDER BY id LIMIT 1`,
		userID, name,
	).Scan(&t.ID)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("looking up tag %q: %w", name, err)
	}

	result, err := q.ExecContext(ctx, `INSERT INTO tags (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("creating tag %q: %w", name, err)
	}
	if t.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting tag id: %w", err)
	}
	return t, nil
}

// ListTags returns a user's tags ordered by name descending. With
// assignedOnly set, only tags attached to at least one item are returned.
func ListTags(ctx context.Context, db *sql.DB, userID int64, assignedOnly bool) ([]model.Tag, error) {
	query := `SELECT t.id, t.user_id, t.name FROM tags t WHERE t.user_id = ?`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM item_tags it WHERE it.tag_id = t.id)`
	}
	query += ` ORDER BY t.name DESC, t.id DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateTag renames a tag.
func UpdateTag(ctx context.Context, db *sql.DB, id int64, name string) error {
	_, err := db.ExecContext(ctx, `UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("updating tag: %w", err)
	}
	return nil
}

// DeleteTag deletes a tag and detaches it from all items.
func DeleteTag(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	return nil
}
