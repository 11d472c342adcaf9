package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/lostfound/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const itemColumns = `i.id, i.user_id, i.title, i.description, i.status, i.category,
	i.location_last_seen, i.date_lost, i.image, i.created_at, i.updated_at`

// CreateItem creates an item owned by item.UserID and attaches the named tags,
// creating any tag the user does not have yet.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item, tagNames []string) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (user_id, title, description, status, category, location_last_seen, date_lost)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.UserID, item.Title, item.Description, item.Status, item.Category, item.LocationLastSeen, item.DateLost,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	if err := attachTags(ctx, tx, id, item.UserID, tagNames); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID with its tags.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q queryer, id int64) (*model.Item, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id)

	item := &model.Item{}
	var image sql.NullString
	err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &item.Status, &item.Category,
		&item.LocationLastSeen, &item.DateLost, &image, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.ImagePath = image.String

	items := []model.Item{*item}
	if err := loadTags(ctx, q, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListItems returns a user's items, newest first. If tagIDs is non-empty only
// items carrying at least one of those tags are returned, each once.
func ListItems(ctx context.Context, db *sql.DB, userID int64, tagIDs []int64) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.user_id = ?`
	args := []any{userID}

	if len(tagIDs) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM item_tags it WHERE it.item_id = i.id AND it.tag_id IN (` +
			placeholders(len(tagIDs)) + `))`
		for _, id := range tagIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY i.id DESC`

	items, err := queryItems(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	if err := loadTags(ctx, db, items); err != nil {
		return nil, err
	}
	return items, nil
}

// allItems returns every item of every user in ascending ID order, without
// tags. It is the candidate set for claim matching.
func allItems(ctx context.Context, q queryer) ([]model.Item, error) {
	items, err := queryItems(ctx, q, `SELECT `+itemColumns+` FROM items i ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("listing all items: %w", err)
	}
	return items, nil
}

func queryItems(ctx context.Context, q queryer, query string, args ...any) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var image sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &item.Status, &item.Category,
			&item.LocationLastSeen, &item.DateLost, &image, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.ImagePath = image.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// loadTags fills in the Tags of each item. Items without tags get an empty
// slice.
func loadTags(ctx context.Context, q queryer, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}

	index := make(map[int64]int, len(items))
	args := make([]any, len(items))
	for i := range items {
		items[i].Tags = []model.Tag{}
		index[items[i].ID] = i
		args[i] = items[i].ID
	}

	rows, err := q.QueryContext(ctx,
		`SELECT it.item_id, t.id, t.user_id, t.name
		 FROM item_tags it
		 JOIN tags t ON t.id = it.tag_id
		 WHERE it.item_id IN (`+placeholders(len(items))+`)
		 ORDER BY t.id`, args...,
	)
	if err != nil {
		return fmt.Errorf("loading item tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var tag model.Tag
		if err := rows.Scan(&itemID, &tag.ID, &tag.UserID, &tag.Name); err != nil {
			return fmt.Errorf("scanning item tag: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].Tags = append(items[i].Tags, tag)
		}
	}
	return rows.Err()
}

// UpdateItem saves an item's fields. When replaceTags is set the item's tags
// are cleared and replaced by tagNames; otherwise tags are left untouched.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item, tagNames []string, replaceTags bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET title = ?, description = ?, status = ?, category = ?,
		        location_last_seen = ?, date_lost = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.Title, item.Description, item.Status, item.Category, item.LocationLastSeen, item.DateLost, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	if replaceTags {
		if _, err := tx.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ?`, item.ID); err != nil {
			return fmt.Errorf("clearing item tags: %w", err)
		}
		if err := attachTags(ctx, tx, item.ID, item.UserID, tagNames); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item update: %w", err)
	}
	return nil
}

// DeleteItem deletes an item. Its claims and tag links go with it.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemImage records the stored image path of an item and returns the
// previous path, if any.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, path string) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var previous sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT image FROM items WHERE id = ?`, id).Scan(&previous)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting item image: item %d not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("getting item image: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET image = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		path, id,
	)
	if err != nil {
		return "", fmt.Errorf("setting item image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing item image: %w", err)
	}
	return previous.String, nil
}

// attachTags links the named tags to an item, creating missing tags for the
// user. Linking the same tag twice is a no-op.
func attachTags(ctx context.Context, q queryer, itemID, userID int64, names []string) error {
	for _, name := range names {
		tag, err := getOrCreateTag(ctx, q, userID, name)
		if err != nil {
			return err
		}
		_, err = q.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)`,
			itemID, tag.ID,
		)
		if err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
