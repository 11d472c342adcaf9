package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/erazemk/lostfound/internal/model"
)

var errBoom = errors.New("boom")

func TestListItemsQueryError(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()

	mock.ExpectQuery(`SELECT .+ FROM items i WHERE i.user_id = \?`).
		WithArgs(int64(1)).
		WillReturnError(errBoom)

	_, err = ListItems(context.Background(), database, 1, nil)
	if !errors.Is(err, errBoom) {
		t.Errorf("expected wrapped driver error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateClaimRollsBackOnInsertError(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM items WHERE id = \?`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`SELECT .+ FROM items i ORDER BY i.id`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "title", "description", "status", "category",
			"location_last_seen", "date_lost", "image", "created_at", "updated_at",
		}))
	mock.ExpectExec(`INSERT INTO claims`).
		WithArgs(int64(5), int64(1), model.ClaimStatusPending, "my keys").
		WillReturnError(errBoom)
	mock.ExpectRollback()

	_, _, err = CreateClaim(context.Background(), database, 1, ItemRef{ID: 5}, "my keys", model.ClaimStatusPending)
	if !errors.Is(err, errBoom) {
		t.Errorf("expected wrapped insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateItemBeginError(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()

	mock.ExpectBegin().WillReturnError(errBoom)

	_, err = CreateItem(context.Background(), database, &model.Item{UserID: 1, Title: "x"}, nil)
	if !errors.Is(err, errBoom) {
		t.Errorf("expected wrapped begin error, got %v", err)
	}
}
