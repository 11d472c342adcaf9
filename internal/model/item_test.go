package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func validItem() Item {
	return Item{
		Title:            "Lost Samsung A22",
		Status:           ItemStatusLost,
		Category:         "electronics",
		LocationLastSeen: "Around G block",
		DateLost:         Today(),
	}
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Item)
		wantErr bool
	}{
		{"valid", func(*Item) {}, false},
		{"found status", func(i *Item) { i.Status = ItemStatusFound }, false},
		{"missing title", func(i *Item) { i.Title = "" }, true},
		{"long title", func(i *Item) { i.Title = strings.Repeat("x", 256) }, true},
		{"missing category", func(i *Item) { i.Category = "" }, true},
		{"long category", func(i *Item) { i.Category = strings.Repeat("c", 21) }, true},
		{"missing location", func(i *Item) { i.LocationLastSeen = "" }, true},
		{"missing date", func(i *Item) { i.DateLost = Date{} }, true},
		{"unknown status", func(i *Item) { i.Status = "stolen" }, true},
	}

	for _, tt := range tests {
		item := validItem()
		tt.mutate(&item)
		err := item.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidClaimStatus(t *testing.T) {
	for _, s := range []string{ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected} {
		if !ValidClaimStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if ValidClaimStatus("cancelled") {
		t.Error("expected 'cancelled' to be invalid")
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-09"`), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.String() != "2024-03-09" {
		t.Errorf("expected 2024-03-09, got %q", d.String())
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `"2024-03-09"` {
		t.Errorf("expected quoted date, got %s", out)
	}

	if err := json.Unmarshal([]byte(`"09/03/2024"`), &d); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan("2023-12-31"); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if d.String() != "2023-12-31" {
		t.Errorf("expected 2023-12-31, got %q", d.String())
	}

	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
