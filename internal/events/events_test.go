package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type recorder struct {
	subjects []string
	err      error
}

func (r *recorder) Publish(_ context.Context, subject string, _ any) error {
	r.subjects = append(r.subjects, subject)
	return r.err
}

func TestEncodeClaimCreated(t *testing.T) {
	data, err := Encode(ClaimCreated{ClaimID: 3, UserID: 2, ItemID: 1, Matched: true, Ratio: 0.75})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"claim_id", "user_id", "item_id", "matched", "ratio"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if got["matched"] != true {
		t.Errorf("expected matched=true, got %v", got["matched"])
	}
}

func TestEncodeUnsupported(t *testing.T) {
	if _, err := Encode(make(chan int)); err == nil {
		t.Error("expected error encoding a channel")
	}
}

func TestNopPublish(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), SubjectClaimCreated, nil); err != nil {
		t.Errorf("Nop.Publish: %v", err)
	}
}

func TestEmitSwallowsErrors(t *testing.T) {
	r := &recorder{err: errors.New("down")}
	Emit(context.Background(), r, SubjectClaimStatus, ClaimStatusChanged{ClaimID: 1, Status: "approved"})
	if len(r.subjects) != 1 || r.subjects[0] != SubjectClaimStatus {
		t.Errorf("expected one publish to %s, got %v", SubjectClaimStatus, r.subjects)
	}

	// A nil publisher is ignored.
	Emit(context.Background(), nil, SubjectClaimStatus, nil)
}
