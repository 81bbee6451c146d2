package draft

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	payload := []byte(`{"blocks":[{"type":"text","text":"draft body"}],"order":[3,1,2]}`)
	r := New("composition", "My Draft", payload)

	if r.ID == "" {
		t.Fatal("New did not assign an id")
	}
	if r.LastEdited <= 0 {
		t.Fatal("New did not set the edit time")
	}

	encoded, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	back, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if back.ID != r.ID || back.Type != r.Type || back.Title != r.Title || back.LastEdited != r.LastEdited {
		t.Errorf("decoded record %+v differs from original %+v", back, r)
	}
	// The payload must survive byte for byte, whitespace and key order
	// included, so a restored draft rebuilds identical inputs.
	if !bytes.Equal(back.Data, payload) {
		t.Errorf("Data = %s, want %s unchanged", back.Data, payload)
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestTouchAdvancesEditTime(t *testing.T) {
	r := New("composition", "t", nil)
	r.LastEdited = 1 // force an old timestamp
	r.Touch()
	if r.LastEdited <= 1 {
		t.Errorf("Touch did not advance LastEdited: %d", r.LastEdited)
	}
}

func TestMemStoreCRUD(t *testing.T) {
	s := NewMemStore()
	r := New("merge", "queue", json.RawMessage(`{"refs":[]}`))

	if err := s.Put(r); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(r.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "queue" {
		t.Errorf("Title = %q, want queue", got.Title)
	}

	if err := s.Delete(r.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(r.ID); err == nil {
		t.Error("Get succeeded after Delete")
	}
	if err := s.Delete(r.ID); err != nil {
		t.Errorf("deleting an absent id errored: %v", err)
	}
}

func TestMemStorePutRequiresID(t *testing.T) {
	s := NewMemStore()
	if err := s.Put(Record{Title: "no id"}); err == nil {
		t.Error("expected error for record without id")
	}
}

func TestMemStoreListOrder(t *testing.T) {
	s := NewMemStore()
	times := []int64{100, 300, 200}
	for i, ts := range times {
		r := New("composition", "d", nil)
		r.LastEdited = ts
		r.Title = string(rune('a' + i))
		if err := s.Put(r); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	out, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("List returned %d records, want 3", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].LastEdited > out[i-1].LastEdited {
			t.Fatalf("List not ordered most recent first: %d before %d",
				out[i-1].LastEdited, out[i].LastEdited)
		}
	}
}
