package messaging

import (
	"fmt"
	"testing"
)

func TestRingEvictsOldestFirst(t *testing.T) {
	ring := NewRing(3)
	for i := 1; i <= 5; i++ {
		ring.Append(Event{EventID: fmt.Sprintf("e%d", i)})
	}

	if ring.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ring.Len())
	}
	got := ring.Snapshot()
	want := []string{"e3", "e4", "e5"}
	for i, id := range want {
		if got[i].EventID != id {
			t.Errorf("snapshot[%d] = %q, want %q", i, got[i].EventID, id)
		}
	}
}

func TestRingPartialFill(t *testing.T) {
	ring := NewRing(10)
	ring.Append(Event{EventID: "only"})

	got := ring.Snapshot()
	if len(got) != 1 || got[0].EventID != "only" {
		t.Errorf("snapshot = %v", got)
	}
	if ring.Cap() != 10 {
		t.Errorf("Cap() = %d, want 10", ring.Cap())
	}
}
