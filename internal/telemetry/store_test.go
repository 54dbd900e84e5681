package telemetry

import (
	"fmt"
	"math/rand"
	"testing"
)

func reading(id string, temp, hum, ts float64) Reading {
	return Reading{DeviceID: id, Temperature: temp, Humidity: hum, Timestamp: ts}
}

func TestStore_NewDevicesAppendInOrder(t *testing.T) {
	s := NewStore()
	r1 := reading("s1", 70.2, 45.0, 1000)
	r2 := reading("s2", 68.0, 50.0, 1001)

	s.Apply(r1)
	s.Apply(r2)

	got := s.All()
	if len(got) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(got))
	}
	if got[0] != r1 || got[1] != r2 {
		t.Errorf("All() = %+v, want [%+v %+v]", got, r1, r2)
	}
}

func TestStore_UpdateReplacesInPlace(t *testing.T) {
	s := NewStore()
	first := reading("s1", 70.2, 45.0, 1000)
	second := reading("s1", 71.0, 44.0, 1002)

	if pos, added := s.Apply(first); pos != 0 || !added {
		t.Errorf("Apply(first) = (%d, %v), want (0, true)", pos, added)
	}
	if pos, added := s.Apply(second); pos != 0 || added {
		t.Errorf("Apply(second) = (%d, %v), want (0, false)", pos, added)
	}

	got := s.All()
	if len(got) != 1 {
		t.Fatalf("len(All()) = %d, want 1", len(got))
	}
	if got[0] != second {
		t.Errorf("All()[0] = %+v, want %+v", got[0], second)
	}
}

func TestStore_UpdateKeepsFirstSeenPosition(t *testing.T) {
	s := NewStore()
	s.Apply(reading("a", 1, 1, 1))
	s.Apply(reading("b", 2, 2, 2))
	s.Apply(reading("c", 3, 3, 3))
	s.Apply(reading("a", 10, 10, 10))

	want := []string{"a", "b", "c"}
	for i, r := range s.All() {
		if r.DeviceID != want[i] {
			t.Errorf("All()[%d].DeviceID = %q, want %q", i, r.DeviceID, want[i])
		}
	}
	if got, _ := s.Get("a"); got.Temperature != 10 {
		t.Errorf("Get(a).Temperature = %v, want 10", got.Temperature)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestStore_AllReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Apply(reading("s1", 1, 1, 1))

	all := s.All()
	all[0].Temperature = 99

	if got, _ := s.Get("s1"); got.Temperature != 1 {
		t.Errorf("store mutated through All(): Temperature = %v, want 1", got.Temperature)
	}
}

// TestStore_Invariants applies random sequences and checks the dedup and
// ordering invariants after every step.
func TestStore_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		s := NewStore()
		firstSeen := map[string]int{}
		var order []string

		for step := 0; step < 200; step++ {
			id := fmt.Sprintf("dev-%d", rng.Intn(12))
			r := reading(id, rng.Float64()*100, rng.Float64()*100, float64(step))
			s.Apply(r)

			if _, ok := firstSeen[id]; !ok {
				firstSeen[id] = len(order)
				order = append(order, id)
			}

			all := s.All()
			if len(all) != len(firstSeen) || s.Len() != len(firstSeen) {
				t.Fatalf("run %d step %d: len(All()) = %d, distinct = %d", run, step, len(all), len(firstSeen))
			}
			for i, entry := range all {
				if entry.DeviceID != order[i] {
					t.Fatalf("run %d step %d: All()[%d] = %q, want %q", run, step, i, entry.DeviceID, order[i])
				}
				if got, ok := s.Get(entry.DeviceID); !ok || got != entry {
					t.Fatalf("run %d step %d: Get(%q) = %+v, want %+v", run, step, entry.DeviceID, got, entry)
				}
			}
			if got, _ := s.Get(id); got != r {
				t.Fatalf("run %d step %d: Get(%q) = %+v, want latest %+v", run, step, id, got, r)
			}
		}
	}
}
