package registry

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/tracer"
)

func bloom(id string) tracer.Target {
	return tracer.Target{
		ID:         id,
		Depth:      2,
		Entropy:    0.7,
		Complexity: 0.8,
		SCUP:       tracer.SCUP{Schema: 0.6, Coherence: 0.9, Utility: 0.7, Pressure: 0.4},
	}
}

func TestRegistry_UpsertAndGet(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := New(nil, WithClock(func() time.Time { return fixed }))

	if err := r.Upsert(bloom("bloom_004")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, ok := r.Get("bloom_004")
	if !ok {
		t.Fatal("Get() should find the upserted target")
	}
	if got.Status != tracer.StatusStable {
		t.Errorf("Status = %q, want stable default", got.Status)
	}
	if !got.LastUpdated.Equal(fixed) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, fixed)
	}
	if !r.Has("bloom_004") || r.Has("bloom_005") {
		t.Error("Has() mismatch")
	}
}

func TestRegistry_UpsertRejectsInvalid(t *testing.T) {
	r := New(nil)
	bad := bloom("bloom_bad")
	bad.Entropy = 1.5

	err := r.Upsert(bad)
	if err == nil {
		t.Fatal("Upsert() should reject out-of-range entropy")
	}
	if !errors.Is(err, errors.ErrInvalidTarget) {
		t.Errorf("error should wrap ErrInvalidTarget: %v", err)
	}
	if !errors.IsValidation(err) {
		t.Errorf("error should classify as validation: %v", err)
	}
	if r.Len() != 0 {
		t.Error("invalid target must not be stored")
	}
}

func TestRegistry_UpsertRejectsNaN(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*tracer.Target)
	}{
		{"entropy", func(t *tracer.Target) { t.Entropy = math.NaN() }},
		{"complexity", func(t *tracer.Target) { t.Complexity = math.NaN() }},
		{"token density", func(t *tracer.Target) { t.TokenDensity = math.NaN() }},
		{"scup utility", func(t *tracer.Target) { t.SCUP.Utility = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(nil)
			target := bloom("bloom_nan")
			tt.mutate(&target)

			if err := r.Upsert(target); !errors.Is(err, errors.ErrInvalidTarget) {
				t.Errorf("Upsert() error = %v, want ErrInvalidTarget", err)
			}
			if r.Len() != 0 {
				t.Error("target with NaN attribute must not be stored")
			}
		})
	}
}

func TestRegistry_NormalizesIDs(t *testing.T) {
	r := New(nil)
	var changed []string
	r.WatchChanges(func(id string) { changed = append(changed, id) })

	if err := r.Upsert(bloom(" bloom_001\t")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := r.Upsert(bloom("bloom_001")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	got, ok := r.Get(" bloom_001")
	if !ok || got.ID != "bloom_001" {
		t.Errorf("Get(\" bloom_001\") = %q, %v, want bloom_001", got.ID, ok)
	}
	if diff := cmp.Diff([]string{"bloom_001", "bloom_001"}, changed); diff != "" {
		t.Errorf("change notifications mismatch (-want +got):\n%s", diff)
	}
	if !r.Remove("bloom_001 ") {
		t.Error("Remove() with padded id should find the target")
	}
}

func TestRegistry_ChangeHandlersAndEvents(t *testing.T) {
	bus := event.NewBus()
	var types []string
	bus.SubscribeAll(func(e event.Event) { types = append(types, e.EventType()) })

	r := New(bus)
	var changed []string
	r.WatchChanges(func(id string) { changed = append(changed, id) })

	_ = r.Upsert(bloom("a"))
	_ = r.Upsert(bloom("a"))
	r.Remove("a")
	r.Remove("missing")

	if diff := cmp.Diff([]string{"a", "a", "a"}, changed); diff != "" {
		t.Errorf("changed ids mismatch (-want +got):\n%s", diff)
	}
	want := []string{event.TypeTargetUpserted, event.TypeTargetUpserted, event.TypeTargetRemoved}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("event types mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_UpsertCreatedFlag(t *testing.T) {
	bus := event.NewBus()
	var created []bool
	bus.Subscribe(event.TypeTargetUpserted, func(e event.Event) {
		created = append(created, e.(event.TargetUpsertedEvent).Created)
	})

	r := New(bus)
	_ = r.Upsert(bloom("a"))
	_ = r.Upsert(bloom("a"))

	if diff := cmp.Diff([]bool{true, false}, created); diff != "" {
		t.Errorf("created flags mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := New(nil)
	for _, id := range []string{"c", "a", "b"} {
		_ = r.Upsert(bloom(id))
	}

	var ids []string
	for _, tgt := range r.List() {
		ids = append(ids, tgt.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Match(t *testing.T) {
	r := New(nil)
	for _, id := range []string{"bloom_001", "bloom_004", "bloom_010", "seed_1"} {
		_ = r.Upsert(bloom(id))
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"bloom_00*", []string{"bloom_001", "bloom_004"}},
		{"bloom_{001,010}", []string{"bloom_001", "bloom_010"}},
		{"*", []string{"bloom_001", "bloom_004", "bloom_010", "seed_1"}},
		{"none*", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := r.Match(tt.pattern)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := r.Match("bloom_[0"); err == nil {
		t.Error("Match() should reject an invalid pattern")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New(event.NewBus())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("bloom_%d", i%10)
			_ = r.Upsert(bloom(id))
			r.Get(id)
			r.List()
		}(i)
	}
	wg.Wait()

	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}
}
