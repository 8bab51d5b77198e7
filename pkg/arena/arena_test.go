package arena

import (
	"errors"
	"testing"
)

type position struct{ X, Y int }

type health struct{ Amount int }

func TestInsertReadWrite(t *testing.T) {
	a := New()
	h := Insert(a, position{X: 1, Y: 2})

	if !a.Contains(h) {
		t.Fatalf("Contains(%v) = false, want true", h)
	}
	if !Is[position](a, h) {
		t.Errorf("Is[position] = false, want true")
	}
	if Is[health](a, h) {
		t.Errorf("Is[health] = true, want false")
	}

	r, err := Read[position](a, h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := *r.Value(); got != (position{1, 2}) {
		t.Errorf("Value() = %+v, want {1 2}", got)
	}
	r.Close()

	w, err := Write[position](a, h)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Value().X = 10
	w.Close()

	r, err = Read[position](a, h)
	if err != nil {
		t.Fatalf("Read after write: %v", err)
	}
	defer r.Close()
	if r.Value().X != 10 {
		t.Errorf("X = %d, want 10", r.Value().X)
	}
}

func TestTypeMismatch(t *testing.T) {
	a := New()
	h := Insert(a, position{})

	if _, err := Read[health](a, h); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Read[health] err = %v, want ErrTypeMismatch", err)
	}
	if _, err := Write[health](a, h); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Write[health] err = %v, want ErrTypeMismatch", err)
	}
}

func TestRemoveInvalidatesHandle(t *testing.T) {
	a := New()
	h := Insert(a, health{Amount: 3})

	if err := a.Remove(h); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if a.Contains(h) {
		t.Error("Contains after Remove = true, want false")
	}
	if err := a.Remove(h); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove err = %v, want ErrNotFound", err)
	}
	if _, err := Read[health](a, h); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after Remove err = %v, want ErrNotFound", err)
	}
}

func TestSlotReuseBumpsGeneration(t *testing.T) {
	a := New()
	old := Insert(a, health{Amount: 1})
	if err := a.Remove(old); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	fresh := Insert(a, health{Amount: 2})
	if fresh.Slot() != old.Slot() {
		t.Fatalf("slot not recycled: old %d, fresh %d", old.Slot(), fresh.Slot())
	}
	if fresh.Generation() == old.Generation() {
		t.Error("generation not bumped on reuse")
	}

	// The stale handle must not alias the new value.
	if a.Contains(old) {
		t.Error("stale handle still contained")
	}
	if _, err := Read[health](a, old); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read with stale handle err = %v, want ErrNotFound", err)
	}
	r, err := Read[health](a, fresh)
	if err != nil {
		t.Fatalf("Read fresh: %v", err)
	}
	defer r.Close()
	if r.Value().Amount != 2 {
		t.Errorf("Amount = %d, want 2", r.Value().Amount)
	}
}

func TestAccessExclusivity(t *testing.T) {
	a := New()
	h := Insert(a, position{})

	r1, err := Read[position](a, h)
	if err != nil {
		t.Fatalf("first Read: %v", err)
	}
	r2, err := Read[position](a, h)
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}

	// Shared readers exclude a writer.
	if _, err := Write[position](a, h); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Write with readers err = %v, want ErrAccessDenied", err)
	}
	r1.Close()
	if _, err := Write[position](a, h); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Write with one reader err = %v, want ErrAccessDenied", err)
	}
	r2.Close()

	w, err := Write[position](a, h)
	if err != nil {
		t.Fatalf("Write after readers closed: %v", err)
	}

	// An exclusive writer excludes everyone, including removal.
	if _, err := Read[position](a, h); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Read with writer err = %v, want ErrAccessDenied", err)
	}
	if _, err := Write[position](a, h); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("second Write err = %v, want ErrAccessDenied", err)
	}
	if err := a.Remove(h); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Remove with writer err = %v, want ErrAccessDenied", err)
	}

	w.Close()
	w.Close() // idempotent
	if err := a.Remove(h); err != nil {
		t.Fatalf("Remove after Close: %v", err)
	}
}

func TestHandlesAndIteration(t *testing.T) {
	a := New()
	Insert(a, position{X: 1})
	Insert(a, position{X: 2})
	hp := Insert(a, health{Amount: 9})

	if a.Len() != 3 {
		t.Fatalf("Len = %d, want 3", a.Len())
	}

	var all []Handle
	for h := range a.Handles() {
		all = append(all, h)
	}
	if len(all) != 3 {
		t.Errorf("Handles yielded %d, want 3", len(all))
	}

	sum := 0
	for _, g := range Iter[position](a) {
		sum += g.Value().X
	}
	if sum != 3 {
		t.Errorf("sum of X = %d, want 3", sum)
	}

	for _, g := range IterMut[health](a) {
		g.Value().Amount--
	}
	r, err := Read[health](a, hp)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer r.Close()
	if r.Value().Amount != 8 {
		t.Errorf("Amount = %d, want 8", r.Value().Amount)
	}
}

func TestInsertRaw(t *testing.T) {
	a := New()
	tag := TagFor[position]()

	ptr := &position{X: 7}
	h, err := a.InsertRaw(tag, ptr)
	if err != nil {
		t.Fatalf("InsertRaw: %v", err)
	}
	raw, err := a.RawValue(h)
	if err != nil {
		t.Fatalf("RawValue: %v", err)
	}
	if raw.(*position).X != 7 {
		t.Errorf("X = %d, want 7", raw.(*position).X)
	}

	if _, err := a.InsertRaw(tag, position{}); !errors.Is(err, ErrBadValue) {
		t.Errorf("InsertRaw non-pointer err = %v, want ErrBadValue", err)
	}
	if _, err := a.InsertRaw(tag, &health{}); !errors.Is(err, ErrBadValue) {
		t.Errorf("InsertRaw wrong type err = %v, want ErrBadValue", err)
	}
	if _, err := a.InsertRaw(Tag{}, ptr); !errors.Is(err, ErrBadValue) {
		t.Errorf("InsertRaw zero tag err = %v, want ErrBadValue", err)
	}
}

func TestClear(t *testing.T) {
	a := New()
	h1 := Insert(a, position{})
	h2 := Insert(a, health{})

	a.Clear()
	if a.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", a.Len())
	}
	if a.Contains(h1) || a.Contains(h2) {
		t.Error("handles still contained after Clear")
	}
	if len(a.Tags()) != 0 {
		t.Errorf("Tags after Clear = %v, want none", a.Tags())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	entry := RegisterType[position](r)
	if entry.Name != "position" {
		t.Errorf("Name = %q, want position", entry.Name)
	}
	if entry.Module == "" {
		t.Error("Module is empty for a named type")
	}

	// Re-registering is a no-op.
	again := RegisterType[position](r)
	if again != entry {
		t.Errorf("second registration = %+v, want %+v", again, entry)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	byTag, err := r.Lookup(TagFor[position]())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	byName, err := r.LookupName(entry.Name, entry.Module)
	if err != nil {
		t.Fatalf("LookupName: %v", err)
	}
	if byTag != byName {
		t.Errorf("Lookup mismatch: %+v vs %+v", byTag, byName)
	}

	if _, err := r.Lookup(TagFor[health]()); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Lookup unregistered err = %v, want ErrNotRegistered", err)
	}
	if _, err := r.LookupName("nope", ""); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("LookupName unregistered err = %v, want ErrNotRegistered", err)
	}

	ptr := entry.New()
	if _, ok := ptr.(*position); !ok {
		t.Errorf("New() = %T, want *position", ptr)
	}
}
