package registry

import (
	"reflect"
	"testing"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewBaseRegistry[int]()

	if err := r.Register("alpha", 1); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, ok := r.Get("alpha")
	if !ok || got != 1 {
		t.Errorf("Get(alpha) = %v, %v", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) returned ok")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewBaseRegistry[int]()

	if err := r.Register("alpha", 1); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("alpha", 2); err == nil {
		t.Fatal("expected error for duplicate name")
	}
	if err := r.Register("", 3); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestNamesAndListSorted(t *testing.T) {
	r := NewBaseRegistry[string]()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(name, name+"-item"); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	wantNames := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(r.Names(), wantNames) {
		t.Errorf("Names() = %v, want %v", r.Names(), wantNames)
	}

	wantItems := []string{"alpha-item", "mid-item", "zeta-item"}
	if !reflect.DeepEqual(r.List(), wantItems) {
		t.Errorf("List() = %v, want %v", r.List(), wantItems)
	}
}

func TestRemoveAndClear(t *testing.T) {
	r := NewBaseRegistry[int]()
	_ = r.Register("alpha", 1)
	_ = r.Register("beta", 2)

	if err := r.Remove("alpha"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := r.Remove("alpha"); err == nil {
		t.Fatal("expected error removing absent item")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	r.Clear()
	if r.Count() != 0 {
		t.Errorf("Count() after Clear = %d", r.Count())
	}
}
