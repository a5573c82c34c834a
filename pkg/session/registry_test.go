package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/flowscope/pkg/config"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	var removed []string
	r.OnRemove(func(id string) { removed = append(removed, id) })

	a, _ := New(diamond(t), config.Default(), WithID("a"))
	b, _ := New(diamond(t), config.Default(), WithID("b"))
	ta := NewManualTicker()
	r.Add(context.Background(), a, ta)
	r.Add(context.Background(), b, NewManualTicker())

	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
	got, err := r.Get("a")
	if err != nil || got != a {
		t.Fatalf("Get(a) = %v, %v", got, err)
	}
	if _, err := r.Get("zz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(zz) err = %v", err)
	}
	if list := r.List(); len(list) != 2 || list[0] != a {
		t.Errorf("List = %v", list)
	}

	ta.Fire()
	ta.Fire()

	if err := r.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
	if got := a.Layout().Ticks; got != 2 {
		t.Errorf("ticks = %d, want 2", got)
	}
	if len(removed) != 1 || removed[0] != "a" {
		t.Errorf("removed = %v", removed)
	}
}

func TestRegistryCleanup(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	defer r.Close()

	s, _ := New(diamond(t), config.Default())
	r.Add(context.Background(), s, NewManualTicker())
	time.Sleep(5 * time.Millisecond)

	if n := r.Cleanup(); n != 1 {
		t.Errorf("Cleanup removed %d sessions, want 1", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d after cleanup", r.Len())
	}
}
