package playback

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newController(t *testing.T, n int) *Controller {
	t.Helper()
	c, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	return c
}

func TestNew(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := New(n); !errors.Is(err, ErrEmpty) {
			t.Errorf("New(%d) err = %v, want ErrEmpty", n, err)
		}
	}
	c := newController(t, 4)
	if c.Index() != 0 || c.Len() != 4 || !c.AtStart() || c.AtEnd() {
		t.Errorf("fresh controller: index=%d len=%d", c.Index(), c.Len())
	}
}

func TestSetFrameClamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0},
		{999, 9},
		{0, 0},
		{9, 9},
		{4, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			c := newController(t, 10)
			if got := c.SetFrame(tt.in); got != tt.want {
				t.Errorf("SetFrame(%d) = %d, want %d", tt.in, got, tt.want)
			}
			if c.Index() != tt.want {
				t.Errorf("Index() = %d, want %d", c.Index(), tt.want)
			}
		})
	}
}

func TestStepping(t *testing.T) {
	c := newController(t, 3)
	if c.Previous() != 0 {
		t.Error("Previous at start moved")
	}
	if c.Next() != 1 || c.Next() != 2 {
		t.Error("Next did not advance")
	}
	if c.Next() != 2 || !c.AtEnd() {
		t.Error("Next at end moved or wrapped")
	}
	if c.First() != 0 || c.Last() != 2 {
		t.Error("First/Last")
	}
}

func TestSingleFrame(t *testing.T) {
	c := newController(t, 1)
	for _, got := range []int{c.Next(), c.Previous(), c.SetFrame(7), c.SetFrame(-7), c.Last()} {
		if got != 0 {
			t.Fatalf("single-frame trace moved to %d", got)
		}
	}
}

func TestSubscribe(t *testing.T) {
	c := newController(t, 5)
	var events [][2]int
	var order []string
	unsubscribe := c.Subscribe(func(prev, cur int) {
		events = append(events, [2]int{prev, cur})
		order = append(order, "first")
	})
	c.Subscribe(func(int, int) { order = append(order, "second") })

	c.SetFrame(3)
	c.SetFrame(3)
	c.Next()

	want := [][2]int{{0, 3}, {3, 3}, {3, 4}}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if len(order) != 6 || order[0] != "first" || order[1] != "second" {
		t.Errorf("listeners ran in order %v", order)
	}

	unsubscribe()
	c.First()
	if len(events) != 3 {
		t.Errorf("unsubscribed listener still notified: %v", events)
	}
}

func TestSetFrameProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("setFrame is total", prop.ForAll(
		func(n, i int) bool {
			c, err := New(n)
			if err != nil {
				return false
			}
			got := c.SetFrame(i)
			return got >= 0 && got < n && got == c.Index()
		},
		gen.IntRange(1, 1000),
		gen.Int(),
	))

	properties.Property("setFrame is idempotent", prop.ForAll(
		func(n, i int) bool {
			c, err := New(n)
			if err != nil {
				return false
			}
			once := c.SetFrame(i)
			return c.SetFrame(once) == once
		},
		gen.IntRange(1, 1000),
		gen.Int(),
	))

	properties.Property("next then previous returns inside the trace", prop.ForAll(
		func(n, i int) bool {
			c, err := New(n)
			if err != nil {
				return false
			}
			start := c.SetFrame(i)
			c.Next()
			got := c.Previous()
			if start == n-1 {
				return got == max(0, n-2)
			}
			return got == start
		},
		gen.IntRange(1, 50),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
