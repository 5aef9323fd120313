package clock

import (
	"testing"
	"time"
)

func TestFake_FiresInDeadlineOrder(t *testing.T) {
	f := NewFake()
	var got []string

	f.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	f.Advance(99 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired early: %v", got)
	}

	f.Advance(time.Second)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if f.Now() != 1099*time.Millisecond {
		t.Errorf("Now() = %v, want 1.099s", f.Now())
	}
}

func TestFake_CallbackSeesItsDeadline(t *testing.T) {
	f := NewFake()
	var at time.Duration
	f.AfterFunc(250*time.Millisecond, func() { at = f.Now() })
	f.Advance(time.Second)
	if at != 250*time.Millisecond {
		t.Errorf("callback saw Now() = %v, want 250ms", at)
	}
}

func TestFake_RescheduleWithinWindow(t *testing.T) {
	f := NewFake()
	count := 0
	var tick func()
	tick = func() {
		count++
		f.AfterFunc(100*time.Millisecond, tick)
	}
	f.AfterFunc(100*time.Millisecond, tick)

	f.Advance(550 * time.Millisecond)
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}
}

func TestFake_Stop(t *testing.T) {
	f := NewFake()
	fired := false
	timer := f.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop on pending timer returned false")
	}
	if timer.Stop() {
		t.Error("second Stop returned true")
	}
	f.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestReal_Now(t *testing.T) {
	r := New()
	a := r.Now()
	b := r.Now()
	if b < a {
		t.Errorf("monotonic time went backwards: %v then %v", a, b)
	}
}
