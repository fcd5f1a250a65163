package dynamo

import (
	"errors"
	"math"
	"testing"
)

var (
	sigA = NewSignal("a")
	sigB = NewSignal("b")
	sigC = NewSignal("c")
	sigD = NewSignal("d")
)

func TestSignalIdentity(t *testing.T) {
	x1 := NewSignal("x")
	x2 := NewSignal("x")

	if x1 == x2 {
		t.Error("signals with the same label must be distinct")
	}
	if x1.Label() != "x" || x2.Label() != "x" {
		t.Errorf("unexpected labels %q %q", x1.Label(), x2.Label())
	}
	if !x1.Valid() {
		t.Error("NewSignal returned an invalid signal")
	}
	if (Signal{}).Valid() {
		t.Error("zero signal should be invalid")
	}

	bus := Bus{x1: 1}
	if bus.Contains(x2) {
		t.Error("bus lookup must not match by label")
	}
}

func TestSum(t *testing.T) {
	bus1 := Bus{sigA: 1, sigB: 12, sigC: 1.1}
	bus2 := Bus{sigA: 3, sigB: 8, sigC: 0.9}
	bus3 := Bus{sigA: 10, sigB: 20, sigC: 0}

	sum := Sum(bus1, bus2, bus3)
	if sum[sigA] != 14 || sum[sigB] != 40 || sum[sigC] != 2.0 {
		t.Errorf("Sum failed: got %v", sum)
	}
}

func TestSum_MissingSignalsCountAsZero(t *testing.T) {
	sum := Sum(Bus{sigA: 1}, Bus{sigB: 2}, nil)
	if len(sum) != 2 || sum[sigA] != 1 || sum[sigB] != 2 {
		t.Errorf("Sum failed: got %v", sum)
	}
}

func TestSum_CommutativeAssociative(t *testing.T) {
	x := Bus{sigA: 1.5, sigB: -2}
	y := Bus{sigB: 4, sigC: 0.25}
	z := Bus{sigA: -7, sigD: 3}

	left := Sum(Sum(x, y), z)
	right := Sum(x, Sum(z, y))
	flat := Sum(z, y, x)

	for _, s := range []Signal{sigA, sigB, sigC, sigD} {
		if left[s] != right[s] || left[s] != flat[s] {
			t.Errorf("signal %s: %v %v %v", s, left[s], right[s], flat[s])
		}
	}
}

func TestScale(t *testing.T) {
	bus := Bus{sigA: 1, sigB: 12, sigC: -1.2, sigD: 0}

	tests := []struct {
		k    float64
		want Bus
	}{
		{1, Bus{sigA: 1, sigB: 12, sigC: -1.2, sigD: 0}},
		{10, Bus{sigA: 10, sigB: 120, sigC: -12, sigD: 0}},
		{-1, Bus{sigA: -1, sigB: -12, sigC: 1.2, sigD: 0}},
		{0, Bus{sigA: 0, sigB: 0, sigC: 0, sigD: 0}},
	}

	for _, tt := range tests {
		got := Scale(bus, tt.k)
		if len(got) != len(tt.want) {
			t.Fatalf("Scale(%v) size = %d", tt.k, len(got))
		}
		for s, v := range tt.want {
			if math.Abs(got[s]-v) > 1e-12 {
				t.Errorf("Scale(%v)[%s] = %v, want %v", tt.k, s, got[s], v)
			}
		}
	}

	if bus[sigA] != 1 {
		t.Error("Scale mutated its argument")
	}
}

func TestContains(t *testing.T) {
	var nilBus Bus
	if nilBus.Contains(sigA) {
		t.Error("nil bus should contain nothing")
	}
	if !(Bus{sigA: 0}).Contains(sigA) {
		t.Error("zero value should still be present")
	}
}

func TestSignalsOrdered(t *testing.T) {
	bus := Bus{sigD: 4, sigA: 1, sigC: 3}
	got := bus.Signals()
	want := []Signal{sigA, sigC, sigD}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Signals() = %v, want %v", got, want)
		}
	}
}

func TestCheck(t *testing.T) {
	err := Check(Bus{sigA: 1}, "blk", "input", []Signal{sigA, sigB})
	if !errors.Is(err, ErrMissingSignal) {
		t.Fatalf("expected ErrMissingSignal, got %v", err)
	}

	var se *SignalError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SignalError, got %T", err)
	}
	if se.Signal != sigB || se.Block != "blk" || se.Role != "input" {
		t.Errorf("unexpected error fields: %+v", se)
	}

	if err := Check(nil, "blk", "input", nil); err != nil {
		t.Errorf("empty declaration should pass, got %v", err)
	}
}
