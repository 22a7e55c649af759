package amplifier

import (
	"context"
	"errors"
	"math"
	"testing"

	"intcode/pkg/intcode"

	"github.com/google/go-cmp/cmp"
)

type amplifierVector struct {
	name    string
	program []Word
	phases  []Word
	signal  Word
}

var amplifierVectors = []amplifierVector{
	{
		name:    "multiply by ten",
		program: []Word{3, 15, 3, 16, 1002, 16, 10, 16, 1, 16, 15, 15, 4, 15, 99, 0, 0},
		phases:  []Word{4, 3, 2, 1, 0},
		signal:  43210,
	},
	{
		name: "negated phase",
		program: []Word{
			3, 23, 3, 24, 1002, 24, 10, 24, 1002, 23, -1, 23, 101, 5, 23, 23, 1, 24, 23, 23, 4, 23, 99,
			0, 0,
		},
		phases: []Word{0, 1, 2, 3, 4},
		signal: 54321,
	},
	{
		name: "clamped phase",
		program: []Word{
			3, 31, 3, 32, 1002, 32, 10, 32, 1001, 31, -2, 31, 1007, 31, 0, 33, 1002, 33, 7, 33, 1, 33,
			31, 31, 1, 32, 31, 31, 4, 31, 99, 0, 0, 0,
		},
		phases: []Word{1, 0, 4, 3, 2},
		signal: 65210,
	},
}

// faultsOnLeadingZero appends the phase digit to the signal, but hits an
// unknown opcode when phase and signal are both 0, so every ordering that
// starts with phase 0 faults.
var faultsOnLeadingZero = []Word{
	3, 30, 3, 31, 1, 30, 31, 32, 1005, 32, 12, 42, 1002, 31, 10, 33, 1, 33, 30, 33, 4, 33, 99,
	0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0,
}

// incrementSignal ignores its phase and outputs signal+1.
var incrementSignal = []Word{3, 11, 3, 12, 101, 1, 12, 12, 4, 12, 99, 0, 0}

func TestNetworkRun(t *testing.T) {
	for _, tv := range amplifierVectors {
		t.Run(tv.name, func(t *testing.T) {
			got, err := NewNetwork(tv.program).Run(tv.phases)
			if err != nil {
				t.Fatalf("Run(%v): %v", tv.phases, err)
			}
			if got != tv.signal {
				t.Errorf("Run(%v) = %d, want %d", tv.phases, got, tv.signal)
			}
		})
	}
}

func TestNetworkDoesNotShareMemory(t *testing.T) {
	tv := amplifierVectors[0]
	program := append([]Word(nil), tv.program...)
	network := NewNetwork(program)
	program[0] = 99

	for i := 0; i < 3; i++ {
		got, err := network.Run(tv.phases)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if got != tv.signal {
			t.Errorf("run %d = %d, want %d", i, got, tv.signal)
		}
	}
	if diff := cmp.Diff(tv.program, network.Program()); diff != "" {
		t.Errorf("shared image changed (-want +got):\n%s", diff)
	}
}

func TestNetworkEmptyPhases(t *testing.T) {
	got, err := NewNetwork(incrementSignal).Run(nil)
	if err != nil || got != 0 {
		t.Errorf("Run(nil) = %d, %v; want seed 0", got, err)
	}
}

func TestNetworkStageErrors(t *testing.T) {
	_, err := NewNetwork(faultsOnLeadingZero).Run([]Word{0, 1, 2})
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error %v is not a *StageError", err)
	}
	if stageErr.Stage != 0 || stageErr.Phase != 0 {
		t.Errorf("stage error at stage %d phase %d, want stage 0 phase 0", stageErr.Stage, stageErr.Phase)
	}
	if !errors.Is(err, intcode.ErrDecode) {
		t.Errorf("error %v does not wrap a decode fault", err)
	}

	// phase 0 is harmless once the signal is non-zero
	got, err := NewNetwork(faultsOnLeadingZero).Run([]Word{2, 0, 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != 201 {
		t.Errorf("Run = %d, want 201", got)
	}

	silent := []Word{3, 5, 3, 5, 99, 0}
	_, err = NewNetwork(silent).Run([]Word{0, 1})
	if !errors.Is(err, ErrNoSignal) {
		t.Errorf("silent stage error = %v, want ErrNoSignal", err)
	}
}

func TestSearch(t *testing.T) {
	for _, tv := range amplifierVectors {
		t.Run(tv.name, func(t *testing.T) {
			got, err := NewNetwork(tv.program).Search(context.Background(), 5)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			want := Result{Signal: tv.signal, Phases: tv.phases}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Search mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchPhasesExplicitSet(t *testing.T) {
	tv := amplifierVectors[0]
	// the set is unordered; the answer is the same as for 0..4
	got, err := NewNetwork(tv.program).SearchPhases(context.Background(), []Word{3, 0, 4, 1, 2}, WithWorkers(2))
	if err != nil {
		t.Fatalf("SearchPhases: %v", err)
	}
	if diff := cmp.Diff(Result{Signal: tv.signal, Phases: tv.phases}, got); diff != "" {
		t.Errorf("SearchPhases mismatch (-want +got):\n%s", diff)
	}

	_, err = NewNetwork(tv.program).SearchPhases(context.Background(), []Word{1, 2, 1})
	if !errors.Is(err, ErrDuplicatePhase) {
		t.Errorf("duplicate phases error = %v, want ErrDuplicatePhase", err)
	}
}

func TestSearchTieBreakIsDeterministic(t *testing.T) {
	want := Result{Signal: 3, Phases: []Word{2, 1, 0}}
	for _, workers := range []int{1, 2, 8} {
		got, err := NewNetwork(incrementSignal).Search(context.Background(), 3, WithWorkers(workers))
		if err != nil {
			t.Fatalf("workers=%d: Search: %v", workers, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("workers=%d: Search mismatch (-want +got):\n%s", workers, diff)
		}
	}
}

func TestSearchFaultPolicy(t *testing.T) {
	network := NewNetwork(faultsOnLeadingZero)

	_, err := network.Search(context.Background(), 5)
	if !errors.Is(err, intcode.ErrDecode) {
		t.Errorf("abort policy error = %v, want decode fault", err)
	}

	got, err := network.Search(context.Background(), 5, WithFaultPolicy(SkipFaulting))
	if err != nil {
		t.Fatalf("skip policy: %v", err)
	}
	if diff := cmp.Diff(Result{Signal: 43210, Phases: []Word{4, 3, 2, 1, 0}}, got); diff != "" {
		t.Errorf("skip policy mismatch (-want +got):\n%s", diff)
	}

	_, err = NewNetwork([]Word{42}).Search(context.Background(), 3, WithFaultPolicy(SkipFaulting))
	if !errors.Is(err, ErrNoResult) {
		t.Errorf("all-faulting search error = %v, want ErrNoResult", err)
	}
}

func TestSearchEdgeCases(t *testing.T) {
	got, err := NewNetwork(incrementSignal).Search(context.Background(), 0)
	if err != nil {
		t.Fatalf("Search(0): %v", err)
	}
	if got.Signal != 0 || len(got.Phases) != 0 {
		t.Errorf("Search(0) = %+v, want zero signal and no phases", got)
	}

	if _, err := NewNetwork(incrementSignal).Search(context.Background(), -1); err == nil {
		t.Error("Search(-1) succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewNetwork(incrementSignal).Search(ctx, 4); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled search error = %v, want context.Canceled", err)
	}
}

func TestPermutations(t *testing.T) {
	var got [][]Word
	for p := range Permutations([]Word{0, 1, 2}) {
		got = append(got, p)
	}
	want := [][]Word{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Permutations mismatch (-want +got):\n%s", diff)
	}

	seen := make(map[[5]Word]bool)
	for p := range Permutations([]Word{0, 1, 2, 3, 4}) {
		var key [5]Word
		copy(key[:], p)
		if seen[key] {
			t.Fatalf("permutation %v yielded twice", p)
		}
		seen[key] = true
	}
	if uint64(len(seen)) != Count(5) || Count(5) != 120 {
		t.Errorf("got %d permutations, Count(5) = %d, want 120", len(seen), Count(5))
	}

	var empty int
	for p := range Permutations(nil) {
		if len(p) != 0 {
			t.Errorf("unexpected permutation %v", p)
		}
		empty++
	}
	if empty != 1 || Count(0) != 1 {
		t.Errorf("empty set: %d permutations, Count(0) = %d; want 1", empty, Count(0))
	}
}

func TestPermutationsStopEarly(t *testing.T) {
	n := 0
	for range Permutations([]Word{0, 1, 2, 3}) {
		n++
		if n == 5 {
			break
		}
	}
	if n != 5 {
		t.Errorf("stopped after %d, want 5", n)
	}
}

func TestParseFaultPolicy(t *testing.T) {
	for in, want := range map[string]FaultPolicy{"": AbortOnFault, "abort": AbortOnFault, "skip": SkipFaulting} {
		got, err := ParseFaultPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseFaultPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
		if in != "" && got.String() != in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), in)
		}
	}
	if _, err := ParseFaultPolicy("retry"); err == nil {
		t.Error("ParseFaultPolicy(retry) succeeded")
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		n    int
		want uint64
	}{
		{0, 1},
		{1, 1},
		{5, 120},
		{10, 3628800},
		{20, 2432902008176640000},
		{21, math.MaxUint64},
		{64, math.MaxUint64},
	}
	for _, tt := range tests {
		if got := Count(tt.n); got != tt.want {
			t.Errorf("Count(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
	if got := countString(5); got != "120" {
		t.Errorf("countString(5) = %q", got)
	}
	if got := countString(25); got != "25!" {
		t.Errorf("countString(25) = %q", got)
	}
}
