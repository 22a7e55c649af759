package amplifier

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strconv"
	"sync"

	"intcode/pkg/intcode"

	"golang.org/x/sync/errgroup"
)

var (
	ErrDuplicatePhase = errors.New("duplicate phase value")
	ErrNoResult       = errors.New("every phase ordering failed")
)

// FaultPolicy decides what a search does when one permutation faults.
type FaultPolicy int

const (
	AbortOnFault FaultPolicy = iota // the first fault fails the whole search
	SkipFaulting                    // faulting permutations are left out of the maximum
)

func (p FaultPolicy) String() string {
	switch p {
	case AbortOnFault:
		return "abort"
	case SkipFaulting:
		return "skip"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseFaultPolicy accepts "abort" or "skip".
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch s {
	case "", "abort":
		return AbortOnFault, nil
	case "skip":
		return SkipFaulting, nil
	default:
		return 0, fmt.Errorf("unknown fault policy %q", s)
	}
}

// Result is the best phase ordering found by a search.
type Result struct {
	Signal Word
	Phases []Word
}

// better orders results by signal, then by the lexicographically greater
// phase ordering, so the winner does not depend on worker scheduling.
func (r Result) better(other Result) bool {
	if r.Signal != other.Signal {
		return r.Signal > other.Signal
	}
	return slices.Compare(r.Phases, other.Phases) > 0
}

type searchConfig struct {
	workers int
	policy  FaultPolicy
}

type SearchOption func(*searchConfig)

// WithWorkers bounds the number of concurrent evaluations. n <= 0 means GOMAXPROCS.
func WithWorkers(n int) SearchOption {
	return func(c *searchConfig) {
		c.workers = n
	}
}

func WithFaultPolicy(p FaultPolicy) SearchOption {
	return func(c *searchConfig) {
		c.policy = p
	}
}

// Search tries every ordering of the phases 0..stages-1.
func (n *Network) Search(ctx context.Context, stages int, opts ...SearchOption) (Result, error) {
	if stages < 0 {
		return Result{}, fmt.Errorf("negative stage count %d", stages)
	}
	phases := make([]Word, stages)
	for i := range phases {
		phases[i] = Word(i)
	}
	return n.SearchPhases(ctx, phases, opts...)
}

// SearchPhases tries every ordering of a set of distinct phase values and
// returns the ordering with the highest final signal.
func (n *Network) SearchPhases(ctx context.Context, phases []Word, opts ...SearchOption) (Result, error) {
	cfg := searchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}

	sorted := slices.Clone(phases)
	slices.Sort(sorted)
	if i := firstDuplicate(sorted); i >= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrDuplicatePhase, sorted[i])
	}

	log.Infof("searching %s orderings of phases %v with %d workers", countString(len(phases)), phases, cfg.workers)

	var (
		mu       sync.Mutex
		best     Result
		found    bool
		skipped  int
		faulted  int
		searched int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for perm := range Permutations(sorted) {
		if gctx.Err() != nil {
			break
		}
		searched++
		g.Go(func() error {
			signal, err := n.Run(perm)
			if err != nil {
				if cfg.policy == SkipFaulting {
					fault := intcode.IsFault(err)
					if fault {
						log.Debugf("skipping phases %v, machine fault: %v", perm, err)
					} else {
						log.Debugf("skipping phases %v: %v", perm, err)
					}
					mu.Lock()
					skipped++
					if fault {
						faulted++
					}
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("phases %v: %w", perm, err)
			}
			candidate := Result{Signal: signal, Phases: perm}
			mu.Lock()
			if !found || candidate.better(best) {
				best = candidate
				found = true
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !found {
		return Result{}, ErrNoResult
	}
	if skipped > 0 {
		log.Warningf("skipped %d of %d orderings (%d machine faults, %d without a signal)", skipped, searched, faulted, skipped-faulted)
	}
	log.Infof("best signal %d at phases %v", best.Signal, best.Phases)
	return best, nil
}

// countString renders n! for logs; counts past uint64 are shown as n!.
func countString(n int) string {
	if c := Count(n); c != math.MaxUint64 {
		return strconv.FormatUint(c, 10)
	}
	return fmt.Sprintf("%d!", n)
}

func firstDuplicate[T cmp.Ordered](sorted []T) int {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return i
		}
	}
	return -1
}
