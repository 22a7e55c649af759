package amplifier

import (
	"errors"
	"fmt"
	"slices"

	"intcode/pkg/intcode"

	"github.com/tliron/commonlog"
)

type Word = intcode.Word

var log = commonlog.GetLogger("amplifier")

// ErrNoSignal is returned when a stage halts without emitting any output.
var ErrNoSignal = errors.New("stage halted without output")

// StageError reports which stage of a network failed.
type StageError struct {
	Stage int
	Phase Word
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (phase %d): %v", e.Stage, e.Phase, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Network chains fresh machines built from one shared program image.
type Network struct {
	program []Word
	opts    []intcode.Option
}

// NewNetwork copies program; opts are applied to every stage machine.
func NewNetwork(program []Word, opts ...intcode.Option) *Network {
	return &Network{
		program: slices.Clone(program),
		opts:    opts,
	}
}

// Program returns a copy of the shared image.
func (n *Network) Program() []Word {
	return slices.Clone(n.program)
}

// Run feeds each stage [phase, signal] and passes its last output on.
// The signal starts at 0.
func (n *Network) Run(phases []Word) (Word, error) {
	var signal Word
	for stage, phase := range phases {
		next, err := n.runStage(stage, phase, signal)
		if err != nil {
			return 0, &StageError{Stage: stage, Phase: phase, Err: err}
		}
		signal = next
	}
	return signal, nil
}

func (n *Network) runStage(stage int, phase, signal Word) (Word, error) {
	opts := append(slices.Clip(n.opts), intcode.WithName(fmt.Sprintf("stage %d", stage)))
	m := intcode.New(n.program, []Word{phase, signal}, opts...)
	if err := m.Run(); err != nil {
		return 0, err
	}
	out, ok := m.LastOutput()
	if !ok {
		return 0, ErrNoSignal
	}
	return out, nil
}
