package intcode

import (
	"slices"

	"intcode/pkg/memory"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("intcode")

// Machine is a single Intcode machine. It is not safe for concurrent use.
type Machine struct {
	InstructionCounter Word
	memory             *memory.Memory
	inputs             []Word
	outputs            []Word
	halted             bool
	fault              error
	steps              uint64
	id                 string
	memorySize         int
}

type Option func(*Machine)

// WithMemorySize zero-extends memory to at least size words.
func WithMemorySize(size int) Option {
	return func(m *Machine) {
		m.memorySize = size
	}
}

// WithName tags the machine's trace lines.
func WithName(name string) Option {
	return func(m *Machine) {
		m.id = name
	}
}

// New builds a machine over a private copy of program with inputs queued in order.
func New(program []Word, inputs []Word, opts ...Option) *Machine {
	m := &Machine{
		inputs:  slices.Clone(inputs),
		outputs: make([]Word, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.memory = memory.NewSized(program, m.memorySize)
	return m
}

// Run steps until the machine halts or faults.
func (m *Machine) Run() error {
	for {
		running, err := m.Step()
		if err != nil {
			return err
		}
		if !running {
			if log.AllowLevel(commonlog.Debug) {
				log.Debugf("%s: halted after %d steps with %d outputs", m.name(), m.steps, len(m.outputs))
			}
			return nil
		}
	}
}

// LastOutput returns the most recent output, if any.
func (m *Machine) LastOutput() (Word, bool) {
	if len(m.outputs) == 0 {
		return 0, false
	}
	return m.outputs[len(m.outputs)-1], true
}

// Outputs returns a copy of the output log.
func (m *Machine) Outputs() []Word {
	return slices.Clone(m.outputs)
}

// Memory returns a copy of the current memory.
func (m *Machine) Memory() []Word {
	return m.memory.Snapshot()
}

// PendingInputs is the number of queued inputs not yet consumed.
func (m *Machine) PendingInputs() int {
	return len(m.inputs)
}

func (m *Machine) Halted() bool {
	return m.halted
}

// Err returns the fault that stopped the machine, or nil.
func (m *Machine) Err() error {
	return m.fault
}

// Steps counts executed instructions, the faulting one excluded.
func (m *Machine) Steps() uint64 {
	return m.steps
}

func (m *Machine) name() string {
	if m.id == "" {
		return "machine"
	}
	return m.id
}

// Evaluate runs program with addresses 1 and 2 replaced by noun and verb
// and returns the value left at address 0.
func Evaluate(program []Word, noun, verb Word, opts ...Option) (Word, error) {
	m := New(program, nil, opts...)
	if err := m.memory.Mutate(1, noun); err != nil {
		return 0, wrapFault(AddressFault, 0, 0, err)
	}
	if err := m.memory.Mutate(2, verb); err != nil {
		return 0, wrapFault(AddressFault, 0, 0, err)
	}
	if err := m.Run(); err != nil {
		return 0, err
	}
	return m.memory.Inspect(0)
}
