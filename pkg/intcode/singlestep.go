package intcode

import (
	"github.com/tliron/commonlog"
)

// Step executes the instruction at the instruction counter. It returns
// false once the machine has executed Exit, and keeps returning false
// (with the same error, if it faulted) on every later call.
func (m *Machine) Step() (bool, error) {
	if m.fault != nil {
		return false, m.fault
	}
	if m.halted {
		return false, nil
	}

	running, err := m.step()
	if err != nil {
		m.fault = err
		if log.AllowLevel(commonlog.Debug) {
			log.Debugf("%s: %v", m.name(), err)
		}
		return false, err
	}
	return running, nil
}

func (m *Machine) step() (bool, error) {
	ic := m.InstructionCounter

	word, err := m.memory.Inspect(ic)
	if err != nil {
		return false, wrapFault(AddressFault, ic, 0, err)
	}

	instruction, err := Decode(word)
	if err != nil {
		return false, wrapFault(DecodeFault, ic, word, err)
	}
	op := instruction.Op

	args, err := m.resolveArgs(ic, instruction)
	if err != nil {
		return false, wrapFault(AddressFault, ic, word, err)
	}

	outcome := op.Apply(args)

	switch outcome.Kind {
	case OutcomeWrite, OutcomeInput:
		value := outcome.Value
		if outcome.Kind == OutcomeInput {
			if len(m.inputs) == 0 {
				return false, faultf(InputStarvedFault, ic, word, "no queued input")
			}
			value = m.inputs[0]
		}
		target, err := m.memory.Inspect(ic + 1 + Word(op.Inputs()))
		if err != nil {
			return false, wrapFault(AddressFault, ic, word, err)
		}
		if err := m.memory.Mutate(target, value); err != nil {
			return false, wrapFault(AddressFault, ic, word, err)
		}
		if outcome.Kind == OutcomeInput {
			m.inputs = m.inputs[1:]
		}
	case OutcomeOutput:
		m.outputs = append(m.outputs, outcome.Value)
	}

	if outcome.Kind == OutcomeJump {
		m.InstructionCounter = outcome.Value
	} else {
		m.InstructionCounter = ic + 1 + Word(op.Params())
	}
	m.steps++

	if log.AllowLevel(commonlog.Debug) {
		log.Debugf("%s: ic=%d word=%d instruction=%s args=%v next=%d", m.name(), ic, word, instruction, args, m.InstructionCounter)
	}

	if op == OpExit {
		m.halted = true
		return false, nil
	}
	return true, nil
}

// resolveArgs reads the input parameters following the word at ic.
func (m *Machine) resolveArgs(ic Word, instruction Instruction) ([]Word, error) {
	raws, err := m.memory.InspectRange(ic+1, len(instruction.Modes))
	if err != nil {
		return nil, err
	}
	args := make([]Word, len(raws))
	for i, mode := range instruction.Modes {
		switch raw := raws[i]; mode {
		case Immediate:
			args[i] = raw
		default:
			value, err := m.memory.Inspect(raw)
			if err != nil {
				return nil, err
			}
			args[i] = value
		}
	}
	return args, nil
}
