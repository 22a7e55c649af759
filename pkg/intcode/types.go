package intcode

import (
	"fmt"

	"intcode/pkg/memory"
)

type Word = memory.Word

// Mode is the addressing mode of one instruction parameter.
type Mode int

const (
	Position  Mode = iota // parameter is an address
	Immediate             // parameter is the value itself
)

func (m Mode) String() string {
	switch m {
	case Position:
		return "position"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Opcode is the two-digit operation selector of an instruction word.
type Opcode Word

const (
	OpAdd         Opcode = 1
	OpMultiply    Opcode = 2
	OpInput       Opcode = 3
	OpOutput      Opcode = 4
	OpJumpIfTrue  Opcode = 5
	OpJumpIfFalse Opcode = 6
	OpLessThan    Opcode = 7
	OpEquals      Opcode = 8
	OpExit        Opcode = 99
)

type opcodeInfo struct {
	name   string
	inputs int  // value-producing parameters
	writes bool // trailing write-address parameter
}

var opcodeTable = map[Opcode]opcodeInfo{
	OpAdd:         {"add", 2, true},
	OpMultiply:    {"mul", 2, true},
	OpInput:       {"in", 0, true},
	OpOutput:      {"out", 1, false},
	OpJumpIfTrue:  {"jnz", 2, false},
	OpJumpIfFalse: {"jz", 2, false},
	OpLessThan:    {"lt", 2, true},
	OpEquals:      {"eq", 2, true},
	OpExit:        {"halt", 0, false},
}

// Known reports whether op is part of the instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Inputs is the number of value-producing parameters.
func (op Opcode) Inputs() int {
	return opcodeTable[op].inputs
}

// Writes reports whether op takes a trailing write-address parameter.
func (op Opcode) Writes() bool {
	return opcodeTable[op].writes
}

// Params is the total parameter count, write target included.
func (op Opcode) Params() int {
	info := opcodeTable[op]
	if info.writes {
		return info.inputs + 1
	}
	return info.inputs
}

func (op Opcode) String() string {
	if info, ok := opcodeTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode(%d)", Word(op))
}

// OutcomeKind is the side effect of one executed operation.
type OutcomeKind int

const (
	OutcomeNone   OutcomeKind = iota
	OutcomeWrite              // write Value to the write target
	OutcomeInput              // pop the input queue into the write target
	OutcomeOutput             // append Value to the output log
	OutcomeJump               // set the instruction pointer to Value
)

type Outcome struct {
	Kind  OutcomeKind
	Value Word
}

func jumpIf(condition bool, target Word) Outcome {
	if condition {
		return Outcome{Kind: OutcomeJump, Value: target}
	}
	return Outcome{Kind: OutcomeNone}
}

func boolWord(b bool) Word {
	if b {
		return 1
	}
	return 0
}

// Apply computes the outcome of op on its resolved input values.
// len(args) must equal op.Inputs(). Add and Multiply wrap around on int64
// overflow like any Go integer arithmetic; no fault is raised.
func (op Opcode) Apply(args []Word) Outcome {
	switch op {
	case OpAdd:
		return Outcome{Kind: OutcomeWrite, Value: args[0] + args[1]}
	case OpMultiply:
		return Outcome{Kind: OutcomeWrite, Value: args[0] * args[1]}
	case OpInput:
		return Outcome{Kind: OutcomeInput}
	case OpOutput:
		return Outcome{Kind: OutcomeOutput, Value: args[0]}
	case OpJumpIfTrue:
		return jumpIf(args[0] != 0, args[1])
	case OpJumpIfFalse:
		return jumpIf(args[0] == 0, args[1])
	case OpLessThan:
		return Outcome{Kind: OutcomeWrite, Value: boolWord(args[0] < args[1])}
	case OpEquals:
		return Outcome{Kind: OutcomeWrite, Value: boolWord(args[0] == args[1])}
	case OpExit:
		return Outcome{Kind: OutcomeNone}
	default:
		panic(fmt.Sprintf("Apply: unexpected opcode %d", Word(op)))
	}
}
