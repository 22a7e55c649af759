package intcode

import (
	"fmt"
	"strings"
)

// Instruction is a decoded instruction word. Modes holds one entry per
// input parameter; the write target, when present, is always Position.
type Instruction struct {
	Op    Opcode
	Modes []Mode
}

func (in Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Op.String())
	for _, m := range in.Modes {
		if m == Immediate {
			sb.WriteString(" #")
		} else {
			sb.WriteString(" @")
		}
	}
	if in.Op.Writes() {
		sb.WriteString(" ->@")
	}
	return sb.String()
}

// DecodeError describes a word that is not a valid instruction.
type DecodeError struct {
	Word   Word
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %d: %s", e.Word, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// Decode splits word into its opcode (last two decimal digits) and the
// modes of the opcode's input parameters. Mode digits are read from
// word/100 least significant first; missing digits are Position.
func Decode(word Word) (Instruction, error) {
	op := Opcode(word % 100)
	if !op.Known() {
		return Instruction{}, &DecodeError{Word: word, Reason: fmt.Sprintf("unknown opcode %d", word%100)}
	}

	n := op.Inputs()
	modes := make([]Mode, n)
	rem := word / 100
	for i := 0; i < n; i++ {
		switch digit := rem % 10; digit {
		case 0:
			modes[i] = Position
		case 1:
			modes[i] = Immediate
		default:
			return Instruction{}, &DecodeError{Word: word, Reason: fmt.Sprintf("unknown mode %d for parameter %d", digit, i+1)}
		}
		rem /= 10
	}
	return Instruction{Op: op, Modes: modes}, nil
}
