package intcode

import (
	"errors"
	"fmt"
)

type FaultKind int

const (
	DecodeFault       FaultKind = iota + 1 // unknown opcode or parameter mode
	AddressFault                           // memory access outside bounds
	InputStarvedFault                      // input instruction with an empty queue
)

var (
	ErrDecode       = errors.New("decode fault")
	ErrAddress      = errors.New("address fault")
	ErrInputStarved = errors.New("input starvation fault")
)

func (k FaultKind) sentinel() error {
	switch k {
	case DecodeFault:
		return ErrDecode
	case AddressFault:
		return ErrAddress
	case InputStarvedFault:
		return ErrInputStarved
	default:
		return nil
	}
}

func (k FaultKind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// Fault is a fatal machine error. A machine that returned a Fault never runs again.
type Fault struct {
	Kind               FaultKind
	InstructionPointer Word
	Word               Word // instruction word at the pointer, if it could be read
	Message            string
	Cause              error
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("%s at ip=%d", f.Kind, f.InstructionPointer)
	if f.Message != "" {
		msg += ": " + f.Message
	}
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// Is matches the sentinel for the fault kind, so errors.Is(err, ErrDecode) works.
func (f *Fault) Is(target error) bool {
	return target != nil && target == f.Kind.sentinel()
}

// IsFault checks if an error is a machine fault
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

func faultf(kind FaultKind, ip, word Word, format string, args ...interface{}) *Fault {
	return &Fault{
		Kind:               kind,
		InstructionPointer: ip,
		Word:               word,
		Message:            fmt.Sprintf(format, args...),
	}
}

func wrapFault(kind FaultKind, ip, word Word, err error) *Fault {
	return &Fault{
		Kind:               kind,
		InstructionPointer: ip,
		Word:               word,
		Cause:              err,
	}
}
