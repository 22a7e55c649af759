package memory

import (
	"fmt"
	"slices"
)

// Word is a single memory cell. Addresses are words too.
type Word = int64

// AccessError reports an address outside [0, Size).
type AccessError struct {
	Address Word
	Size    int
	Write   bool
}

func (e *AccessError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	return fmt.Sprintf("%s at address %d outside memory of %d words", op, e.Address, e.Size)
}

// Memory is the flat word memory of a single machine.
type Memory struct {
	words []Word
}

//
// Memory Creation & Initialization
//

// New copies image into a fresh memory. The caller keeps ownership of image.
func New(image []Word) *Memory {
	return &Memory{words: slices.Clone(image)}
}

// NewSized copies image and zero-extends it to at least size words.
func NewSized(image []Word, size int) *Memory {
	m := New(image)
	m.Grow(size)
	return m
}

// Grow zero-extends the memory to at least size words. It never shrinks.
func (m *Memory) Grow(size int) {
	if size <= len(m.words) {
		return
	}
	m.words = append(m.words, make([]Word, size-len(m.words))...)
}

//
// Memory access and mutation methods
//

// Len returns the number of addressable words.
func (m *Memory) Len() int {
	return len(m.words)
}

// Valid reports whether address can be dereferenced.
func (m *Memory) Valid(address Word) bool {
	return address >= 0 && address < Word(len(m.words))
}

// Inspect reads the word at address.
func (m *Memory) Inspect(address Word) (Word, error) {
	if !m.Valid(address) {
		return 0, &AccessError{Address: address, Size: len(m.words)}
	}
	return m.words[address], nil
}

// InspectRange reads length words starting at start. The whole range must be
// valid; the error names the first address that is not.
func (m *Memory) InspectRange(start Word, length int) ([]Word, error) {
	if length < 0 {
		return nil, fmt.Errorf("negative range length %d", length)
	}
	if length == 0 {
		return []Word{}, nil
	}
	if !m.Valid(start) {
		return nil, &AccessError{Address: start, Size: len(m.words)}
	}
	// start is valid, so the subtraction cannot overflow
	if length > len(m.words)-int(start) {
		return nil, &AccessError{Address: Word(len(m.words)), Size: len(m.words)}
	}
	return slices.Clone(m.words[start : int(start)+length]), nil
}

// Mutate writes value at address.
func (m *Memory) Mutate(address Word, value Word) error {
	if !m.Valid(address) {
		return &AccessError{Address: address, Size: len(m.words), Write: true}
	}
	m.words[address] = value
	return nil
}

// Snapshot returns a copy of the whole memory.
func (m *Memory) Snapshot() []Word {
	return slices.Clone(m.words)
}
