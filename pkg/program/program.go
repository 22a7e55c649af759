// Package program reads and writes Intcode program images.
package program

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"intcode/pkg/memory"

	"golang.org/x/crypto/blake2b"
)

type Word = memory.Word

// Hash is the content address of a program image.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash decodes the hex form produced by Hash.String.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid program hash %q: %w", s, err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("invalid program hash length: expected %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Parse reads signed integers separated by commas and/or whitespace.
func Parse(text string) ([]Word, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	image := make([]Word, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		image = append(image, v)
	}
	return image, nil
}

// Load parses the program image stored in a text file.
func Load(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	image, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("program file %s is empty", path)
	}
	return image, nil
}

// Format renders image in the canonical comma-separated form.
func Format(image []Word) string {
	var sb strings.Builder
	for i, w := range image {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(w, 10))
	}
	return sb.String()
}

// HashImage returns the BLAKE2b-256 of the little-endian encoded words.
func HashImage(image []Word) Hash {
	buf := make([]byte, 8*len(image))
	for i, w := range image {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(w))
	}
	return Hash(blake2b.Sum256(buf))
}
