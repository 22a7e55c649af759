package resultstore

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"intcode/pkg/amplifier"
	"intcode/pkg/memory"
	"intcode/pkg/program"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("resultstore")

var ErrNotFound = errors.New("not found")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("resultstore: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Record is one cached search result.
type Record struct {
	ID          string        `cbor:"id"`
	Program     string        `cbor:"program"`
	PhaseSet    []memory.Word `cbor:"phase_set"`
	Signal      memory.Word   `cbor:"signal"`
	Phases      []memory.Word `cbor:"phases"`
	FaultPolicy string        `cbor:"fault_policy"`
	MemorySize  int           `cbor:"memory_size"` // effective words per machine
	CreatedAt   int64         `cbor:"created_at"`  // unix nanoseconds
}

// Search identifies one search over a program. Every field changes which
// orderings succeed, so all of them are part of the cache key.
type Search struct {
	PhaseSet    []memory.Word
	FaultPolicy amplifier.FaultPolicy
	// MemorySize is the requested machine memory; 0 means the image length.
	MemorySize int
}

// effectiveMemory is the memory a machine really gets: WithMemorySize only
// ever grows the image.
func (q Search) effectiveMemory(image []memory.Word) int {
	return max(len(image), q.MemorySize)
}

// Result converts the record back to a search result.
func (r Record) Result() amplifier.Result {
	return amplifier.Result{Signal: r.Signal, Phases: slices.Clone(r.Phases)}
}

func (r Record) Created() time.Time {
	return time.Unix(0, r.CreatedAt)
}

type programRecord struct {
	Words []memory.Word `cbor:"words"`
}

// Store caches program images and search results in PebbleDB.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) a store in dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open result store at %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory result store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

//
// Keys
//

func programKey(h program.Hash) []byte {
	return []byte("program/" + h.String())
}

func resultPrefix(h program.Hash) []byte {
	return []byte("search/" + h.String() + "/")
}

// resultKey identifies a search by program, fault policy, effective memory
// size and phase set; the set is order-insensitive so it is stored sorted.
func resultKey(h program.Hash, policy amplifier.FaultPolicy, memorySize int, phaseSet []memory.Word) []byte {
	key := resultPrefix(h)
	key = fmt.Appendf(key, "%s/%d/", policy, memorySize)
	return append(key, program.Format(sortedSet(phaseSet))...)
}

func sortedSet(phaseSet []memory.Word) []memory.Word {
	sorted := slices.Clone(phaseSet)
	slices.Sort(sorted)
	return sorted
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := slices.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

//
// Programs
//

// PutProgram stores image under its hash and returns the hash.
func (s *Store) PutProgram(image []memory.Word) (program.Hash, error) {
	h := program.HashImage(image)
	value, err := cborEncMode.Marshal(programRecord{Words: image})
	if err != nil {
		return h, fmt.Errorf("failed to encode program: %w", err)
	}
	if err := s.db.Set(programKey(h), value, pebble.Sync); err != nil {
		return h, fmt.Errorf("failed to store program %s: %w", h, err)
	}
	return h, nil
}

// GetProgram returns the image stored under h.
func (s *Store) GetProgram(h program.Hash) ([]memory.Word, error) {
	var rec programRecord
	if err := s.get(programKey(h), &rec); err != nil {
		return nil, fmt.Errorf("program %s: %w", h, err)
	}
	return rec.Words, nil
}

//
// Search results
//

// PutResult stores the best result of search together with the program
// image, in one batch.
func (s *Store) PutResult(image []memory.Word, search Search, result amplifier.Result) (Record, error) {
	h := program.HashImage(image)
	rec := Record{
		ID:          uuid.NewString(),
		Program:     h.String(),
		PhaseSet:    sortedSet(search.PhaseSet),
		Signal:      result.Signal,
		Phases:      slices.Clone(result.Phases),
		FaultPolicy: search.FaultPolicy.String(),
		MemorySize:  search.effectiveMemory(image),
		CreatedAt:   time.Now().UnixNano(),
	}

	programValue, err := cborEncMode.Marshal(programRecord{Words: image})
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode program: %w", err)
	}
	resultValue, err := cborEncMode.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode result: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(programKey(h), programValue, nil); err != nil {
		return Record{}, err
	}
	if err := batch.Set(resultKey(h, search.FaultPolicy, rec.MemorySize, search.PhaseSet), resultValue, nil); err != nil {
		return Record{}, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return Record{}, fmt.Errorf("failed to commit result %s: %w", rec.ID, err)
	}

	log.Debugf("stored result %s for program %s phases %v policy %s memory %d: %d", rec.ID, rec.Program, rec.PhaseSet, rec.FaultPolicy, rec.MemorySize, rec.Signal)
	return rec, nil
}

// LookupResult returns the cached result of exactly this search, or ErrNotFound.
// A result found under one fault policy or memory size never answers another.
func (s *Store) LookupResult(image []memory.Word, search Search) (Record, error) {
	key := resultKey(program.HashImage(image), search.FaultPolicy, search.effectiveMemory(image), search.PhaseSet)
	var rec Record
	if err := s.get(key, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListResults returns every cached result for the program, ordered by key
// (fault policy, memory size, phase set).
func (s *Store) ListResults(h program.Hash) ([]Record, error) {
	prefix := resultPrefix(h)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	records := make([]Record, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := cbor.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode result at %s: %w", iter.Key(), err)
		}
		records = append(records, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) get(key []byte, v any) error {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	if err := cbor.Unmarshal(value, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
