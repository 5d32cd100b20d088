package sequence

import (
	"os"
	"sync"

	"github.com/teranos/cadence/errors"
)

// Store holds named sequences merged from loaded documents. Later
// loads overwrite same-named entries while the order of first
// appearance is preserved for listing. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	seqs  map[string]Sequence
	order []string
}

// NewStore creates an empty sequence store.
func NewStore() *Store {
	return &Store{seqs: make(map[string]Sequence)}
}

// Load merges a sequence document into the store and returns the full
// list of names known afterwards, in first-appearance order.
func (s *Store) Load(data []byte) ([]string, error) {
	seqs, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range seqs {
		if _, known := s.seqs[seq.Name]; !known {
			s.order = append(s.order, seq.Name)
		}
		s.seqs[seq.Name] = seq
	}
	return append([]string(nil), s.order...), nil
}

// LoadFile reads and merges the sequence document at path.
func (s *Store) LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sequence document %s", path)
	}
	return s.Load(data)
}

// Get returns the sequence registered under name.
func (s *Store) Get(name string) (Sequence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.seqs[name]
	if !ok {
		return Sequence{}, errors.Wrapf(errors.ErrNotFound, "unknown sequence %q", name)
	}
	return seq, nil
}

// Names returns all known sequence names in first-appearance order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of sequences in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seqs)
}

// PeriodicNames returns the names of sequences eligible for repeating
// runs, in first-appearance order.
func (s *Store) PeriodicNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, name := range s.order {
		if s.seqs[name].Periodic() {
			names = append(names, name)
		}
	}
	return names
}
