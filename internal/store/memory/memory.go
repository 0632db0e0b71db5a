package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"toolkitrag/internal/domain"
)

// Store is an in-memory chunk store guarded by a read-write mutex. Chunks
// are immutable after insert; only their embedding attachment and the owning
// document's active flag change.
type Store struct {
	mu       sync.RWMutex
	order    []string // insertion order, kept for stable enumeration
	chunks   map[string]*entry
	inactive map[string]bool // document id -> deactivated
}

type entry struct {
	chunk  domain.Chunk
	vector []float64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		chunks:   make(map[string]*entry),
		inactive: make(map[string]bool),
	}
}

// Insert stores a chunk. Chunk text must be non-empty and IDs must be
// unique.
func (s *Store) Insert(_ context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return errors.New("chunk id required")
	}
	if chunk.Text == "" {
		return errors.New("empty chunk text")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[chunk.ID]; ok {
		return fmt.Errorf("duplicate chunk id %s", chunk.ID)
	}
	s.chunks[chunk.ID] = &entry{chunk: chunk}
	s.order = append(s.order, chunk.ID)
	return nil
}

// AttachEmbedding attaches a vector to a previously inserted chunk.
func (s *Store) AttachEmbedding(_ context.Context, chunkID string, vector []float64) error {
	if len(vector) == 0 {
		return errors.New("empty embedding vector")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.chunks[chunkID]
	if !ok {
		return fmt.Errorf("unknown chunk id %s", chunkID)
	}
	e.vector = append([]float64(nil), vector...)
	return nil
}

// EmbeddedChunks returns every chunk that has an embedding and whose owning
// document is active, in insertion order.
func (s *Store) EmbeddedChunks(_ context.Context) ([]domain.StoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StoredChunk, 0, len(s.order))
	for _, id := range s.order {
		e := s.chunks[id]
		if e.vector == nil || s.inactive[e.chunk.DocumentID] {
			continue
		}
		out = append(out, domain.StoredChunk{Chunk: e.chunk, Vector: e.vector})
	}
	return out, nil
}

// SetDocumentActive withdraws or restores a document's chunks from
// retrieval.
func (s *Store) SetDocumentActive(_ context.Context, documentID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		delete(s.inactive, documentID)
	} else {
		s.inactive[documentID] = true
	}
	return nil
}
