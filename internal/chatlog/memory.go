package chatlog

import (
	"context"
	"sync"

	"toolkitrag/internal/domain"
)

// MemoryRecorder is an in-memory ChatLogSink for tests and ephemeral runs.
// The durable recorder lives in the sqlite store.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []domain.AnswerRecord
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Append stores one answer record.
func (r *MemoryRecorder) Append(_ context.Context, record domain.AnswerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

// Records returns a copy of everything appended so far.
func (r *MemoryRecorder) Records() []domain.AnswerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AnswerRecord(nil), r.records...)
}
