package domain

import "context"

// StoredChunk is a chunk together with its stored embedding vector and the
// active flag of its owning document.
type StoredChunk struct {
	Chunk  Chunk
	Vector []float64
}

// ChunkStore persists chunks and their embeddings beneath documents.
// Implementations must never return a chunk whose embedding is missing or
// whose document has been deactivated from EmbeddedChunks.
type ChunkStore interface {
	Insert(ctx context.Context, chunk Chunk) error
	AttachEmbedding(ctx context.Context, chunkID string, vector []float64) error
	EmbeddedChunks(ctx context.Context) ([]StoredChunk, error)
	SetDocumentActive(ctx context.Context, documentID string, active bool) error
}

// Generator produces answer text from an instruction and an assembled
// context. No streaming contract is required.
type Generator interface {
	Generate(ctx context.Context, instruction, contextText, question string) (string, error)
}

// ChatLogSink records answered queries for audit and feedback linkage.
// Append is fire-and-forget from the engine's perspective: a sink failure
// must never fail the user-visible answer.
type ChatLogSink interface {
	Append(ctx context.Context, record AnswerRecord) error
}
