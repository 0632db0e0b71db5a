package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"toolkitrag/internal/domain"
)

// Store is a SQLite-backed chunk store that also hosts the chat log. A
// single database file keeps chunks, their embeddings, and the append-only
// chat log together.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and applies the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL keeps concurrent readers off the writer's back; the busy timeout
	// covers interleaved single-row inserts.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// ChatLog returns a ChatLogSink backed by this store.
func (s *Store) ChatLog() domain.ChatLogSink { return &chatLog{store: s} }

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			version_tag TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			heading TEXT NOT NULL DEFAULT '',
			chunk_text TEXT NOT NULL CHECK (chunk_text <> ''),
			chunk_index INTEGER NOT NULL,
			char_length INTEGER NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			embedding BLOB,
			UNIQUE (document_id, chunk_index)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query_text TEXT NOT NULL,
			answer_text TEXT NOT NULL,
			citations TEXT NOT NULL,
			similarity_scores TEXT NOT NULL,
			filters TEXT NOT NULL,
			refusal INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Insert stores a chunk, creating the owning document row on first sight.
func (s *Store) Insert(ctx context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return errors.New("chunk id required")
	}
	if chunk.Text == "" {
		return errors.New("empty chunk text")
	}
	meta, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, version_tag) VALUES (?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		chunk.DocumentID, chunk.DocumentVersion,
	); err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chunks (id, document_id, heading, chunk_text, chunk_index, char_length, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.DocumentID, chunk.Heading, chunk.Text, chunk.Index, chunk.CharLength, string(meta),
	); err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return tx.Commit()
}

// AttachEmbedding stores the vector for a previously inserted chunk.
func (s *Store) AttachEmbedding(ctx context.Context, chunkID string, vector []float64) error {
	if len(vector) == 0 {
		return errors.New("empty embedding vector")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chunks SET embedding = ? WHERE id = ?`,
		vectorToBytes(vector), chunkID,
	)
	if err != nil {
		return fmt.Errorf("attaching embedding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("unknown chunk id %s", chunkID)
	}
	return nil
}

// EmbeddedChunks returns every embedded chunk of every active document,
// ordered by document and chunk index for stable enumeration.
func (s *Store) EmbeddedChunks(ctx context.Context) ([]domain.StoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, d.version_tag, c.heading, c.chunk_text,
		        c.chunk_index, c.char_length, c.metadata, c.embedding
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE c.embedding IS NOT NULL AND d.active = 1
		 ORDER BY c.document_id, c.chunk_index`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredChunk
	for rows.Next() {
		var (
			chunk domain.Chunk
			meta  string
			blob  []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.DocumentVersion,
			&chunk.Heading, &chunk.Text, &chunk.Index, &chunk.CharLength, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for chunk %s: %w", chunk.ID, err)
		}
		out = append(out, domain.StoredChunk{Chunk: chunk, Vector: bytesToVector(blob)})
	}
	return out, rows.Err()
}

// SetDocumentActive withdraws or restores a document from retrieval.
func (s *Store) SetDocumentActive(ctx context.Context, documentID string, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET active = ? WHERE id = ?`, flag, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("unknown document id %s", documentID)
	}
	return nil
}

type chatLog struct {
	store *Store
}

// Append writes one answer record as a single row. The record is fully
// assembled before the insert, so a cancelled request never leaves a partial
// log entry.
func (l *chatLog) Append(ctx context.Context, record domain.AnswerRecord) error {
	citations, err := json.Marshal(record.Citations)
	if err != nil {
		return fmt.Errorf("encoding citations: %w", err)
	}
	scores, err := json.Marshal(record.SimilarityScores)
	if err != nil {
		return fmt.Errorf("encoding scores: %w", err)
	}
	filters, err := json.Marshal(record.FiltersApplied)
	if err != nil {
		return fmt.Errorf("encoding filters: %w", err)
	}
	refusal := 0
	if record.Refusal {
		refusal = 1
	}
	_, err = l.store.db.ExecContext(ctx,
		`INSERT INTO chat_logs (query_text, answer_text, citations, similarity_scores, filters, refusal)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.QueryText, record.AnswerText, string(citations), string(scores), string(filters), refusal,
	)
	if err != nil {
		return fmt.Errorf("appending chat log: %w", err)
	}
	return nil
}

// CountChatLogs returns the number of chat log rows, used by tests and the
// CLI status line.
func (s *Store) CountChatLogs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_logs`).Scan(&n)
	return n, err
}

func vectorToBytes(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, f := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func bytesToVector(data []byte) []float64 {
	vec := make([]float64, len(data)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vec
}
