package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"toolkitrag/internal/domain"
)

// Store is a minimal REST client treating a Qdrant collection as the chunk
// store. Points are upserted with a zero vector at insert and re-upserted
// when the embedding is attached; retrieval enumerates via the scroll API so
// ranking and thresholding stay in the retriever with the same semantics as
// the other stores.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// Config contains connection details for a Qdrant collection.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// NewStore creates the client and ensures the collection exists with cosine
// distance and the configured dimensionality.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, errors.New("qdrant url and collection required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("qdrant dimension required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     cfg.Dimension,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(context.Background(), fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Insert upserts the chunk payload with a placeholder vector. The point is
// invisible to EmbeddedChunks until an embedding is attached. A chunk
// inserted under a withdrawn document stays withdrawn.
func (s *Store) Insert(ctx context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return errors.New("chunk id required")
	}
	if chunk.Text == "" {
		return errors.New("empty chunk text")
	}
	active, err := s.documentActive(ctx, chunk.DocumentID)
	if err != nil {
		return err
	}
	return s.upsert(ctx, chunk, make([]float64, s.dimension), false, active)
}

// AttachEmbedding re-upserts the point with the real vector, preserving the
// document's active flag.
func (s *Store) AttachEmbedding(ctx context.Context, chunkID string, vector []float64) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("vector dimension %d, collection expects %d", len(vector), s.dimension)
	}
	chunk, active, err := s.getChunk(ctx, chunkID)
	if err != nil {
		return err
	}
	return s.upsert(ctx, chunk, vector, true, active)
}

// EmbeddedChunks scrolls all embedded points of active documents.
func (s *Store) EmbeddedChunks(ctx context.Context) ([]domain.StoredChunk, error) {
	filter := map[string]any{
		"must": []any{
			map[string]any{"key": "has_embedding", "match": map[string]any{"value": true}},
			map[string]any{"key": "active", "match": map[string]any{"value": true}},
		},
	}
	var out []domain.StoredChunk
	var offset any
	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": true,
			"with_vector":  true,
			"filter":       filter,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					ID      string         `json:"id"`
					Vector  []float64      `json:"vector"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			out = append(out, domain.StoredChunk{Chunk: chunkFromPayload(p.ID, p.Payload), Vector: p.Vector})
		}
		if resp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// SetDocumentActive flips the active flag on every point of the document.
func (s *Store) SetDocumentActive(ctx context.Context, documentID string, active bool) error {
	body := map[string]any{
		"payload": map[string]any{"active": active},
		"filter": map[string]any{
			"must": []any{
				map[string]any{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	return s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/payload?wait=true", s.url, s.collection), body, nil)
}

func (s *Store) upsert(ctx context.Context, chunk domain.Chunk, vector []float64, embedded, active bool) error {
	point := map[string]any{
		"id":     chunk.ID,
		"vector": vector,
		"payload": map[string]any{
			"document_id":      chunk.DocumentID,
			"document_version": chunk.DocumentVersion,
			"heading":          chunk.Heading,
			"text":             chunk.Text,
			"index":            chunk.Index,
			"char_length":      chunk.CharLength,
			"cluster":          chunk.Metadata.Cluster,
			"tool_name":        chunk.Metadata.ToolName,
			"tags":             chunk.Metadata.Tags,
			"has_embedding":    embedded,
			"active":           active,
		},
	}
	body := map[string]any{"points": []any{point}}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

func (s *Store) getChunk(ctx context.Context, chunkID string) (domain.Chunk, bool, error) {
	var resp struct {
		Result struct {
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/%s", s.url, s.collection, chunkID)
	if err := s.getJSON(ctx, url, &resp); err != nil {
		return domain.Chunk{}, false, fmt.Errorf("unknown chunk id %s: %w", chunkID, err)
	}
	return chunkFromPayload(chunkID, resp.Result.Payload), payloadActive(resp.Result.Payload), nil
}

// documentActive reports the current active flag of a document by reading
// one of its points; a document with no points yet is active.
func (s *Store) documentActive(ctx context.Context, documentID string) (bool, error) {
	req := map[string]any{
		"limit":        1,
		"with_payload": true,
		"filter": map[string]any{
			"must": []any{
				map[string]any{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection), req, &resp); err != nil {
		return false, err
	}
	if len(resp.Result.Points) == 0 {
		return true, nil
	}
	return payloadActive(resp.Result.Points[0].Payload), nil
}

func payloadActive(payload map[string]any) bool {
	if v, ok := payload["active"].(bool); ok {
		return v
	}
	return true
}

func chunkFromPayload(id string, payload map[string]any) domain.Chunk {
	chunk := domain.Chunk{ID: id}
	if v, ok := payload["document_id"].(string); ok {
		chunk.DocumentID = v
	}
	if v, ok := payload["document_version"].(string); ok {
		chunk.DocumentVersion = v
	}
	if v, ok := payload["heading"].(string); ok {
		chunk.Heading = v
	}
	if v, ok := payload["text"].(string); ok {
		chunk.Text = v
	}
	if v, ok := payload["index"].(float64); ok {
		chunk.Index = int(v)
	}
	if v, ok := payload["char_length"].(float64); ok {
		chunk.CharLength = int(v)
	}
	if v, ok := payload["cluster"].(string); ok {
		chunk.Metadata.Cluster = v
	}
	if v, ok := payload["tool_name"].(string); ok {
		chunk.Metadata.ToolName = v
	}
	if tags, ok := payload["tags"].([]any); ok {
		for _, t := range tags {
			if tag, ok := t.(string); ok {
				chunk.Metadata.Tags = append(chunk.Metadata.Tags, tag)
			}
		}
	}
	return chunk
}

func (s *Store) putJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, out)
}

func (s *Store) postJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Store) getJSON(ctx context.Context, url string, out any) error {
	return s.doJSON(ctx, http.MethodGet, url, nil, out)
}

func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
