package domain

// ContentBlock is one parsed unit of a source document: a paragraph or a
// heading line, in document order. Blocks arrive already stripped of any
// binary markup.
type ContentBlock struct {
	Text    string
	Heading string
	Order   int
}

// Metadata carries the retrieval-relevant labels attached to a chunk.
type Metadata struct {
	Cluster  string   `json:"cluster,omitempty"`
	ToolName string   `json:"tool_name,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Chunk is a bounded-size contiguous excerpt of a document, the unit of
// embedding and retrieval. Chunks are immutable once created.
type Chunk struct {
	ID              string
	DocumentID      string
	DocumentVersion string
	Heading         string
	Text            string
	Index           int
	CharLength      int
	Metadata        Metadata
}

// Filters narrows a search to chunks matching all supplied labels.
// Cluster and ToolName match exactly; Tags requires every listed tag to be
// present on the chunk.
type Filters struct {
	Cluster  string
	ToolName string
	Tags     []string
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Cluster == "" && f.ToolName == "" && len(f.Tags) == 0
}

// Query is a single retrieval request. Queries are ephemeral and never
// persisted.
type Query struct {
	Text                string
	TopK                int
	SimilarityThreshold float64
	Filters             Filters
}

// SearchResult is one retrieved chunk with its similarity score. Result
// sequences are ordered by descending score, ties broken by ascending
// chunk index.
type SearchResult struct {
	ChunkID         string
	ChunkText       string
	Heading         string
	SimilarityScore float64
	ChunkIndex      int
	DocumentVersion string
	Metadata        Metadata
}

// Citation ties an answer back to the chunk that justified it. Snippet is a
// bounded-length prefix of the chunk text, not the full text.
type Citation struct {
	ChunkID         string
	Heading         string
	Snippet         string
	SimilarityScore float64
	DocumentVersion string
	Metadata        Metadata
}

// AnswerRecord is the durable projection of one answered query: the answer
// text, its citations, and whether the grounding policy refused.
type AnswerRecord struct {
	QueryText        string
	AnswerText       string
	Citations        []Citation
	SimilarityScores []float64
	FiltersApplied   Filters
	Refusal          bool
}

// RefusalAnswer is the exact answer text whenever the grounding policy
// declines to answer.
const RefusalAnswer = "Not found in the toolkit"
