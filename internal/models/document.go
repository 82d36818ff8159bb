package models

// Page is the plain text of one page of an uploaded document
type Page struct {
	PageNumber int
	Content    string
}

// Chunk represents a parsed chunk with its page and id
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    string
}

// ChunkMetadata ties an indexed chunk back to its source file and subject
type ChunkMetadata struct {
	Filename  string `json:"filename"`
	Page      int    `json:"page"`
	ChunkID   string `json:"chunk_id"`
	SubjectID string `json:"subject_id"`
}

// IndexedChunk is a chunk as stored in a subject partition. It is never
// mutated after insertion.
type IndexedChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a ranked search hit. Distance is 1/(1+score) rounded to
// four places and is for display only.
type ScoredChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
	Distance float64       `json:"distance"`
}

// UploadedFile is a file handed to ingestion
type UploadedFile struct {
	Name string
	Data []byte
}

type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type IngestResult struct {
	SubjectID string     `json:"subject_id"`
	Files     []FileInfo `json:"files"`
	Status    string     `json:"status"`
}

type RemoveResult struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// FileSummary lists a file indexed under a subject
type FileSummary struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
	Pages    int    `json:"pages"`
}
