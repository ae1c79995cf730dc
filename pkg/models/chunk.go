package models

// BoundaryType names the kind of text boundary a chunk ends on.
type BoundaryType string

const (
	BoundarySpeakerChange BoundaryType = "speaker_change"
	BoundaryParagraph     BoundaryType = "paragraph"
	BoundaryNewline       BoundaryType = "newline"
	BoundarySentence      BoundaryType = "sentence"
	BoundaryForced        BoundaryType = "forced"
)

// Chunk is a contiguous slice [StartOffset, EndOffset) of a large input.
// ContextStart <= StartOffset marks where the leading overlap begins.
type Chunk struct {
	Index        int          `yaml:"index"`
	StartOffset  int          `yaml:"start_offset"`
	EndOffset    int          `yaml:"end_offset"`
	ContextStart int          `yaml:"context_start"`
	WordCount    int          `yaml:"word_count"`
	TokenCount   int          `yaml:"token_count"`
	Boundary     BoundaryType `yaml:"boundary"`
}

// MergeReport summarizes how per-chunk results were combined.
type MergeReport struct {
	TopicsBefore      int `yaml:"topics_before"`
	TopicsAfter       int `yaml:"topics_after"`
	StatementsBefore  int `yaml:"statements_before"`
	StatementsAfter   int `yaml:"statements_after"`
	DuplicatesDropped int `yaml:"duplicates_dropped"`
}

// ChunkingState is the persisted chunking document for a session.
type ChunkingState struct {
	Chunked bool        `yaml:"chunked"`
	Reason  string      `yaml:"reason,omitempty"`
	Chunks  []Chunk     `yaml:"chunks,omitempty"`
	Merge   MergeReport `yaml:"merge"`
}
