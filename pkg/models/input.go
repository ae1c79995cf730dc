package models

// Entry is one normalized transcript segment.
type Entry struct {
	TimestampMS *int64 `yaml:"timestamp_ms,omitempty" json:"timestamp_ms,omitempty"`
	Speaker     string `yaml:"speaker,omitempty" json:"speaker,omitempty"`
	Text        string `yaml:"text" json:"text"`
}

// SourceDocument keeps the normalized input of a session so that later
// phases and resets can re-read it without the original file.
type SourceDocument struct {
	Text    string  `yaml:"text"`
	Entries []Entry `yaml:"entries,omitempty"`
}
