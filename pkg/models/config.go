package models

// ChunkingConfig holds the thresholds that decide when and how an input is
// split into chunks.
type ChunkingConfig struct {
	MaxWords     int `yaml:"max_words" mapstructure:"max_words"`
	MaxTokens    int `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxChars     int `yaml:"max_chars" mapstructure:"max_chars"`
	TargetWords  int `yaml:"target_words" mapstructure:"target_words"`
	OverlapChars int `yaml:"overlap_chars" mapstructure:"overlap_chars"`
	WindowChars  int `yaml:"window_chars" mapstructure:"window_chars"`
}

// ExtractionConfig holds the statement and association thresholds.
type ExtractionConfig struct {
	MinWords            int     `yaml:"min_words" mapstructure:"min_words"`
	MatchThreshold      float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
	ContinuityThreshold float64 `yaml:"continuity_threshold" mapstructure:"continuity_threshold"`
}

// OrphanConfig holds the thresholds of the orphan resolution cascade.
type OrphanConfig struct {
	Accept            float64 `yaml:"accept" mapstructure:"accept"`
	ClearMargin       float64 `yaml:"clear_margin" mapstructure:"clear_margin"`
	AmbiguityMargin   float64 `yaml:"ambiguity_margin" mapstructure:"ambiguity_margin"`
	CatchAllThreshold float64 `yaml:"catch_all_threshold" mapstructure:"catch_all_threshold"`
	CatchAllTitle     string  `yaml:"catch_all_title" mapstructure:"catch_all_title"`
}

// ContradictionConfig holds contradiction detection settings.
type ContradictionConfig struct {
	AutoResolveThreshold float64 `yaml:"auto_resolve_threshold" mapstructure:"auto_resolve_threshold"`
	FarDistance          int     `yaml:"far_distance" mapstructure:"far_distance"`
}

// ClarifyConfig holds clarification loop settings.
type ClarifyConfig struct {
	BatchSize  int  `yaml:"batch_size" mapstructure:"batch_size"`
	ForceVoice bool `yaml:"force_voice" mapstructure:"force_voice"`
}

// DigestConfig holds system-wide settings read from .digestconfig via Viper.
type DigestConfig struct {
	Locale         string              `yaml:"locale" mapstructure:"locale"`
	DefaultRole    string              `yaml:"default_role" mapstructure:"default_role"`
	Chunking       ChunkingConfig      `yaml:"chunking" mapstructure:"chunking"`
	Extraction     ExtractionConfig    `yaml:"extraction" mapstructure:"extraction"`
	Orphans        OrphanConfig        `yaml:"orphans" mapstructure:"orphans"`
	Contradictions ContradictionConfig `yaml:"contradictions" mapstructure:"contradictions"`
	Clarify        ClarifyConfig       `yaml:"clarify" mapstructure:"clarify"`
	StorageBackend string              `yaml:"storage_backend" mapstructure:"storage_backend"`
	ReadyPrefix    string              `yaml:"ready_prefix" mapstructure:"ready_prefix"`
	ReadyPadWidth  int                 `yaml:"ready_pad_width" mapstructure:"ready_pad_width"`
	Debug          bool                `yaml:"debug" mapstructure:"debug"`
}
