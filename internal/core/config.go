// Package core contains the digestion pipeline for story digest: input
// normalization, chunking, topic and statement extraction, orphan and
// contradiction resolution, clarification, story synthesis, and the session
// orchestrator that drives them.
package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/story-digest/pkg/models"
	"golang.org/x/text/language"
)

// ConfigFileName is the name of the global configuration file.
const ConfigFileName = ".digestconfig"

// validPrefixPattern matches uppercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ConfigurationManager defines the interface for loading and validating the
// global .digestconfig file.
type ConfigurationManager interface {
	LoadConfig() (*models.DigestConfig, error)
	ValidateConfig(cfg *models.DigestConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .digestconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a DigestConfig populated with the default thresholds.
func DefaultConfig() *models.DigestConfig {
	return &models.DigestConfig{
		Locale:      "en",
		DefaultRole: "user",
		Chunking: models.ChunkingConfig{
			MaxWords:     3000,
			MaxTokens:    4000,
			MaxChars:     20000,
			TargetWords:  2000,
			OverlapChars: 200,
			WindowChars:  400,
		},
		Extraction: models.ExtractionConfig{
			MinWords:            4,
			MatchThreshold:      0.6,
			ContinuityThreshold: 0.75,
		},
		Orphans: models.OrphanConfig{
			Accept:            0.6,
			ClearMargin:       0.15,
			AmbiguityMargin:   0.1,
			CatchAllThreshold: 0.3,
			CatchAllTitle:     "General Requirements",
		},
		Contradictions: models.ContradictionConfig{
			AutoResolveThreshold: 0.8,
			FarDistance:          5,
		},
		Clarify: models.ClarifyConfig{
			BatchSize: 5,
		},
		StorageBackend: "yaml",
		ReadyPrefix:    "TASK",
		ReadyPadWidth:  5,
	}
}

// LoadConfig reads .digestconfig from the base path. SDG_-prefixed
// environment variables override file values. A missing file yields the
// defaults.
func (cm *viperConfigManager) LoadConfig() (*models.DigestConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("SDG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("defaults.locale", cfg.Locale)
	v.SetDefault("defaults.role", cfg.DefaultRole)
	v.SetDefault("chunking.max_words", cfg.Chunking.MaxWords)
	v.SetDefault("chunking.max_tokens", cfg.Chunking.MaxTokens)
	v.SetDefault("chunking.max_chars", cfg.Chunking.MaxChars)
	v.SetDefault("chunking.target_words", cfg.Chunking.TargetWords)
	v.SetDefault("chunking.overlap_chars", cfg.Chunking.OverlapChars)
	v.SetDefault("chunking.window_chars", cfg.Chunking.WindowChars)
	v.SetDefault("extraction.min_words", cfg.Extraction.MinWords)
	v.SetDefault("extraction.match_threshold", cfg.Extraction.MatchThreshold)
	v.SetDefault("extraction.continuity_threshold", cfg.Extraction.ContinuityThreshold)
	v.SetDefault("orphans.accept_threshold", cfg.Orphans.Accept)
	v.SetDefault("orphans.clear_margin", cfg.Orphans.ClearMargin)
	v.SetDefault("orphans.ambiguity_margin", cfg.Orphans.AmbiguityMargin)
	v.SetDefault("orphans.catch_all_threshold", cfg.Orphans.CatchAllThreshold)
	v.SetDefault("orphans.catch_all_title", cfg.Orphans.CatchAllTitle)
	v.SetDefault("contradictions.auto_resolve_threshold", cfg.Contradictions.AutoResolveThreshold)
	v.SetDefault("contradictions.far_distance", cfg.Contradictions.FarDistance)
	v.SetDefault("clarify.batch_size", cfg.Clarify.BatchSize)
	v.SetDefault("clarify.force_voice", cfg.Clarify.ForceVoice)
	v.SetDefault("storage.backend", cfg.StorageBackend)
	v.SetDefault("ready_queue.prefix", cfg.ReadyPrefix)
	v.SetDefault("ready_queue.pad_width", cfg.ReadyPadWidth)
	v.SetDefault("debug", cfg.Debug)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.Locale = v.GetString("defaults.locale")
	cfg.DefaultRole = v.GetString("defaults.role")
	cfg.Chunking = models.ChunkingConfig{
		MaxWords:     v.GetInt("chunking.max_words"),
		MaxTokens:    v.GetInt("chunking.max_tokens"),
		MaxChars:     v.GetInt("chunking.max_chars"),
		TargetWords:  v.GetInt("chunking.target_words"),
		OverlapChars: v.GetInt("chunking.overlap_chars"),
		WindowChars:  v.GetInt("chunking.window_chars"),
	}
	cfg.Extraction = models.ExtractionConfig{
		MinWords:            v.GetInt("extraction.min_words"),
		MatchThreshold:      v.GetFloat64("extraction.match_threshold"),
		ContinuityThreshold: v.GetFloat64("extraction.continuity_threshold"),
	}
	cfg.Orphans = models.OrphanConfig{
		Accept:            v.GetFloat64("orphans.accept_threshold"),
		ClearMargin:       v.GetFloat64("orphans.clear_margin"),
		AmbiguityMargin:   v.GetFloat64("orphans.ambiguity_margin"),
		CatchAllThreshold: v.GetFloat64("orphans.catch_all_threshold"),
		CatchAllTitle:     v.GetString("orphans.catch_all_title"),
	}
	cfg.Contradictions = models.ContradictionConfig{
		AutoResolveThreshold: v.GetFloat64("contradictions.auto_resolve_threshold"),
		FarDistance:          v.GetInt("contradictions.far_distance"),
	}
	cfg.Clarify = models.ClarifyConfig{
		BatchSize:  v.GetInt("clarify.batch_size"),
		ForceVoice: v.GetBool("clarify.force_voice"),
	}
	cfg.StorageBackend = v.GetString("storage.backend")
	cfg.ReadyPrefix = v.GetString("ready_queue.prefix")
	cfg.ReadyPadWidth = v.GetInt("ready_queue.pad_width")
	cfg.Debug = v.GetBool("debug")

	return cfg, nil
}

// ValidateConfig checks every key and returns one error listing all
// invalid values.
func (cm *viperConfigManager) ValidateConfig(cfg *models.DigestConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if _, err := language.Parse(cfg.Locale); err != nil || cfg.Locale == "" {
		errs = append(errs, fmt.Sprintf("defaults.locale %q is not a valid language tag", cfg.Locale))
	}
	if strings.TrimSpace(cfg.DefaultRole) == "" {
		errs = append(errs, "defaults.role must not be empty")
	}

	positive := map[string]int{
		"chunking.max_words":    cfg.Chunking.MaxWords,
		"chunking.max_tokens":   cfg.Chunking.MaxTokens,
		"chunking.max_chars":    cfg.Chunking.MaxChars,
		"chunking.target_words": cfg.Chunking.TargetWords,
		"clarify.batch_size":    cfg.Clarify.BatchSize,
	}
	for _, key := range sortedKeys(positive) {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %d", key, positive[key]))
		}
	}
	if cfg.Chunking.OverlapChars < 0 || cfg.Chunking.WindowChars < 0 {
		errs = append(errs, "chunking.overlap_chars and chunking.window_chars must be non-negative")
	}
	if cfg.Extraction.MinWords < 0 {
		errs = append(errs, fmt.Sprintf("extraction.min_words must be non-negative, got %d", cfg.Extraction.MinWords))
	}

	unit := map[string]float64{
		"extraction.match_threshold":            cfg.Extraction.MatchThreshold,
		"extraction.continuity_threshold":       cfg.Extraction.ContinuityThreshold,
		"orphans.accept_threshold":              cfg.Orphans.Accept,
		"orphans.clear_margin":                  cfg.Orphans.ClearMargin,
		"orphans.ambiguity_margin":              cfg.Orphans.AmbiguityMargin,
		"orphans.catch_all_threshold":           cfg.Orphans.CatchAllThreshold,
		"contradictions.auto_resolve_threshold": cfg.Contradictions.AutoResolveThreshold,
	}
	for _, key := range sortedKeys(unit) {
		if unit[key] < 0 || unit[key] > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1, got %g", key, unit[key]))
		}
	}
	if strings.TrimSpace(cfg.Orphans.CatchAllTitle) == "" {
		errs = append(errs, "orphans.catch_all_title must not be empty")
	}
	if cfg.Contradictions.FarDistance < 1 {
		errs = append(errs, fmt.Sprintf("contradictions.far_distance must be at least 1, got %d", cfg.Contradictions.FarDistance))
	}

	switch cfg.StorageBackend {
	case "yaml", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q is invalid, must be one of: yaml, sqlite", cfg.StorageBackend))
	}

	if !validPrefixPattern.MatchString(cfg.ReadyPrefix) {
		errs = append(errs, fmt.Sprintf("ready_queue.prefix %q is invalid, must match [A-Z0-9]{1,10}", cfg.ReadyPrefix))
	}
	if cfg.ReadyPadWidth < 0 || cfg.ReadyPadWidth > 10 {
		errs = append(errs, fmt.Sprintf("ready_queue.pad_width %d is invalid, must be between 0 and 10", cfg.ReadyPadWidth))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
