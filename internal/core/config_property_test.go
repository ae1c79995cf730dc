package core

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// Values written to .digestconfig are read back unchanged and validate.
func TestProperty_ConfigRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		locale := rapid.SampledFrom([]string{"en", "es", "pt-BR", "de"}).Draw(rt, "locale")
		role := rapid.StringMatching(`[a-z]{3,10}( [a-z]{3,10})?`).Draw(rt, "role")
		batch := rapid.IntRange(1, 20).Draw(rt, "batch")
		maxWords := rapid.IntRange(100, 10000).Draw(rt, "maxWords")
		prefix := rapid.StringMatching(`[A-Z]{2,6}`).Draw(rt, "prefix")
		pad := rapid.IntRange(0, 10).Draw(rt, "pad")

		dir := t.TempDir()
		writeFile(t, dir, ConfigFileName, fmt.Sprintf(`defaults:
  locale: %s
  role: %s
chunking:
  max_words: %d
clarify:
  batch_size: %d
ready_queue:
  prefix: %s
  pad_width: %d
`, locale, role, maxWords, batch, prefix, pad))

		cm := NewConfigurationManager(dir)
		cfg, err := cm.LoadConfig()
		if err != nil {
			rt.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Locale != locale || cfg.DefaultRole != role || cfg.Clarify.BatchSize != batch ||
			cfg.Chunking.MaxWords != maxWords || cfg.ReadyPrefix != prefix || cfg.ReadyPadWidth != pad {
			rt.Fatalf("values not read back: %+v", cfg)
		}
		if err := cm.ValidateConfig(cfg); err != nil {
			rt.Fatalf("valid values rejected: %v", err)
		}
	})
}

// Any threshold outside [0, 1] is rejected.
func TestProperty_ThresholdValidation(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	rapid.Check(t, func(rt *rapid.T) {
		bad := rapid.OneOf(
			rapid.Float64Range(-10, -0.001),
			rapid.Float64Range(1.001, 10),
		).Draw(rt, "bad")
		field := rapid.IntRange(0, 3).Draw(rt, "field")

		cfg := DefaultConfig()
		switch field {
		case 0:
			cfg.Extraction.MatchThreshold = bad
		case 1:
			cfg.Orphans.Accept = bad
		case 2:
			cfg.Orphans.CatchAllThreshold = bad
		case 3:
			cfg.Contradictions.AutoResolveThreshold = bad
		}
		if err := cm.ValidateConfig(cfg); err == nil {
			rt.Fatalf("expected error for threshold %g in field %d", bad, field)
		}
	})
}
