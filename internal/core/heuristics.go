package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	detectionTTL     = 30 * time.Minute
	detectionCleanup = 10 * time.Minute
)

// Heuristics carries the debug logger and the detection cache shared by
// the pattern-based analyses. Heuristic functions never fail: a panic inside
// one is recovered, logged at debug level and replaced with its fallback.
type Heuristics struct {
	log   *zap.Logger
	cache *gocache.Cache
}

// NewHeuristics creates a Heuristics. A nil logger disables debug output.
func NewHeuristics(log *zap.Logger) *Heuristics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Heuristics{
		log:   log,
		cache: gocache.New(detectionTTL, detectionCleanup),
	}
}

// Logger returns the debug logger.
func (h *Heuristics) Logger() *zap.Logger {
	if h == nil || h.log == nil {
		return zap.NewNop()
	}
	return h.log
}

// SetLogger replaces the debug logger. A nil logger disables debug output.
func (h *Heuristics) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	h.log = log
}

// cacheKey builds a stable key from the analysis kind and its input.
func cacheKey(kind, input string) string {
	sum := sha256.Sum256([]byte(input))
	return kind + ":" + hex.EncodeToString(sum[:])
}

// guard runs fn and returns fallback if it panics.
func guard[T any](h *Heuristics, name string, fallback T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			h.Logger().Debug("heuristic failed, using fallback",
				zap.String("heuristic", name),
				zap.String("error", fmt.Sprint(r)))
			out = fallback
		}
	}()
	return fn()
}

// memo returns the cached result of kind over input, computing and storing
// it under guard on a miss.
func memo[T any](h *Heuristics, kind, input string, fallback T, fn func() T) T {
	if h == nil {
		h = NewHeuristics(nil)
	}
	key := cacheKey(kind, input)
	if v, ok := h.cache.Get(key); ok {
		if out, ok := v.(T); ok {
			return out
		}
	}
	out := guard(h, kind, fallback, fn)
	h.cache.Set(key, out, gocache.DefaultExpiration)
	return out
}
