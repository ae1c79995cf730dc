package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IDGenerator hands out unique, sequential identifiers.
type IDGenerator interface {
	Next() (string, error)
}

// fileIDGenerator persists its counter in a dot-file under basePath.
type fileIDGenerator struct {
	basePath    string
	counterName string
	prefix      string
	padWidth    int
}

// NewIDGenerator creates an IDGenerator whose counter lives in
// basePath/counterName. padWidth controls the zero-padding of the numeric
// part; 0 disables padding (e.g. TASK-1).
func NewIDGenerator(basePath, counterName, prefix string, padWidth int) IDGenerator {
	return &fileIDGenerator{
		basePath:    basePath,
		counterName: counterName,
		prefix:      prefix,
		padWidth:    padWidth,
	}
}

// NewSessionIDGenerator returns the generator for SESS-00001 style ids.
func NewSessionIDGenerator(basePath string) IDGenerator {
	return NewIDGenerator(basePath, ".session_counter", "SESS", 5)
}

// Next reads the counter under an exclusive lock, increments it, writes it
// back and returns the formatted id. A missing counter starts at 1.
func (g *fileIDGenerator) Next() (string, error) {
	if err := os.MkdirAll(g.basePath, 0o750); err != nil {
		return "", fmt.Errorf("creating base path for id counter: %w", err)
	}

	counterPath := filepath.Join(g.basePath, g.counterName)
	unlock, err := lockFile(counterPath + ".lock")
	if err != nil {
		return "", err
	}
	defer func() { _ = unlock() }()

	counter := 0
	data, err := os.ReadFile(counterPath)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("reading id counter file: %w", err)
	}
	if err == nil {
		trimmed := strings.TrimSpace(string(data))
		if trimmed != "" {
			counter, err = strconv.Atoi(trimmed)
			if err != nil {
				return "", fmt.Errorf("parsing id counter %q: %w", trimmed, err)
			}
		}
	}

	counter++

	if err := os.WriteFile(counterPath, []byte(strconv.Itoa(counter)), 0o600); err != nil {
		return "", fmt.Errorf("writing id counter file: %w", err)
	}

	if g.padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", g.prefix, g.padWidth, counter), nil
	}
	return fmt.Sprintf("%s-%d", g.prefix, counter), nil
}
